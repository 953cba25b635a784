// Command granville runs the local inference kernel: it loads one or more
// models behind a backend driver, accepts text-generation tasks over a
// local IPC endpoint, classifies them for urgency, and returns results
// asynchronously to each submitter's callback endpoint.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"granville/pkg/config"
	"granville/pkg/logger"

	flag "github.com/spf13/pflag"
)

// Version is the granville release version.
const Version = "0.2.0"

const usage = `granville - local inference kernel

USAGE:
  granville serve <model-spec>... [flags]
  granville version
  granville help

MODEL SPEC:
  path | type:path | type:id:path
  type is one of inference, stt, tts, embedding; id is a positive integer.

SERVE FLAGS:
  -s, --socket PATH     IPC endpoint (default /tmp/granville.sock)
  -q, --queue-size N    ranked queue capacity (default 1000)
  -w, --workers N       worker count (default min(num models, 8))
  -d, --driver NAME     backend driver name or plugin path (default echo)
  -p, --port N          HTTP status endpoint port (disabled when absent)
  -c, --config PATH     YAML configuration file
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "version", "--version":
		fmt.Printf("granville %s\n", Version)
	case "help", "--help", "-h":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
}

func runServe(args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	socket := flags.StringP("socket", "s", "", "IPC endpoint path")
	queueSize := flags.IntP("queue-size", "q", 0, "ranked queue capacity")
	workers := flags.IntP("workers", "w", 0, "worker count")
	driver := flags.StringP("driver", "d", "", "backend driver")
	port := flags.IntP("port", "p", 0, "status endpoint port")
	configPath := flags.StringP("config", "c", "", "configuration file")
	if err := flags.Parse(args); err != nil {
		os.Exit(2)
	}

	specs := flags.Args()
	if len(specs) == 0 {
		fmt.Fprintln(os.Stderr, "serve: at least one model spec is required")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	// Flags override the config file.
	if *socket != "" {
		cfg.Server.Socket = *socket
	}
	if *queueSize > 0 {
		cfg.Server.QueueSize = *queueSize
	}
	if *workers > 0 {
		cfg.Server.Workers = *workers
	}
	if *driver != "" {
		cfg.Server.Driver = *driver
	}
	if *port > 0 {
		cfg.Server.StatusPort = *port
	}

	app := NewApplication(cfg, specs)

	if err := app.Initialize(); err != nil {
		logger.Errorf("startup failed: %v", err)
		app.Teardown()
		os.Exit(1)
	}

	app.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Infof("received signal %v, shutting down", sig)

	if err := app.Shutdown(30 * time.Second); err != nil {
		logger.Errorf("shutdown failed: %v", err)
		os.Exit(1)
	}
	logger.Sync()
}
