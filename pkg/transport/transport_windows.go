//go:build windows

package transport

import (
	"context"
	"net"
	"strings"

	"github.com/Microsoft/go-winio"
)

const pipePrefix = `\\.\pipe\`

// pipeName accepts either a bare name ("granville") or a full pipe path.
func pipeName(addr string) string {
	if strings.HasPrefix(addr, pipePrefix) {
		return addr
	}
	return pipePrefix + addr
}

func listen(addr string) (net.Listener, error) {
	return winio.ListenPipe(pipeName(addr), nil)
}

func dial(addr string) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DialTimeout)
	defer cancel()
	return winio.DialPipeContext(ctx, pipeName(addr))
}
