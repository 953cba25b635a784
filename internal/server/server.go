// Package server accepts task submissions over the local IPC endpoint.
// Each connection carries one request envelope in and one ack or error
// frame out; results travel on a separate outbound connection to the
// submitter's callback endpoint.
package server

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"granville/internal/queue"
	"granville/pkg/logger"
	"granville/pkg/transport"

	"go.uber.org/zap"
)

// Server owns the inbound listener and feeds the two queues.
type Server struct {
	addr     string
	listener net.Listener
	unranked *queue.Unranked
	ranked   *queue.Ranked

	closed atomic.Bool
	wg     sync.WaitGroup
}

// New creates a server feeding the given queues.
func New(unranked *queue.Unranked, ranked *queue.Ranked) *Server {
	return &Server{unranked: unranked, ranked: ranked}
}

// Listen binds the inbound endpoint. A bind failure is a startup error
// and is returned to the caller.
func (s *Server) Listen(addr string) error {
	l, err := transport.Listen(addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", addr, err)
	}
	s.addr = addr
	s.listener = l
	return nil
}

// Addr returns the bound endpoint address.
func (s *Server) Addr() string { return s.addr }

// Serve runs the accept loop until Close. Per-connection errors never
// tear down the server.
func (s *Server) Serve() {
	logger.Info("listening for submissions", zap.String("addr", s.addr))
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() {
				return
			}
			logger.Warn("accept failed", zap.Error(err))
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// Close stops accepting and waits for in-flight connections.
func (s *Server) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	s.wg.Wait()
	return err
}
