// Package transport provides the local IPC channel used for submissions and
// callback delivery: a unix domain stream socket on POSIX systems and a named
// pipe on Windows. Both sides carry one envelope per connection.
package transport

import (
	"net"
	"time"
)

// DialTimeout bounds outbound callback connects.
const DialTimeout = 5 * time.Second

// Listen binds the inbound endpoint at addr.
func Listen(addr string) (net.Listener, error) {
	return listen(addr)
}

// Dial opens an outbound connection to a submitter-supplied endpoint.
func Dial(addr string) (net.Conn, error) {
	return dial(addr)
}
