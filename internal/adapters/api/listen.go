package api

import (
	"context"
	"net"
	"syscall"
)

// NewListener opens the service TCP listener with SO_REUSEPORT set where
// the platform supports it, so multiple horad processes can share the same
// address behind the kernel's load balancing.
func NewListener(addr string) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			if err := c.Control(func(fd uintptr) {
				sockErr = setReusePort(fd)
			}); err != nil {
				return err
			}
			return sockErr
		},
	}
	return lc.Listen(context.Background(), "tcp", addr)
}
