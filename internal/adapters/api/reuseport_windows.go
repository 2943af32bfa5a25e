//go:build windows

package api

// SO_REUSEPORT does not exist on Windows; the listener falls back to the
// default socket options.
func setReusePort(fd uintptr) error {
	return nil
}
