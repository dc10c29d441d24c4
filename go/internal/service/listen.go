package service

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
)

// Listen binds a unix stream socket at addr. Names starting with '@' are in the
// Linux abstract namespace and leave nothing on disk. Filesystem sockets have
// any stale file removed first and are restricted to the owner.
func Listen(addr string) (net.Listener, error) {
	if addr == "" {
		return nil, errors.New("listen: empty socket address")
	}
	if isAbstract(addr) {
		ln, err := net.Listen("unix", addr)
		if err != nil {
			return nil, fmt.Errorf("listen on %s: %w", addr, err)
		}
		return ln, nil
	}

	if err := os.MkdirAll(filepath.Dir(addr), 0o700); err != nil {
		return nil, fmt.Errorf("create socket dir: %w", err)
	}
	if err := os.Remove(addr); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}
	ln, err := net.Listen("unix", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	if err := os.Chmod(addr, 0o600); err != nil {
		ln.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}
	return ln, nil
}

func isAbstract(addr string) bool {
	return strings.HasPrefix(addr, "@")
}
