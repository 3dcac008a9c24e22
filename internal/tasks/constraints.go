package tasks

import (
	"fmt"
	"net"
	"os"
	"syscall"

	"github.com/ampwave/ampwave/internal/shared"
)

// ConstraintFunc reports whether a download may start. dir is the target
// directory and minFree the required free byte count there. A non-nil error
// blocks the attempt; the task retries on its normal backoff schedule.
type ConstraintFunc func(dir string, minFree uint64) error

// DefaultConstraints requires a usable network interface and at least
// minFree bytes available on the filesystem holding dir.
func DefaultConstraints(dir string, minFree uint64) error {
	if !networkAvailable() {
		return shared.ErrNetworkRequired
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}
	var st syscall.Statfs_t
	if err := syscall.Statfs(dir, &st); err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}
	free := uint64(st.Bavail) * uint64(st.Bsize)
	if free < minFree {
		return fmt.Errorf("%w: %d bytes free, %d required", shared.ErrStorageLow, free, minFree)
	}
	return nil
}

// networkAvailable reports whether any non-loopback interface carries an
// address. It cannot prove the server is reachable, only that an attempt is
// not pointless.
func networkAvailable() bool {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return false
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if ok && !ipNet.IP.IsLoopback() {
			return true
		}
	}
	return false
}
