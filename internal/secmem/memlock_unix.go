//go:build linux || darwin

package secmem

import (
	"math"

	"golang.org/x/sys/unix"
)

// lockLimit returns how many bytes the process may lock, or -1 when unbounded
func lockLimit() int64 {
	// root holds CAP_IPC_LOCK and is not bound by RLIMIT_MEMLOCK
	if unix.Geteuid() == 0 {
		return -1
	}

	var rl unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_MEMLOCK, &rl); err != nil {
		return -1
	}
	if rl.Cur >= uint64(math.MaxInt64) {
		return -1
	}
	return int64(rl.Cur)
}
