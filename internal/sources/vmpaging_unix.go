//go:build linux || darwin

package sources

import (
	"time"

	"golang.org/x/sys/unix"
)

func platformMapTouchUnmapAvailable() bool { return true }

// platformMapTouchUnmap maps one anonymous page, touches its first and
// last byte, and unmaps it, returning the total duration.
func platformMapTouchUnmap() (time.Duration, error) {
	const pageSize = 4096
	start := time.Now()

	data, err := unix.Mmap(-1, 0, pageSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return 0, err
	}
	data[0] = 1
	data[pageSize-1] = 1
	if err := unix.Munmap(data); err != nil {
		return 0, err
	}

	return time.Since(start), nil
}
