//go:build windows

package sources

import (
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

func platformMapTouchUnmapAvailable() bool { return true }

// platformMapTouchUnmap reserves and commits one page via VirtualAlloc,
// touches it, and releases it via VirtualFree, mirroring the Unix
// mmap/touch/munmap cycle.
func platformMapTouchUnmap() (time.Duration, error) {
	const pageSize = 4096
	start := time.Now()

	addr, err := windows.VirtualAlloc(0, pageSize, windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return 0, err
	}
	buf := (*[pageSize]byte)(unsafe.Pointer(addr))
	buf[0] = 1
	buf[pageSize-1] = 1
	if err := windows.VirtualFree(addr, 0, windows.MEM_RELEASE); err != nil {
		return 0, err
	}

	return time.Since(start), nil
}
