//go:build !linux && !darwin && !windows

package sources

import "time"

func platformMapTouchUnmapAvailable() bool { return false }

func platformMapTouchUnmap() (time.Duration, error) {
	return 0, errUnsupportedPlatform
}
