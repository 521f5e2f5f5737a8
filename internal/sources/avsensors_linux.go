//go:build linux

package sources

import (
	"os"
	"strings"
)

func defaultAudioDevicePath() string {
	if _, err := os.Stat("/dev/snd"); err != nil {
		return ""
	}
	entries, err := os.ReadDir("/dev/snd")
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "pcmC") {
			return "/dev/snd/" + e.Name()
		}
	}
	return ""
}

func defaultCameraDevicePath() string {
	for _, p := range []string{"/dev/video0", "/dev/video1"} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
