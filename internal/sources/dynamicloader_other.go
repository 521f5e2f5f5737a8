//go:build !linux

package sources

import (
	"os"
	"runtime"
)

// wellKnownLibraryPaths returns platform-appropriate shared library
// paths to time repeated opens against.
func wellKnownLibraryPaths() []string {
	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = []string{
			"/usr/lib/libSystem.B.dylib",
			"/usr/lib/libobjc.A.dylib",
		}
	case "windows":
		candidates = []string{
			`C:\Windows\System32\kernel32.dll`,
			`C:\Windows\System32\ntdll.dll`,
		}
	}
	var out []string
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			out = append(out, c)
		}
	}
	return out
}
