package sources

import (
	"context"
	"os"
	"path/filepath"
	"plugin"
	"runtime"
	"time"

	"entropic/internal/pool"
)

// DynamicLoaderSource times successive loads of well-known shared
// libraries and emits delta LSBs. On Linux a candidate whose name ends in
// ".so" is loaded with plugin.Open. Every other candidate is timed as a
// plain file open and close, not a loader call; this includes every path
// wellKnownLibraryPaths returns, whose names end in a version suffix
// (libc.so.6) or are non-Linux libraries.
type DynamicLoaderSource struct {
	candidates []string
}

func NewDynamicLoaderSource() *DynamicLoaderSource {
	return &DynamicLoaderSource{candidates: wellKnownLibraryPaths()}
}

func (s *DynamicLoaderSource) Name() string { return "dynamic_loader_timing" }

func (s *DynamicLoaderSource) Available() bool {
	return len(s.candidates) > 0
}

func (s *DynamicLoaderSource) Sample(ctx context.Context, n int) ([]byte, error) {
	if len(s.candidates) == 0 {
		return []byte{}, nil
	}
	out := make([]byte, 0, n)
	i := 0
	for len(out) < n && !ctxDone(ctx) {
		path := s.candidates[i%len(s.candidates)]
		i++

		var d time.Duration
		if runtime.GOOS == "linux" && filepath.Ext(path) == ".so" {
			d = timeIt(func() { _, _ = plugin.Open(path) })
		} else {
			d = timeIt(func() {
				if f, err := os.Open(path); err == nil {
					f.Close()
				}
			})
		}
		out = append(out, lsb(d.Nanoseconds()))
	}
	return clampOvershoot(out, n), nil
}

func (s *DynamicLoaderSource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, 128)
	return err
}

func init() {
	pool.Register(pool.Factory{Name: "dynamic_loader_timing", Category: string(CategoryNovel), New: func() pool.Source { return NewDynamicLoaderSource() }})
}
