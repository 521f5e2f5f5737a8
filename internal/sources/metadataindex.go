package sources

import (
	"context"
	"os/exec"
	"runtime"
	"time"

	"entropic/internal/pool"
)

// MetadataIndexSource queries the OS metadata index (mdfind on darwin,
// locate on linux) for arbitrary path fragments and emits delta LSBs of
// query latency. Availability requires the underlying index tool to
// exist on PATH; indexes that are empty or disabled still answer
// quickly, which is a valid (if low-entropy) timing sample.
type MetadataIndexSource struct {
	tool string
	args func(query string) []string
}

func NewMetadataIndexSource() *MetadataIndexSource {
	switch runtime.GOOS {
	case "darwin":
		return &MetadataIndexSource{tool: "mdfind", args: func(q string) []string { return []string{"-onlyin", "/", q} }}
	case "linux":
		return &MetadataIndexSource{tool: "locate", args: func(q string) []string { return []string{"-l", "1", q} }}
	default:
		return &MetadataIndexSource{}
	}
}

func (s *MetadataIndexSource) Name() string { return "metadata_index_timing" }

func (s *MetadataIndexSource) Available() bool {
	if s.tool == "" {
		return false
	}
	_, err := exec.LookPath(s.tool)
	return err == nil
}

func (s *MetadataIndexSource) Sample(ctx context.Context, n int) ([]byte, error) {
	if !s.Available() {
		return []byte{}, nil
	}
	queries := []string{"entropy", "config", "cache", "temp"}
	out := make([]byte, 0, n)
	i := 0
	for len(out) < n && !ctxDone(ctx) {
		q := queries[i%len(queries)]
		i++

		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		start := time.Now()
		cmd := exec.CommandContext(cctx, s.tool, s.args(q)...)
		_ = cmd.Run()
		elapsed := time.Since(start)
		cancel()
		out = append(out, lsb(elapsed.Nanoseconds()))
	}
	return clampOvershoot(out, n), nil
}

func (s *MetadataIndexSource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, 32)
	return err
}

func init() {
	pool.Register(pool.Factory{Name: "metadata_index_timing", Category: string(CategoryNovel), New: func() pool.Source { return NewMetadataIndexSource() }})
}
