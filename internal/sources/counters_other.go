//go:build !linux

package sources

import "runtime"

// counterSnapshot falls back to Go runtime counters on platforms
// without a /proc-style interface. These still advance at rates driven
// by scheduler and GC behavior outside this process's control, which is
// enough jitter for the kernel-counter-delta source's purpose even
// though it is a weaker source of independent counters than /proc/stat.
func counterSnapshot() map[string]int64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return map[string]int64{
		"num_gc":         int64(m.NumGC),
		"num_goroutine":  int64(runtime.NumGoroutine()),
		"total_alloc":    int64(m.TotalAlloc),
		"mallocs":        int64(m.Mallocs),
		"frees":          int64(m.Frees),
		"pause_total_ns": int64(m.PauseTotalNs),
	}
}

// vmStatSnapshot has no portable equivalent outside /proc; it reuses
// the allocation counters above, which move with page-fault-adjacent
// activity (heap growth) even if not a literal page-fault count.
func vmStatSnapshot() map[string]int64 {
	return counterSnapshot()
}
