//go:build linux

package sources

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// counterSnapshot reads every numeric field out of /proc/stat, which
// advances dozens of independent counters (interrupts, context
// switches, per-CPU ticks) at rates no single observer controls.
func counterSnapshot() map[string]int64 {
	return parseNumericFields("/proc/stat")
}

// vmStatSnapshot reads /proc/vmstat, fixed to the page-fault and swap
// counters the VM statistics source targets.
func vmStatSnapshot() map[string]int64 {
	all := parseNumericFields("/proc/vmstat")
	out := make(map[string]int64, 8)
	for _, key := range []string{"pgfault", "pgmajfault", "pswpin", "pswpout", "pgpgin", "pgpgout"} {
		if v, ok := all[key]; ok {
			out[key] = v
		}
	}
	return out
}

// parseNumericFields parses a "key v1 v2 ..." or "key: v1 v2" style
// /proc text file into one map entry per numeric token, keyed by
// "line-label/index" so repeated numeric columns on one line don't
// collide.
func parseNumericFields(path string) map[string]int64 {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	out := make(map[string]int64)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		label := strings.TrimSuffix(fields[0], ":")
		for i, tok := range fields[1:] {
			v, err := strconv.ParseInt(tok, 10, 64)
			if err != nil {
				continue
			}
			key := label
			if i > 0 {
				key = label + "/" + strconv.Itoa(i)
			}
			out[key] = v
		}
	}
	return out
}
