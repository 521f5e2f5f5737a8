// Command entropyd is a minimal demonstration binary for the entropy
// engine: it opens an Engine against every registered source the host
// satisfies, emits a block of random bytes, and prints a health report.
//
// It exists to exercise pkg/entropy end to end; the CLI surface,
// long-running daemon behavior, and any network or pipe sink are built
// on top of this package elsewhere, not here.
package main

import (
	"encoding/hex"
	"os"

	"entropic/internal/logging"
	"entropic/pkg/entropy"
)

const demoBytes = 32

func main() {
	log := logging.Default().WithComponent("entropyd")

	eng, err := entropy.Open(nil)
	if err != nil {
		log.Error("failed to open entropy engine", "error", err)
		os.Exit(1)
	}
	defer eng.Close()

	caps := eng.Capabilities()
	log.Info("capability probe complete", "os", caps.OS, "machine", caps.Machine)

	data, err := eng.RandomBytes(demoBytes)
	if err != nil {
		log.Error("failed to draw random bytes", "error", err)
		os.Exit(1)
	}
	log.Info("drew random bytes", "hex", hex.EncodeToString(data))

	report := eng.HealthReport()
	log.Info("pool health", "healthy", report.Healthy, "total", report.Total,
		"raw_bytes", report.TotalRaw, "emitted_bytes", report.TotalOutput)
	os.Stdout.WriteString(report.String())

	summary, err := eng.RunBattery(16384)
	if err != nil {
		log.Error("statistical battery failed", "error", err)
		os.Exit(1)
	}
	log.Info("battery complete", "score", summary.Score, "passed", summary.Passed, "failed", summary.Failed)

	quality, err := eng.QualityReport(4096, "entropyd-demo")
	if err != nil {
		log.Error("quality report failed", "error", err)
		os.Exit(1)
	}
	log.Info("quality report", "grade", quality.Grade, "score", quality.QualityScore,
		"shannon", quality.ShannonEntropy, "min_entropy", quality.MinEntropy)
}
