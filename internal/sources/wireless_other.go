//go:build !linux

package sources

import "context"

// platformReadWiFiRSSI has no portable implementation outside the Linux
// D-Bus path; nil signals WiFiRSSISource to degrade straight to its
// query-timing fallback.
var platformReadWiFiRSSI func(ctx context.Context) (int, error)

// platformScanBluetoothRSSI mirrors platformReadWiFiRSSI's absence.
var platformScanBluetoothRSSI func(ctx context.Context) ([]int, error)
