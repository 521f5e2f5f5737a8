package sources

import (
	"context"
	"time"

	"entropic/internal/capability"
	"entropic/internal/pool"
)

// WiFiRSSISource polls signal-strength readings from the available
// radio and emits LSBs of raw RSSI and successive deltas. When no radio
// API answers, it falls back to query-call timing LSBs.
type WiFiRSSISource struct {
	// readRSSI is platform-specific; nil means no access path exists.
	readRSSI func(ctx context.Context) (int, error)
}

func NewWiFiRSSISource() *WiFiRSSISource {
	return &WiFiRSSISource{readRSSI: platformReadWiFiRSSI}
}

func (s *WiFiRSSISource) Name() string { return "wifi_rssi" }

func (s *WiFiRSSISource) Available() bool {
	if s.readRSSI == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := s.readRSSI(ctx)
	return err == nil
}

func (s *WiFiRSSISource) Sample(ctx context.Context, n int) ([]byte, error) {
	if s.readRSSI == nil {
		return capabilityGatedQueryTiming(ctx, n, func() error { return nil }), nil
	}

	out := make([]byte, 0, n)
	var prev int
	havePrev := false
	failures := 0
	for len(out) < n && !ctxDone(ctx) {
		rssi, err := s.readRSSI(ctx)
		if err != nil {
			failures++
			if failures > 5 {
				break
			}
			continue
		}
		out = append(out, lsb(int64(rssi)))
		if havePrev {
			out = append(out, lsb(int64(rssi-prev)))
		}
		prev = rssi
		havePrev = true
	}
	if len(out) == 0 {
		return capabilityGatedQueryTiming(ctx, n, func() error {
			_, err := s.readRSSI(ctx)
			return err
		}), nil
	}
	return clampOvershoot(out, n), nil
}

func (s *WiFiRSSISource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, 64)
	return err
}

// BluetoothBLESource polls nearby BLE device signal strength where the
// platform exposes it, falling back to query-call timing otherwise.
type BluetoothBLESource struct {
	scan func(ctx context.Context) ([]int, error)
}

func NewBluetoothBLESource() *BluetoothBLESource {
	return &BluetoothBLESource{scan: platformScanBluetoothRSSI}
}

func (s *BluetoothBLESource) Name() string { return "bluetooth_ble" }

func (s *BluetoothBLESource) Available() bool {
	if s.scan == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := s.scan(ctx)
	return err == nil
}

func (s *BluetoothBLESource) Sample(ctx context.Context, n int) ([]byte, error) {
	if s.scan == nil {
		return capabilityGatedQueryTiming(ctx, n, func() error { return nil }), nil
	}

	out := make([]byte, 0, n)
	failures := 0
	for len(out) < n && !ctxDone(ctx) {
		readings, err := s.scan(ctx)
		if err != nil || len(readings) == 0 {
			failures++
			if failures > 5 {
				break
			}
			continue
		}
		for _, r := range readings {
			out = append(out, lsb(int64(r)))
			if len(out) >= n {
				break
			}
		}
	}
	if len(out) == 0 {
		return capabilityGatedQueryTiming(ctx, n, func() error {
			_, err := s.scan(ctx)
			return err
		}), nil
	}
	return clampOvershoot(out, n), nil
}

func (s *BluetoothBLESource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, 64)
	return err
}

func init() {
	pool.Register(pool.Factory{
		Name:                 "wifi_rssi",
		Category:             string(CategoryNetwork),
		PlatformRequirements: []string{capability.TokenWiFi},
		New:                  func() pool.Source { return NewWiFiRSSISource() },
	})
	pool.Register(pool.Factory{
		Name:                 "bluetooth_ble",
		Category:             string(CategoryNetwork),
		PlatformRequirements: []string{capability.TokenBluetooth},
		New:                  func() pool.Source { return NewBluetoothBLESource() },
	})
}
