// Package capability produces a small immutable record of host facts used
// to filter the entropy-source registry: operating system, chip model,
// and the presence of microphones, cameras, radios, and other sensors a
// source might depend on.
package capability

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// Budget is the total wall-clock time Probe is allowed to spend across
// every individual check.
const Budget = 5 * time.Second

// Capabilities is an immutable snapshot of host facts. Zero value is the
// all-false, unprivileged, generic-machine snapshot.
type Capabilities struct {
	OS      string
	Machine string
	Chip    string
	Model   string

	HasMicrophone       bool
	HasCamera           bool
	HasBluetooth        bool
	HasWiFi             bool
	HasMotionSensors    bool
	HasAmbientLight     bool
	HasBattery          bool
	HasTrackpad         bool
	HasPrivilegedAccess bool
	HasSmartCLI         bool
}

// Token names recognized in an EntropySource's platform requirements.
// These are the vocabulary the registry matches against Capabilities.Has.
const (
	TokenDarwin       = "os:darwin"
	TokenLinux        = "os:linux"
	TokenWindows      = "os:windows"
	TokenMicrophone   = "microphone"
	TokenCamera       = "camera"
	TokenBluetooth    = "bluetooth"
	TokenWiFi         = "wifi"
	TokenMotion       = "motion_sensors"
	TokenAmbient      = "ambient_light"
	TokenBattery      = "battery"
	TokenTrackpad     = "trackpad"
	TokenMagnetometer = "magnetometer"
	TokenPrivileged   = "privileged"
	TokenSmartCLI     = "smart_cli"

	// Supplementary, non-spec tokens used internally to gate
	// architecture-specific sources (e.g. the RDRAND/RDSEED silicon
	// source on amd64).
	TokenAMD64 = "arch:amd64"
	TokenARM64 = "arch:arm64"
)

// Has reports whether the snapshot satisfies the named capability token.
// Unknown tokens are treated as unsatisfied rather than an error, matching
// the probe's "never an error up the stack" contract.
func (c *Capabilities) Has(token string) bool {
	switch token {
	case TokenDarwin:
		return c.OS == "darwin"
	case TokenLinux:
		return c.OS == "linux"
	case TokenWindows:
		return c.OS == "windows"
	case TokenAMD64:
		return c.Machine == "amd64"
	case TokenARM64:
		return c.Machine == "arm64"
	case TokenMicrophone:
		return c.HasMicrophone
	case TokenCamera:
		return c.HasCamera
	case TokenBluetooth:
		return c.HasBluetooth
	case TokenWiFi:
		return c.HasWiFi
	case TokenMotion:
		return c.HasMotionSensors
	case TokenAmbient:
		return c.HasAmbientLight
	case TokenBattery:
		return c.HasBattery
	case TokenTrackpad:
		return c.HasTrackpad
	case TokenMagnetometer:
		// Folded into the motion-sensor probe: on every platform this
		// engine targets, a magnetometer is reported alongside the IMU.
		return c.HasMotionSensors
	case TokenPrivileged:
		return c.HasPrivilegedAccess
	case TokenSmartCLI:
		return c.HasSmartCLI
	default:
		return false
	}
}

// HasAll reports whether every token in requirements is satisfied.
func (c *Capabilities) HasAll(requirements []string) bool {
	for _, tok := range requirements {
		if !c.Has(tok) {
			return false
		}
	}
	return true
}

// probeFunc is one individual, independently-timed capability check.
type probeFunc struct {
	name string
	run  func(context.Context) bool
}

// Probe runs every registered check concurrently under a shared deadline
// and returns the resulting snapshot. No individual check failure (error,
// panic, or timeout) can fail the overall probe; it simply yields false
// for that field.
func Probe(ctx context.Context) *Capabilities {
	ctx, cancel := context.WithTimeout(ctx, Budget)
	defer cancel()

	caps := &Capabilities{
		OS:      runtime.GOOS,
		Machine: runtime.GOARCH,
	}

	checks := platformChecks()

	results := make([]bool, len(checks))
	var wg sync.WaitGroup
	for i, c := range checks {
		wg.Add(1)
		go func(i int, c probeFunc) {
			defer wg.Done()
			results[i] = safeRun(ctx, c.run)
		}(i, c)
	}
	wg.Wait()

	for i, c := range checks {
		applyResult(caps, c.name, results[i])
	}

	caps.Chip, caps.Model = chipModel(ctx)

	return caps
}

// safeRun recovers from panics in individual checks and respects the
// shared deadline: if ctx is already done when the check would run, it
// is treated as unavailable rather than blocking further.
func safeRun(ctx context.Context, fn func(context.Context) bool) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case <-ctx.Done():
		return false
	default:
	}
	return fn(ctx)
}

func applyResult(caps *Capabilities, name string, ok bool) {
	switch name {
	case TokenMicrophone:
		caps.HasMicrophone = ok
	case TokenCamera:
		caps.HasCamera = ok
	case TokenBluetooth:
		caps.HasBluetooth = ok
	case TokenWiFi:
		caps.HasWiFi = ok
	case TokenMotion:
		caps.HasMotionSensors = ok
	case TokenAmbient:
		caps.HasAmbientLight = ok
	case TokenBattery:
		caps.HasBattery = ok
	case TokenTrackpad:
		caps.HasTrackpad = ok
	case TokenPrivileged:
		caps.HasPrivilegedAccess = ok
	case TokenSmartCLI:
		caps.HasSmartCLI = ok
	}
}
