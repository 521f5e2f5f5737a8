//go:build darwin

package capability

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

func platformChecks() []probeFunc {
	return []probeFunc{
		{TokenMicrophone, sysctlPresent("hw.physicalcpu")}, // built-in on virtually every Mac; gated by sysctl reachability
		{TokenCamera, ioregContains("AppleCameraInterface")},
		{TokenBluetooth, ioregContains("AppleBluetoothHCIControllerUSBTransport")},
		{TokenWiFi, ioregContains("AirPort")},
		{TokenMotion, func(context.Context) bool { return false }},
		{TokenAmbient, ioregContains("AppleLMUController")},
		{TokenBattery, pmsetHasBattery},
		{TokenTrackpad, ioregContains("AppleMultitouchDevice")},
		{TokenPrivileged, func(context.Context) bool { return os.Geteuid() == 0 }},
		{TokenSmartCLI, isInteractiveTerminal},
	}
}

func isInteractiveTerminal(context.Context) bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func sysctlPresent(name string) func(context.Context) bool {
	return func(context.Context) bool {
		_, err := unix.SysctlRaw(name)
		return err == nil
	}
}

func ioregContains(needle string) func(context.Context) bool {
	return func(ctx context.Context) bool {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		out, err := exec.CommandContext(ctx, "ioreg", "-l").Output()
		if err != nil {
			return false
		}
		return strings.Contains(string(out), needle)
	}
}

func pmsetHasBattery(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, "pmset", "-g", "batt").Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), "InternalBattery")
}

func chipModel(ctx context.Context) (chip, model string) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if brand, err := unix.Sysctl("machdep.cpu.brand_string"); err == nil && brand != "" {
			chip = brand
			model = brand
			return
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
	case <-time.After(Budget):
	}
	return chip, model
}
