//go:build linux

package capability

import (
	"bufio"
	"context"
	"os"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
)

func platformChecks() []probeFunc {
	return []probeFunc{
		{TokenMicrophone, hasDevNode("/dev/snd")},
		{TokenCamera, hasDevNodeGlob("/dev", "video")},
		{TokenBluetooth, probeBluetoothDBus},
		{TokenWiFi, probeWiFiDBus},
		{TokenMotion, hasDevNodeGlob("/sys/bus/iio/devices", "iio:device")},
		{TokenAmbient, hasDevNodeGlob("/sys/bus/iio/devices", "iio:device")},
		{TokenBattery, hasDevNodeGlob("/sys/class/power_supply", "BAT")},
		{TokenTrackpad, hasTrackpad},
		{TokenPrivileged, func(context.Context) bool { return os.Geteuid() == 0 }},
		{TokenSmartCLI, isInteractiveTerminal},
	}
}

func hasDevNode(path string) func(context.Context) bool {
	return func(context.Context) bool {
		info, err := os.Stat(path)
		return err == nil && info != nil
	}
}

func hasDevNodeGlob(dir, prefix string) func(context.Context) bool {
	return func(context.Context) bool {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return false
		}
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), prefix) {
				return true
			}
		}
		return false
	}
}

func hasTrackpad(context.Context) bool {
	f, err := os.Open("/proc/bus/input/devices")
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.ToLower(scanner.Text())
		if strings.Contains(line, "touchpad") || strings.Contains(line, "trackpad") {
			return true
		}
	}
	return false
}

func isInteractiveTerminal(context.Context) bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// probeBluetoothDBus asks BlueZ over the system bus whether any adapter is
// registered, mirroring the D-Bus introspection pattern used for the
// engine's wireless timing sources.
func probeBluetoothDBus(ctx context.Context) bool {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return false
	}
	defer conn.Close()

	var managedObjects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	call := conn.Object("org.bluez", dbus.ObjectPath("/")).
		CallWithContext(ctx, "org.freedesktop.DBus.ObjectManager.GetManagedObjects", 0)
	if call.Err != nil {
		return false
	}
	if err := call.Store(&managedObjects); err != nil {
		return false
	}
	for _, ifaces := range managedObjects {
		if _, ok := ifaces["org.bluez.Adapter1"]; ok {
			return true
		}
	}
	return false
}

// probeWiFiDBus asks NetworkManager over the system bus whether any WiFi
// device is present.
func probeWiFiDBus(ctx context.Context) bool {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return false
	}
	defer conn.Close()

	nm := conn.Object("org.freedesktop.NetworkManager", dbus.ObjectPath("/org/freedesktop/NetworkManager"))
	var devicePaths []dbus.ObjectPath
	call := nm.CallWithContext(ctx, "org.freedesktop.NetworkManager.GetDevices", 0)
	if call.Err != nil {
		return false
	}
	if err := call.Store(&devicePaths); err != nil {
		return false
	}

	for _, path := range devicePaths {
		dev := conn.Object("org.freedesktop.NetworkManager", path)
		variant, err := dev.GetProperty("org.freedesktop.NetworkManager.Device.DeviceType")
		if err != nil {
			continue
		}
		if deviceType, ok := variant.Value().(uint32); ok && deviceType == 2 { // NM_DEVICE_TYPE_WIFI
			return true
		}
	}
	return false
}

func chipModel(ctx context.Context) (chip, model string) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		f, err := os.Open("/proc/cpuinfo")
		if err != nil {
			return
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "model name") {
				parts := strings.SplitN(line, ":", 2)
				if len(parts) == 2 {
					chip = strings.TrimSpace(parts[1])
					model = chip
				}
				return
			}
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
	case <-time.After(Budget):
	}
	return chip, model
}
