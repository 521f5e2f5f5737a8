//go:build linux

package sources

import (
	"context"
	"errors"

	"github.com/godbus/dbus/v5"
)

// platformReadWiFiRSSI asks NetworkManager for the active access point's
// signal strength (0..100) on the first WiFi device it finds, the same
// D-Bus introspection path the capability probe uses to detect WiFi
// presence at all.
func platformReadWiFiRSSI(ctx context.Context) (int, error) {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	nm := conn.Object("org.freedesktop.NetworkManager", dbus.ObjectPath("/org/freedesktop/NetworkManager"))
	var devicePaths []dbus.ObjectPath
	if call := nm.CallWithContext(ctx, "org.freedesktop.NetworkManager.GetDevices", 0); call.Err != nil {
		return 0, call.Err
	} else if err := call.Store(&devicePaths); err != nil {
		return 0, err
	}

	for _, path := range devicePaths {
		dev := conn.Object("org.freedesktop.NetworkManager", path)
		typeVariant, err := dev.GetProperty("org.freedesktop.NetworkManager.Device.DeviceType")
		if err != nil {
			continue
		}
		deviceType, ok := typeVariant.Value().(uint32)
		if !ok || deviceType != 2 { // NM_DEVICE_TYPE_WIFI
			continue
		}

		apVariant, err := dev.GetProperty("org.freedesktop.NetworkManager.Device.Wireless.ActiveAccessPoint")
		if err != nil {
			continue
		}
		apPath, ok := apVariant.Value().(dbus.ObjectPath)
		if !ok || apPath == "/" {
			continue
		}

		ap := conn.Object("org.freedesktop.NetworkManager", apPath)
		strengthVariant, err := ap.GetProperty("org.freedesktop.NetworkManager.AccessPoint.Strength")
		if err != nil {
			continue
		}
		if strength, ok := strengthVariant.Value().(uint8); ok {
			return int(strength), nil
		}
	}
	return 0, errors.New("no active wifi access point")
}

// platformScanBluetoothRSSI reads the RSSI property off every BlueZ
// device object currently known to the system bus.
func platformScanBluetoothRSSI(ctx context.Context) ([]int, error) {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var managedObjects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	call := conn.Object("org.bluez", dbus.ObjectPath("/")).
		CallWithContext(ctx, "org.freedesktop.DBus.ObjectManager.GetManagedObjects", 0)
	if call.Err != nil {
		return nil, call.Err
	}
	if err := call.Store(&managedObjects); err != nil {
		return nil, err
	}

	var readings []int
	for _, ifaces := range managedObjects {
		props, ok := ifaces["org.bluez.Device1"]
		if !ok {
			continue
		}
		rssiVariant, ok := props["RSSI"]
		if !ok {
			continue
		}
		if rssi, ok := rssiVariant.Value().(int16); ok {
			readings = append(readings, int(rssi))
		}
	}
	if len(readings) == 0 {
		return nil, errors.New("no bluetooth devices with RSSI reported")
	}
	return readings, nil
}
