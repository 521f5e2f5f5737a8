//go:build windows

package capability

import (
	"context"
	"os"

	"golang.org/x/sys/windows"
)

func platformChecks() []probeFunc {
	return []probeFunc{
		{TokenMicrophone, func(context.Context) bool { return false }},
		{TokenCamera, func(context.Context) bool { return false }},
		{TokenBluetooth, func(context.Context) bool { return false }},
		{TokenWiFi, func(context.Context) bool { return false }},
		{TokenMotion, func(context.Context) bool { return false }},
		{TokenAmbient, func(context.Context) bool { return false }},
		{TokenBattery, hasBattery},
		{TokenTrackpad, func(context.Context) bool { return false }},
		{TokenPrivileged, isElevated},
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

func hasBattery(context.Context) bool {
	var status windows.SystemPowerStatus
	if err := windows.GetSystemPowerStatus(&status); err != nil {
		return false
	}
	// BatteryFlag 128 means "no system battery".
	return status.BatteryFlag != 128 && status.BatteryFlag != 255
}

func isElevated(context.Context) bool {
	token := windows.GetCurrentProcessToken()
	return token.IsElevated()
}

func chipModel(context.Context) (chip, model string) {
	return "", ""
}
