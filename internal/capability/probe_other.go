//go:build !linux && !darwin && !windows

package capability

import "context"

func platformChecks() []probeFunc {
	return []probeFunc{
		{TokenMicrophone, func(context.Context) bool { return false }},
		{TokenCamera, func(context.Context) bool { return false }},
		{TokenBluetooth, func(context.Context) bool { return false }},
		{TokenWiFi, func(context.Context) bool { return false }},
		{TokenMotion, func(context.Context) bool { return false }},
		{TokenAmbient, func(context.Context) bool { return false }},
		{TokenBattery, func(context.Context) bool { return false }},
		{TokenTrackpad, func(context.Context) bool { return false }},
		{TokenPrivileged, func(context.Context) bool { return false }},
		{TokenSmartCLI, func(context.Context) bool { return false }},
	}
}

func chipModel(context.Context) (chip, model string) {
	return "", ""
}
