package session

import "strings"

// Coarse device categories for session review display.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
	DeviceUnknown = "unknown"
)

// ClassifyAgent maps a client agent string to a coarse device category.
// Tablet markers are checked before mobile because tablet agents commonly
// contain "Mobile" as well.
func ClassifyAgent(agent string) string {
	if agent == "" {
		return DeviceUnknown
	}
	a := strings.ToLower(agent)
	switch {
	case strings.Contains(a, "ipad") || strings.Contains(a, "tablet"):
		return DeviceTablet
	case strings.Contains(a, "mobile") || strings.Contains(a, "android") || strings.Contains(a, "iphone"):
		return DeviceMobile
	case strings.Contains(a, "windows") || strings.Contains(a, "macintosh") ||
		strings.Contains(a, "linux") || strings.Contains(a, "x11"):
		return DeviceDesktop
	default:
		return DeviceUnknown
	}
}
