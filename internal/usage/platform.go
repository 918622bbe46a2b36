package usage

import "strings"

// Platform is the meeting provider a bot joined.
type Platform string

const (
	GoogleMeet Platform = "googleMeet"
	Zoom       Platform = "zoom"
	Teams      Platform = "teams"
	Unknown    Platform = "unknown"
)

// ClassifyPlatform matches a meeting URL against the known provider hosts.
func ClassifyPlatform(url string) Platform {
	switch {
	case strings.Contains(url, "zoom.us"):
		return Zoom
	case strings.Contains(url, "teams.microsoft.com"), strings.Contains(url, "teams.live.com"):
		return Teams
	case strings.Contains(url, "meet.google.com"):
		return GoogleMeet
	default:
		return Unknown
	}
}
