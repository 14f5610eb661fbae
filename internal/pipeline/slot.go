package pipeline

import "time"

const defaultTimezone = "Asia/Shanghai"

// Slot names the digest edition for a local hour: morning 07-11, noon 12-18,
// evening 19-22, final otherwise.
func Slot(local time.Time) (digestType, timeLabel string) {
	switch h := local.Hour(); {
	case h >= 7 && h <= 11:
		return "morning", "Morning Digest"
	case h >= 12 && h <= 18:
		return "noon", "Noon Digest"
	case h >= 19 && h <= 22:
		return "evening", "Evening Digest"
	default:
		return "final", "Final Digest"
	}
}

// LoadLocation resolves a timezone name, falling back to a fixed UTC+8 zone
// when the name is empty or unknown to the host.
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = defaultTimezone
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	return time.FixedZone("CST", 8*60*60)
}
