package model

import "strings"

const (
	DirectionLong  = "long"
	DirectionShort = "short"
	DirectionNet   = "net"
)

const (
	OffsetNone           = ""
	OffsetOpen           = "open"
	OffsetClose          = "close"
	OffsetCloseToday     = "closetoday"
	OffsetCloseYesterday = "closeyesterday"
)

// LegacyDirections maps the enum values written by the original vnpy engine
// to the canonical direction names.
var LegacyDirections = map[string]string{
	"多": DirectionLong,
	"空": DirectionShort,
	"净": DirectionNet,
}

// LegacyOffsets maps vnpy offset values to canonical offset names.
var LegacyOffsets = map[string]string{
	"开":  OffsetOpen,
	"平":  OffsetClose,
	"平今": OffsetCloseToday,
	"平昨": OffsetCloseYesterday,
}

// NormalizeDirection accepts canonical, upper-case and legacy vnpy values.
func NormalizeDirection(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if d, ok := LegacyDirections[v]; ok {
		return d, true
	}
	switch strings.ToLower(v) {
	case DirectionLong, "buy":
		return DirectionLong, true
	case DirectionShort, "sell":
		return DirectionShort, true
	case DirectionNet:
		return DirectionNet, true
	}
	return "", false
}

// NormalizeOffset accepts canonical, upper-case and legacy vnpy values. An
// empty value is valid and means the gateway does not report offsets.
func NormalizeOffset(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if o, ok := LegacyOffsets[v]; ok {
		return o, true
	}
	switch strings.ToLower(v) {
	case OffsetNone, "none":
		return OffsetNone, true
	case OffsetOpen:
		return OffsetOpen, true
	case OffsetClose:
		return OffsetClose, true
	case OffsetCloseToday, "close_today":
		return OffsetCloseToday, true
	case OffsetCloseYesterday, "close_yesterday":
		return OffsetCloseYesterday, true
	}
	return "", false
}
