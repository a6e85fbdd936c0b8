package utils

import (
	"time"

	logger "github.com/sirupsen/logrus"
)

// ResetTime truncates t to the granularity specified and converts it to UTC.
// Pass "second" to match a timestamp(0) column.
// Pass "microsecond" to keep everything PostgreSQL can store.
func ResetTime(t time.Time, granularity string) time.Time {
	t = t.UTC()
	switch granularity {
	case "microsecond":
		return t.Truncate(time.Microsecond)
	case "millisecond":
		return t.Truncate(time.Millisecond)
	case "second":
		return t.Truncate(time.Second)
	case "minute":
		return t.Truncate(time.Minute) // Resets seconds to zero
	case "hour":
		return t.Truncate(time.Hour) // Resets minutes and seconds to zero
	default:
		logger.WithField("granularity", granularity).
			Warn("Invalid granularity, keeping microsecond precision")
		return t.Truncate(time.Microsecond)
	}
}
