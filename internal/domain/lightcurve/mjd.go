package lightcurve

import (
	"math"
	"time"
)

const (
	// unixEpochMJD is the Modified Julian Date of 1970-01-01T00:00:00Z.
	unixEpochMJD  = 40587.0
	secondsPerDay = 86400.0
)

// MJDToTime converts a Modified Julian Date (UTC, no leap seconds) to time.
func MJDToTime(mjd float64) time.Time {
	secs := (mjd - unixEpochMJD) * secondsPerDay
	whole := math.Floor(secs)
	nanos := math.Round((secs - whole) * 1e9)
	return time.Unix(int64(whole), int64(nanos)).UTC()
}

// TimeToMJD converts t to a Modified Julian Date.
func TimeToMJD(t time.Time) float64 {
	return float64(t.Unix())/secondsPerDay + float64(t.Nanosecond())/(secondsPerDay*1e9) + unixEpochMJD
}
