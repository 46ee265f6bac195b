package rds

import "time"

// CT payload masks (blocks C and D of a 4A group as one 32 bit word)
const (
	ctMJDMask     uint32 = 0xFFFE0000
	ctMJDShift           = 17
	ctHourMask    uint32 = 0x0001F000
	ctHourShift          = 12
	ctMinuteMask  uint32 = 0x00000FC0
	ctMinuteShift        = 6
	mjdHighShift         = 15
)

// ClockTime is the UTC date and time carried by group 4A.
// RDS has no seconds, no DST flag and no day of year.
type ClockTime struct {
	Hour    int
	Minute  int
	Day     int
	Month   int // 1..12
	Year    int
	Weekday int // 1 = Monday .. 7 = Sunday
}

/*
DecodeTime converts a 4A payload to calendar fields.

The broadcaster sends all zeros when it has no time to give us; that is
reported as !ok. The local time offset in the low 6 bits is ignored, the
result is UTC.

MJD to Y/M/D follows Annex G of the RDS standard, kept in integer
arithmetic: Go's integer division truncates, which is exactly what the
formulas expect for MJDs from 1900-03-01 onwards.
*/
func DecodeTime(blockB uint16, payload uint32) (ClockTime, bool) {
	var mjd, yp, ys, mp, k int
	var ct ClockTime

	if payload == 0 {
		return ct, false
	}

	mjd = int(blockB&mjdHighMask)<<mjdHighShift | int((payload&ctMJDMask)>>ctMJDShift)

	ct.Hour = int((payload & ctHourMask) >> ctHourShift)
	ct.Minute = int((payload & ctMinuteMask) >> ctMinuteShift)

	yp = (mjd*10 - 150782) * 10 / 36525
	ys = yp * 36525 / 100
	mp = (mjd*10 - 149561 - ys*10) * 1000 / 306001
	ct.Day = mjd - 14956 - ys - mp*306001/10000
	if mp == 14 || mp == 15 {
		k = 1
	}
	ct.Year = 1900 + yp + k
	ct.Month = mp - 1 - k*12
	ct.Weekday = (mjd+2)%7 + 1

	return ct, true
}

// Time returns the clock time as a UTC time.Time with zero seconds.
func (c ClockTime) Time() time.Time {
	return time.Date(c.Year, time.Month(c.Month), c.Day, c.Hour, c.Minute, 0, 0, time.UTC)
}

func (c ClockTime) String() string {
	return c.Time().Format("2006-01-02 15:04 UTC")
}
