package model

import "time"

// Month is a year-month bucket key in "2006-01" form. A month rolling over
// naturally produces a new key, so notification state needs no expiry logic.
type Month string

// MonthOf returns the Month bucket for a point in time.
func MonthOf(t time.Time) Month {
	return Month(t.Format("2006-01"))
}

// Time returns the first instant of the month in UTC. The zero time is
// returned for malformed keys.
func (m Month) Time() time.Time {
	t, err := time.Parse("2006-01", string(m))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Next returns the following month's key.
func (m Month) Next() Month {
	return MonthOf(m.Time().AddDate(0, 1, 0))
}

func (m Month) String() string {
	return string(m)
}
