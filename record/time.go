package record

import (
	"fmt"
	"strings"
	"time"

	// Timezones must resolve on hosts without a zoneinfo database.
	_ "time/tzdata"
)

// YearEndLayout is the layout of a tax year end date.
const YearEndLayout = "2006-01-02"

// LoadLocation returns the location with the given IANA name. An empty name
// and any casing of "utc" resolve to time.UTC.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "utc") {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

// WallClock returns the wall clock reading of t as a UTC time. Ordering and
// day counting use it so that the hour repeated when daylight saving ends
// sorts the way its local timestamps read.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// TaxYear is a one year reporting window. End is exclusive and is the first
// instant of the following tax year.
type TaxYear struct {
	Start time.Time
	End   time.Time
}

// ParseTaxYear parses the last day of a tax year (YYYY-MM-DD) in loc.
func ParseTaxYear(yearEnd string, loc *time.Location) (TaxYear, error) {
	if loc == nil {
		loc = time.UTC
	}
	last, err := time.ParseInLocation(YearEndLayout, strings.TrimSpace(yearEnd), loc)
	if err != nil {
		return TaxYear{}, fmt.Errorf("invalid tax year end %q, expected YYYY-MM-DD", yearEnd)
	}
	end := last.AddDate(0, 0, 1)
	return TaxYear{Start: end.AddDate(-1, 0, 0), End: end}, nil
}

// Contains reports whether t falls inside [Start, End).
func (y TaxYear) Contains(t time.Time) bool {
	return !t.Before(y.Start) && t.Before(y.End)
}

// String returns the window as "start..end" with the inclusive last day.
func (y TaxYear) String() string {
	return fmt.Sprintf("%s..%s", y.Start.Format(YearEndLayout), y.End.AddDate(0, 0, -1).Format(YearEndLayout))
}
