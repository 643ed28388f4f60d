package normalize

import (
	"strings"
	"time"

	"github.com/robinvdvleuten/capitalg/record"
)

// Local date-time layouts accepted in transaction files. Fractional seconds
// are accepted by time.Parse after the seconds field.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// zones caches loaded locations by name.
type zones map[string]*time.Location

func (z zones) load(name string) (*time.Location, error) {
	if loc, ok := z[name]; ok {
		return loc, nil
	}
	loc, err := record.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	z[name] = loc
	return loc, nil
}

// parseDate reads value in the source zone named by tz and returns it in
// dest, truncated to whole seconds. A trailing Z marks the value as UTC
// regardless of tz.
func (z zones) parseDate(value, tz string, dest *time.Location) (time.Time, error) {
	orig := value
	value = strings.TrimSpace(value)
	if n := len(value); n > 0 && (value[n-1] == 'Z' || value[n-1] == 'z') {
		value = value[:n-1]
		tz = "UTC"
	}

	src, err := z.load(tz)
	if err != nil {
		return time.Time{}, err
	}

	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, value, src)
		if err == nil {
			return t.In(dest).Truncate(time.Second), nil
		}
	}
	return time.Time{}, &InvalidDateError{Value: orig}
}
