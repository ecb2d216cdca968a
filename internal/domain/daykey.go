package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DayKey identifies a single calendar day. Its wire form is the unpadded
// "D-M-YYYY" string ("5-3-2024") that the stored data already uses, so it must
// never be reformatted.
type DayKey struct {
	Day   int
	Month time.Month
	Year  int
}

// NewDayKey builds the key for the calendar day of t in t's location.
func NewDayKey(t time.Time) DayKey {
	return DayKey{Day: t.Day(), Month: t.Month(), Year: t.Year()}
}

// ParseDayKey parses the "D-M-YYYY" form. Malformed input is an error;
// callers must not feed user input here unvalidated.
func ParseDayKey(s string) (DayKey, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return DayKey{}, errors.Errorf("malformed day key %q", s)
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return DayKey{}, errors.Wrapf(err, "malformed day in key %q", s)
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return DayKey{}, errors.Wrapf(err, "malformed month in key %q", s)
	}

	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return DayKey{}, errors.Wrapf(err, "malformed year in key %q", s)
	}

	if day < 1 || day > 31 || month < 1 || month > 12 || year < 1 {
		return DayKey{}, errors.Errorf("day key %q out of range", s)
	}

	return DayKey{Day: day, Month: time.Month(month), Year: year}, nil
}

// String renders the unpadded wire form.
func (k DayKey) String() string {
	return fmt.Sprintf("%d-%d-%d", k.Day, int(k.Month), k.Year)
}

// IsZero reports whether the key is unset.
func (k DayKey) IsZero() bool {
	return k == DayKey{}
}

// Time returns midnight of the day in the local location.
func (k DayKey) Time() time.Time {
	return time.Date(k.Year, k.Month, k.Day, 0, 0, 0, 0, time.Local)
}

// AddDays returns the key n calendar days away (n may be negative).
func (k DayKey) AddDays(n int) DayKey {
	return NewDayKey(k.Time().AddDate(0, 0, n))
}

// SameMonth reports whether both keys fall in the same calendar month and year.
func (k DayKey) SameMonth(other DayKey) bool {
	return k.Month == other.Month && k.Year == other.Year
}

// WeekdayLabelKey maps the day's weekday to its short label key. The mapping is
// a partial chain: Monday..Saturday get their own keys and everything else
// falls through to "sun". Downstream chart labels rely on this exact shape,
// so it must not be replaced with a full weekday table.
func (k DayKey) WeekdayLabelKey() string {
	switch k.Time().Weekday() {
	case time.Monday:
		return "mon"
	case time.Tuesday:
		return "tue"
	case time.Wednesday:
		return "wed"
	case time.Thursday:
		return "thu"
	case time.Friday:
		return "fri"
	case time.Saturday:
		return "sat"
	}
	return "sun"
}

// MarshalText implements encoding.TextMarshaler so DayKey round-trips through
// JSON as the wire string.
func (k DayKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *DayKey) UnmarshalText(b []byte) error {
	parsed, err := ParseDayKey(string(b))
	if err != nil {
		return err
	}

	*k = parsed

	return nil
}
