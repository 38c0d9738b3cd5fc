package soap

import (
	"fmt"
	"time"
)

// Exchange date layouts.
const (
	TimestampLayout = "2006-01-02T15:04:05Z"
	DateLayout      = "2006-01-02"
)

// ParseTimestamp parses an Exchange timestamp (YYYY-MM-DDTHH:MM:SSZ) as UTC.
// Any other shape, including fractional seconds, is rejected with a
// *time.ParseError.
func ParseTimestamp(s string) (time.Time, error) {
	if len(s) != len(TimestampLayout) {
		return time.Time{}, &time.ParseError{
			Layout:  TimestampLayout,
			Value:   s,
			Message: fmt.Sprintf(": expected %s", TimestampLayout),
		}
	}
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ParseDateOnly parses the first ten characters of s as a calendar date.
// Everything after the date portion is ignored.
func ParseDateOnly(s string) (Date, error) {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Date is a calendar date with no time of day and no location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the date portion of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// String formats d as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	v, err := ParseDateOnly(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
