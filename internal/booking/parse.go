package booking

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

var durationSuffixes = []string{"minutes", "minute", "mins", "min", "m"}

// ParseDurationMinutes turns a unit-tagged duration such as "60min" into minutes.
// A bare number is taken as minutes.
func ParseDurationMinutes(raw string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, errors.New("duration is empty")
	}
	for _, suffix := range durationSuffixes {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
			break
		}
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("duration %q is not a whole number of minutes", raw)
	}
	if n <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", raw)
	}
	return n, nil
}

// ParsePrice strips currency symbols, thousands separators and spaces before
// parsing, so "$1,200.50" and "€ 60" are accepted. The result has two decimals.
func ParsePrice(raw string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Sc, r) || unicode.IsSpace(r) || r == ',' {
			return -1
		}
		return r
	}, raw)
	if cleaned == "" {
		return decimal.Decimal{}, errors.New("price is empty")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("price %q is not a number", raw)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("price %q must not be negative", raw)
	}
	return d.Round(2), nil
}

var startTimeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	TimeLayout,
	"2006-01-02 3:04 PM",
}

// ParseStartTime accepts RFC 3339 (converted into loc) or a zone-less layout read
// as wall-clock time in loc. The result is the wall clock carried in time.UTC.
func ParseStartTime(raw string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errors.New("datetime is empty")
	}
	if loc == nil {
		loc = time.UTC
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return WallClock(t.In(loc)), nil
	}
	for _, layout := range startTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("datetime %q is not in a supported format", raw)
}

// WallClock drops the zone of t, keeping its calendar fields.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
