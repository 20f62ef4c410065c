// server/internal/demurrage/timestamp.go
package demurrage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Day is a day-granular instant: the number of whole calendar days (UTC)
// since 1970-01-01. All billing arithmetic happens on Days; time-of-day
// is discarded before any subtraction (fractional hours within a day are
// not billable units).
type Day int

const secondsPerDay = 86400

// DayOf floors a time to UTC day granularity.
func DayOf(t time.Time) Day {
	sec := t.UTC().Unix()
	// Floor division so pre-1970 instants land on the correct day.
	d := sec / secondsPerDay
	if sec < 0 && sec%secondsPerDay != 0 {
		d--
	}
	return Day(d)
}

// Time returns the midnight (UTC) instant of the day.
func (d Day) Time() time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

func (d Day) String() string {
	return d.Time().Format("2006-01-02")
}

// Instant is a day-granular timestamp that may be unset. An unset
// Instant means "no data recorded for this field" and never contributes
// billable time.
type Instant struct {
	Day Day
	Set bool
}

// SetDay builds a set Instant.
func SetDay(d Day) Instant {
	return Instant{Day: d, Set: true}
}

// Accepted textual layouts, tried in order. ISO-8601 date and date-time
// forms first, then the dashboard's own display format.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Normalize converts one heterogeneous timeline value into an Instant.
//
// Accepted inputs: nil, empty/whitespace string (both Unset), numeric
// epoch milliseconds (int/float variants, json.Number, BSON datetime),
// time.Time, and date-like strings. An unparseable value degrades to
// Unset and returns a non-nil error for the caller to surface as a
// data-quality warning; it is never fatal.
func Normalize(v any) (Instant, error) {
	switch x := v.(type) {
	case nil:
		return Instant{}, nil
	case time.Time:
		if x.IsZero() {
			return Instant{}, nil
		}
		return SetDay(DayOf(x)), nil
	case primitive.DateTime:
		return SetDay(DayOf(x.Time())), nil
	case float64:
		return SetDay(DayOf(time.UnixMilli(int64(x)))), nil
	case float32:
		return SetDay(DayOf(time.UnixMilli(int64(x)))), nil
	case int:
		return SetDay(DayOf(time.UnixMilli(int64(x)))), nil
	case int32:
		return SetDay(DayOf(time.UnixMilli(int64(x)))), nil
	case int64:
		return SetDay(DayOf(time.UnixMilli(x))), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Instant{}, fmt.Errorf("normalize timestamp: not a number: %q", x.String())
		}
		return SetDay(DayOf(time.UnixMilli(int64(f)))), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return Instant{}, nil
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return SetDay(DayOf(t)), nil
			}
		}
		return Instant{}, fmt.Errorf("normalize timestamp: unparseable date %q", s)
	default:
		return Instant{}, fmt.Errorf("normalize timestamp: unsupported type %T", v)
	}
}

// NormalizeNumber coerces a reported numeric field (e.g. days on site)
// the same permissive way timestamps are handled: absent and
// unparseable values both come back as not-ok.
func NormalizeNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
