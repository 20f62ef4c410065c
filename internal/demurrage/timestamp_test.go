// server/internal/demurrage/timestamp_test.go
package demurrage

import (
	"encoding/json"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNormalizeAbsentValues(t *testing.T) {
	for _, v := range []any{nil, "", "   ", "\t\n"} {
		inst, err := Normalize(v)
		if err != nil {
			t.Fatalf("Normalize(%#v) returned error: %v", v, err)
		}
		if inst.Set {
			t.Fatalf("Normalize(%#v) = set instant, want unset", v)
		}
	}
}

func TestNormalizeEpochMillis(t *testing.T) {
	// 2025-01-01T00:00:00Z
	const millis = int64(1735689600000)
	want := DayOf(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	inputs := []any{
		float64(millis),
		millis,
		int(millis),
		json.Number("1735689600000"),
		primitive.DateTime(millis),
	}
	for _, v := range inputs {
		inst, err := Normalize(v)
		if err != nil {
			t.Fatalf("Normalize(%T %v) returned error: %v", v, v, err)
		}
		if !inst.Set || inst.Day != want {
			t.Fatalf("Normalize(%T %v) = %v, want day %v", v, v, inst.Day, want)
		}
	}
}

func TestNormalizeDateStrings(t *testing.T) {
	want := DayOf(time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC))

	inputs := []string{
		"2025-03-04",
		"2025-03-04T09:15:00Z",
		"2025-03-04T09:15:00",
		"2025-03-04 09:15:00",
		"2025-03-04 09:15",
	}
	for _, s := range inputs {
		inst, err := Normalize(s)
		if err != nil {
			t.Fatalf("Normalize(%q) returned error: %v", s, err)
		}
		if !inst.Set || inst.Day != want {
			t.Fatalf("Normalize(%q) = %v, want %v", s, inst.Day, want)
		}
	}
}

func TestNormalizeFloorsToDayGranularity(t *testing.T) {
	// 23:59 on the same calendar day must land on the same Day as 00:01.
	early, err := Normalize("2025-06-10T00:01:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	late, err := Normalize("2025-06-10T23:59:59Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if early.Day != late.Day {
		t.Fatalf("day granularity lost: %v != %v", early.Day, late.Day)
	}
}

func TestNormalizeUnparseableDegradesToUnset(t *testing.T) {
	for _, v := range []any{"not a date", "12/99/9999x", true, []string{"x"}} {
		inst, err := Normalize(v)
		if err == nil {
			t.Fatalf("Normalize(%#v) expected an error", v)
		}
		if inst.Set {
			t.Fatalf("Normalize(%#v) = set instant despite parse failure", v)
		}
	}
}

func TestDayOfPreEpoch(t *testing.T) {
	// 1969-12-31 must be exactly one day before epoch day zero.
	d := DayOf(time.Date(1969, 12, 31, 18, 0, 0, 0, time.UTC))
	if d != -1 {
		t.Fatalf("DayOf(1969-12-31) = %d, want -1", d)
	}
}

func TestNormalizeNumber(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{nil, 0, false},
		{"", 0, false},
		{"  ", 0, false},
		{"abc", 0, false},
		{float64(5.5), 5.5, true},
		{int(7), 7, true},
		{int64(7), 7, true},
		{"12.5", 12.5, true},
		{json.Number("3"), 3, true},
	}
	for _, tt := range tests {
		got, ok := NormalizeNumber(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("NormalizeNumber(%#v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
