package rates

import (
	"testing"
	"time"

	"github.com/cepro/battsched/quantity"
	"github.com/cepro/battsched/timeinterval"
)

func TestExtendWithNoKnownPointsSeedsFromForecastStartNotEnd(t *testing.T) {
	granularity := time.Hour
	start := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour) // several days later

	rate, _ := quantity.NewRate(0.2)
	stats := Statistics{
		MedianByTimeOfDay: map[int]quantity.Rate{
			alignedSecondsOfDay(start, granularity): rate,
		},
		Granularity: granularity,
	}

	got, err := Extend(nil, stats, granularity, start, end)
	if err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected at least one synthetic point")
	}
	if !got[0].Interval.Start.Equal(start) {
		t.Fatalf("first synthetic point starts at %v, want forecast start %v", got[0].Interval.Start, start)
	}
}

func TestExtendFillsFromLastKnownPointWhenPresent(t *testing.T) {
	granularity := time.Hour
	start := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	knownEnd := start.Add(time.Hour)
	end := start.Add(3 * time.Hour)

	rate, _ := quantity.NewRate(0.1)
	known := []Point{
		{Interval: mustInterval(t, start, knownEnd), Rate: rate},
	}

	stats := Statistics{
		MedianByTimeOfDay: map[int]quantity.Rate{
			alignedSecondsOfDay(knownEnd, granularity): rate,
			alignedSecondsOfDay(knownEnd.Add(granularity), granularity): rate,
		},
		Granularity: granularity,
	}

	got, err := Extend(known, stats, granularity, start, end)
	if err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if len(got) < 2 {
		t.Fatalf("expected known point plus synthetic extension, got %d points", len(got))
	}
	if !got[1].Interval.Start.Equal(knownEnd) {
		t.Fatalf("extension starts at %v, want %v", got[1].Interval.Start, knownEnd)
	}
}

func mustInterval(t *testing.T, start, end time.Time) timeinterval.Interval {
	t.Helper()
	iv, err := timeinterval.New(start, end)
	if err != nil {
		t.Fatalf("timeinterval.New: %v", err)
	}
	return iv
}
