package tariff

import (
	"net/http"
	"testing"
	"time"

	"github.com/cepro/battsched/quantity"
)

func TestRatesForReturnsErrEmptyForecastWhenUncached(t *testing.T) {
	m := NewModo(http.Client{})

	_, err := m.RatesFor(time.Now())
	if err == nil {
		t.Fatal("expected an error for an uncached day")
	}
}

func TestRatesForReturnsCachedSettlementPeriods(t *testing.T) {
	m := NewModo(http.Client{})

	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Fatalf("load london tz: %v", err)
	}
	spStart := time.Date(2026, 7, 31, 12, 0, 0, 0, london)

	rate, err := quantity.NewRate(10.0)
	if err != nil {
		t.Fatalf("build rate: %v", err)
	}
	m.cache[spStart] = rate

	points, err := m.RatesFor(spStart)
	if err != nil {
		t.Fatalf("RatesFor: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("expected 1 cached point, got %d", len(points))
	}
	if !points[0].Interval.Start.Equal(spStart) {
		t.Errorf("expected interval starting at %v, got %v", spStart, points[0].Interval.Start)
	}
	if points[0].Interval.End.Sub(points[0].Interval.Start) != settlementPeriodDuration {
		t.Errorf("expected a %v interval, got %v", settlementPeriodDuration, points[0].Interval.End.Sub(points[0].Interval.Start))
	}
}

func TestGranularityIsThirtyMinutes(t *testing.T) {
	m := NewModo(http.Client{})
	if m.Granularity() != 30*time.Minute {
		t.Errorf("expected 30 minute granularity, got %v", m.Granularity())
	}
}

func TestTimeOfSettlementPeriodRejectsOutOfRange(t *testing.T) {
	if _, err := timeOfSettlementPeriod("2026-07-31", 0); err == nil {
		t.Error("expected an error for settlement period 0")
	}
	if _, err := timeOfSettlementPeriod("2026-07-31", 51); err == nil {
		t.Error("expected an error for settlement period 51")
	}
}

func TestTimeOfSettlementPeriodFirstPeriodIsMidnight(t *testing.T) {
	start, err := timeOfSettlementPeriod("2026-07-31", 1)
	if err != nil {
		t.Fatalf("timeOfSettlementPeriod: %v", err)
	}
	if start.Hour() != 0 || start.Minute() != 0 {
		t.Errorf("expected settlement period 1 to start at midnight, got %v", start)
	}
}
