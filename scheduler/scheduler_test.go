package scheduler

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cepro/battsched/battery"
	"github.com/cepro/battsched/quantity"
	"github.com/cepro/battsched/quantum"
	"github.com/cepro/battsched/rates"
	"github.com/cepro/battsched/schedule"
	"github.com/cepro/battsched/telemetry"
	"github.com/cepro/battsched/timeinterval"
	"github.com/cepro/battsched/workingmode"
)

type fakeProvider struct {
	points map[string][]rates.Point
}

func (f *fakeProvider) RatesFor(date time.Time) ([]rates.Point, error) {
	key := date.Format("2006-01-02")
	pts, ok := f.points[key]
	if !ok {
		return nil, nil
	}
	return pts, nil
}

func (f *fakeProvider) Granularity() time.Duration { return time.Hour }

type fakeInverter struct {
	lastSlots []schedule.Slot
}

func (f *fakeInverter) WriteSchedule(slots []schedule.Slot) error {
	f.lastSlots = slots
	return nil
}

func mustIv(t *testing.T, start, end time.Time) timeinterval.Interval {
	t.Helper()
	iv, err := timeinterval.New(start, end)
	if err != nil {
		t.Fatalf("timeinterval.New: %v", err)
	}
	return iv
}

func newTestConfig(id uuid.UUID) Config {
	limits, _ := battery.NewLimits(2000, 2000)
	purchaseFee, _ := quantity.NewRate(0)
	degradation, _ := quantity.NewRate(0)
	return Config{
		BatteryID:             id,
		DesignCapacity:        quantity.Energy(10000),
		MinSoCFraction:        0.1,
		MaxSoCFraction:        0.9,
		Limits:                limits,
		PurchaseFee:           purchaseFee,
		DegradationRate:       degradation,
		Quantum:               quantum.Default(),
		AllowedModes:          workingmode.All(),
		HorizonHours:          2,
		MaxSlots:              96,
		RecomputePeriod:       time.Minute,
		EfficiencyRefitPeriod: time.Hour,
	}
}

func TestRecomputeAndWriteRequiresBatteryState(t *testing.T) {
	id := uuid.New()
	steps := make(chan telemetry.StepRecord, 10)
	estimates := make(chan telemetry.EfficiencyEstimateRecord, 10)
	inv := &fakeInverter{}
	provider := &fakeProvider{points: map[string][]rates.Point{}}

	s := New(newTestConfig(id), provider, inv, steps, estimates)

	if err := s.recomputeAndWrite(time.Now()); err == nil {
		t.Fatal("expected an error when no battery state has been observed")
	}
}

func TestRecomputeAndWriteWritesScheduleAndRecordsSteps(t *testing.T) {
	id := uuid.New()
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)

	rate, _ := quantity.NewRate(0.1)
	points := []rates.Point{
		{Interval: mustIv(t, now, now.Add(time.Hour)), Rate: rate},
		{Interval: mustIv(t, now.Add(time.Hour), now.Add(2*time.Hour)), Rate: rate},
	}
	provider := &fakeProvider{points: map[string][]rates.Point{
		now.Format("2006-01-02"): points,
	}}

	steps := make(chan telemetry.StepRecord, 10)
	estimates := make(chan telemetry.EfficiencyEstimateRecord, 10)
	inv := &fakeInverter{}

	s := New(newTestConfig(id), provider, inv, steps, estimates)
	s.ObserveBaseline(telemetry.BaselineReading{Time: now, TotalPower: 500})
	s.ObserveBattery(telemetry.BatteryMeasurement{
		Time:          now,
		StateOfCharge: 0.5,
		StateOfHealth: 1.0,
	})

	if err := s.recomputeAndWrite(now); err != nil {
		t.Fatalf("recomputeAndWrite: %v", err)
	}

	select {
	case <-steps:
	default:
		t.Error("expected at least one step record to be sent")
	}

	if inv.lastSlots == nil {
		t.Error("expected WriteSchedule to have been called")
	}
}
