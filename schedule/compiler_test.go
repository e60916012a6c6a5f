package schedule

import (
	"testing"
	"time"

	"github.com/cepro/battsched/battery"
	"github.com/cepro/battsched/optimizer"
	"github.com/cepro/battsched/timeinterval"
	"github.com/cepro/battsched/workingmode"
)

func mustIv(t *testing.T, start, end time.Time) timeinterval.Interval {
	t.Helper()
	iv, err := timeinterval.New(start, end)
	if err != nil {
		t.Fatal(err)
	}
	return iv
}

func TestScenario6CrossMidnightGrouping(t *testing.T) {
	loc := time.UTC
	d := time.Date(2026, 3, 1, 0, 0, 0, 0, loc)
	now := time.Date(2026, 3, 1, 22, 0, 0, 0, loc)

	steps := []optimizer.Step{
		{Interval: mustIv(t, d.Add(22*time.Hour+15*time.Minute), d.Add(23*time.Hour)), WorkingMode: workingmode.Charge},
		{Interval: mustIv(t, d.Add(23*time.Hour), d.Add(25*time.Hour+15*time.Minute)), WorkingMode: workingmode.Charge},
	}

	limits, _ := battery.NewLimits(1000, 1000)
	c := NewCompiler(limits, DefaultMaxSlots)

	slots := c.Compile(steps, now)

	if len(slots) != 2 {
		t.Fatalf("expected 2 slots from one cross-midnight run, got %d: %+v", len(slots), slots)
	}
	if slots[0].Start != (ClockTime{22, 15}) || slots[0].End != LastMinute {
		t.Errorf("slot 0 = %+v, want 22:15 -> 23:59", slots[0])
	}
	if slots[1].Start != FirstMinute || slots[1].End != (ClockTime{1, 15}) {
		t.Errorf("slot 1 = %+v, want 00:00 -> 01:15", slots[1])
	}
	if slots[0].Mode != slots[1].Mode {
		t.Errorf("split slots should share the compiled mode: %+v vs %+v", slots[0], slots[1])
	}
}

func TestNoCrossMidnightSlot(t *testing.T) {
	d := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	now := d

	steps := []optimizer.Step{
		{Interval: mustIv(t, d.Add(20*time.Hour), d.Add(26*time.Hour)), WorkingMode: workingmode.SelfUse},
	}
	limits, _ := battery.NewLimits(1000, 1000)
	c := NewCompiler(limits, DefaultMaxSlots)

	slots := c.Compile(steps, now)
	for _, s := range slots {
		if !s.End.After(s.Start) && s.End != LastMinute {
			t.Errorf("slot %+v does not satisfy end > start", s)
		}
	}
}

func TestCompilerCapsAtMaxSlots(t *testing.T) {
	d := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	now := d

	var steps []optimizer.Step
	mode := workingmode.Idle
	for i := 0; i < 200; i++ {
		start := d.Add(time.Duration(i) * 5 * time.Minute)
		end := start.Add(5 * time.Minute)
		steps = append(steps, optimizer.Step{Interval: mustIv(t, start, end), WorkingMode: mode})
		if mode == workingmode.Idle {
			mode = workingmode.Charge
		} else {
			mode = workingmode.Idle
		}
	}

	limits, _ := battery.NewLimits(1000, 1000)
	c := NewCompiler(limits, DefaultMaxSlots)
	slots := c.Compile(steps, now)

	if len(slots) > DefaultMaxSlots {
		t.Errorf("compiler emitted %d slots, want <= %d", len(slots), DefaultMaxSlots)
	}
}

func TestGroupCoherence(t *testing.T) {
	d := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	now := d

	steps := []optimizer.Step{
		{Interval: mustIv(t, d, d.Add(time.Hour)), WorkingMode: workingmode.Charge},
		{Interval: mustIv(t, d.Add(time.Hour), d.Add(2*time.Hour)), WorkingMode: workingmode.Charge},
		{Interval: mustIv(t, d.Add(2*time.Hour), d.Add(3*time.Hour)), WorkingMode: workingmode.Discharge},
	}

	limits, _ := battery.NewLimits(1000, 1000)
	c := NewCompiler(limits, DefaultMaxSlots)
	slots := c.Compile(steps, now)

	if len(slots) != 2 {
		t.Fatalf("expected 2 merged slots, got %d: %+v", len(slots), slots)
	}
	if slots[0].Start != (ClockTime{0, 0}) || slots[0].End != (ClockTime{2, 0}) {
		t.Errorf("first merged slot = %+v, want 00:00 -> 02:00", slots[0])
	}
	if slots[0].Mode == slots[1].Mode {
		t.Errorf("distinct working modes should not merge into one slot")
	}
}
