// Package schedule projects an optimiser step sequence onto the inverter's
// fixed-capacity time-slot table: groups consecutive equal-mode steps,
// trims to a rolling 24h window from "now", splits any interval crossing
// local midnight, and caps the slot count.
//
// Grounded on original_source's api/foxcloud/schedule.rs (Groups::
// from_schedule, into_time_slots).
package schedule

import (
	"time"

	"github.com/cepro/battsched/battery"
	"github.com/cepro/battsched/optimizer"
	"github.com/cepro/battsched/quantity"
	"github.com/cepro/battsched/timeinterval"
	"github.com/cepro/battsched/workingmode"
)

// DefaultMaxSlots is the modern-firmware inverter time-slot capacity.
const DefaultMaxSlots = 96

// LegacyMaxSlots is the capacity of older inverter firmware revisions.
const LegacyMaxSlots = 8

// ClockTime is an hour/minute pair within a day, used as slot boundaries.
type ClockTime struct {
	Hour   int
	Minute int
}

// LastMinute is the vendor's maximum representable end-of-day time; a slot
// that would naturally end at midnight is rewritten to end here instead,
// since the vendor rejects 00:00 as an end time.
var LastMinute = ClockTime{Hour: 23, Minute: 59}

// FirstMinute is the start of a calendar day.
var FirstMinute = ClockTime{Hour: 0, Minute: 0}

func clockTimeOf(t time.Time) ClockTime {
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}
}

// After reports whether c represents a later time-of-day than other.
func (c ClockTime) After(other ClockTime) bool {
	if c.Hour != other.Hour {
		return c.Hour > other.Hour
	}
	return c.Minute > other.Minute
}

// Slot is one entry in the inverter's in-device time-slot table.
type Slot struct {
	Start     ClockTime
	End       ClockTime
	Mode      workingmode.InverterMode
	FeedPower quantity.Power
}

// Compiler holds the parameters needed to compile an optimiser step
// sequence into an inverter slot table.
type Compiler struct {
	Limits   battery.Limits
	MaxSlots int
}

// NewCompiler constructs a Compiler with the given battery limits and slot
// cap. Pass DefaultMaxSlots or LegacyMaxSlots depending on firmware.
func NewCompiler(limits battery.Limits, maxSlots int) Compiler {
	if maxSlots <= 0 {
		maxSlots = DefaultMaxSlots
	}
	return Compiler{Limits: limits, MaxSlots: maxSlots}
}

type mergedRun struct {
	interval timeinterval.Interval
	mode     workingmode.Mode
}

// Compile trims steps to the 24h window [now, now+24h), groups maximal runs
// of consecutive equal-mode intervals, splits any run crossing local
// midnight into two slots, and truncates the result to MaxSlots.
func (c Compiler) Compile(steps []optimizer.Step, now time.Time) []Slot {
	windowEnd := now.Add(24 * time.Hour)

	var runs []mergedRun
	for _, step := range steps {
		iv := step.Interval
		if !iv.Overlaps(mustInterval(now, windowEnd)) {
			continue
		}
		start := iv.Start
		if start.Before(now) {
			start = now
		}
		end := iv.End
		if end.After(windowEnd) {
			end = windowEnd
		}
		if !start.Before(end) {
			continue
		}
		trimmed, err := timeinterval.New(start, end)
		if err != nil {
			continue
		}

		if n := len(runs); n > 0 && runs[n-1].mode == step.WorkingMode && runs[n-1].interval.End.Equal(trimmed.Start) {
			runs[n-1].interval.End = trimmed.End
			continue
		}
		runs = append(runs, mergedRun{interval: trimmed, mode: step.WorkingMode})
	}

	var slots []Slot
	for _, run := range runs {
		slots = append(slots, c.toSlots(run)...)
		if len(slots) >= c.MaxSlots {
			break
		}
	}

	if len(slots) > c.MaxSlots {
		slots = slots[:c.MaxSlots]
	}
	return slots
}

func mustInterval(start, end time.Time) timeinterval.Interval {
	iv, err := timeinterval.New(start, end)
	if err != nil {
		return timeinterval.Interval{Start: start, End: start.Add(time.Nanosecond)}
	}
	return iv
}

// toSlots converts one merged same-mode interval into one or two slots,
// splitting at local midnight when the interval spans two calendar dates.
func (c Compiler) toSlots(run mergedRun) []Slot {
	inv := workingmode.ToInverterVocabulary(run.mode, c.Limits.MaxCharging, c.Limits.MaxDischarging)

	start := run.interval.Start
	end := run.interval.End

	startClock := clockTimeOf(start)
	endClock := clockTimeOf(end)

	sameDate := start.Year() == end.Year() && start.YearDay() == end.YearDay()

	if endClock == FirstMinute && !sameDate {
		// end lands exactly on a midnight boundary: one slot to LastMinute.
		return []Slot{{Start: startClock, End: LastMinute, Mode: inv.Mode, FeedPower: inv.FeedPower}}
	}

	if sameDate {
		return []Slot{{Start: startClock, End: endClock, Mode: inv.Mode, FeedPower: inv.FeedPower}}
	}

	// Crosses midnight: split into [start, 23:59) and [00:00, end).
	return []Slot{
		{Start: startClock, End: LastMinute, Mode: inv.Mode, FeedPower: inv.FeedPower},
		{Start: FirstMinute, End: endClock, Mode: inv.Mode, FeedPower: inv.FeedPower},
	}
}
