// Package scheduler drives the top-level recompute cycle: it collects
// meter and inverter telemetry, periodically refits the battery's
// efficiency, recomputes the optimiser's solution once per recompute
// period, compiles it to an inverter time-slot table, writes it to the
// device, and forwards persistable records to the data platform.
//
// Its run-loop shape (select + ticker, fan-out of device telemetry) is
// grounded on the donor's controller.Controller.Run; the priority-component
// heuristics it used to dispatch are replaced entirely by the DP optimiser.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cepro/battsched/battery"
	"github.com/cepro/battsched/efficiency"
	"github.com/cepro/battsched/optimizer"
	"github.com/cepro/battsched/quantity"
	"github.com/cepro/battsched/quantum"
	"github.com/cepro/battsched/rates"
	"github.com/cepro/battsched/schedule"
	"github.com/cepro/battsched/telemetry"
	"github.com/cepro/battsched/workingmode"
)

// Inverter is the boundary the scheduler writes compiled schedules to.
type Inverter interface {
	WriteSchedule(slots []schedule.Slot) error
}

// Config bundles every static parameter the scheduler needs, sourced from
// config.Config at startup.
type Config struct {
	BatteryID             uuid.UUID
	DesignCapacity        quantity.Energy
	MinSoCFraction        float64
	MaxSoCFraction        float64
	Limits                battery.Limits
	PurchaseFee           quantity.Rate
	DegradationRate       quantity.Rate
	Quantum               quantum.Quantum
	AllowedModes          workingmode.Set
	HorizonHours          int
	MaxSlots              int
	RecomputePeriod       time.Duration
	EfficiencyRefitPeriod time.Duration
}

// Scheduler wires the optimiser core to the site's devices, the tariff
// provider, and the data platform's persistence channels.
type Scheduler struct {
	cfg      Config
	tariff   rates.Provider
	inverter Inverter
	compiler schedule.Compiler
	logger   *slog.Logger

	stepRecords       chan<- telemetry.StepRecord
	efficiencyRecords chan<- telemetry.EfficiencyEstimateRecord

	mu           sync.Mutex
	baselineByHr map[int]quantity.Power
	lastBaseline quantity.Power
	measurements []efficiency.Measurement
	curEfficiency battery.Efficiency
	curState     battery.EnergyState
	haveState    bool
}

// New builds a Scheduler. stepRecords and efficiencyRecords are typically
// the dataplatform.DataPlatform's input channels.
func New(
	cfg Config,
	tariff rates.Provider,
	inverter Inverter,
	stepRecords chan<- telemetry.StepRecord,
	efficiencyRecords chan<- telemetry.EfficiencyEstimateRecord,
) *Scheduler {
	return &Scheduler{
		cfg:               cfg,
		tariff:            tariff,
		inverter:          inverter,
		compiler:          schedule.NewCompiler(cfg.Limits, cfg.MaxSlots),
		logger:            slog.Default().With("component", "scheduler"),
		stepRecords:       stepRecords,
		efficiencyRecords: efficiencyRecords,
		baselineByHr:      make(map[int]quantity.Power),
		curEfficiency:     battery.DefaultEfficiency(),
	}
}

// ObserveBaseline records a household baseline-power reading, updating the
// per-hour-of-day table the optimiser forecasts from.
func (s *Scheduler) ObserveBaseline(r telemetry.BaselineReading) {
	power, err := quantity.NewPower(r.TotalPower)
	if err != nil {
		s.logger.Error("invalid baseline reading", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.baselineByHr[r.Time.Hour()] = power
	s.lastBaseline = power
}

// ObserveBattery records a battery measurement, folding it into the
// efficiency estimator's sample window and the optimiser's current state.
func (s *Scheduler) ObserveBattery(m telemetry.BatteryMeasurement) {
	residual, err1 := quantity.NewEnergy(m.ResidualEnergy)
	imported, err2 := quantity.NewEnergy(m.LifetimeImported)
	exported, err3 := quantity.NewEnergy(m.LifetimeExported)
	if err1 != nil || err2 != nil || err3 != nil {
		s.logger.Error("invalid battery measurement")
		return
	}

	state, err := battery.NewEnergyState(s.cfg.DesignCapacity, m.StateOfCharge, m.StateOfHealth, s.cfg.MinSoCFraction, s.cfg.MaxSoCFraction)
	if err != nil {
		s.logger.Error("invalid battery state", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.curState = state
	s.haveState = true
	s.measurements = append(s.measurements, efficiency.Measurement{
		Timestamp:        m.Time,
		ResidualEnergy:   residual,
		LifetimeImported: imported,
		LifetimeExported: exported,
	})
}

// Run starts the periodic efficiency refit and recompute-and-write cycles.
// Exits when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	recompute := time.NewTicker(s.cfg.RecomputePeriod)
	defer recompute.Stop()

	refit := time.NewTicker(s.cfg.EfficiencyRefitPeriod)
	defer refit.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-refit.C:
			s.refitEfficiency()
		case <-recompute.C:
			if err := s.recomputeAndWrite(time.Now()); err != nil {
				s.logger.Error("recompute cycle failed", "error", err)
			}
		}
	}
}

func (s *Scheduler) refitEfficiency() {
	s.mu.Lock()
	samples := append([]efficiency.Measurement(nil), s.measurements...)
	s.mu.Unlock()

	estimate, err := efficiency.Fit(samples)
	if err != nil {
		s.logger.Warn("efficiency refit skipped", "error", err)
		return
	}

	s.mu.Lock()
	s.curEfficiency = estimate.Efficiency
	s.mu.Unlock()

	s.logger.Info("refit battery efficiency",
		"charging_efficiency", estimate.Efficiency.ChargingEfficiency,
		"discharging_efficiency", estimate.Efficiency.DischargingEfficiency,
		"parasitic_load_watts", float64(estimate.Efficiency.ParasiticLoad),
		"n_samples", estimate.NSamples,
	)

	record := telemetry.EfficiencyEstimateRecord{
		ID:                    uuid.New(),
		BatteryID:             s.cfg.BatteryID,
		Time:                  time.Now(),
		ChargingEfficiency:    estimate.Efficiency.ChargingEfficiency,
		DischargingEfficiency: estimate.Efficiency.DischargingEfficiency,
		ParasiticLoadWatts:    float64(estimate.Efficiency.ParasiticLoad),
		NSamples:              estimate.NSamples,
		TotalHours:            estimate.TotalHours,
	}
	sendIfNonBlocking(s.efficiencyRecords, record, "scheduler efficiency records")
}

func (s *Scheduler) recomputeAndWrite(now time.Time) error {
	s.mu.Lock()
	if !s.haveState {
		s.mu.Unlock()
		return fmt.Errorf("no battery state observed yet")
	}
	state := s.curState
	eff := s.curEfficiency
	baseline := optimizer.BaselineTable{
		ByHour:   copyBaselineTable(s.baselineByHr),
		Fallback: s.lastBaseline,
	}
	s.mu.Unlock()

	horizon := time.Duration(s.cfg.HorizonHours) * time.Hour
	points, err := s.forecastRates(now, now.Add(horizon))
	if err != nil {
		return fmt.Errorf("forecast rates: %w", err)
	}

	input := optimizer.Input{
		RatePoints:      points,
		Baseline:        baseline,
		AllowedModes:    s.cfg.AllowedModes,
		Battery:         state,
		Limits:          s.cfg.Limits,
		Efficiency:      eff,
		PurchaseFee:     s.cfg.PurchaseFee,
		DegradationRate: s.cfg.DegradationRate,
		Now:             now,
		Quantum:         s.cfg.Quantum,
	}

	solution, err := optimizer.Solve(input)
	if err != nil {
		return fmt.Errorf("solve: %w", err)
	}

	steps := optimizer.Backtrack(solution)
	slots := s.compiler.Compile(steps, now)

	if err := s.inverter.WriteSchedule(slots); err != nil {
		return fmt.Errorf("write schedule: %w", err)
	}

	for _, step := range steps {
		record := telemetry.NewStepRecord(s.cfg.BatteryID, step)
		sendIfNonBlocking(s.stepRecords, record, "scheduler step records")
	}

	s.logger.Info("recomputed schedule", "steps", len(steps), "slots", len(slots))
	return nil
}

// forecastRates fetches the tariff provider's known rates across
// [from, to) a day at a time, then extends any remaining horizon with a
// per-time-of-day median computed from the fetched points themselves.
func (s *Scheduler) forecastRates(from, to time.Time) ([]rates.Point, error) {
	var fetched, points []rates.Point
	firstDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	for day := firstDay; day.Before(to); day = day.AddDate(0, 0, 1) {
		dayPoints, err := s.tariff.RatesFor(day)
		if err != nil {
			continue
		}
		fetched = append(fetched, dayPoints...)
		for _, p := range dayPoints {
			if p.Interval.End.After(from) && p.Interval.Start.Before(to) {
				points = append(points, p)
			}
		}
	}

	stats := rates.Statistics{
		MedianByTimeOfDay: medianByTimeOfDay(fetched, s.tariff.Granularity()),
		Granularity:       s.tariff.Granularity(),
	}

	return rates.Extend(points, stats, s.tariff.Granularity(), from, to)
}

func medianByTimeOfDay(points []rates.Point, granularity time.Duration) map[int]quantity.Rate {
	byKey := make(map[int][]quantity.Rate)
	step := int64(granularity.Seconds())
	if step <= 0 {
		step = 1
	}
	for _, p := range points {
		midnight := time.Date(p.Interval.Start.Year(), p.Interval.Start.Month(), p.Interval.Start.Day(), 0, 0, 0, 0, p.Interval.Start.Location())
		key := int((int64(p.Interval.Start.Sub(midnight).Seconds()) / step) * step)
		byKey[key] = append(byKey[key], p.Rate)
	}

	medians := make(map[int]quantity.Rate, len(byKey))
	for key, rs := range byKey {
		medians[key] = median(rs)
	}
	return medians
}

func median(rs []quantity.Rate) quantity.Rate {
	sorted := append([]quantity.Rate(nil), rs...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return sorted[len(sorted)/2]
}

func copyBaselineTable(m map[int]quantity.Power) map[int]quantity.Power {
	cp := make(map[int]quantity.Power, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// sendIfNonBlocking attempts to send val onto ch without blocking, logging a
// warning and dropping the value if the channel isn't ready to receive.
func sendIfNonBlocking[V any](ch chan<- V, val V, target string) {
	select {
	case ch <- val:
	default:
		slog.Warn("dropped message", "message_target", target)
	}
}
