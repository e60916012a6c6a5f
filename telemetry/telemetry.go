// Package telemetry holds the data shapes that flow between the scheduler's
// core and its device/persistence/upload layers: battery and meter
// measurements, the compiled inverter schedule command, and the optimiser's
// own output records.
package telemetry

import (
	"time"

	"github.com/google/uuid"

	"github.com/cepro/battsched/optimizer"
	"github.com/cepro/battsched/schedule"
)

// BaselineReading holds a household baseline-power sample pulled from the
// site meter.
type BaselineReading struct {
	ID         uuid.UUID
	Time       time.Time
	MeterID    uuid.UUID
	Frequency  float64
	TotalPower float64
}

// BatteryMeasurement holds one point-in-time battery reading pulled from the
// inverter, feeding the efficiency estimator's measurement stream.
type BatteryMeasurement struct {
	ID               uuid.UUID
	Time             time.Time
	BatteryID        uuid.UUID
	ResidualEnergy   float64 // watt-hours
	LifetimeImported float64 // watt-hours
	LifetimeExported float64 // watt-hours
	StateOfCharge    float64
	StateOfHealth    float64
}

// ScheduleCommand carries a compiled inverter slot table ready to be
// written to the device.
type ScheduleCommand struct {
	BatteryID uuid.UUID
	Slots     []schedule.Slot
}

// StepRecord is a persistable copy of one optimizer.Step.
type StepRecord struct {
	ID             uuid.UUID
	BatteryID      uuid.UUID
	IntervalStart  time.Time
	IntervalEnd    time.Time
	GridRate       float64
	BaselinePower  float64
	WorkingMode    string
	ResidualBefore float64
	ResidualAfter  float64
	GridNetEnergy  float64
	MonetaryLoss   float64
}

// NewStepRecord builds a StepRecord from an optimizer.Step.
func NewStepRecord(batteryID uuid.UUID, s optimizer.Step) StepRecord {
	return StepRecord{
		ID:             uuid.New(),
		BatteryID:      batteryID,
		IntervalStart:  s.Interval.Start,
		IntervalEnd:    s.Interval.End,
		GridRate:       float64(s.GridRate),
		BaselinePower:  float64(s.BaselinePower),
		WorkingMode:    s.WorkingMode.String(),
		ResidualBefore: float64(s.ResidualBefore),
		ResidualAfter:  float64(s.ResidualAfter),
		GridNetEnergy:  float64(s.GridNetEnergy),
		MonetaryLoss:   float64(s.MonetaryLoss),
	}
}

// EfficiencyEstimateRecord is a persistable copy of one efficiency.Estimate.
type EfficiencyEstimateRecord struct {
	ID                    uuid.UUID
	BatteryID             uuid.UUID
	Time                  time.Time
	ChargingEfficiency    float64
	DischargingEfficiency float64
	ParasiticLoadWatts    float64
	NSamples              int
	TotalHours            float64
}
