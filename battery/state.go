// Package battery implements the battery energy state and the per-interval
// simulator that converts a requested external power and duration into a
// new residual-energy level and an active exchange time. The simulator does
// not report charging/discharging efficiency losses separately.
//
// Grounded on original_source's core/battery/{state,simulator}.rs.
package battery

import (
	"fmt"
	"math"

	"github.com/cepro/battsched/coreerr"
	"github.com/cepro/battsched/quantity"
)

// EnergyState is the battery's instantaneous physical state.
type EnergyState struct {
	DesignCapacity  quantity.Energy // nameplate capacity when new
	StateOfCharge   float64         // fraction in [0, 1]
	StateOfHealth   float64         // fraction in (0, 1]
	MinSoCFraction  float64         // operational floor, fraction of actual capacity
	MaxSoCFraction  float64         // operational ceiling, fraction of actual capacity
}

// NewEnergyState validates and constructs an EnergyState.
func NewEnergyState(designCapacity quantity.Energy, soc, soh, minSoC, maxSoC float64) (EnergyState, error) {
	if designCapacity <= 0 {
		return EnergyState{}, fmt.Errorf("%w: design capacity must be positive", coreerr.ErrInvalidInput)
	}
	if soc < 0 || soc > 1 || math.IsNaN(soc) {
		return EnergyState{}, fmt.Errorf("%w: state of charge %v out of [0,1]", coreerr.ErrInvalidInput, soc)
	}
	if soh <= 0 || soh > 1 || math.IsNaN(soh) {
		return EnergyState{}, fmt.Errorf("%w: state of health %v out of (0,1]", coreerr.ErrInvalidInput, soh)
	}
	if minSoC > maxSoC {
		return EnergyState{}, fmt.Errorf("%w: min SoC fraction %v exceeds max %v", coreerr.ErrInvalidInput, minSoC, maxSoC)
	}
	return EnergyState{
		DesignCapacity: designCapacity,
		StateOfCharge:  soc,
		StateOfHealth:  soh,
		MinSoCFraction: minSoC,
		MaxSoCFraction: maxSoC,
	}, nil
}

// ActualCapacity returns DesignCapacity scaled by StateOfHealth.
func (s EnergyState) ActualCapacity() quantity.Energy {
	return quantity.Energy(float64(s.DesignCapacity) * s.StateOfHealth)
}

// ResidualEnergy returns the energy currently stored.
func (s EnergyState) ResidualEnergy() quantity.Energy {
	return quantity.Energy(float64(s.ActualCapacity()) * s.StateOfCharge)
}

// MinResidual returns the operational floor in energy terms.
func (s EnergyState) MinResidual() quantity.Energy {
	return quantity.Energy(float64(s.ActualCapacity()) * s.MinSoCFraction)
}

// MaxResidual returns the operational ceiling in energy terms.
func (s EnergyState) MaxResidual() quantity.Energy {
	return quantity.Energy(float64(s.ActualCapacity()) * s.MaxSoCFraction)
}

// Limits is the battery's power-exchange envelope, both values non-negative.
type Limits struct {
	MaxCharging    quantity.Power
	MaxDischarging quantity.Power
}

// NewLimits validates and constructs a Limits pair.
func NewLimits(maxCharge, maxDischarge quantity.Power) (Limits, error) {
	if maxCharge < 0 || maxDischarge < 0 {
		return Limits{}, fmt.Errorf("%w: power limits must be non-negative", coreerr.ErrInvalidInput)
	}
	return Limits{MaxCharging: maxCharge, MaxDischarging: maxDischarge}, nil
}

// Efficiency carries the three physical parameters recovered by the
// efficiency estimator (or supplied as defaults).
type Efficiency struct {
	ChargingEfficiency    float64 // fraction in (0, 1]
	DischargingEfficiency float64 // fraction in (0, 1]
	ParasiticLoad         quantity.Power
}

// NewEfficiency validates and constructs an Efficiency.
func NewEfficiency(charging, discharging float64, parasitic quantity.Power) (Efficiency, error) {
	if charging <= 0 || charging > 1 || math.IsNaN(charging) {
		return Efficiency{}, fmt.Errorf("%w: charging efficiency %v out of (0,1]", coreerr.ErrInvalidInput, charging)
	}
	if discharging <= 0 || discharging > 1 || math.IsNaN(discharging) {
		return Efficiency{}, fmt.Errorf("%w: discharging efficiency %v out of (0,1]", coreerr.ErrInvalidInput, discharging)
	}
	if parasitic < 0 {
		return Efficiency{}, fmt.Errorf("%w: parasitic load must be non-negative", coreerr.ErrInvalidInput)
	}
	return Efficiency{ChargingEfficiency: charging, DischargingEfficiency: discharging, ParasiticLoad: parasitic}, nil
}

// DefaultEfficiency is used before the estimator has produced a fit: perfect
// round-trip efficiency and zero parasitic load.
func DefaultEfficiency() Efficiency {
	return Efficiency{ChargingEfficiency: 1, DischargingEfficiency: 1, ParasiticLoad: 0}
}

// RoundTrip returns the product of charging and discharging efficiency.
func (e Efficiency) RoundTrip() float64 {
	return e.ChargingEfficiency * e.DischargingEfficiency
}
