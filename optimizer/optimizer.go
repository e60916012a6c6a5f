// Package optimizer implements the schedule optimiser: a backward-pass
// dynamic program over a two-dimensional (time x quantised residual energy)
// state space that jointly decides working mode per interval and tracks
// best-path backpointers for later extraction.
//
// Grounded on original_source's core/solver.rs (solve/optimise_step/
// simulate_step) and brianmickel-battery-backtest's internal/strategy/
// oracle.go (optimizeDP) for the idiomatic Go two-row DP shape.
package optimizer

import (
	"fmt"
	"time"

	"github.com/cepro/battsched/battery"
	"github.com/cepro/battsched/coreerr"
	"github.com/cepro/battsched/cost"
	"github.com/cepro/battsched/quantity"
	"github.com/cepro/battsched/quantum"
	"github.com/cepro/battsched/rates"
	"github.com/cepro/battsched/timeinterval"
	"github.com/cepro/battsched/workingmode"
)

// BaselineTable is a per-hour-of-day household baseline power table, used
// with a fallback for hours not present.
type BaselineTable struct {
	ByHour   map[int]quantity.Power
	Fallback quantity.Power
}

// Lookup returns the baseline power for the hour-of-day of t.
func (b BaselineTable) Lookup(t time.Time) quantity.Power {
	if b.ByHour != nil {
		if p, ok := b.ByHour[t.Hour()]; ok {
			return p
		}
	}
	return b.Fallback
}

// Step is a record of one optimiser interval along the chosen path.
type Step struct {
	Interval        timeinterval.Interval
	GridRate        quantity.Rate
	BaselinePower   quantity.Power
	WorkingMode     workingmode.Mode
	ResidualBefore  quantity.Energy
	ResidualAfter   quantity.Energy
	GridNetEnergy   quantity.Energy
	MonetaryLoss    quantity.Cost
}

// Charge returns the energy added to the battery this step, zero if it was
// a net discharge.
func (s Step) Charge() quantity.Energy {
	d := s.ResidualAfter - s.ResidualBefore
	if d < 0 {
		return 0
	}
	return d
}

// Discharge returns the energy removed from the battery this step, zero if
// it was a net charge.
func (s Step) Discharge() quantity.Energy {
	d := s.ResidualBefore - s.ResidualAfter
	if d < 0 {
		return 0
	}
	return d
}

// Partial is an immutable node in the optimiser's backward chain: the best
// net loss achievable from this state onward, cumulative charge/discharge
// sums, and a singly-linked pointer to the chosen successor. Because Go is
// garbage collected, multiple Partials in one row may share a successor
// pointer with no refcounting: the runtime keeps a node alive as long as
// anything references it and reclaims it once the owning row goes out of
// scope.
type Partial struct {
	NetLoss             quantity.Cost
	CumulativeCharge    quantity.Energy
	CumulativeDischarge quantity.Energy
	Step                *Step
	Next                *Partial
}

// boundary is the sentinel tail of every backward chain: zero sums, no
// payload.
var boundary = &Partial{}

// IsBoundary reports whether p is the chain-terminating sentinel.
func (p *Partial) IsBoundary() bool {
	return p == boundary || p.Step == nil
}

// Input bundles everything the solver needs for one run.
type Input struct {
	RatePoints     []rates.Point
	Baseline       BaselineTable
	AllowedModes   workingmode.Set
	Battery        battery.EnergyState
	Limits         battery.Limits
	Efficiency     battery.Efficiency
	PurchaseFee    quantity.Rate
	DegradationRate quantity.Rate
	Now            time.Time
	Quantum        quantum.Quantum
}

// orderedModes is the deterministic iteration order over all possible
// modes, so ties resolve identically across runs.
var orderedModes = []workingmode.Mode{
	workingmode.Idle,
	workingmode.Harvest,
	workingmode.SelfUse,
	workingmode.Charge,
	workingmode.Discharge,
}

// Solve runs the backward dynamic program and returns the best Partial for
// the battery's current quantised residual level, or coreerr.ErrNoSolution
// if every path violates the minimum-residual floor.
func Solve(in Input) (*Partial, error) {
	if len(in.RatePoints) == 0 {
		return nil, coreerr.ErrEmptyForecast
	}
	if len(in.AllowedModes) == 0 {
		return nil, fmt.Errorf("%w: no working modes allowed", coreerr.ErrInvalidInput)
	}

	q := in.Quantum
	if q == 0 {
		q = quantum.Default()
	}

	currentResidual := in.Battery.ResidualEnergy()
	minResidual := in.Battery.MinResidual()
	maxResidual := in.Battery.MaxResidual()

	eMax := q.Ceil(quantity.MaxEnergy(currentResidual, maxResidual))
	numLevels := int(eMax) + 1

	next := make([]*Partial, numLevels)
	for i := range next {
		next[i] = boundary
	}

	for t := len(in.RatePoints) - 1; t >= 0; t-- {
		rp := in.RatePoints[t]
		interval := rp.Interval.TrimToNow(in.Now)
		duration := interval.Duration()
		durationHours := quantity.Hours(duration.Hours())
		baselinePower := in.Baseline.Lookup(interval.Start)
		gridRate := rp.Rate

		row := make([]*Partial, numLevels)

		for level := 0; level < numLevels; level++ {
			r0 := q.Dequantize(quantum.Level(level))

			var best *Partial
			var bestStep Step
			var bestDelta quantity.Energy

			for _, mode := range orderedModes {
				if !in.AllowedModes.Contains(mode) {
					continue
				}

				pExt := workingmode.RequestedExternalPower(mode, baselinePower, in.Limits.MaxCharging, in.Limits.MaxDischarging)

				sim := battery.NewSimulator(minResidual, r0, maxResidual, in.Efficiency)
				activeTime := sim.ApplyLoad(pExt, duration)
				r1 := sim.Residual

				if r1 < minResidual {
					continue
				}

				lPrime := int(q.Quantize(r1))
				if lPrime >= numLevels {
					lPrime = numLevels - 1
				}
				successor := next[lPrime]
				if successor == nil {
					continue
				}

				gridNet := pExt.Mul(quantity.Hours(activeTime.Hours())) + baselinePower.Mul(durationHours)
				delta := r1 - r0
				loss := cost.Loss(gridRate, gridNet, in.PurchaseFee) + delta.Abs().Mul(in.DegradationRate)

				candidateNetLoss := loss + successor.NetLoss

				if best == nil || candidateNetLoss < best.NetLoss ||
					(candidateNetLoss == best.NetLoss && delta.Abs() < bestDelta) {
					step := Step{
						Interval:       interval,
						GridRate:       gridRate,
						BaselinePower:  baselinePower,
						WorkingMode:    mode,
						ResidualBefore: r0,
						ResidualAfter:  r1,
						GridNetEnergy:  gridNet,
						MonetaryLoss:   loss,
					}
					best = &Partial{
						NetLoss:             candidateNetLoss,
						CumulativeCharge:    successor.CumulativeCharge,
						CumulativeDischarge: successor.CumulativeDischarge,
						Next:                successor,
					}
					bestStep = step
					bestDelta = delta.Abs()
				}
			}

			if best != nil {
				s := bestStep
				best.Step = &s
				best.CumulativeCharge = best.Next.CumulativeCharge + s.Charge()
				best.CumulativeDischarge = best.Next.CumulativeDischarge + s.Discharge()
			}
			row[level] = best
		}

		next = row
	}

	initialLevel := int(q.Quantize(currentResidual))
	if initialLevel >= numLevels {
		initialLevel = numLevels - 1
	}

	result := next[initialLevel]
	if result == nil {
		return nil, coreerr.ErrNoSolution
	}
	return result, nil
}

// Backtrack walks a solved Partial chain forward from the initial state,
// yielding an ordered Step sequence ending just before the horizon end. It
// terminates when the next partial is the boundary sentinel.
func Backtrack(p *Partial) []Step {
	var steps []Step
	for p != nil && !p.IsBoundary() {
		steps = append(steps, *p.Step)
		p = p.Next
	}
	return steps
}
