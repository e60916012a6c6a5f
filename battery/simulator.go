package battery

import (
	"time"

	"github.com/cepro/battsched/quantity"
)

// Simulator is a fresh, per-call value type modelling one battery's
// residual energy as a load is applied. Each optimiser transition
// constructs a new Simulator, so there is no aliasing between candidate
// paths.
//
// Grounded on original_source's core/battery/simulator.rs: ApplyLoad
// composes a parasitic drain with an active exchange, in that order.
type Simulator struct {
	MinResidual quantity.Energy
	Residual    quantity.Energy
	MaxResidual quantity.Energy
	Efficiency  Efficiency
}

// NewSimulator constructs a Simulator at a given starting residual.
func NewSimulator(minResidual, residual, maxResidual quantity.Energy, eff Efficiency) Simulator {
	return Simulator{MinResidual: minResidual, Residual: residual, MaxResidual: maxResidual, Efficiency: eff}
}

// ApplyLoad mutates the simulator's Residual under a requested external
// power sustained over duration, and returns the portion of duration during
// which the battery was actively exchanging energy at its terminals.
func (s *Simulator) ApplyLoad(requestedExternal quantity.Power, duration time.Duration) time.Duration {
	s.applyParasiticLoad(duration)
	return s.applyActiveLoad(requestedExternal, duration)
}

func (s *Simulator) applyParasiticLoad(duration time.Duration) {
	drain := quantity.Energy(float64(s.Efficiency.ParasiticLoad) * duration.Hours())
	residual := s.Residual - drain
	if residual < 0 {
		residual = 0
	}
	s.Residual = residual
}

func (s *Simulator) applyActiveLoad(externalPower quantity.Power, duration time.Duration) time.Duration {
	var internalPower quantity.Power
	switch {
	case externalPower > 0:
		internalPower = quantity.Power(float64(externalPower) * s.Efficiency.ChargingEfficiency)
	case externalPower < 0:
		internalPower = quantity.Power(float64(externalPower) / s.Efficiency.DischargingEfficiency)
	default:
		return 0
	}

	residualBeforeClamp := s.Residual
	delta := quantity.Energy(float64(internalPower) * duration.Hours())
	tentative := residualBeforeClamp + delta

	lower := s.MinResidual
	if residualBeforeClamp < lower {
		lower = residualBeforeClamp
	}
	upper := s.MaxResidual
	if residualBeforeClamp > upper {
		upper = residualBeforeClamp
	}

	clamped := tentative
	if clamped < lower {
		clamped = lower
	}
	if clamped > upper {
		clamped = upper
	}

	s.Residual = clamped

	actualDelta := float64(clamped - residualBeforeClamp)
	activeTime := time.Duration(actualDelta / float64(internalPower) * float64(time.Hour))
	if activeTime < 0 {
		activeTime = 0
	}
	if activeTime > duration {
		activeTime = duration
	}
	return activeTime
}
