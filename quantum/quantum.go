// Package quantum implements the energy-axis discretisation used by the
// optimiser's dynamic program: a bijection-ish mapping between continuous
// residual energy and non-negative integer "levels" spaced one Quantum
// apart.
package quantum

import (
	"fmt"
	"math"

	"github.com/cepro/battsched/coreerr"
	"github.com/cepro/battsched/quantity"
)

// DefaultWattHours is the default quantum size, 10 Wh.
const DefaultWattHours = 10.0

// Quantum is a positive energy step.
type Quantum quantity.Energy

// New validates and constructs a Quantum, requiring a strictly positive,
// finite size.
func New(wattHours float64) (Quantum, error) {
	if math.IsNaN(wattHours) || math.IsInf(wattHours, 0) || wattHours <= 0 {
		return 0, fmt.Errorf("%w: quantum must be positive and finite, got %v", coreerr.ErrInvalidInput, wattHours)
	}
	return Quantum(wattHours), nil
}

// Default returns the default 10 Wh quantum.
func Default() Quantum { return Quantum(DefaultWattHours) }

// Level is a non-negative integer index into the discretised energy axis;
// the represented energy is Level * Quantum.
type Level int

// Quantize rounds energy to the nearest level, clamping negative energy to
// level 0.
func (q Quantum) Quantize(e quantity.Energy) Level {
	if e <= 0 {
		return 0
	}
	return Level(math.Round(float64(e) / float64(q)))
}

// Ceil rounds energy up to the next level, clamping negative energy to
// level 0.
func (q Quantum) Ceil(e quantity.Energy) Level {
	if e <= 0 {
		return 0
	}
	return Level(math.Ceil(float64(e) / float64(q)))
}

// Dequantize returns the continuous energy represented by a level.
func (q Quantum) Dequantize(l Level) quantity.Energy {
	return quantity.Energy(float64(l) * float64(q))
}
