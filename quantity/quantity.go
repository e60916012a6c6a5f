// Package quantity provides small dimensioned scalar types used throughout
// the scheduler core: Power, Energy, Cost and Rate. Each is a distinct named
// float64 type so the compiler catches unit-mixing mistakes (adding a Power
// to an Energy does not typecheck); construction rejects NaN so arithmetic
// never has to special-case it downstream.
package quantity

import "math"

// Power is expressed in watts. Positive is consumption/import, negative is
// generation/export, matching the sign convention used throughout the core.
type Power float64

// Energy is expressed in watt-hours.
type Energy float64

// Cost is expressed in the configured currency unit (e.g. euros).
type Cost float64

// Rate is expressed in currency per watt-hour (cost-per-energy).
type Rate float64

// ZeroPower is the additive identity for Power.
func ZeroPower() Power { return 0 }

// ZeroEnergy is the additive identity for Energy.
func ZeroEnergy() Energy { return 0 }

// ZeroCost is the additive identity for Cost.
func ZeroCost() Cost { return 0 }

// ZeroRate is the additive identity for Rate.
func ZeroRate() Rate { return 0 }

// NewPower validates and constructs a Power, rejecting NaN.
func NewPower(watts float64) (Power, error) {
	if math.IsNaN(watts) {
		return 0, errNaN("Power")
	}
	return Power(watts), nil
}

// NewEnergy validates and constructs an Energy, rejecting NaN.
func NewEnergy(wattHours float64) (Energy, error) {
	if math.IsNaN(wattHours) {
		return 0, errNaN("Energy")
	}
	return Energy(wattHours), nil
}

// NewRate validates and constructs a Rate, rejecting NaN.
func NewRate(perWattHour float64) (Rate, error) {
	if math.IsNaN(perWattHour) {
		return 0, errNaN("Rate")
	}
	return Rate(perWattHour), nil
}

func errNaN(kind string) error {
	return &nanError{kind: kind}
}

type nanError struct{ kind string }

func (e *nanError) Error() string { return "quantity: NaN is not a valid " + e.kind }

// Hours is a dimensionless elapsed-time scalar used when scaling Power into
// Energy (Power * Hours = Energy).
type Hours float64

// Mul scales Power by a duration to yield Energy.
func (p Power) Mul(h Hours) Energy { return Energy(float64(p) * float64(h)) }

// Abs returns the absolute value of an Energy.
func (e Energy) Abs() Energy {
	if e < 0 {
		return -e
	}
	return e
}

// Abs returns the absolute value of a Power.
func (p Power) Abs() Power {
	if p < 0 {
		return -p
	}
	return p
}

// Add returns the sum of two Energy values.
func (e Energy) Add(other Energy) Energy { return e + other }

// Sub returns the difference of two Energy values.
func (e Energy) Sub(other Energy) Energy { return e - other }

// Clamp restricts p to [lo, hi]. Callers are responsible for ensuring
// lo <= hi; the function does not reorder them.
func (p Power) Clamp(lo, hi Power) Power {
	if p < lo {
		return lo
	}
	if p > hi {
		return hi
	}
	return p
}

// MaxEnergy returns the larger of two Energy values.
func MaxEnergy(a, b Energy) Energy {
	if a > b {
		return a
	}
	return b
}

// MinEnergy returns the smaller of two Energy values.
func MinEnergy(a, b Energy) Energy {
	if a < b {
		return a
	}
	return b
}

// Mul multiplies an Energy by a Rate (currency per watt-hour) to yield a
// Cost.
func (e Energy) Mul(r Rate) Cost { return Cost(float64(e) * float64(r)) }

// Sub returns the difference between two rates.
func (r Rate) Sub(other Rate) Rate { return r - other }
