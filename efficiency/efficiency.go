// Package efficiency fits the battery's charging efficiency, discharging
// efficiency, and parasitic load from a stream of time-adjacent battery
// measurements via ordinary least squares without an intercept.
//
// Grounded on original_source's statistics/battery.rs (try_estimate, which
// used linfa_linear::LinearRegression::new().with_intercept(false)); this
// rework uses gonum.org/v1/gonum/mat since no OLS library appears anywhere
// in the retrieval pack's Go corpus (see DESIGN.md).
package efficiency

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/cepro/battsched/battery"
	"github.com/cepro/battsched/coreerr"
	"github.com/cepro/battsched/quantity"
)

// Measurement is one point-in-time battery reading.
type Measurement struct {
	Timestamp        time.Time
	ResidualEnergy   quantity.Energy
	LifetimeImported quantity.Energy
	LifetimeExported quantity.Energy
}

// Estimate is the result of fitting the efficiency model, carrying the
// recovered parameters plus the sample count and total observed hours.
type Estimate struct {
	Efficiency battery.Efficiency
	NSamples   int
	TotalHours float64
}

// Fit fits
//
//	Δresidual ≈ α·Δimport − β·Δexport − γ·Δtime
//
// over consecutive pairs in measurements (which must already be ordered by
// Timestamp), returning charging efficiency = α, discharging efficiency =
// 1/β, parasitic load = γ. Fails with coreerr.ErrInsufficientData if fewer
// than one pair is available, or coreerr.ErrInvalidEstimate if the fitted
// parameters are non-finite or out of their valid ranges.
func Fit(measurements []Measurement) (Estimate, error) {
	n := len(measurements) - 1
	if n < 1 {
		return Estimate{}, coreerr.ErrInsufficientData
	}

	design := mat.NewDense(n, 3, nil)
	target := mat.NewDense(n, 1, nil)

	var totalHours float64
	for i := 0; i < n; i++ {
		prev := measurements[i]
		next := measurements[i+1]

		dImport := float64(next.LifetimeImported - prev.LifetimeImported)
		dExport := float64(next.LifetimeExported - prev.LifetimeExported)
		dTime := next.Timestamp.Sub(prev.Timestamp).Hours()
		dResidual := float64(next.ResidualEnergy - prev.ResidualEnergy)

		design.Set(i, 0, dImport)
		design.Set(i, 1, dExport)
		design.Set(i, 2, dTime)
		target.Set(i, 0, dResidual)

		totalHours += dTime
	}

	var params mat.Dense
	var qr mat.QR
	qr.Factorize(design)

	var x mat.Dense
	if err := qr.SolveTo(&x, false, target); err != nil {
		return Estimate{}, fmt.Errorf("%w: %v", coreerr.ErrInvalidEstimate, err)
	}
	params.CloneFrom(&x)

	alpha := params.At(0, 0)
	negInvBeta := params.At(1, 0)
	gamma := params.At(2, 0)

	charging := alpha
	var discharging float64
	if negInvBeta != 0 {
		discharging = -1.0 / negInvBeta
	}
	parasitic := -gamma

	if math.IsNaN(charging) || math.IsInf(charging, 0) ||
		math.IsNaN(discharging) || math.IsInf(discharging, 0) ||
		math.IsNaN(parasitic) || math.IsInf(parasitic, 0) {
		return Estimate{}, fmt.Errorf("%w: fitted parameters are non-finite", coreerr.ErrInvalidEstimate)
	}
	if parasitic < 0 {
		return Estimate{}, fmt.Errorf("%w: fitted parasitic load %v is negative", coreerr.ErrInvalidEstimate, parasitic)
	}
	if charging <= 0 || charging > 1 || discharging <= 0 || discharging > 1 {
		return Estimate{}, fmt.Errorf("%w: fitted efficiency out of (0,1]: charging=%v discharging=%v", coreerr.ErrInvalidEstimate, charging, discharging)
	}

	eff, err := battery.NewEfficiency(charging, discharging, quantity.Power(parasitic))
	if err != nil {
		return Estimate{}, fmt.Errorf("%w: %v", coreerr.ErrInvalidEstimate, err)
	}

	return Estimate{Efficiency: eff, NSamples: n, TotalHours: totalHours}, nil
}
