// Package cost implements the per-interval monetary loss function used by
// the optimiser, grounded on original_source's core/solver.rs loss() helper.
package cost

import "github.com/cepro/battsched/quantity"

// Loss returns the monetary cost of net grid energy e at rate, selling at a
// discount of purchaseFee when e is negative (net export).
//
//	cost = e * rate                    if e >= 0
//	     = e * (rate - purchaseFee)    if e <  0
func Loss(rate quantity.Rate, e quantity.Energy, purchaseFee quantity.Rate) quantity.Cost {
	if e >= 0 {
		return e.Mul(rate)
	}
	return e.Mul(rate.Sub(purchaseFee))
}
