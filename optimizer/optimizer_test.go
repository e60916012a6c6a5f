package optimizer

import (
	"math"
	"testing"
	"time"

	"github.com/cepro/battsched/battery"
	"github.com/cepro/battsched/quantity"
	"github.com/cepro/battsched/quantum"
	"github.com/cepro/battsched/rates"
	"github.com/cepro/battsched/timeinterval"
	"github.com/cepro/battsched/workingmode"
)

func mustInterval(t *testing.T, start, end time.Time) timeinterval.Interval {
	t.Helper()
	iv, err := timeinterval.New(start, end)
	if err != nil {
		t.Fatal(err)
	}
	return iv
}

func hourly(t *testing.T, base time.Time, rs ...float64) []rates.Point {
	t.Helper()
	var pts []rates.Point
	for i, r := range rs {
		start := base.Add(time.Duration(i) * time.Hour)
		end := start.Add(time.Hour)
		pts = append(pts, rates.Point{Interval: mustInterval(t, start, end), Rate: quantity.Rate(r)})
	}
	return pts
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestIdleAlwaysSolvable(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	state, err := battery.NewEnergyState(2000, 0, 1, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	limits, _ := battery.NewLimits(1000, 1000)

	in := Input{
		RatePoints:   hourly(t, base, 0.1, 0.2, 0.3),
		Baseline:     BaselineTable{Fallback: 0},
		AllowedModes: workingmode.NewSet(workingmode.Idle),
		Battery:      state,
		Limits:       limits,
		Efficiency:   battery.DefaultEfficiency(),
		Now:          base,
		Quantum:      quantum.Default(),
	}

	_, err = Solve(in)
	if err != nil {
		t.Fatalf("expected a solution with Idle allowed, got error: %v", err)
	}
}

func TestSingleIntervalIdleNetLossFormula(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	state, err := battery.NewEnergyState(2000, 0.5, 1, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	limits, _ := battery.NewLimits(1000, 1000)
	eff, _ := battery.NewEfficiency(1, 1, 50)

	in := Input{
		RatePoints:   hourly(t, base, 0.25),
		Baseline:     BaselineTable{Fallback: 100},
		AllowedModes: workingmode.NewSet(workingmode.Idle),
		Battery:      state,
		Limits:       limits,
		Efficiency:   eff,
		DegradationRate: 0.01,
		Now:          base,
		Quantum:      quantum.Default(),
	}

	result, err := Solve(in)
	if err != nil {
		t.Fatal(err)
	}

	wantBase := 100.0 * 0.25
	wantDegradation := 0.01 * 50.0
	want := wantBase + wantDegradation
	if !approxEqual(float64(result.NetLoss), want, 1e-6) {
		t.Errorf("net loss = %v, want %v", result.NetLoss, want)
	}
}

func TestScenario1PureArbitrage(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	state, err := battery.NewEnergyState(2000, 0, 1, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	limits, _ := battery.NewLimits(1000, 1000)

	in := Input{
		RatePoints:   hourly(t, base, 0.10/1000, 0.40/1000), // 0.10 and 0.40 per kWh, as Rate is per Wh
		Baseline:     BaselineTable{Fallback: 0},
		AllowedModes: workingmode.NewSet(workingmode.Charge, workingmode.Discharge, workingmode.Idle),
		Battery:      state,
		Limits:       limits,
		Efficiency:   battery.DefaultEfficiency(),
		Now:          base,
		Quantum:      quantum.Default(),
	}

	result, err := Solve(in)
	if err != nil {
		t.Fatal(err)
	}

	steps := Backtrack(result)
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}
	if steps[0].WorkingMode != workingmode.Charge {
		t.Errorf("step 0 mode = %v, want Charge", steps[0].WorkingMode)
	}
	if steps[1].WorkingMode != workingmode.Discharge {
		t.Errorf("step 1 mode = %v, want Discharge", steps[1].WorkingMode)
	}

	want := -0.30
	if !approxEqual(float64(result.NetLoss), want, 1e-6) {
		t.Errorf("net loss = %v, want %v", result.NetLoss, want)
	}
}

func TestScenario2FloorEnforcement(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	state, err := battery.NewEnergyState(2000, 0, 1, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	limits, _ := battery.NewLimits(1000, 1000)

	in := Input{
		RatePoints:   hourly(t, base, 0.10, 0.40),
		Baseline:     BaselineTable{Fallback: 0},
		AllowedModes: workingmode.NewSet(workingmode.Discharge),
		Battery:      state,
		Limits:       limits,
		Efficiency:   battery.DefaultEfficiency(),
		Now:          base,
		Quantum:      quantum.Default(),
	}

	_, err = Solve(in)
	if err == nil {
		t.Fatal("expected NoSolution error")
	}
}

func TestScenario3EfficiencyAsymmetry(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	state, err := battery.NewEnergyState(2000, 0, 1, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	limits, _ := battery.NewLimits(1000, 1000)
	eff, _ := battery.NewEfficiency(0.9, 0.9, 0)

	in := Input{
		RatePoints:   hourly(t, base, 0.10/1000, 0.40/1000), // 0.10 and 0.40 per kWh, as Rate is per Wh
		Baseline:     BaselineTable{Fallback: 0},
		AllowedModes: workingmode.NewSet(workingmode.Charge, workingmode.Discharge, workingmode.Idle),
		Battery:      state,
		Limits:       limits,
		Efficiency:   eff,
		Now:          base,
		Quantum:      quantum.Default(),
	}

	result, err := Solve(in)
	if err != nil {
		t.Fatal(err)
	}

	want := 0.10 - 0.324
	if !approxEqual(float64(result.NetLoss), want, 0.01) {
		t.Errorf("net loss = %v, want approx %v", result.NetLoss, want)
	}
}

func TestScenario4SelfUseUnderDeficit(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	state, err := battery.NewEnergyState(2000, 0.5, 1, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	limits, _ := battery.NewLimits(1000, 1000)

	in := Input{
		RatePoints:   hourly(t, base, 0.30),
		Baseline:     BaselineTable{Fallback: 500},
		AllowedModes: workingmode.NewSet(workingmode.Idle, workingmode.SelfUse),
		Battery:      state,
		Limits:       limits,
		Efficiency:   battery.DefaultEfficiency(),
		Now:          base,
		Quantum:      quantum.Default(),
	}

	result, err := Solve(in)
	if err != nil {
		t.Fatal(err)
	}
	steps := Backtrack(result)
	if len(steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(steps))
	}
	if steps[0].WorkingMode != workingmode.SelfUse {
		t.Errorf("mode = %v, want SelfUse", steps[0].WorkingMode)
	}
	if !approxEqual(float64(result.NetLoss), 0, 1e-6) {
		t.Errorf("net loss = %v, want 0", result.NetLoss)
	}
}

func TestScenario5HarvestAsymmetry(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	state, err := battery.NewEnergyState(2000, 0, 1, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	limits, _ := battery.NewLimits(1000, 1000)

	in := Input{
		RatePoints:   hourly(t, base, 0.20/1000), // 0.20 per kWh, as Rate is per Wh
		Baseline:     BaselineTable{Fallback: -800},
		AllowedModes: workingmode.NewSet(workingmode.Idle, workingmode.Harvest, workingmode.SelfUse),
		Battery:      state,
		Limits:       limits,
		Efficiency:   battery.DefaultEfficiency(),
		PurchaseFee:  0.05 / 1000,
		Now:          base,
		Quantum:      quantum.Default(),
	}

	result, err := Solve(in)
	if err != nil {
		t.Fatal(err)
	}
	want := -0.12
	if !approxEqual(float64(result.NetLoss), want, 1e-6) {
		t.Errorf("net loss = %v, want %v", result.NetLoss, want)
	}
}

func TestRateMonotonicity(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	state, err := battery.NewEnergyState(2000, 0.5, 1, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	limits, _ := battery.NewLimits(1000, 1000)

	// Restricted to Idle so the household's baseline deficit is always
	// imported from the grid: net_loss is then strictly rate * energy,
	// which is monotonic. (With export-capable modes allowed, raising the
	// rate can make selling more profitable and lower net_loss on a single
	// interval with no downstream value for stored energy -- the
	// monotonicity property holds per forced-import path, not universally
	// across re-optimized mode choices.)
	solveAt := func(rate float64) quantity.Cost {
		in := Input{
			RatePoints:   hourly(t, base, rate),
			Baseline:     BaselineTable{Fallback: 500},
			AllowedModes: workingmode.NewSet(workingmode.Idle),
			Battery:      state,
			Limits:       limits,
			Efficiency:   battery.DefaultEfficiency(),
			Now:          base,
			Quantum:      quantum.Default(),
		}
		result, err := Solve(in)
		if err != nil {
			t.Fatal(err)
		}
		return result.NetLoss
	}

	low := solveAt(0.10)
	high := solveAt(0.50)
	if high < low {
		t.Errorf("raising the rate should not decrease net loss: low=%v high=%v", low, high)
	}
}
