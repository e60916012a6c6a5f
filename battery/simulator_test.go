package battery

import (
	"testing"
	"time"

	"github.com/cepro/battsched/quantity"
)

func TestApplyLoadActiveTimeBounds(t *testing.T) {
	eff, err := NewEfficiency(0.9, 0.9, 5)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name      string
		residual  quantity.Energy
		min       quantity.Energy
		max       quantity.Energy
		power     quantity.Power
		duration  time.Duration
	}{
		{"charge within bounds", 500, 0, 2000, 1000, time.Hour},
		{"discharge within bounds", 1500, 0, 2000, -1000, time.Hour},
		{"charge hits ceiling", 1900, 0, 2000, 1000, time.Hour},
		{"discharge hits floor", 100, 0, 2000, -1000, time.Hour},
		{"idle", 1000, 0, 2000, 0, time.Hour},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sim := NewSimulator(c.min, c.residual, c.max, eff)
			active := sim.ApplyLoad(c.power, c.duration)

			if active < 0 || active > c.duration {
				t.Errorf("active time %v out of [0, %v]", active, c.duration)
			}

			upperBound := c.max
			if c.residual > upperBound {
				upperBound = c.residual
			}
			if sim.Residual < 0 || sim.Residual > upperBound {
				t.Errorf("residual %v out of [0, %v]", sim.Residual, upperBound)
			}
		})
	}
}

func TestApplyLoadParasiticDrainOnly(t *testing.T) {
	eff, err := NewEfficiency(1, 1, 100)
	if err != nil {
		t.Fatal(err)
	}
	sim := NewSimulator(0, 1000, 2000, eff)
	active := sim.ApplyLoad(0, time.Hour)

	if active != 0 {
		t.Errorf("expected zero active time for zero requested power, got %v", active)
	}
	want := quantity.Energy(900)
	if sim.Residual != want {
		t.Errorf("residual after parasitic drain = %v, want %v", sim.Residual, want)
	}
}

func TestApplyLoadParasiticDrainFloorsAtZero(t *testing.T) {
	eff, err := NewEfficiency(1, 1, 1000)
	if err != nil {
		t.Fatal(err)
	}
	sim := NewSimulator(0, 100, 2000, eff)
	sim.ApplyLoad(0, time.Hour)
	if sim.Residual != 0 {
		t.Errorf("residual after heavy parasitic drain = %v, want 0", sim.Residual)
	}
}

func TestFloorClampHoldsAlreadyBelowFloorBattery(t *testing.T) {
	// A battery already below its operational minimum is held there by the
	// clamp, not pushed further down, per the non-monotonic clamp rule.
	eff, err := NewEfficiency(1, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	sim := NewSimulator(500, 200, 2000, eff) // residual 200 < min 500
	sim.ApplyLoad(-1000, time.Hour)          // request heavy discharge
	if sim.Residual < 200 {
		t.Errorf("residual %v dropped below its pre-clamp value 200", sim.Residual)
	}
}
