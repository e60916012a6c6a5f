package inverter

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cepro/battsched/schedule"
	"github.com/cepro/battsched/telemetry"
)

// Mock emits synthetic battery measurements and logs schedule writes instead
// of talking to real hardware, for local development and testing.
type Mock struct {
	Telemetry chan telemetry.BatteryMeasurement
	id        uuid.UUID
}

// NewMock returns a Mock reporting under the given battery ID.
func NewMock(id uuid.UUID) *Mock {
	return &Mock{
		Telemetry: make(chan telemetry.BatteryMeasurement),
		id:        id,
	}
}

func (m *Mock) Run(ctx context.Context, period time.Duration) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-ticker.C:
			m.Telemetry <- telemetry.BatteryMeasurement{
				ID:               uuid.New(),
				Time:             t,
				BatteryID:        m.id,
				ResidualEnergy:   5000,
				LifetimeImported: 10000,
				LifetimeExported: 9000,
				StateOfCharge:    0.5,
				StateOfHealth:    1.0,
			}
		}
	}
}

// WriteSchedule logs the schedule it would have written.
func (m *Mock) WriteSchedule(slots []schedule.Slot) error {
	slog.Info("mock inverter: would write schedule", "slots", len(slots))
	return nil
}
