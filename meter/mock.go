package meter

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cepro/battsched/telemetry"
)

// Mock emits synthetic baseline readings for local development and testing,
// with the same Run contract as Meter but no Modbus connection.
type Mock struct {
	Telemetry chan telemetry.BaselineReading
	id        uuid.UUID
}

// NewMock returns a Mock reporting under the given meter ID.
func NewMock(id uuid.UUID) *Mock {
	return &Mock{
		Telemetry: make(chan telemetry.BaselineReading),
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
			m.Telemetry <- telemetry.BaselineReading{
				ID:         uuid.New(),
				Time:       t,
				MeterID:    m.id,
				Frequency:  50.0,
				TotalPower: 1200.0,
			}
		}
	}
}
