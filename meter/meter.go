// Package meter polls the household baseline-power meter over Modbus and
// publishes readings that feed the optimiser's baseline forecast.
package meter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gridxmodbus "github.com/grid-x/modbus"
	"github.com/google/uuid"

	"github.com/cepro/battsched/modbusaccess"
	"github.com/cepro/battsched/telemetry"
)

// Meter handles Modbus communications with the site's three-phase Acuvim II
// meter. Readings are taken regularly and sent onto the Telemetry channel.
type Meter struct {
	Telemetry chan telemetry.BaselineReading

	host   string
	id     uuid.UUID
	pt1    float64 // installed potential transformer 1 rating
	pt2    float64 // installed potential transformer 2 rating
	ct1    float64 // installed current transformer 1 rating
	ct2    float64 // installed current transformer 2 rating
	client gridxmodbus.Client
	logger *slog.Logger
}

// New dials the meter and returns a Meter ready to be run.
func New(id uuid.UUID, host string, pt1, pt2, ct1, ct2 float64) (*Meter, error) {

	logger := slog.Default().With("meter_id", id, "host", host)

	handler := gridxmodbus.NewTCPClientHandler(host)
	handler.Timeout = 10 * time.Second
	handler.SlaveID = 0x01

	logger.Info("connecting to meter")

	if err := handler.Connect(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer handler.Close()

	logger.Info("connected")

	// TODO: PT and CT ratios could be read over modbus on initialisation
	// rather than supplied by configuration.

	return &Meter{
		Telemetry: make(chan telemetry.BaselineReading),
		id:        id,
		host:      host,
		pt1:       pt1,
		pt2:       pt2,
		ct1:       ct1,
		ct2:       ct2,
		client:    gridxmodbus.NewClient(handler),
		logger:    logger,
	}, nil
}

// Run loops forever polling the meter every period and sends each reading on
// the Telemetry channel. It exits when ctx is cancelled.
func (m *Meter) Run(ctx context.Context, period time.Duration) error {

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-ticker.C:
			reading, err := m.poll(t)
			if err != nil {
				m.logger.Error("failed to poll meter", "error", err)
				continue
			}
			m.Telemetry <- reading
		}
	}
}

// poll reads the power register block and assembles a reading; the energy
// register block is not read.
func (m *Meter) poll(t time.Time) (telemetry.BaselineReading, error) {

	power, err := modbusaccess.PollBlock(m.client, m, powerBlock)
	if err != nil {
		return telemetry.BaselineReading{}, fmt.Errorf("poll power block: %w", err)
	}

	frequency, _ := power["Frequency"].(float64)
	totalPower, _ := power["PowerTotalActive"].(float64)

	return telemetry.BaselineReading{
		ID:         uuid.New(),
		Time:       t,
		MeterID:    m.id,
		Frequency:  frequency,
		TotalPower: totalPower,
	}, nil
}
