// Package inverter writes a compiled time-slot schedule to the battery
// inverter over Modbus and reads back its live energy state for the
// efficiency estimator.
//
// Adapted from the donor's powerpack package: the donor pushed direct
// real-power commands every poll period; this package instead programs the
// inverter's own in-device time-slot table once per recompute cycle and
// polls status only for telemetry.
package inverter

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/cepro/battsched/battery"
	"github.com/cepro/battsched/modbus"
	"github.com/cepro/battsched/modbusaccess"
	"github.com/cepro/battsched/quantity"
	"github.com/cepro/battsched/schedule"
	"github.com/cepro/battsched/telemetry"
)

// Inverter handles Modbus communications with the battery inverter: writing
// the compiled schedule.Slot table and polling the live battery state.
type Inverter struct {
	Telemetry chan telemetry.BatteryMeasurement

	id             uuid.UUID
	designCapacity quantity.Energy
	nameplatePower quantity.Power
	client         *modbus.Client
	logger         *slog.Logger
}

// New dials the inverter and returns an Inverter ready to be run.
func New(id uuid.UUID, host string, designCapacity quantity.Energy, nameplatePower quantity.Power) (*Inverter, error) {

	logger := slog.Default().With("inverter_id", id, "host", host)

	logger.Info("connecting to inverter")

	client, err := modbus.NewClient(host)
	if err != nil {
		return nil, fmt.Errorf("create modbus client: %w", err)
	}

	inv := &Inverter{
		Telemetry:      make(chan telemetry.BatteryMeasurement, 1),
		id:             id,
		designCapacity: designCapacity,
		nameplatePower: nameplatePower,
		client:         client,
		logger:         logger,
	}

	config, err := client.ReadBlock(configBlock, nil)
	if err != nil {
		return nil, fmt.Errorf("poll config block: %w", err)
	}
	logger.Info("retrieved inverter configuration", "config", config)

	return inv, nil
}

// Run polls the inverter's battery status every period, converting each
// reading into a telemetry.BatteryMeasurement and sending it on Telemetry.
// Exits when ctx is cancelled.
func (inv *Inverter) Run(ctx context.Context, period time.Duration) error {

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-ticker.C:
			measurement, err := inv.poll(t)
			if err != nil {
				inv.logger.Error("failed to poll inverter", "error", err)
				continue
			}
			inv.Telemetry <- measurement
		}
	}
}

func (inv *Inverter) poll(t time.Time) (telemetry.BatteryMeasurement, error) {
	status, err := inv.client.ReadBlock(statusBlock, nil)
	if err != nil {
		return telemetry.BatteryMeasurement{}, fmt.Errorf("poll status block: %w", err)
	}

	soc, _ := status["StateOfCharge"].(float64)
	soh, _ := status["StateOfHealth"].(float64)
	imported, _ := status["LifetimeImported"].(float64)
	exported, _ := status["LifetimeExported"].(float64)

	state, err := battery.NewEnergyState(inv.designCapacity, soc, soh, 0, 1)
	if err != nil {
		return telemetry.BatteryMeasurement{}, fmt.Errorf("build energy state: %w", err)
	}

	return telemetry.BatteryMeasurement{
		ID:               uuid.New(),
		Time:             t,
		BatteryID:        inv.id,
		ResidualEnergy:   float64(state.ResidualEnergy()),
		LifetimeImported: imported,
		LifetimeExported: exported,
		StateOfCharge:    soc,
		StateOfHealth:    soh,
	}, nil
}

// WriteSchedule programs the inverter's in-device time-slot table with the
// given compiled slots, replacing whatever table was previously active, and
// sets the active slot count so firmware ignores stale trailing entries.
func (inv *Inverter) WriteSchedule(slots []schedule.Slot) error {
	for i, slot := range slots {
		addrs := slotAddrs(i)

		writes := []struct {
			addr uint16
			val  interface{}
		}{
			{addrs.startHour, uint16(slot.Start.Hour)},
			{addrs.startMinute, uint16(slot.Start.Minute)},
			{addrs.endHour, uint16(slot.End.Hour)},
			{addrs.endMinute, uint16(slot.End.Minute)},
			{addrs.mode, uint16(slot.Mode)},
		}
		for _, w := range writes {
			if err := inv.client.WriteMetric(modbus.Metric{StartAddr: w.addr, DataType: modbusaccess.Uint16Type}, w.val); err != nil {
				return fmt.Errorf("write slot %d: %w", i, err)
			}
		}

		feedMilliwatts := uint32(math.Round(float64(slot.FeedPower) * 1000))
		if err := inv.client.WriteMetric(modbus.Metric{StartAddr: addrs.feedPower, DataType: modbusaccess.Int32Type}, feedMilliwatts); err != nil {
			return fmt.Errorf("write slot %d feed power: %w", i, err)
		}
	}

	if err := inv.client.WriteMetric(modbus.Metric{StartAddr: slotCountAddr, DataType: modbusaccess.Uint16Type}, uint16(len(slots))); err != nil {
		return fmt.Errorf("write slot count: %w", err)
	}

	inv.logger.Info("wrote inverter schedule", "slots", len(slots))
	return nil
}

// DesignCapacity returns the battery's nameplate energy capacity.
func (inv *Inverter) DesignCapacity() quantity.Energy {
	return inv.designCapacity
}

// NameplatePower returns the inverter's nameplate power rating.
func (inv *Inverter) NameplatePower() quantity.Power {
	return inv.nameplatePower
}
