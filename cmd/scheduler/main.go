// Command scheduler runs the household battery/inverter dynamic-tariff
// schedule optimiser: it polls the site meter and inverter, periodically
// recomputes the optimal dispatch plan, writes the compiled time-slot
// schedule to the inverter, and buffers/uploads telemetry through the data
// platform.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/cepro/battsched/battery"
	"github.com/cepro/battsched/config"
	"github.com/cepro/battsched/dataplatform"
	"github.com/cepro/battsched/inverter"
	"github.com/cepro/battsched/meter"
	"github.com/cepro/battsched/quantity"
	"github.com/cepro/battsched/quantum"
	"github.com/cepro/battsched/scheduler"
	"github.com/cepro/battsched/tariff"
	"github.com/cepro/battsched/workingmode"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	var configFilePath string
	flag.StringVar(&configFilePath, "f", "./config.json", "specify config file path")
	flag.Parse()

	slog.Info("starting", "config_file", configFilePath)

	cfg, err := config.Read(configFilePath)
	if err != nil {
		slog.Error("failed to read config", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	householdMeter, err := meter.New(cfg.Meter.ID, cfg.Meter.Host, cfg.Meter.Pt1, cfg.Meter.Pt2, cfg.Meter.Ct1, cfg.Meter.Ct2)
	if err != nil {
		slog.Error("failed to create meter", "error", err)
		return
	}
	go householdMeter.Run(ctx, time.Second*time.Duration(cfg.Meter.PollIntervalSecs))

	designCapacity, err := quantity.NewEnergy(cfg.Battery.DesignCapacityWattHours)
	if err != nil {
		slog.Error("invalid battery design capacity", "error", err)
		return
	}
	nameplatePower, err := quantity.NewPower(cfg.Inverter.NameplatePower)
	if err != nil {
		slog.Error("invalid inverter nameplate power", "error", err)
		return
	}

	inv, err := inverter.New(cfg.Inverter.ID, cfg.Inverter.Host, designCapacity, nameplatePower)
	if err != nil {
		slog.Error("failed to create inverter", "error", err)
		return
	}
	go inv.Run(ctx, time.Second*time.Duration(cfg.Inverter.PollIntervalSecs))

	modoClient := tariff.NewModo(http.Client{Timeout: 10 * time.Second})
	go modoClient.Run(ctx, time.Second*time.Duration(cfg.Tariff.PollIntervalSecs))

	dp, err := dataplatform.New(
		cfg.DataPlatform.Supabase.URL,
		os.Getenv("SUPABASE_ANON_KEY"),
		os.Getenv("SUPABASE_USER_KEY"),
		cfg.DataPlatform.Supabase.Schema,
		cfg.DataPlatform.SQLitePath,
	)
	if err != nil {
		slog.Error("failed to create data platform", "error", err)
		return
	}
	go dp.Run(ctx, time.Second*time.Duration(cfg.DataPlatform.UploadIntervalSecs))

	maxCharge, err := quantity.NewPower(cfg.Battery.MaxChargingWatts)
	if err != nil {
		slog.Error("invalid max charging power", "error", err)
		return
	}
	maxDischarge, err := quantity.NewPower(cfg.Battery.MaxDischargingWatts)
	if err != nil {
		slog.Error("invalid max discharging power", "error", err)
		return
	}
	limits, err := battery.NewLimits(maxCharge, maxDischarge)
	if err != nil {
		slog.Error("invalid battery power limits", "error", err)
		return
	}
	purchaseFee, err := quantity.NewRate(cfg.Battery.PurchaseFeePerWattHour)
	if err != nil {
		slog.Error("invalid purchase fee", "error", err)
		return
	}
	degradationRate, err := quantity.NewRate(cfg.Battery.DegradationRatePerWattHour)
	if err != nil {
		slog.Error("invalid degradation rate", "error", err)
		return
	}
	quantumSize, err := quantum.New(cfg.Battery.QuantumWattHours)
	if err != nil {
		slog.Error("invalid quantum size", "error", err)
		return
	}

	allowedModes := workingmode.All()
	if len(cfg.Optimizer.AllowedModes) > 0 {
		allowedModes = parseAllowedModes(cfg.Optimizer.AllowedModes)
	}

	sched := scheduler.New(
		scheduler.Config{
			BatteryID:             cfg.Inverter.ID,
			DesignCapacity:        designCapacity,
			MinSoCFraction:        cfg.Battery.MinSoCFraction,
			MaxSoCFraction:        cfg.Battery.MaxSoCFraction,
			Limits:                limits,
			PurchaseFee:           purchaseFee,
			DegradationRate:       degradationRate,
			Quantum:               quantumSize,
			AllowedModes:          allowedModes,
			HorizonHours:          cfg.Optimizer.HorizonHours,
			MaxSlots:              cfg.MaxSlots(),
			RecomputePeriod:       time.Second * time.Duration(cfg.Scheduler.RecomputeIntervalSecs),
			EfficiencyRefitPeriod: time.Hour * time.Duration(cfg.Scheduler.EfficiencyRefitHours),
		},
		modoClient,
		inv,
		dp.StepRecords,
		dp.EfficiencyEstimateRecords,
	)
	go func() {
		if err := sched.Run(ctx); err != nil {
			slog.Error("scheduler stopped", "error", err)
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case reading := <-householdMeter.Telemetry:
				sched.ObserveBaseline(reading)
			case measurement := <-inv.Telemetry:
				sched.ObserveBattery(measurement)
			}
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)
	<-signalChan

	cancel()
	time.Sleep(100 * time.Millisecond)

	slog.Info("exiting")
	os.Exit(0)
}

func parseAllowedModes(names []string) workingmode.Set {
	byName := map[string]workingmode.Mode{
		"Idle":      workingmode.Idle,
		"Harvest":   workingmode.Harvest,
		"SelfUse":   workingmode.SelfUse,
		"Charge":    workingmode.Charge,
		"Discharge": workingmode.Discharge,
	}
	modes := make([]workingmode.Mode, 0, len(names))
	for _, name := range names {
		if m, ok := byName[name]; ok {
			modes = append(modes, m)
		} else {
			slog.Warn("ignoring unknown working mode in config", "mode", name)
		}
	}
	if len(modes) == 0 {
		return workingmode.All()
	}
	return workingmode.NewSet(modes...)
}
