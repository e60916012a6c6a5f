// Package config loads the scheduler's JSON configuration file, following
// the same flat-struct/encoding-json shape the donor codebase uses.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/cepro/battsched/schedule"
)

// DeviceConfig is shared by any Modbus-connected device.
type DeviceConfig struct {
	Host             string    `json:"host"`
	ID               uuid.UUID `json:"id"`
	PollIntervalSecs int       `json:"pollIntervalSecs"`
}

// MeterConfig configures the household baseline-power meter.
type MeterConfig struct {
	DeviceConfig
	Pt1 float64 `json:"pt1"`
	Pt2 float64 `json:"pt2"`
	Ct1 float64 `json:"ct1"`
	Ct2 float64 `json:"ct2"`
}

// InverterConfig configures the battery inverter device.
type InverterConfig struct {
	DeviceConfig
	NameplatePower  float64 `json:"nameplatePower"`
	NameplateEnergy float64 `json:"nameplateEnergy"`
	LegacyFirmware  bool    `json:"legacyFirmware"` // selects schedule.LegacyMaxSlots
}

// TariffConfig selects and configures the dynamic-rate provider.
type TariffConfig struct {
	Kind           string `json:"kind"` // e.g. "modo"
	URL            string `json:"url"`
	PollIntervalSecs int  `json:"pollIntervalSecs"`
	GranularitySecs  int  `json:"granularitySecs"`
}

// BatteryConfig carries the battery's static parameters and defaults.
type BatteryConfig struct {
	DesignCapacityWattHours float64 `json:"designCapacityWattHours"`
	MinSoCFraction          float64 `json:"minSoCFraction"`
	MaxSoCFraction          float64 `json:"maxSoCFraction"`
	MaxChargingWatts        float64 `json:"maxChargingWatts"`
	MaxDischargingWatts     float64 `json:"maxDischargingWatts"`
	DefaultChargingEff      float64 `json:"defaultChargingEfficiency"`
	DefaultDischargingEff   float64 `json:"defaultDischargingEfficiency"`
	DefaultParasiticWatts   float64 `json:"defaultParasiticWatts"`
	DegradationRatePerWattHour float64 `json:"degradationRatePerWattHour"`
	PurchaseFeePerWattHour  float64 `json:"purchaseFeePerWattHour"`
	QuantumWattHours        float64 `json:"quantumWattHours"`
}

// OptimizerConfig selects which working modes the solver is allowed to use.
type OptimizerConfig struct {
	AllowedModes []string `json:"allowedModes"`
	HorizonHours int      `json:"horizonHours"`
}

// SupabaseConfig configures the cloud upload target; the anon/user keys are
// supplied via environment variables, not this file.
type SupabaseConfig struct {
	URL    string `json:"url"`
	Schema string `json:"schema"`
}

// DataPlatformConfig configures local buffering and cloud upload.
type DataPlatformConfig struct {
	SQLitePath         string         `json:"sqlitePath"`
	UploadIntervalSecs int            `json:"uploadIntervalSecs"`
	MaxUploadAttempts  int            `json:"maxUploadAttempts"`
	Supabase           SupabaseConfig `json:"supabase"`
}

// SchedulerConfig configures the top-level run loop.
type SchedulerConfig struct {
	RecomputeIntervalSecs int `json:"recomputeIntervalSecs"`
	EfficiencyRefitHours  int `json:"efficiencyRefitHours"`
}

// Config is the scheduler's complete configuration file.
type Config struct {
	Meter        MeterConfig        `json:"meter"`
	Inverter     InverterConfig     `json:"inverter"`
	Tariff       TariffConfig       `json:"tariff"`
	Battery      BatteryConfig      `json:"battery"`
	Optimizer    OptimizerConfig    `json:"optimizer"`
	DataPlatform DataPlatformConfig `json:"dataPlatform"`
	Scheduler    SchedulerConfig    `json:"scheduler"`
}

// MaxSlots returns the inverter time-slot cap implied by InverterConfig.
func (c Config) MaxSlots() int {
	if c.Inverter.LegacyFirmware {
		return schedule.LegacyMaxSlots
	}
	return schedule.DefaultMaxSlots
}

// Read loads and parses the JSON configuration file at path.
func Read(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}
