package meter

import "github.com/cepro/battsched/modbusaccess"

// powerBlock covers the Acuvim II's instantaneous electrical measurements.
var powerBlock = modbusaccess.RegisterBlock{
	Name:         "Power",
	StartAddr:    12288,
	NumRegisters: 60,
	Registers: map[string]modbusaccess.Register{
		"Frequency": {
			StartAddr: 12288,
			DataType:  modbusaccess.FloatType,
		},
		"VoltageLineAverage": {
			StartAddr:   12304,
			DataType:    modbusaccess.FloatType,
			ScalingFunc: scaleVoltage,
		},
		// Line voltages are available here, but are not of interest at the moment.
		"CurrentPhA": {
			StartAddr:   12306,
			DataType:    modbusaccess.FloatType,
			ScalingFunc: scaleCurrent,
		},
		"CurrentPhB": {
			StartAddr:   12308,
			DataType:    modbusaccess.FloatType,
			ScalingFunc: scaleCurrent,
		},
		"CurrentPhC": {
			StartAddr:   12310,
			DataType:    modbusaccess.FloatType,
			ScalingFunc: scaleCurrent,
		},
		"CurrentPhAverage": {
			StartAddr:   12312,
			DataType:    modbusaccess.FloatType,
			ScalingFunc: scaleCurrent,
		},
		// Neutral current is available here, but it's not of interest at the moment.
		"PowerPhAActive": {
			StartAddr:   12316,
			DataType:    modbusaccess.FloatType,
			ScalingFunc: scalePower,
		},
		"PowerPhBActive": {
			StartAddr:   12318,
			DataType:    modbusaccess.FloatType,
			ScalingFunc: scalePower,
		},
		"PowerPhCActive": {
			StartAddr:   12320,
			DataType:    modbusaccess.FloatType,
			ScalingFunc: scalePower,
		},
		"PowerTotalActive": {
			StartAddr:   12322,
			DataType:    modbusaccess.FloatType,
			ScalingFunc: scalePower,
		},
		// Reactive and apparent power, and power factor, are available here but
		// are not needed by the baseline-power reading.
	},
}

// energyBlock covers the Acuvim II's cumulative energy counters.
var energyBlock = modbusaccess.RegisterBlock{
	Name:         "Energy",
	StartAddr:    16456,
	NumRegisters: 4,
	Registers: map[string]modbusaccess.Register{
		"EnergyImported": {
			StartAddr:   16456,
			DataType:    modbusaccess.FloatType,
			ScalingFunc: scaleEnergy,
		},
		"EnergyExported": {
			StartAddr:   16458,
			DataType:    modbusaccess.FloatType,
			ScalingFunc: scaleEnergy,
		},
	},
}

func scaleVoltage(scaler modbusaccess.Scaler, val interface{}) interface{} {
	m := scaler.(*Meter)
	return val.(float64) * (m.pt1 / m.pt2)
}

func scaleCurrent(scaler modbusaccess.Scaler, val interface{}) interface{} {
	m := scaler.(*Meter)
	return val.(float64) * (m.ct1 / m.ct2)
}

func scalePower(scaler modbusaccess.Scaler, val interface{}) interface{} {
	m := scaler.(*Meter)
	return (val.(float64) * (m.pt1 / m.pt2) * (m.ct1 / m.ct2)) / 1000
}

func scaleEnergy(scaler modbusaccess.Scaler, val interface{}) interface{} {
	return val.(float64) / 1000
}
