package inverter

import "github.com/cepro/battsched/modbusaccess"

// configBlock carries informational device identity, logged once on
// connect.
var configBlock = modbusaccess.RegisterBlock{
	Name:         "Config",
	StartAddr:    100,
	NumRegisters: 47,
	Registers: map[string]modbusaccess.Register{
		"ProtocolVersion": {StartAddr: 100, DataType: modbusaccess.Int16Type},
		"FirmwareVersion": {StartAddr: 102, DataType: modbusaccess.String32Type},
		"Serial":          {StartAddr: 118, DataType: modbusaccess.String32Type},
	},
}

// statusBlock carries the inverter's live battery state: state of charge and
// health, and the lifetime imported/exported energy counters the efficiency
// estimator fits against.
var statusBlock = modbusaccess.RegisterBlock{
	Name:         "Status",
	StartAddr:    200,
	NumRegisters: 40,
	Registers: map[string]modbusaccess.Register{
		"CommandSource":    {StartAddr: 200, DataType: modbusaccess.Uint16Type},
		"BatteryTargetP":   {StartAddr: 201, DataType: modbusaccess.Int32Type, ScalingFunc: scaleMilli},
		"NominalEnergy":    {StartAddr: 207, DataType: modbusaccess.Int32Type, ScalingFunc: scaleMilli},
		"StateOfCharge":    {StartAddr: 209, DataType: modbusaccess.Uint16Type, ScalingFunc: scalePercent},
		"StateOfHealth":    {StartAddr: 210, DataType: modbusaccess.Uint16Type, ScalingFunc: scalePercent},
		"AvailableBlocks":  {StartAddr: 218, DataType: modbusaccess.Uint16Type},
		"LifetimeImported": {StartAddr: 230, DataType: modbusaccess.Int32Type, ScalingFunc: scaleMilli},
		"LifetimeExported": {StartAddr: 232, DataType: modbusaccess.Int32Type, ScalingFunc: scaleMilli},
	},
}

func scaleMilli(_ modbusaccess.Scaler, val interface{}) interface{} {
	return float64(val.(int32)) / 1000.0
}

func scalePercent(_ modbusaccess.Scaler, val interface{}) interface{} {
	return float64(val.(uint16)) / 1000.0
}

// scheduleBaseAddr is the first register of the inverter's in-device time-
// slot table. Each slot occupies slotStride consecutive registers.
const scheduleBaseAddr = uint16(1000)

const slotStride = uint16(7) // 4 clock fields + mode + 2-register feed power

// slotRegisters holds the register addresses a schedule.Slot occupies
// (slotAddrs computes them for index i): start clock (2 registers), end clock (2 registers), mode, and
// feed power (2 registers, milliwatts).
type slotRegisters struct {
	startHour   uint16
	startMinute uint16
	endHour     uint16
	endMinute   uint16
	mode        uint16
	feedPower   uint16
}

func slotAddrs(i int) slotRegisters {
	base := scheduleBaseAddr + uint16(i)*slotStride
	return slotRegisters{
		startHour:   base,
		startMinute: base + 1,
		endHour:     base + 2,
		endMinute:   base + 3,
		mode:        base + 4,
		feedPower:   base + 5,
	}
}

// slotCountAddr holds the number of active entries in the schedule table;
// the vendor firmware ignores entries beyond this count.
const slotCountAddr = uint16(1500)
