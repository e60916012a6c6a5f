package modbus

import "github.com/cepro/battsched/modbusaccess"

// Metric is a single modbus register (or multi-register value) this client
// can read or write, described by modbusaccess.Register.
type Metric = modbusaccess.Register
