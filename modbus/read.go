package modbus

import (
	"fmt"

	vendormodbus "github.com/simonvetter/modbus"

	"github.com/cepro/battsched/modbusaccess"
)

// ReadBlock reads a contiguous register block and decodes every named
// register within it using its configured data type and scaling function.
func (c *Client) ReadBlock(block modbusaccess.RegisterBlock, scaler modbusaccess.Scaler) (map[string]interface{}, error) {

	err := c.reconnectIfNeccesary()
	if err != nil {
		return nil, fmt.Errorf("reconnect: %w", err)
	}

	raw, err := c.subClient.ReadRegisters(block.StartAddr, block.NumRegisters, vendormodbus.HOLDING_REGISTER)
	if err != nil {
		c.setShouldReconnect()
		return nil, fmt.Errorf("read block %s: %w", block.Name, err)
	}

	rawBytes := make([]byte, 0, len(raw)*2)
	for _, r := range raw {
		rawBytes = append(rawBytes, byte(r>>8), byte(r))
	}

	values := make(map[string]interface{}, len(block.Registers))
	for name, reg := range block.Registers {
		offset := int(reg.StartAddr-block.StartAddr) * 2
		length := int(reg.DataType.DataLength())
		if offset < 0 || offset+length > len(rawBytes) {
			return nil, fmt.Errorf("register %s falls outside block %s", name, block.Name)
		}

		val := reg.DataType.FromBytes(rawBytes[offset : offset+length])
		if reg.ScalingFunc != nil {
			val = reg.ScalingFunc(scaler, val)
		}
		values[name] = val
	}

	return values, nil
}
