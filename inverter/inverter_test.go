package inverter

import "testing"

func TestScaleMilliDividesByOneThousand(t *testing.T) {
	got := scaleMilli(nil, int32(1500))
	if got.(float64) != 1.5 {
		t.Fatalf("scaleMilli = %v, want 1.5", got)
	}
}

func TestScalePercentDividesByOneThousand(t *testing.T) {
	got := scalePercent(nil, uint16(850))
	if got.(float64) != 0.85 {
		t.Fatalf("scalePercent = %v, want 0.85", got)
	}
}

func TestSlotAddrsAreContiguousAndNonOverlapping(t *testing.T) {
	first := slotAddrs(0)
	second := slotAddrs(1)

	if first.startHour != scheduleBaseAddr {
		t.Fatalf("slot 0 startHour = %d, want %d", first.startHour, scheduleBaseAddr)
	}
	if second.startHour-first.startHour != slotStride {
		t.Fatalf("slot stride = %d, want %d", second.startHour-first.startHour, slotStride)
	}
	if first.feedPower+1 >= second.startHour {
		t.Fatalf("slot 0's 2-register feed power overlaps slot 1 at %d", second.startHour)
	}
}

func TestStatusBlockRegistersFallWithinBlock(t *testing.T) {
	for name, reg := range statusBlock.Registers {
		offset := int(reg.StartAddr-statusBlock.StartAddr) * 2
		length := int(reg.DataType.DataLength())
		if offset < 0 || offset+length > int(statusBlock.NumRegisters)*2 {
			t.Errorf("register %s falls outside statusBlock bounds", name)
		}
	}
}

func TestConfigBlockRegistersFallWithinBlock(t *testing.T) {
	for name, reg := range configBlock.Registers {
		offset := int(reg.StartAddr-configBlock.StartAddr) * 2
		length := int(reg.DataType.DataLength())
		if offset < 0 || offset+length > int(configBlock.NumRegisters)*2 {
			t.Errorf("register %s falls outside configBlock bounds", name)
		}
	}
}
