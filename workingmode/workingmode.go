// Package workingmode defines the battery's five operating policies and
// their projection onto an inverter vendor's time-slot vocabulary.
package workingmode

import "github.com/cepro/battsched/quantity"

// Mode is the battery's operating policy for one optimiser interval.
type Mode int

const (
	// Idle requests zero external battery power.
	Idle Mode = iota
	// Harvest absorbs excess household PV generation only.
	Harvest
	// SelfUse follows household net baseline, clamped to the battery's
	// power limits.
	SelfUse
	// Charge requests the maximum allowed charging power.
	Charge
	// Discharge requests the maximum allowed discharging power.
	Discharge
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "Idle"
	case Harvest:
		return "Harvest"
	case SelfUse:
		return "SelfUse"
	case Charge:
		return "Charge"
	case Discharge:
		return "Discharge"
	default:
		return "Unknown"
	}
}

// Set is the finite collection of modes a particular optimiser run is
// allowed to choose from.
type Set map[Mode]struct{}

// NewSet builds a Set from the given modes.
func NewSet(modes ...Mode) Set {
	s := make(Set, len(modes))
	for _, m := range modes {
		s[m] = struct{}{}
	}
	return s
}

// All returns the set of all five modes.
func All() Set {
	return NewSet(Idle, Harvest, SelfUse, Charge, Discharge)
}

// Contains reports whether m is a member of s.
func (s Set) Contains(m Mode) bool {
	_, ok := s[m]
	return ok
}

// RequestedExternalPower computes the requested external battery power for
// mode m given the interval's baseline power and the battery's power
// limits, per spec §4.4.
func RequestedExternalPower(m Mode, baseline quantity.Power, maxCharge, maxDischarge quantity.Power) quantity.Power {
	switch m {
	case Idle:
		return quantity.ZeroPower()
	case Harvest:
		excess := -baseline
		if excess < 0 {
			return quantity.ZeroPower()
		}
		return excess
	case Charge:
		return maxCharge
	case Discharge:
		return -maxDischarge
	case SelfUse:
		return (-baseline).Clamp(-maxDischarge, maxCharge)
	default:
		return quantity.ZeroPower()
	}
}

// InverterMode is the inverter vendor's own time-slot working-mode
// vocabulary, a lossy projection of Mode.
type InverterMode int

const (
	// ForceCharge commands the inverter to charge at FeedPower regardless
	// of household demand. Idle is expressed as ForceCharge at zero power,
	// a vendor idiom for "do nothing".
	ForceCharge InverterMode = iota
	// Backup prioritises routing surplus generation into the battery
	// (used for Harvest).
	Backup
	// SelfUseInverter lets the inverter dispatch the battery to match
	// household load, up to FeedPower.
	SelfUseInverter
	// ForceDischarge commands the inverter to discharge at FeedPower
	// regardless of household demand.
	ForceDischarge
)

// InverterSlotMode is the translated inverter-vendor mode plus the feed
// power to program into the slot, per spec §4.6 / the vendor schedule table
// in original_source's foxcloud/schedule.rs.
type InverterSlotMode struct {
	Mode      InverterMode
	FeedPower quantity.Power
}

// ToInverterVocabulary maps a scheduler Mode to the inverter vendor's
// vocabulary and the feed power to program, given the battery's power
// limits.
func ToInverterVocabulary(m Mode, maxCharge, maxDischarge quantity.Power) InverterSlotMode {
	switch m {
	case Idle:
		return InverterSlotMode{Mode: ForceCharge, FeedPower: quantity.ZeroPower()}
	case Harvest:
		return InverterSlotMode{Mode: Backup, FeedPower: maxCharge}
	case Charge:
		return InverterSlotMode{Mode: ForceCharge, FeedPower: maxCharge}
	case SelfUse:
		return InverterSlotMode{Mode: SelfUseInverter, FeedPower: maxDischarge}
	case Discharge:
		return InverterSlotMode{Mode: ForceDischarge, FeedPower: maxDischarge}
	default:
		return InverterSlotMode{Mode: ForceCharge, FeedPower: quantity.ZeroPower()}
	}
}
