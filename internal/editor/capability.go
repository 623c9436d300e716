package editor

import "context"

// Capability is the availability of the destination picker, probed once on Attach.
type Capability int

const (
	CapabilityUnavailable Capability = iota
	CapabilityLoading
	CapabilityReady
)

func (c Capability) String() string {
	switch c {
	case CapabilityLoading:
		return "loading"
	case CapabilityReady:
		return "ready"
	default:
		return "unavailable"
	}
}

// DestinationPicker is the storage-location sub-widget the controller reads from.
// Implementations must not hold internal locks while invoking change listeners.
type DestinationPicker interface {
	GetValue() string
	OnChange(fn func(value string)) (unsubscribe func())
}

// PickerLoader makes the picker available, or explains why it cannot.
type PickerLoader func(ctx context.Context) (DestinationPicker, error)
