package events

import (
	"github.com/holiman/uint256"

	"gainjar/core/types"
)

// Wire converts events that expose a wire payload. Events without one yield
// nil.
func Wire(evt Event) *types.Event {
	if converter, ok := evt.(interface{ Event() *types.Event }); ok {
		return converter.Event()
	}
	return nil
}

func formatAmount(amount *uint256.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.Dec()
}
