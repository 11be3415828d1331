package events

import (
	"github.com/holiman/uint256"

	"gainjar/core/types"
	"gainjar/crypto"
)

const (
	// TypeTransfer is emitted for bank balance movements between accounts.
	TypeTransfer = "bank.transfer"
)

type Transfer struct {
	Token  [20]byte
	From   [20]byte
	To     [20]byte
	Amount *uint256.Int
}

func (Transfer) EventType() string { return TypeTransfer }

func (e Transfer) Event() *types.Event {
	return &types.Event{Type: TypeTransfer, Attributes: map[string]string{
		"token":  crypto.FormatAddress(e.Token),
		"from":   crypto.FormatAddress(e.From),
		"to":     crypto.FormatAddress(e.To),
		"amount": formatAmount(e.Amount),
	}}
}
