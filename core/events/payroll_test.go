package events

import (
	"testing"

	"github.com/holiman/uint256"

	"gainjar/crypto"
)

func TestPaymentExecutedAttributes(t *testing.T) {
	var employer, employee, token [20]byte
	employer[19] = 0x01
	employee[19] = 0x02
	token[19] = 0x03

	evt := Wire(PaymentExecuted{Employer: employer, Employee: employee, Amount: uint256.NewInt(100), Token: token})
	if evt == nil {
		t.Fatalf("expected wire event")
	}
	if evt.Type != TypePayrollPaymentExecuted {
		t.Fatalf("unexpected type %q", evt.Type)
	}
	want := map[string]string{
		"employer": crypto.FormatAddress(employer),
		"employee": crypto.FormatAddress(employee),
		"amount":   "100",
		"token":    crypto.FormatAddress(token),
	}
	for k, v := range want {
		if evt.Attributes[k] != v {
			t.Fatalf("attribute %s = %q, want %q", k, evt.Attributes[k], v)
		}
	}
}

func TestFundsDepositedNilAmountRendersZero(t *testing.T) {
	evt := FundsDeposited{}.Event()
	if evt.Attributes["amount"] != "0" {
		t.Fatalf("expected zero amount, got %q", evt.Attributes["amount"])
	}
}

func TestWireIgnoresEventsWithoutPayload(t *testing.T) {
	if Wire(bareEvent{}) != nil {
		t.Fatalf("expected nil wire payload")
	}
}

type bareEvent struct{}

func (bareEvent) EventType() string { return "bare" }
