package events

import (
	"github.com/holiman/uint256"

	"gainjar/core/types"
	"gainjar/crypto"
)

const (
	// TypePayrollEmployeeAdded is emitted when an employer registers a new
	// employee.
	TypePayrollEmployeeAdded = "payroll.employee.added"
	// TypePayrollEmployeeDeactivated is emitted when an employer suspends
	// future payments to an employee.
	TypePayrollEmployeeDeactivated = "payroll.employee.deactivated"
	// TypePayrollFundsDeposited is emitted when an employer tops up its
	// ledger balance for an allow-listed token.
	TypePayrollFundsDeposited = "payroll.funds.deposited"
	// TypePayrollPaymentExecuted is emitted once a salary payment has been
	// debited from the ledger and transferred to the employee.
	TypePayrollPaymentExecuted = "payroll.payment.executed"
	// TypePayrollTokenAllowed is emitted when an employer allow-lists a
	// payment token.
	TypePayrollTokenAllowed = "payroll.token.allowed"
)

// EmployeeAdded captures a new registration.
type EmployeeAdded struct {
	Employer [20]byte
	Employee [20]byte
}

// EventType implements the Event interface.
func (EmployeeAdded) EventType() string { return TypePayrollEmployeeAdded }

// Event converts the payload into its wire representation.
func (e EmployeeAdded) Event() *types.Event {
	return &types.Event{Type: TypePayrollEmployeeAdded, Attributes: map[string]string{
		"employer": crypto.FormatAddress(e.Employer),
		"employee": crypto.FormatAddress(e.Employee),
	}}
}

// EmployeeDeactivated captures a suspension of future payments.
type EmployeeDeactivated struct {
	Employer [20]byte
	Employee [20]byte
}

// EventType implements the Event interface.
func (EmployeeDeactivated) EventType() string { return TypePayrollEmployeeDeactivated }

// Event converts the payload into its wire representation.
func (e EmployeeDeactivated) Event() *types.Event {
	return &types.Event{Type: TypePayrollEmployeeDeactivated, Attributes: map[string]string{
		"employer": crypto.FormatAddress(e.Employer),
		"employee": crypto.FormatAddress(e.Employee),
	}}
}

// FundsDeposited captures a ledger top-up. Token trails the canonical
// (employer, amount) pair.
type FundsDeposited struct {
	Employer [20]byte
	Amount   *uint256.Int
	Token    [20]byte
}

// EventType implements the Event interface.
func (FundsDeposited) EventType() string { return TypePayrollFundsDeposited }

// Event converts the payload into its wire representation.
func (e FundsDeposited) Event() *types.Event {
	return &types.Event{Type: TypePayrollFundsDeposited, Attributes: map[string]string{
		"employer": crypto.FormatAddress(e.Employer),
		"amount":   formatAmount(e.Amount),
		"token":    crypto.FormatAddress(e.Token),
	}}
}

// PaymentExecuted captures a completed salary payment.
type PaymentExecuted struct {
	Employer [20]byte
	Employee [20]byte
	Amount   *uint256.Int
	Token    [20]byte
}

// EventType implements the Event interface.
func (PaymentExecuted) EventType() string { return TypePayrollPaymentExecuted }

// Event converts the payload into its wire representation.
func (e PaymentExecuted) Event() *types.Event {
	return &types.Event{Type: TypePayrollPaymentExecuted, Attributes: map[string]string{
		"employer": crypto.FormatAddress(e.Employer),
		"employee": crypto.FormatAddress(e.Employee),
		"amount":   formatAmount(e.Amount),
		"token":    crypto.FormatAddress(e.Token),
	}}
}

// TokenAllowed captures an allow-list insertion.
type TokenAllowed struct {
	Employer [20]byte
	Token    [20]byte
}

// EventType implements the Event interface.
func (TokenAllowed) EventType() string { return TypePayrollTokenAllowed }

// Event converts the payload into its wire representation.
func (e TokenAllowed) Event() *types.Event {
	return &types.Event{Type: TypePayrollTokenAllowed, Attributes: map[string]string{
		"employer": crypto.FormatAddress(e.Employer),
		"token":    crypto.FormatAddress(e.Token),
	}}
}
