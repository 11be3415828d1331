package payroll

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Op is one of the mutating payroll operations. The set is closed.
type Op interface {
	payrollOp()
	// Name is the stable label used in logs and metrics.
	Name() string
}

type AddAllowedTokenOp struct {
	Token Address
}

type AddEmployeeOp struct {
	Employee        Address
	Salary          *uint256.Int
	PaymentInterval uint64
}

type DepositOp struct {
	Token  Address
	Amount *uint256.Int
}

// ExecutePaymentOp names the employer explicitly because the caller may be
// the employee or a keeper depending on the trigger policy. A zero employer
// defaults to the caller.
type ExecutePaymentOp struct {
	Employer Address
	Employee Address
	Token    Address
}

type DeactivateEmployeeOp struct {
	Employee Address
}

func (AddAllowedTokenOp) payrollOp()    {}
func (AddEmployeeOp) payrollOp()        {}
func (DepositOp) payrollOp()            {}
func (ExecutePaymentOp) payrollOp()     {}
func (DeactivateEmployeeOp) payrollOp() {}

func (AddAllowedTokenOp) Name() string    { return "addAllowedToken" }
func (AddEmployeeOp) Name() string        { return "addEmployee" }
func (DepositOp) Name() string            { return "deposit" }
func (ExecutePaymentOp) Name() string     { return "executePayment" }
func (DeactivateEmployeeOp) Name() string { return "deactivateEmployee" }

// Apply executes op on behalf of caller.
func (e *Engine) Apply(caller Address, op Op) error {
	switch o := op.(type) {
	case AddAllowedTokenOp:
		return e.AddAllowedToken(caller, o.Token)
	case AddEmployeeOp:
		return e.AddEmployee(caller, o.Employee, o.Salary, o.PaymentInterval)
	case DepositOp:
		return e.Deposit(caller, o.Token, o.Amount)
	case ExecutePaymentOp:
		employer := o.Employer
		if employer == (Address{}) {
			employer = caller
		}
		return e.ExecutePayment(caller, employer, o.Employee, o.Token)
	case DeactivateEmployeeOp:
		return e.Deactivate(caller, o.Employee)
	case nil:
		return fmt.Errorf("%w: nil", ErrUnknownOp)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownOp, op)
	}
}
