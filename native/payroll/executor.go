package payroll

import (
	"fmt"

	"github.com/holiman/uint256"

	"gainjar/core/events"
)

// ExecutePayment pays one interval's salary from the employer's escrow
// balance. All checks and state updates complete before the transfer is
// handed to the Transferer, so a callback into the engine observes the
// post-payment state.
func (e *Engine) ExecutePayment(caller, employer, employee, token Address) error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.atomic(func() error {
		if !e.policy.Permits(caller, employer, employee) {
			return ErrUnauthorized
		}
		record, found, err := e.loadEmployee(employer, employee)
		if err != nil {
			return err
		}
		if !found || !record.Active {
			return ErrEmployeeNotFound
		}
		if !record.Due(e.now()) {
			return fmt.Errorf("%w: next payment at %d", ErrPaymentNotDue, record.NextPaymentAt())
		}
		allowed, err := e.IsAllowed(employer, token)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrTokenNotAllowed
		}
		key := balanceKey(employer, token)
		balance, err := e.loadAmount(key)
		if err != nil {
			return err
		}
		salary := record.Salary
		if balance.Lt(salary) {
			return fmt.Errorf("%w: balance %s, salary %s", ErrInsufficientFunds, balance.Dec(), salary.Dec())
		}

		if err := e.storeAmount(key, new(uint256.Int).Sub(balance, salary)); err != nil {
			return err
		}
		record.LastPayment = record.NextPaymentAt()
		if err := e.putEmployee(employer, record); err != nil {
			return err
		}

		if !salary.IsZero() {
			if e.transfer == nil {
				return ErrNilTransferer
			}
			if err := e.transfer.Transfer(token, employer, employee, new(uint256.Int).Set(salary)); err != nil {
				return fmt.Errorf("%w: %w", ErrTransferFailed, err)
			}
		}

		e.emit(events.PaymentExecuted{
			Employer: employer,
			Employee: employee,
			Token:    token,
			Amount:   new(uint256.Int).Set(salary),
		})
		return nil
	})
}
