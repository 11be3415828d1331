package payroll

import (
	"github.com/holiman/uint256"

	"gainjar/core/events"
)

// Deposit credits amount of token to the employer's escrow balance. Moving
// the underlying tokens into custody is the caller's responsibility and must
// happen inside the same state transition.
func (e *Engine) Deposit(employer, token Address, amount *uint256.Int) error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.atomic(func() error {
		allowed, err := e.IsAllowed(employer, token)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrTokenNotAllowed
		}
		if amount == nil || amount.IsZero() {
			return nil
		}
		key := balanceKey(employer, token)
		balance, err := e.loadAmount(key)
		if err != nil {
			return err
		}
		updated, overflow := new(uint256.Int).AddOverflow(balance, amount)
		if overflow {
			return ErrBalanceOverflow
		}
		if err := e.storeAmount(key, updated); err != nil {
			return err
		}
		e.emit(events.FundsDeposited{Employer: employer, Token: token, Amount: new(uint256.Int).Set(amount)})
		return nil
	})
}

// Balance returns the employer's escrow balance for token.
func (e *Engine) Balance(employer, token Address) (*uint256.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.loadAmount(balanceKey(employer, token))
}
