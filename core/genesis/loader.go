// core/genesis/loader.go
package genesis

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Creditor receives genesis balances.
type Creditor interface {
	Credit(account, token [20]byte, amount *uint256.Int) error
}

// Apply credits every allocation in deterministic order.
func Apply(ledger Creditor, allocs []Alloc) error {
	if ledger == nil {
		return fmt.Errorf("genesis: ledger must not be nil")
	}
	balances, err := Balances(allocs)
	if err != nil {
		return err
	}
	for _, balance := range balances {
		if err := ledger.Credit(balance.Account, balance.Token, balance.Amount); err != nil {
			return fmt.Errorf("genesis: credit %x: %w", balance.Account, err)
		}
	}
	return nil
}
