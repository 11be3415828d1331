package bank

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"gainjar/core/events"
)

var (
	ErrNilState            = errors.New("bank: state not configured")
	ErrInsufficientBalance = errors.New("bank: insufficient balance")
	ErrBalanceOverflow     = errors.New("bank: balance overflow")
)

var balancePrefix = []byte("bank/balance/")

type ledgerState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

// Ledger tracks per-account token balances.
type Ledger struct {
	state   ledgerState
	emitter events.Emitter
}

// NewLedger constructs a ledger over the shared state.
func NewLedger(state ledgerState) *Ledger {
	return &Ledger{state: state, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the sink for transfer events.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if l == nil {
		return
	}
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

func balanceKey(account, token [20]byte) []byte {
	key := make([]byte, 0, len(balancePrefix)+40)
	key = append(key, balancePrefix...)
	key = append(key, account[:]...)
	return append(key, token[:]...)
}

// BalanceOf returns the account's balance of token.
func (l *Ledger) BalanceOf(account, token [20]byte) (*uint256.Int, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	var stored big.Int
	ok, err := l.state.KVGet(balanceKey(account, token), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(uint256.Int), nil
	}
	balance, overflow := uint256.FromBig(&stored)
	if overflow {
		return nil, fmt.Errorf("bank: stored balance overflows 256 bits")
	}
	return balance, nil
}

func (l *Ledger) put(account, token [20]byte, amount *uint256.Int) error {
	return l.state.KVPut(balanceKey(account, token), amount.ToBig())
}

// Credit mints amount of token into account. Used for genesis allocations.
func (l *Ledger) Credit(account, token [20]byte, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	balance, err := l.BalanceOf(account, token)
	if err != nil {
		return err
	}
	updated, overflow := new(uint256.Int).AddOverflow(balance, amount)
	if overflow {
		return ErrBalanceOverflow
	}
	return l.put(account, token, updated)
}

// Transfer moves amount of token between accounts and emits a transfer event.
func (l *Ledger) Transfer(token, from, to [20]byte, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	fromBalance, err := l.BalanceOf(from, token)
	if err != nil {
		return err
	}
	if fromBalance.Lt(amount) {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, fromBalance.Dec(), amount.Dec())
	}
	if from != to {
		toBalance, err := l.BalanceOf(to, token)
		if err != nil {
			return err
		}
		credited, overflow := new(uint256.Int).AddOverflow(toBalance, amount)
		if overflow {
			return ErrBalanceOverflow
		}
		if err := l.put(from, token, new(uint256.Int).Sub(fromBalance, amount)); err != nil {
			return err
		}
		if err := l.put(to, token, credited); err != nil {
			return err
		}
	}
	l.emitter.Emit(events.Transfer{Token: token, From: from, To: to, Amount: new(uint256.Int).Set(amount)})
	return nil
}

// VaultTransferer pays out of a single custody vault that holds every
// employer's deposited funds.
type VaultTransferer struct {
	Ledger *Ledger
	Vault  [20]byte
}

// Transfer implements the payroll collaborator interface. The employer is
// accounted for by the payroll ledger; custody is pooled in the vault.
func (v VaultTransferer) Transfer(token, employer, to [20]byte, amount *uint256.Int) error {
	if v.Ledger == nil {
		return ErrNilState
	}
	return v.Ledger.Transfer(token, v.Vault, to, amount)
}
