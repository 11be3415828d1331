// core/genesis/spec.go
package genesis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/holiman/uint256"

	"gainjar/crypto"
)

// Alloc credits an initial bank balance.
type Alloc struct {
	Address string `json:"address" toml:"address"`
	Token   string `json:"token" toml:"token"`
	Amount  string `json:"amount" toml:"amount"`
}

type GenesisSpec struct {
	ChainID string  `json:"chainId,omitempty"`
	Alloc   []Alloc `json:"alloc"`
}

// Balance is a validated allocation.
type Balance struct {
	Account [20]byte
	Token   [20]byte
	Amount  *uint256.Int
}

func LoadGenesisSpec(path string) (*GenesisSpec, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("genesis spec path must be provided")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis spec %q: %w", path, err)
	}
	var spec GenesisSpec
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("decode genesis spec: %w", err)
	}
	return &spec, nil
}

// Balances validates the allocations and returns them in a deterministic
// order. Duplicate (account, token) entries are summed.
func Balances(allocs []Alloc) ([]Balance, error) {
	type key struct{ account, token [20]byte }
	totals := make(map[key]*uint256.Int, len(allocs))
	for i, alloc := range allocs {
		account, err := crypto.ParseAddress(alloc.Address)
		if err != nil {
			return nil, fmt.Errorf("alloc[%d].address: %w", i, err)
		}
		token, err := crypto.ParseAddress(alloc.Token)
		if err != nil {
			return nil, fmt.Errorf("alloc[%d].token: %w", i, err)
		}
		if token == ([20]byte{}) {
			return nil, fmt.Errorf("alloc[%d].token: zero address", i)
		}
		amount, err := parseAmountString(alloc.Amount)
		if err != nil {
			return nil, fmt.Errorf("alloc[%d].amount: %w", i, err)
		}
		k := key{account: account, token: token}
		current, ok := totals[k]
		if !ok {
			totals[k] = amount
			continue
		}
		if _, overflow := current.AddOverflow(current, amount); overflow {
			return nil, fmt.Errorf("alloc[%d].amount: total overflows 256 bits", i)
		}
	}
	out := make([]Balance, 0, len(totals))
	for k, amount := range totals {
		out = append(out, Balance{Account: k.account, Token: k.token, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := bytes.Compare(out[i].Account[:], out[j].Account[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(out[i].Token[:], out[j].Token[:]) < 0
	})
	return out, nil
}

func parseAmountString(raw string) (*uint256.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return amount, nil
}
