// core/genesis/spec_test.go
package genesis

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"

	"gainjar/crypto"
)

type recordingCreditor struct {
	credits []Balance
}

func (r *recordingCreditor) Credit(account, token [20]byte, amount *uint256.Int) error {
	r.credits = append(r.credits, Balance{Account: account, Token: token, Amount: amount})
	return nil
}

func TestLoadGenesisSpecAndApply(t *testing.T) {
	employer := crypto.MustNewAddress(crypto.GainJarPrefix, bytes.Repeat([]byte{0x02}, 20)).String()
	vault := "0x" + "01" + "00000000000000000000000000000000000000"
	token := "0x" + "ab" + "00000000000000000000000000000000000000"

	spec := GenesisSpec{
		ChainID: "gainjar-test",
		Alloc: []Alloc{
			{Address: employer, Token: token, Amount: "1000"},
			{Address: vault, Token: token, Amount: "5"},
			{Address: employer, Token: token, Amount: "250"},
		},
	}
	raw, err := json.Marshal(spec)
	if err != nil {
		t.Fatalf("marshal spec: %v", err)
	}
	path := filepath.Join(t.TempDir(), "genesis.json")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write spec: %v", err)
	}

	loaded, err := LoadGenesisSpec(path)
	if err != nil {
		t.Fatalf("load spec: %v", err)
	}
	if loaded.ChainID != "gainjar-test" || len(loaded.Alloc) != 3 {
		t.Fatalf("unexpected spec %+v", loaded)
	}

	creditor := &recordingCreditor{}
	if err := Apply(creditor, loaded.Alloc); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(creditor.credits) != 2 {
		t.Fatalf("expected duplicates merged into 2 credits, got %d", len(creditor.credits))
	}
	if creditor.credits[0].Account[0] != 0x01 || creditor.credits[0].Amount.Uint64() != 5 {
		t.Fatalf("unexpected first credit %+v", creditor.credits[0])
	}
	if creditor.credits[1].Account[0] != 0x02 || creditor.credits[1].Amount.Uint64() != 1250 {
		t.Fatalf("unexpected second credit %+v", creditor.credits[1])
	}
}

func TestLoadGenesisSpecRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.json")
	if err := os.WriteFile(path, []byte(`{"alloc":[],"validators":[]}`), 0o600); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	if _, err := LoadGenesisSpec(path); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestBalancesRejectsMalformedEntries(t *testing.T) {
	token := "0x" + "ab" + "00000000000000000000000000000000000000"
	cases := []Alloc{
		{Address: "not-an-address", Token: token, Amount: "1"},
		{Address: token, Token: "0x0000000000000000000000000000000000000000", Amount: "1"},
		{Address: token, Token: token, Amount: "-4"},
		{Address: token, Token: token, Amount: ""},
	}
	for _, alloc := range cases {
		if _, err := Balances([]Alloc{alloc}); err == nil {
			t.Fatalf("expected error for %+v", alloc)
		}
	}
}
