package types

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
)

// TxType defines the payroll operation carried by a transaction.
type TxType byte

const (
	TxTypeAddAllowedToken    TxType = 0x01
	TxTypeAddEmployee        TxType = 0x02
	TxTypeDeposit            TxType = 0x03
	TxTypeExecutePayment     TxType = 0x04
	TxTypeDeactivateEmployee TxType = 0x05
)

// String returns the canonical method-style name of the transaction type.
func (t TxType) String() string {
	switch t {
	case TxTypeAddAllowedToken:
		return "addAllowedToken"
	case TxTypeAddEmployee:
		return "addEmployee"
	case TxTypeDeposit:
		return "deposit"
	case TxTypeExecutePayment:
		return "executePayment"
	case TxTypeDeactivateEmployee:
		return "deactivateEmployee"
	default:
		return "unknown"
	}
}

// Valid reports whether t names a supported operation.
func (t TxType) Valid() bool {
	return t >= TxTypeAddAllowedToken && t <= TxTypeDeactivateEmployee
}

var errUnsigned = errors.New("types: transaction not signed")

// Transaction is a signed request to apply one payroll operation. The signer's
// address is the caller identity for the operation; Data carries the JSON
// encoded operation arguments.
type Transaction struct {
	Type    TxType `json:"type"`
	ChainID string `json:"chainId"`
	Nonce   uint64 `json:"nonce"`
	Data    []byte `json:"data"`

	R *big.Int `json:"r"`
	S *big.Int `json:"s"`
	V *big.Int `json:"v"`

	from []byte
}

// Hash covers every field except the signature.
func (tx *Transaction) Hash() ([]byte, error) {
	txData := struct {
		Type    TxType
		ChainID string
		Nonce   uint64
		Data    []byte
	}{tx.Type, tx.ChainID, tx.Nonce, tx.Data}

	b, err := json.Marshal(txData)
	if err != nil {
		return nil, err
	}
	hash := sha256.Sum256(b)
	return hash[:], nil
}

func (tx *Transaction) Sign(privKey *ecdsa.PrivateKey) error {
	hash, err := tx.Hash()
	if err != nil {
		return err
	}
	sig, err := crypto.Sign(hash, privKey)
	if err != nil {
		return err
	}
	tx.R = new(big.Int).SetBytes(sig[:32])
	tx.S = new(big.Int).SetBytes(sig[32:64])
	tx.V = new(big.Int).SetBytes([]byte{sig[64] + 27})
	tx.from = nil
	return nil
}

// From recovers the signer address.
func (tx *Transaction) From() ([]byte, error) {
	if tx.from != nil {
		return tx.from, nil
	}
	if tx.R == nil || tx.S == nil || tx.V == nil {
		return nil, errUnsigned
	}
	if len(tx.R.Bytes()) > 32 || len(tx.S.Bytes()) > 32 || tx.V.Uint64() < 27 {
		return nil, errors.New("types: malformed signature")
	}
	hash, err := tx.Hash()
	if err != nil {
		return nil, err
	}
	sig := make([]byte, 65)
	copy(sig[32-len(tx.R.Bytes()):32], tx.R.Bytes())
	copy(sig[64-len(tx.S.Bytes()):64], tx.S.Bytes())
	sig[64] = byte(tx.V.Uint64() - 27)
	pubKey, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return nil, err
	}
	tx.from = crypto.PubkeyToAddress(*pubKey).Bytes()
	return tx.from, nil
}
