package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"gainjar/core/types"
	"gainjar/crypto"
	"gainjar/native/payroll"
)

// ErrInvalidPayload is returned when a transaction's data cannot be decoded
// into the operation named by its type.
var ErrInvalidPayload = errors.New("core: invalid transaction payload")

type addAllowedTokenPayload struct {
	Token string `json:"token"`
}

type addEmployeePayload struct {
	Employee        string `json:"employee"`
	Salary          string `json:"salary"`
	PaymentInterval uint64 `json:"paymentInterval"`
}

type depositPayload struct {
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

type executePaymentPayload struct {
	Employer string `json:"employer,omitempty"`
	Employee string `json:"employee"`
	Token    string `json:"token"`
}

type deactivateEmployeePayload struct {
	Employee string `json:"employee"`
}

// EncodeOp renders a payroll operation as a transaction type and JSON data.
func EncodeOp(op payroll.Op) (types.TxType, []byte, error) {
	var (
		txType  types.TxType
		payload interface{}
	)
	switch o := op.(type) {
	case payroll.AddAllowedTokenOp:
		txType = types.TxTypeAddAllowedToken
		payload = addAllowedTokenPayload{Token: crypto.FormatAddress(o.Token)}
	case payroll.AddEmployeeOp:
		txType = types.TxTypeAddEmployee
		payload = addEmployeePayload{
			Employee:        crypto.FormatAddress(o.Employee),
			Salary:          formatAmount(o.Salary),
			PaymentInterval: o.PaymentInterval,
		}
	case payroll.DepositOp:
		txType = types.TxTypeDeposit
		payload = depositPayload{Token: crypto.FormatAddress(o.Token), Amount: formatAmount(o.Amount)}
	case payroll.ExecutePaymentOp:
		txType = types.TxTypeExecutePayment
		p := executePaymentPayload{Employee: crypto.FormatAddress(o.Employee), Token: crypto.FormatAddress(o.Token)}
		if o.Employer != (payroll.Address{}) {
			p.Employer = crypto.FormatAddress(o.Employer)
		}
		payload = p
	case payroll.DeactivateEmployeeOp:
		txType = types.TxTypeDeactivateEmployee
		payload = deactivateEmployeePayload{Employee: crypto.FormatAddress(o.Employee)}
	default:
		return 0, nil, fmt.Errorf("%w: %T", payroll.ErrUnknownOp, op)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}
	return txType, data, nil
}

// DecodeOp parses the operation carried by tx.
func DecodeOp(tx *types.Transaction) (payroll.Op, error) {
	if tx == nil {
		return nil, fmt.Errorf("%w: nil transaction", ErrInvalidPayload)
	}
	switch tx.Type {
	case types.TxTypeAddAllowedToken:
		var p addAllowedTokenPayload
		if err := decodeStrict(tx.Data, &p); err != nil {
			return nil, err
		}
		token, err := parseAddressField("token", p.Token)
		if err != nil {
			return nil, err
		}
		return payroll.AddAllowedTokenOp{Token: token}, nil
	case types.TxTypeAddEmployee:
		var p addEmployeePayload
		if err := decodeStrict(tx.Data, &p); err != nil {
			return nil, err
		}
		employee, err := parseAddressField("employee", p.Employee)
		if err != nil {
			return nil, err
		}
		salary, err := parseAmountField("salary", p.Salary)
		if err != nil {
			return nil, err
		}
		return payroll.AddEmployeeOp{Employee: employee, Salary: salary, PaymentInterval: p.PaymentInterval}, nil
	case types.TxTypeDeposit:
		var p depositPayload
		if err := decodeStrict(tx.Data, &p); err != nil {
			return nil, err
		}
		token, err := parseAddressField("token", p.Token)
		if err != nil {
			return nil, err
		}
		amount, err := parseAmountField("amount", p.Amount)
		if err != nil {
			return nil, err
		}
		return payroll.DepositOp{Token: token, Amount: amount}, nil
	case types.TxTypeExecutePayment:
		var p executePaymentPayload
		if err := decodeStrict(tx.Data, &p); err != nil {
			return nil, err
		}
		var op payroll.ExecutePaymentOp
		if strings.TrimSpace(p.Employer) != "" {
			employer, err := parseAddressField("employer", p.Employer)
			if err != nil {
				return nil, err
			}
			op.Employer = employer
		}
		employee, err := parseAddressField("employee", p.Employee)
		if err != nil {
			return nil, err
		}
		token, err := parseAddressField("token", p.Token)
		if err != nil {
			return nil, err
		}
		op.Employee = employee
		op.Token = token
		return op, nil
	case types.TxTypeDeactivateEmployee:
		var p deactivateEmployeePayload
		if err := decodeStrict(tx.Data, &p); err != nil {
			return nil, err
		}
		employee, err := parseAddressField("employee", p.Employee)
		if err != nil {
			return nil, err
		}
		return payroll.DeactivateEmployeeOp{Employee: employee}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %d", ErrInvalidPayload, tx.Type)
	}
}

// NewTransaction builds an unsigned transaction carrying op.
func NewTransaction(chainID string, nonce uint64, op payroll.Op) (*types.Transaction, error) {
	txType, data, err := EncodeOp(op)
	if err != nil {
		return nil, err
	}
	return &types.Transaction{Type: txType, ChainID: chainID, Nonce: nonce, Data: data}, nil
}

func decodeStrict(data []byte, out interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

func parseAddressField(field, raw string) ([20]byte, error) {
	addr, err := crypto.ParseAddress(raw)
	if err != nil {
		return addr, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, field, err)
	}
	return addr, nil
}

func parseAmountField(field, raw string) (*uint256.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return new(uint256.Int), nil
	}
	amount, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, field, err)
	}
	return amount, nil
}

func formatAmount(amount *uint256.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.Dec()
}
