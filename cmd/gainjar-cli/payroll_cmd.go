package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/holiman/uint256"

	"gainjar/core"
	"gainjar/crypto"
	"gainjar/native/payroll"
)

var loadKey = loadKeystore

func runKeygen(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("keygen", stderr)
	out := fs.String("out", "gainjar.keystore", "keystore file to create")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if _, err := os.Stat(*out); err == nil {
		return printError(stderr, fmt.Sprintf("%s already exists", *out))
	}
	pass, err := passSource.Get()
	if err != nil {
		return printError(stderr, err.Error())
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return printError(stderr, err.Error())
	}
	if err := crypto.SaveToKeystore(*out, key, pass); err != nil {
		return printError(stderr, fmt.Sprintf("save keystore: %v", err))
	}
	fmt.Fprintf(stdout, "Saved key to %s\n", *out)
	fmt.Fprintf(stdout, "Address: %s\n", key.PubKey().Address().String())
	return 0
}

func runAddress(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("address", stderr)
	keyPath := fs.String("key", "", "keystore file")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *keyPath == "" {
		return printError(stderr, "--key is required")
	}
	addr, err := crypto.KeystoreAddress(*keyPath)
	if err != nil {
		return printError(stderr, err.Error())
	}
	fmt.Fprintln(stdout, addr.String())
	return 0
}

func runAllowToken(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("allow-token", stderr)
	keyPath := fs.String("key", "", "employer keystore file")
	token := fs.String("token", "", "token address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	tokenAddr, err := crypto.ParseAddress(*token)
	if err != nil {
		return printError(stderr, "--token: "+err.Error())
	}
	return submitOp(*keyPath, payroll.AddAllowedTokenOp{Token: tokenAddr}, stdout, stderr)
}

func runAddEmployee(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("add-employee", stderr)
	keyPath := fs.String("key", "", "employer keystore file")
	employee := fs.String("employee", "", "employee address")
	salary := fs.String("salary", "", "salary paid per interval, in token base units")
	interval := fs.String("interval", "", "payment interval: seconds, a Go duration, or Nd for days")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	employeeAddr, err := crypto.ParseAddress(*employee)
	if err != nil {
		return printError(stderr, "--employee: "+err.Error())
	}
	amount, err := parseAmount(*salary)
	if err != nil {
		return printError(stderr, "--salary: "+err.Error())
	}
	seconds, err := parseInterval(*interval)
	if err != nil {
		return printError(stderr, "--interval: "+err.Error())
	}
	return submitOp(*keyPath, payroll.AddEmployeeOp{
		Employee:        employeeAddr,
		Salary:          amount,
		PaymentInterval: seconds,
	}, stdout, stderr)
}

func runDeposit(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("deposit", stderr)
	keyPath := fs.String("key", "", "employer keystore file")
	token := fs.String("token", "", "token address")
	amountStr := fs.String("amount", "", "amount in token base units")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	tokenAddr, err := crypto.ParseAddress(*token)
	if err != nil {
		return printError(stderr, "--token: "+err.Error())
	}
	amount, err := parseAmount(*amountStr)
	if err != nil {
		return printError(stderr, "--amount: "+err.Error())
	}
	return submitOp(*keyPath, payroll.DepositOp{Token: tokenAddr, Amount: amount}, stdout, stderr)
}

func runPay(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("pay", stderr)
	keyPath := fs.String("key", "", "caller keystore file")
	employer := fs.String("employer", "", "employer address (defaults to the caller)")
	employee := fs.String("employee", "", "employee address")
	token := fs.String("token", "", "token address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	var op payroll.ExecutePaymentOp
	var err error
	if strings.TrimSpace(*employer) != "" {
		if op.Employer, err = crypto.ParseAddress(*employer); err != nil {
			return printError(stderr, "--employer: "+err.Error())
		}
	}
	if op.Employee, err = crypto.ParseAddress(*employee); err != nil {
		return printError(stderr, "--employee: "+err.Error())
	}
	if op.Token, err = crypto.ParseAddress(*token); err != nil {
		return printError(stderr, "--token: "+err.Error())
	}
	return submitOp(*keyPath, op, stdout, stderr)
}

func runDeactivate(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("deactivate", stderr)
	keyPath := fs.String("key", "", "employer keystore file")
	employee := fs.String("employee", "", "employee address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	employeeAddr, err := crypto.ParseAddress(*employee)
	if err != nil {
		return printError(stderr, "--employee: "+err.Error())
	}
	return submitOp(*keyPath, payroll.DeactivateEmployeeOp{Employee: employeeAddr}, stdout, stderr)
}

// submitOp signs op with the next nonce of the key's account and submits it.
func submitOp(keyPath string, op payroll.Op, stdout, stderr io.Writer) int {
	key, err := loadKey(keyPath)
	if err != nil {
		return printError(stderr, err.Error())
	}
	sender := key.PubKey().Address().String()

	chainResult, err := rpcCall("chain_stateRoot", nil)
	if err != nil {
		return handleCallError(stderr, err)
	}
	var chain struct {
		ChainID string `json:"chainId"`
	}
	if err := json.Unmarshal(chainResult, &chain); err != nil {
		return printError(stderr, fmt.Sprintf("decode chain info: %v", err))
	}

	nonceResult, err := rpcCall("account_nonce", map[string]string{"account": sender})
	if err != nil {
		return handleCallError(stderr, err)
	}
	var nonce struct {
		Nonce uint64 `json:"nonce"`
	}
	if err := json.Unmarshal(nonceResult, &nonce); err != nil {
		return printError(stderr, fmt.Sprintf("decode nonce: %v", err))
	}

	tx, err := core.NewTransaction(chain.ChainID, nonce.Nonce, op)
	if err != nil {
		return printError(stderr, err.Error())
	}
	if err := tx.Sign(key.PrivateKey); err != nil {
		return printError(stderr, fmt.Sprintf("sign transaction: %v", err))
	}
	result, err := rpcCall("payroll_submit", tx)
	if err != nil {
		return handleCallError(stderr, err)
	}
	writeResult(stdout, result)
	return 0
}

func loadKeystore(path string) (*crypto.PrivateKey, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("--key is required")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("keystore %s not found. run gainjar-cli keygen first", path)
		}
		return nil, err
	}
	pass, err := passSource.Get()
	if err != nil {
		return nil, err
	}
	key, err := crypto.LoadFromKeystore(path, pass)
	if err != nil {
		return nil, fmt.Errorf("unlock keystore %s: %w", path, err)
	}
	return key, nil
}

func parseAmount(raw string) (*uint256.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("value required")
	}
	amount, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return amount, nil
}

// parseInterval accepts whole seconds ("2592000"), a Go duration ("720h")
// or a day count ("30d").
func parseInterval(raw string) (uint64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("value required")
	}
	if seconds, err := strconv.ParseUint(trimmed, 10, 64); err == nil {
		return seconds, nil
	}
	if days, ok := strings.CutSuffix(trimmed, "d"); ok {
		n, err := strconv.ParseUint(days, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", raw)
		}
		return n * 86400, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q", raw)
	}
	if d < time.Second {
		return 0, fmt.Errorf("interval %q is shorter than one second", raw)
	}
	return uint64(d / time.Second), nil
}
