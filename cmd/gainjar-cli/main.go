package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"gainjar/cmd/internal/passphrase"
)

const keyPassEnv = "GAINJAR_KEY_PASS"

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

var (
	rpcEndpoint = defaultRPCEndpoint()
	rpcCall     = callRPC
	passSource  = passphrase.NewSource(keyPassEnv, "key")
	httpClient  = &http.Client{Timeout: 15 * time.Second}
)

func main() {
	args, err := applyGlobalFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(run(args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage())
		return 1
	}
	switch args[0] {
	case "keygen":
		return runKeygen(args[1:], stdout, stderr)
	case "address":
		return runAddress(args[1:], stdout, stderr)
	case "allow-token":
		return runAllowToken(args[1:], stdout, stderr)
	case "add-employee":
		return runAddEmployee(args[1:], stdout, stderr)
	case "deposit":
		return runDeposit(args[1:], stdout, stderr)
	case "pay":
		return runPay(args[1:], stdout, stderr)
	case "deactivate":
		return runDeactivate(args[1:], stdout, stderr)
	case "employee":
		return runEmployee(args[1:], stdout, stderr)
	case "employees":
		return runEmployees(args[1:], stdout, stderr)
	case "tokens":
		return runTokens(args[1:], stdout, stderr)
	case "balance":
		return runBalance(args[1:], stdout, stderr)
	case "bank-balance":
		return runBankBalance(args[1:], stdout, stderr)
	case "vault-status":
		return runVaultStatus(args[1:], stdout, stderr)
	case "events":
		return runEvents(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage())
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		fmt.Fprintln(stderr, usage())
		return 1
	}
}

func usage() string {
	return strings.TrimSpace(`
Usage: gainjar-cli [--rpc URL] <command> [flags]

Keys:
  keygen        --out FILE                      create a keystore file
  address       --key FILE                      print the key's address

Employer transactions (signed with --key):
  allow-token   --token ADDR
  add-employee  --employee ADDR --salary N --interval DURATION
  deposit       --token ADDR --amount N
  deactivate    --employee ADDR

Payment trigger (signed with --key):
  pay           --employer ADDR --employee ADDR --token ADDR

Queries:
  employee      --employer ADDR --employee ADDR
  employees     --employer ADDR
  tokens        --employer ADDR
  balance       --employer ADDR --token ADDR
  bank-balance  --account ADDR --token ADDR
  vault-status  --employer ADDR
  events        [--type T] [--employer ADDR] [--employee ADDR] [--token ADDR] [--from HEIGHT] [--limit N]

The keystore passphrase is read from ` + keyPassEnv + ` or prompted on the terminal.`)
}

func defaultRPCEndpoint() string {
	if v := strings.TrimSpace(os.Getenv("RPC_URL")); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func applyGlobalFlags(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--rpc" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value for --rpc")
			}
			rpcEndpoint = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--rpc=") {
			rpcEndpoint = strings.TrimPrefix(arg, "--rpc=")
			continue
		}
		out = append(out, arg)
	}
	return out, nil
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func printError(w io.Writer, msg string) int {
	fmt.Fprintf(w, "Error: %s\n", msg)
	return 1
}

func handleCallError(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	if rpcErr, ok := err.(*rpcError); ok {
		fmt.Fprintln(w, rpcErr.Error())
		return 1
	}
	fmt.Fprintf(w, "RPC call failed: %v\n", err)
	return 1
}

func writeResult(w io.Writer, result json.RawMessage) {
	if len(result) == 0 {
		fmt.Fprintln(w, "null")
		return
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, result, "", "  "); err != nil {
		fmt.Fprintln(w, string(result))
		return
	}
	fmt.Fprintln(w, pretty.String())
}

func callRPC(method string, params interface{}) (json.RawMessage, error) {
	payload := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		payload["params"] = []interface{}{params}
	} else {
		payload["params"] = []interface{}{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, rpcEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", rpcEndpoint, err)
	}
	defer resp.Body.Close()

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("failed to decode RPC response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}
