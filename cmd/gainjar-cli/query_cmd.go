package main

import (
	"io"
	"strings"
)

func runEmployee(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("employee", stderr)
	employer := fs.String("employer", "", "employer address")
	employee := fs.String("employee", "", "employee address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *employer == "" || *employee == "" {
		return printError(stderr, "--employer and --employee are required")
	}
	return query(stdout, stderr, "payroll_getEmployee", map[string]string{"employer": *employer, "employee": *employee})
}

func runEmployees(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("employees", stderr)
	employer := fs.String("employer", "", "employer address")
	active := fs.Bool("active", false, "only list employees still being paid")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *employer == "" {
		return printError(stderr, "--employer is required")
	}
	return query(stdout, stderr, "payroll_listEmployees", map[string]interface{}{"employer": *employer, "activeOnly": *active})
}

func runTokens(args []string, stdout, stderr io.Writer) int {
	return employerQuery("tokens", "payroll_allowedTokens", args, stdout, stderr)
}

func runVaultStatus(args []string, stdout, stderr io.Writer) int {
	return employerQuery("vault-status", "payroll_vaultStatus", args, stdout, stderr)
}

func employerQuery(name, method string, args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet(name, stderr)
	employer := fs.String("employer", "", "employer address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *employer == "" {
		return printError(stderr, "--employer is required")
	}
	return query(stdout, stderr, method, map[string]string{"employer": *employer})
}

func runBalance(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("balance", stderr)
	employer := fs.String("employer", "", "employer address")
	token := fs.String("token", "", "token address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *employer == "" || *token == "" {
		return printError(stderr, "--employer and --token are required")
	}
	return query(stdout, stderr, "payroll_balance", map[string]string{"employer": *employer, "token": *token})
}

func runBankBalance(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("bank-balance", stderr)
	account := fs.String("account", "", "account address")
	token := fs.String("token", "", "token address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *account == "" || *token == "" {
		return printError(stderr, "--account and --token are required")
	}
	return query(stdout, stderr, "bank_getBalance", map[string]string{"account": *account, "token": *token})
}

func runEvents(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("events", stderr)
	eventType := fs.String("type", "", "event type, e.g. payroll.payment.executed")
	employer := fs.String("employer", "", "employer address")
	employee := fs.String("employee", "", "employee address")
	token := fs.String("token", "", "token address")
	from := fs.Uint64("from", 0, "first block height")
	limit := fs.Int("limit", 0, "maximum number of events")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	params := map[string]interface{}{}
	for key, value := range map[string]string{
		"type": *eventType, "employer": *employer, "employee": *employee, "token": *token,
	} {
		if strings.TrimSpace(value) != "" {
			params[key] = value
		}
	}
	if *from > 0 {
		params["fromHeight"] = *from
	}
	if *limit > 0 {
		params["limit"] = *limit
	}
	return query(stdout, stderr, "events_list", params)
}

func query(stdout, stderr io.Writer, method string, params interface{}) int {
	result, err := rpcCall(method, params)
	if err != nil {
		return handleCallError(stderr, err)
	}
	writeResult(stdout, result)
	return 0
}
