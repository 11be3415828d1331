package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gainjar/core/types"
	"gainjar/crypto"
	"gainjar/explorer"
)

type accountTokenParams struct {
	Account  string `json:"account,omitempty"`
	Employer string `json:"employer,omitempty"`
	Employee string `json:"employee,omitempty"`
	Token    string `json:"token,omitempty"`
}

type listEmployeesParams struct {
	Employer   string `json:"employer"`
	ActiveOnly bool   `json:"activeOnly,omitempty"`
}

type eventsListParams struct {
	Type       string `json:"type,omitempty"`
	Employer   string `json:"employer,omitempty"`
	Employee   string `json:"employee,omitempty"`
	Token      string `json:"token,omitempty"`
	FromHeight uint64 `json:"fromHeight,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

func decodeParams(params []json.RawMessage, out interface{}) *RPCError {
	if len(params) != 1 {
		return invalidParams("expected a single parameter object", nil)
	}
	if err := json.Unmarshal(params[0], out); err != nil {
		return invalidParams("invalid parameter object", err.Error())
	}
	return nil
}

func requireAddress(field, raw string) ([20]byte, *RPCError) {
	addr, err := crypto.ParseAddress(raw)
	if err != nil {
		return addr, invalidParams("invalid "+field, err.Error())
	}
	return addr, nil
}

func (s *Server) handlePayrollSubmit(ctx context.Context, params []json.RawMessage) (interface{}, *RPCError) {
	if len(params) != 1 {
		return nil, invalidParams("expected a signed transaction", nil)
	}
	var tx types.Transaction
	if err := json.Unmarshal(params[0], &tx); err != nil {
		return nil, invalidParams("invalid transaction", err.Error())
	}
	receipt, err := s.node.SubmitTransaction(ctx, &tx)
	if err != nil {
		return nil, toRPCError(err)
	}
	result := SubmitResult{
		TxHash:    receipt.TxHash,
		Height:    receipt.Height,
		StateRoot: receipt.StateRoot.Hex(),
		Events:    make([]EventResult, 0, len(receipt.Events)),
	}
	for _, record := range receipt.Events {
		result.Events = append(result.Events, eventResult(record, explorer.Label(record)))
	}
	return result, nil
}

func (s *Server) handlePayrollIsAllowed(_ context.Context, params []json.RawMessage) (interface{}, *RPCError) {
	var p accountTokenParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	employer, rpcErr := requireAddress("employer", p.Employer)
	if rpcErr != nil {
		return nil, rpcErr
	}
	token, rpcErr := requireAddress("token", p.Token)
	if rpcErr != nil {
		return nil, rpcErr
	}
	allowed, err := s.node.IsAllowed(employer, token)
	if err != nil {
		return nil, toRPCError(err)
	}
	return map[string]bool{"allowed": allowed}, nil
}

func (s *Server) handlePayrollAllowedTokens(_ context.Context, params []json.RawMessage) (interface{}, *RPCError) {
	var p accountTokenParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	employer, rpcErr := requireAddress("employer", p.Employer)
	if rpcErr != nil {
		return nil, rpcErr
	}
	tokens, err := s.node.AllowedTokens(employer)
	if err != nil {
		return nil, toRPCError(err)
	}
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		out = append(out, crypto.FormatAddress(token))
	}
	return out, nil
}

func (s *Server) handlePayrollGetEmployee(_ context.Context, params []json.RawMessage) (interface{}, *RPCError) {
	var p accountTokenParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	employer, rpcErr := requireAddress("employer", p.Employer)
	if rpcErr != nil {
		return nil, rpcErr
	}
	employee, rpcErr := requireAddress("employee", p.Employee)
	if rpcErr != nil {
		return nil, rpcErr
	}
	record, err := s.node.Employee(employer, employee)
	if err != nil {
		return nil, toRPCError(err)
	}
	return employeeResult(record), nil
}

func (s *Server) handlePayrollListEmployees(_ context.Context, params []json.RawMessage) (interface{}, *RPCError) {
	var p listEmployeesParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	employer, rpcErr := requireAddress("employer", p.Employer)
	if rpcErr != nil {
		return nil, rpcErr
	}
	list := s.node.Employees
	if p.ActiveOnly {
		list = s.node.ActiveEmployees
	}
	records, err := list(employer)
	if err != nil {
		return nil, toRPCError(err)
	}
	out := make([]EmployeeResult, 0, len(records))
	for _, record := range records {
		out = append(out, employeeResult(record))
	}
	return out, nil
}

func (s *Server) handlePayrollBalance(_ context.Context, params []json.RawMessage) (interface{}, *RPCError) {
	var p accountTokenParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	employer, rpcErr := requireAddress("employer", p.Employer)
	if rpcErr != nil {
		return nil, rpcErr
	}
	token, rpcErr := requireAddress("token", p.Token)
	if rpcErr != nil {
		return nil, rpcErr
	}
	balance, err := s.node.PayrollBalance(employer, token)
	if err != nil {
		return nil, toRPCError(err)
	}
	return BalanceResult{Account: p.Employer, Token: p.Token, Amount: balance.Dec()}, nil
}

func (s *Server) handlePayrollVaultStatus(_ context.Context, params []json.RawMessage) (interface{}, *RPCError) {
	var p accountTokenParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	employer, rpcErr := requireAddress("employer", p.Employer)
	if rpcErr != nil {
		return nil, rpcErr
	}
	coverage, err := s.node.VaultStatus(employer)
	if err != nil {
		return nil, toRPCError(err)
	}
	out := make([]CoverageResult, 0, len(coverage))
	for _, cov := range coverage {
		out = append(out, coverageResult(cov))
	}
	return out, nil
}

func (s *Server) handleBankGetBalance(_ context.Context, params []json.RawMessage) (interface{}, *RPCError) {
	var p accountTokenParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := requireAddress("account", p.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	token, rpcErr := requireAddress("token", p.Token)
	if rpcErr != nil {
		return nil, rpcErr
	}
	balance, err := s.node.BankBalance(account, token)
	if err != nil {
		return nil, toRPCError(err)
	}
	return BalanceResult{Account: p.Account, Token: p.Token, Amount: balance.Dec()}, nil
}

func (s *Server) handleAccountNonce(_ context.Context, params []json.RawMessage) (interface{}, *RPCError) {
	var p accountTokenParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := requireAddress("account", p.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	nonce, err := s.node.Nonce(account)
	if err != nil {
		return nil, toRPCError(err)
	}
	return map[string]uint64{"nonce": nonce}, nil
}

func (s *Server) handleChainStateRoot(_ context.Context, _ []json.RawMessage) (interface{}, *RPCError) {
	return map[string]interface{}{
		"chainId":   s.node.ChainID(),
		"height":    s.node.Height(),
		"stateRoot": s.node.StateRoot().Hex(),
		"vault":     crypto.FormatAddress(s.node.VaultAddress()),
	}, nil
}

func (s *Server) handleEventsList(ctx context.Context, params []json.RawMessage) (interface{}, *RPCError) {
	if s.events == nil {
		return nil, &RPCError{Code: codeServerError, Message: "event index disabled"}
	}
	var p eventsListParams
	if len(params) > 0 {
		if rpcErr := decodeParams(params, &p); rpcErr != nil {
			return nil, rpcErr
		}
	}
	filter := explorer.Filter{
		Type:       strings.TrimSpace(p.Type),
		FromHeight: p.FromHeight,
		Limit:      p.Limit,
	}
	var err error
	if filter.Employer, err = canonicalAddress(p.Employer); err != nil {
		return nil, invalidParams("invalid employer", err.Error())
	}
	if filter.Employee, err = canonicalAddress(p.Employee); err != nil {
		return nil, invalidParams("invalid employee", err.Error())
	}
	if filter.Token, err = canonicalAddress(p.Token); err != nil {
		return nil, invalidParams("invalid token", err.Error())
	}
	records, err := s.events.Events(ctx, filter)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, &RPCError{Code: codeServerError, Message: "request cancelled"}
		}
		return nil, toRPCError(err)
	}
	out := make([]EventResult, 0, len(records))
	for _, record := range records {
		out = append(out, eventResult(record, explorer.Label(record)))
	}
	return out, nil
}

// canonicalAddress normalises hex or bech32 input to the bech32 form stored
// in event attributes. Empty input stays empty.
func canonicalAddress(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	addr, err := crypto.ParseAddress(raw)
	if err != nil {
		return "", err
	}
	return crypto.FormatAddress(addr), nil
}

