package rpc

import (
	"errors"

	"gainjar/core"
	txerrors "gainjar/core/errors"
	"gainjar/native/bank"
	"gainjar/native/common"
	"gainjar/native/payroll"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeInvalidSig     = -32001
	codeNonceMismatch  = -32010
	codeChainMismatch  = -32011
	codeRateLimited    = -32020

	codeUnauthorized        = -32041
	codeEmployeeExists      = -32042
	codeEmployeeNotFound    = -32043
	codeInvalidInterval     = -32044
	codeTokenNotAllowed     = -32045
	codeTokenAlreadyAllowed = -32046
	codeInsufficientFunds   = -32047
	codePaymentNotDue       = -32048
	codeModulePaused        = -32049
)

var errorCodes = []struct {
	err  error
	code int
}{
	{payroll.ErrUnauthorized, codeUnauthorized},
	{payroll.ErrEmployeeAlreadyExists, codeEmployeeExists},
	{payroll.ErrEmployeeNotFound, codeEmployeeNotFound},
	{payroll.ErrInvalidPaymentInterval, codeInvalidInterval},
	{payroll.ErrTokenNotAllowed, codeTokenNotAllowed},
	{payroll.ErrTokenAlreadyAllowed, codeTokenAlreadyAllowed},
	{payroll.ErrInsufficientFunds, codeInsufficientFunds},
	{bank.ErrInsufficientBalance, codeInsufficientFunds},
	{payroll.ErrPaymentNotDue, codePaymentNotDue},
	{common.ErrModulePaused, codeModulePaused},
	{payroll.ErrInvalidToken, codeInvalidParams},
	{payroll.ErrInvalidAddress, codeInvalidParams},
	{payroll.ErrBalanceOverflow, codeInvalidParams},
	{core.ErrInvalidPayload, codeInvalidParams},
	{txerrors.ErrInvalidSignature, codeInvalidSig},
	{txerrors.ErrNonceMismatch, codeNonceMismatch},
	{txerrors.ErrChainIDMismatch, codeChainMismatch},
}

// toRPCError maps domain failures onto stable JSON-RPC codes.
func toRPCError(err error) *RPCError {
	if err == nil {
		return nil
	}
	for _, entry := range errorCodes {
		if errors.Is(err, entry.err) {
			return &RPCError{Code: entry.code, Message: err.Error()}
		}
	}
	return &RPCError{Code: codeServerError, Message: err.Error()}
}

func invalidParams(message string, data interface{}) *RPCError {
	return &RPCError{Code: codeInvalidParams, Message: message, Data: data}
}
