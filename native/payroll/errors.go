package payroll

import "errors"

var (
	ErrNilState               = errors.New("payroll: state not configured")
	ErrNilTransferer          = errors.New("payroll: transferer not configured")
	ErrUnauthorized           = errors.New("payroll: unauthorized")
	ErrEmployeeAlreadyExists  = errors.New("payroll: employee already exists")
	ErrEmployeeNotFound       = errors.New("payroll: employee not found")
	ErrInvalidPaymentInterval = errors.New("payroll: invalid payment interval")
	ErrInvalidAddress         = errors.New("payroll: invalid address")
	ErrInvalidToken           = errors.New("payroll: invalid token")
	ErrTokenNotAllowed        = errors.New("payroll: token not allowed")
	ErrTokenAlreadyAllowed    = errors.New("payroll: token already allowed")
	ErrInsufficientFunds      = errors.New("payroll: insufficient funds")
	ErrPaymentNotDue          = errors.New("payroll: payment interval not elapsed")
	ErrBalanceOverflow        = errors.New("payroll: balance overflow")
	ErrTransferFailed         = errors.New("payroll: transfer failed")
	ErrAborted                = errors.New("payroll: operation aborted")
	ErrUnknownOp              = errors.New("payroll: unknown operation")
)
