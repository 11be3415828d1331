package errors

import stderrors "errors"

var (
	ErrInvalidSignature = stderrors.New("tx: invalid signature")
	ErrChainIDMismatch  = stderrors.New("tx: chain id mismatch")
	ErrNonceMismatch    = stderrors.New("tx: nonce mismatch")
	ErrCustodyTransfer  = stderrors.New("tx: custody transfer failed")
)
