package payroll

import (
	"gainjar/core/events"
)

// AddAllowedToken admits token for the employer's deposits and payouts.
func (e *Engine) AddAllowedToken(employer, token Address) error {
	if err := e.guard(); err != nil {
		return err
	}
	if token == (Address{}) {
		return ErrInvalidToken
	}
	return e.atomic(func() error {
		allowed, err := e.IsAllowed(employer, token)
		if err != nil {
			return err
		}
		if allowed {
			return ErrTokenAlreadyAllowed
		}
		if err := e.state.KVPut(allowedKey(employer, token), true); err != nil {
			return err
		}
		if err := e.state.KVAppend(allowlistKey(employer), token[:]); err != nil {
			return err
		}
		e.emit(events.TokenAllowed{Employer: employer, Token: token})
		return nil
	})
}

// IsAllowed reports whether token is in the employer's allowlist.
func (e *Engine) IsAllowed(employer, token Address) (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	var allowed bool
	ok, err := e.state.KVGet(allowedKey(employer, token), &allowed)
	if err != nil {
		return false, err
	}
	return ok && allowed, nil
}

// AllowedTokens lists the employer's allowed tokens in insertion order.
func (e *Engine) AllowedTokens(employer Address) ([]Address, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	var raw [][]byte
	if err := e.state.KVGetList(allowlistKey(employer), &raw); err != nil {
		return nil, err
	}
	tokens := make([]Address, 0, len(raw))
	for _, entry := range raw {
		var token Address
		copy(token[:], entry)
		tokens = append(tokens, token)
	}
	return tokens, nil
}
