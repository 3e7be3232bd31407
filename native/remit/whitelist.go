package remit

import (
	remiterrors "swiftremit/core/errors"
)

// SetTokenWhitelisted enables or disables a settlement token. Enabling a token
// that is already enabled fails; disabling is idempotent.
func (e *Engine) SetTokenWhitelisted(caller, token [20]byte, whitelisted bool) error {
	if _, err := e.adminCall(caller); err != nil {
		return err
	}
	if token == ([20]byte{}) {
		return remiterrors.ErrInvalidAddress
	}
	current, err := e.IsTokenWhitelisted(token)
	if err != nil {
		return err
	}
	if whitelisted && current {
		return remiterrors.ErrTokenAlreadyWhitelisted
	}
	kv, err := e.persistent()
	if err != nil {
		return err
	}
	if whitelisted {
		err = kv.Put(whitelistKey(token), true)
	} else {
		err = kv.Delete(whitelistKey(token))
	}
	if err != nil {
		return err
	}
	e.emit(newWhitelistEvent(caller, token, whitelisted))
	return nil
}

// IsTokenWhitelisted reports whether token is approved for settlement.
func (e *Engine) IsTokenWhitelisted(token [20]byte) (bool, error) {
	kv, err := e.persistent()
	if err != nil {
		return false, err
	}
	var flag bool
	if _, err := kv.Get(whitelistKey(token), &flag); err != nil {
		return false, err
	}
	return flag, nil
}

func (e *Engine) requireWhitelisted(token [20]byte) error {
	ok, err := e.IsTokenWhitelisted(token)
	if err != nil {
		return err
	}
	if !ok {
		return remiterrors.ErrTokenNotWhitelisted
	}
	return nil
}
