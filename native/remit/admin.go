package remit

import (
	remiterrors "swiftremit/core/errors"
)

// AddAdmin grants the admin role to newAdmin.
func (e *Engine) AddAdmin(caller, newAdmin [20]byte) error {
	cfg, err := e.adminCall(caller)
	if err != nil {
		return err
	}
	if newAdmin == ([20]byte{}) {
		return remiterrors.ErrInvalidAddress
	}
	exists, err := e.IsAdmin(newAdmin)
	if err != nil {
		return err
	}
	if exists {
		return remiterrors.ErrAdminAlreadyExists
	}
	if cfg.AdminCount == ^uint32(0) {
		return remiterrors.ErrOverflow
	}
	kv, err := e.persistent()
	if err != nil {
		return err
	}
	if err := kv.Put(adminRoleKey(newAdmin), true); err != nil {
		return err
	}
	cfg.AdminCount++
	if err := e.saveConfig(cfg); err != nil {
		return err
	}
	e.emit(newAdminEvent(EventTypeAdminAdded, caller, newAdmin, cfg.AdminCount))
	return nil
}

// RemoveAdmin revokes the admin role from target. The last admin can never be
// removed.
func (e *Engine) RemoveAdmin(caller, target [20]byte) error {
	cfg, err := e.adminCall(caller)
	if err != nil {
		return err
	}
	exists, err := e.IsAdmin(target)
	if err != nil {
		return err
	}
	if !exists {
		return remiterrors.ErrAdminNotFound
	}
	if cfg.AdminCount <= 1 {
		return remiterrors.ErrCannotRemoveLastAdmin
	}
	kv, err := e.persistent()
	if err != nil {
		return err
	}
	if err := kv.Delete(adminRoleKey(target)); err != nil {
		return err
	}
	cfg.AdminCount--
	if err := e.saveConfig(cfg); err != nil {
		return err
	}
	e.emit(newAdminEvent(EventTypeAdminRemoved, caller, target, cfg.AdminCount))
	return nil
}

// IsAdmin reports whether addr holds the admin role.
func (e *Engine) IsAdmin(addr [20]byte) (bool, error) {
	kv, err := e.persistent()
	if err != nil {
		return false, err
	}
	var flag bool
	if _, err := kv.Get(adminRoleKey(addr), &flag); err != nil {
		return false, err
	}
	return flag, nil
}

// AdminCount returns the number of addresses holding the admin role.
func (e *Engine) AdminCount() (uint32, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return 0, err
	}
	return cfg.AdminCount, nil
}
