package remit

import (
	remiterrors "swiftremit/core/errors"
)

// RegisterAgent marks agent as a payout agent. Registering twice is a no-op.
func (e *Engine) RegisterAgent(caller, agent [20]byte) error {
	if _, err := e.adminCall(caller); err != nil {
		return err
	}
	if agent == ([20]byte{}) {
		return remiterrors.ErrInvalidAddress
	}
	kv, err := e.persistent()
	if err != nil {
		return err
	}
	if err := kv.Put(agentKey(agent), true); err != nil {
		return err
	}
	e.emit(newAgentEvent(EventTypeAgentRegistered, caller, agent))
	return nil
}

// RemoveAgent revokes a payout agent.
func (e *Engine) RemoveAgent(caller, agent [20]byte) error {
	if _, err := e.adminCall(caller); err != nil {
		return err
	}
	registered, err := e.IsAgentRegistered(agent)
	if err != nil {
		return err
	}
	if !registered {
		return remiterrors.ErrAgentNotRegistered
	}
	kv, err := e.persistent()
	if err != nil {
		return err
	}
	if err := kv.Delete(agentKey(agent)); err != nil {
		return err
	}
	e.emit(newAgentEvent(EventTypeAgentRemoved, caller, agent))
	return nil
}

// IsAgentRegistered reports whether agent may receive new remittances.
func (e *Engine) IsAgentRegistered(agent [20]byte) (bool, error) {
	kv, err := e.persistent()
	if err != nil {
		return false, err
	}
	var flag bool
	if _, err := kv.Get(agentKey(agent), &flag); err != nil {
		return false, err
	}
	return flag, nil
}
