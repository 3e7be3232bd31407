package common

import (
	"errors"
	"testing"
)

func TestGuardBlocksPausedModule(t *testing.T) {
	view := PauseFunc(func(module string) bool { return module == "remit" })
	if err := Guard(view, "remit"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
	if err := Guard(view, "bank"); err != nil {
		t.Fatalf("unexpected error for running module: %v", err)
	}
}

func TestGuardIgnoresMissingView(t *testing.T) {
	if err := Guard(nil, "remit"); err != nil {
		t.Fatalf("nil view must not block: %v", err)
	}
	if err := Guard(PauseFunc(func(string) bool { return true }), ""); err != nil {
		t.Fatalf("empty module must not block: %v", err)
	}
	var nilFunc PauseFunc
	if nilFunc.IsPaused("remit") {
		t.Fatalf("nil PauseFunc must report running")
	}
}
