package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestCodesAreDistinctAndNamed(t *testing.T) {
	seen := make(map[Code]string)
	for _, code := range Codes() {
		name := code.String()
		if strings.HasPrefix(name, "Code(") {
			t.Fatalf("code %d has no name", uint32(code))
		}
		if prev, ok := seen[code]; ok {
			t.Fatalf("code %d shared by %s and %s", uint32(code), prev, name)
		}
		seen[code] = name
	}
	if CodeUnauthorized == CodeRateLimitExceeded {
		t.Fatalf("unauthorized and rate limit must not collide")
	}
}

func TestSentinelMatching(t *testing.T) {
	wrapped := fmt.Errorf("confirm payout: %w", New(CodeDuplicateSettlement))
	if !stderrors.Is(wrapped, ErrDuplicateSettlement) {
		t.Fatalf("expected wrapped error to match sentinel")
	}
	if stderrors.Is(wrapped, ErrContractPaused) {
		t.Fatalf("did not expect match against a different code")
	}
	code, ok := CodeOf(wrapped)
	if !ok || code != CodeDuplicateSettlement {
		t.Fatalf("unexpected code extraction: %v %v", code, ok)
	}
	if _, ok := CodeOf(stderrors.New("disk full")); ok {
		t.Fatalf("unclassified errors must not report a code")
	}
}

func TestErrorMessageIsOpaque(t *testing.T) {
	msg := ErrRateLimitExceeded.Error()
	if msg != "remit: RateLimitExceeded (code 14)" {
		t.Fatalf("unexpected message %q", msg)
	}
}
