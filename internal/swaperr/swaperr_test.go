package swaperr

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type codedErr struct{ code int }

func (e codedErr) Error() string  { return "provider error" }
func (e codedErr) ErrorCode() int { return e.code }

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("build key: %w", New(KindInvalidPool, "identical tokens"))
	if !errors.Is(err, InvalidPoolError) {
		t.Fatalf("expected InvalidPoolError match")
	}
	if errors.Is(err, ParseError) {
		t.Fatalf("unexpected ParseError match")
	}
	if KindOf(err) != KindInvalidPool {
		t.Fatalf("kind mismatch: %s", KindOf(err))
	}
}

func TestClassifySubmission(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{ErrUserRejected, KindUserCancelled},
		{errors.New("MetaMask Tx Signature: User denied transaction signature."), KindUserCancelled},
		{codedErr{code: 4001}, KindUserCancelled},
		{codedErr{code: -32000}, KindSubmission},
		{errors.New("insufficient funds for gas * price + value"), KindSubmission},
		{New(KindNotConnected, "no wallet"), KindNotConnected},
		{context.Canceled, KindSubmission},
		{fmt.Errorf("send transaction: %w", context.Canceled), KindSubmission},
	}
	for _, tc := range cases {
		got := ClassifySubmission(tc.err)
		if got.Kind != tc.want {
			t.Fatalf("classify %q: got %s want %s", tc.err, got.Kind, tc.want)
		}
	}
	if ClassifySubmission(nil) != nil {
		t.Fatalf("nil error should classify to nil")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := Truncate("execution reverted: too little received", 20); got != "execution reverte..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
	err := Wrap(KindSubmission, "transaction submission failed", errors.New("nonce too low"))
	if got := err.Display(12); len([]rune(got)) != 12 {
		t.Fatalf("display length mismatch: %q", got)
	}
}
