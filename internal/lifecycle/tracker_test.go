package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"swapDesk/internal/notify"
	"swapDesk/internal/swaperr"
)

func statusRecorder(tracker *Tracker) *[]Status {
	statuses := []Status{tracker.Snapshot().Status}
	tracker.Subscribe(func(s Snapshot) {
		if statuses[len(statuses)-1] != s.Status {
			statuses = append(statuses, s.Status)
		}
	})
	return &statuses
}

func equalStatuses(got []Status, want ...Status) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestExecuteWithoutSignerNeverSubmits(t *testing.T) {
	executor := &fakeExecutor{}
	sink := &recordingSink{}
	tracker := NewTracker(executor, StaticAccount{}, sink, zap.NewNop())

	snap, err := tracker.Execute(context.Background(), nativeToUSDCAttempt(t))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if snap.Status != StatusFailed || !errors.Is(snap.Err, swaperr.NotConnectedError) {
		t.Fatalf("expected not connected failure, got %s %v", snap.Status, snap.Err)
	}
	if executor.submits() != 0 {
		t.Fatalf("executor should never be invoked")
	}
	if sink.last().Kind != notify.KindWarning || sink.last().Action == "" {
		t.Fatalf("expected connect call to action, got %+v", sink.last())
	}
}

func TestExecuteOnChainFailureNotifiesOnce(t *testing.T) {
	hash := common.HexToHash("0xfeed")
	executor := &fakeExecutor{hashes: []common.Hash{hash}, receipt: Receipt{Success: false, BlockNumber: 7}}
	sink := &recordingSink{}
	tracker := NewTracker(executor, StaticAccount(trader), sink, zap.NewNop())
	statuses := statusRecorder(tracker)

	snap, err := tracker.Execute(context.Background(), nativeToUSDCAttempt(t))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if snap.Status != StatusConfirming || snap.TxHash != hash {
		t.Fatalf("expected confirming %s, got %s %s", hash.Hex(), snap.Status, snap.TxHash.Hex())
	}

	if _, err := tracker.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if tracker.HandleReceipt(hash, Receipt{Success: false}) {
		t.Fatalf("repeated receipt should be ignored")
	}
	if tracker.HandleReceipt(hash, Receipt{Success: true}) {
		t.Fatalf("late success receipt should be ignored")
	}
	if _, err := tracker.Wait(context.Background()); err != nil {
		t.Fatalf("wait after failure: %v", err)
	}

	if !equalStatuses(*statuses, StatusIdle, StatusPending, StatusConfirming, StatusFailed) {
		t.Fatalf("unexpected sequence %v", *statuses)
	}
	final := tracker.Snapshot()
	if !errors.Is(final.Err, swaperr.OnChainFailureError) || final.BlockNumber != 7 {
		t.Fatalf("expected on-chain failure at block 7, got %v %d", final.Err, final.BlockNumber)
	}
	if sink.count("Swap failed") != 1 {
		t.Fatalf("failure notification fired %d times", sink.count("Swap failed"))
	}
	if sink.count("Swap confirmed") != 0 {
		t.Fatalf("confirmation notification should not fire")
	}
	if executor.awaited != 1 {
		t.Fatalf("receipt awaited %d times", executor.awaited)
	}
}

func TestExecuteConfirmedDecodesSwap(t *testing.T) {
	attempt := nativeToUSDCAttempt(t)
	hash := common.HexToHash("0xbeef")
	executor := &fakeExecutor{hashes: []common.Hash{hash}}
	executor.receipt = Receipt{Success: true, BlockNumber: 11, Logs: []*types.Log{swapLog(t, attempt.Key.ID())}}
	sink := &recordingSink{}
	tracker := NewTracker(executor, StaticAccount(trader), sink, nil)

	if _, err := tracker.Execute(context.Background(), attempt); err != nil {
		t.Fatalf("execute: %v", err)
	}
	snap, err := tracker.Wait(context.Background())
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if snap.Status != StatusConfirmed || snap.BlockNumber != 11 {
		t.Fatalf("expected confirmed at 11, got %s %d", snap.Status, snap.BlockNumber)
	}
	if snap.Swap == nil || snap.Swap.Amount1 != "-9" {
		t.Fatalf("expected decoded swap, got %+v", snap.Swap)
	}
	tracker.HandleReceipt(hash, executor.receipt)
	if sink.count("Swap confirmed") != 1 {
		t.Fatalf("confirmation fired %d times", sink.count("Swap confirmed"))
	}
}

func TestExecuteClassifiesRejections(t *testing.T) {
	cases := []struct {
		err  error
		want *swaperr.Error
	}{
		{swaperr.ErrUserRejected, swaperr.UserCancelledError},
		{errors.New("MetaMask Tx Signature: User denied transaction signature."), swaperr.UserCancelledError},
		{codedErr{code: 4001}, swaperr.UserCancelledError},
		{errBoom, swaperr.SubmissionError},
	}
	for _, tc := range cases {
		executor := &fakeExecutor{submitErrs: []error{tc.err}}
		tracker := NewTracker(executor, StaticAccount(trader), nil, nil)
		snap, err := tracker.Execute(context.Background(), nativeToUSDCAttempt(t))
		if err != nil {
			t.Fatalf("execute: %v", err)
		}
		if snap.Status != StatusFailed || !errors.Is(snap.Err, tc.want) {
			t.Fatalf("%v: expected %s, got %s %v", tc.err, tc.want.Kind, snap.Status, snap.Err)
		}
		if snap.TxHash != (common.Hash{}) {
			t.Fatalf("failed submission should not record a hash")
		}
	}
}

func TestRetryResubmitsStoredAttempt(t *testing.T) {
	executor := &fakeExecutor{submitErrs: []error{errBoom, nil}}
	tracker := NewTracker(executor, StaticAccount(trader), nil, nil)
	attempt := nativeToUSDCAttempt(t)

	snap, _ := tracker.Execute(context.Background(), attempt)
	if snap.Status != StatusFailed {
		t.Fatalf("expected failure, got %s", snap.Status)
	}
	if snap.Attempt == nil {
		t.Fatalf("failed attempt should stay retryable")
	}

	snap, err := tracker.Retry(context.Background())
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if snap.Status != StatusConfirming || snap.Err != nil {
		t.Fatalf("expected confirming after retry, got %s %v", snap.Status, snap.Err)
	}
	if executor.submits() != 2 {
		t.Fatalf("expected 2 submissions, got %d", executor.submits())
	}
	if !bytes.Equal(executor.submitted[0].Data, executor.submitted[1].Data) || executor.submitted[1].Value.Cmp(attempt.Call.Value) != 0 {
		t.Fatalf("retry should resubmit the same call")
	}
}

func TestRetryWithoutAttemptIsNoop(t *testing.T) {
	executor := &fakeExecutor{}
	tracker := NewTracker(executor, StaticAccount(trader), nil, nil)
	snap, err := tracker.Retry(context.Background())
	if err != nil || snap.Status != StatusIdle || executor.submits() != 0 {
		t.Fatalf("retry without attempt: %s %v submits=%d", snap.Status, err, executor.submits())
	}
}

func TestResetForgetsAttempt(t *testing.T) {
	executor := &fakeExecutor{submitErrs: []error{errBoom}}
	tracker := NewTracker(executor, StaticAccount(trader), nil, nil)
	tracker.Execute(context.Background(), nativeToUSDCAttempt(t))

	tracker.Reset()
	snap := tracker.Snapshot()
	if snap.Status != StatusIdle || snap.Err != nil || snap.Attempt != nil || snap.TxHash != (common.Hash{}) {
		t.Fatalf("reset did not clear state: %+v", snap)
	}
	tracker.Retry(context.Background())
	if executor.submits() != 1 {
		t.Fatalf("retry after reset should not submit")
	}
}

func TestExecuteRejectsConcurrentAttempt(t *testing.T) {
	executor := &fakeExecutor{}
	tracker := NewTracker(executor, StaticAccount(trader), nil, nil)
	first, _ := tracker.Execute(context.Background(), nativeToUSDCAttempt(t))

	second, err := tracker.Execute(context.Background(), nativeToUSDCAttempt(t))
	if !errors.Is(err, swaperr.AttemptInFlightError) {
		t.Fatalf("expected AttemptInFlightError, got %v", err)
	}
	if second.Status != StatusConfirming || second.TxHash != first.TxHash || second.AttemptNumber != first.AttemptNumber {
		t.Fatalf("in-flight attempt should be untouched: %+v", second)
	}
	if executor.submits() != 1 {
		t.Fatalf("second attempt should not be submitted")
	}
}

func TestWaitKeepsConfirmingOnError(t *testing.T) {
	executor := &fakeExecutor{receiptErr: context.DeadlineExceeded}
	tracker := NewTracker(executor, StaticAccount(trader), nil, nil)
	tracker.Execute(context.Background(), nativeToUSDCAttempt(t))

	snap, err := tracker.Wait(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if snap.Status != StatusConfirming {
		t.Fatalf("expected confirming, got %s", snap.Status)
	}
}

func TestFailureNotificationKinds(t *testing.T) {
	cases := []struct {
		err    *swaperr.Error
		kind   notify.Kind
		action string
	}{
		{swaperr.New(swaperr.KindParse, "bad amount"), notify.KindWarning, ""},
		{swaperr.New(swaperr.KindNotConnected, "no wallet"), notify.KindWarning, "connect wallet"},
		{swaperr.New(swaperr.KindUserCancelled, "rejected"), notify.KindWarning, ""},
		{swaperr.New(swaperr.KindSubmission, "nonce too low"), notify.KindError, "retry"},
		{swaperr.New(swaperr.KindOnChainFailure, "reverted"), notify.KindError, "retry"},
	}
	for _, tc := range cases {
		n := failureNotification("Swap failed", tc.err)
		if n.Kind != tc.kind {
			t.Fatalf("%s: kind %s want %s", tc.err.Kind, n.Kind, tc.kind)
		}
		if n.Action != tc.action {
			t.Fatalf("%s: action %q want %q", tc.err.Kind, n.Action, tc.action)
		}
	}
}
