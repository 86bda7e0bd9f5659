package lifecycle

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapDesk/internal/dex"
	"swapDesk/internal/model"
	"swapDesk/internal/notify"
	"swapDesk/internal/swaperr"
)

// Status is the state of the current swap attempt.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusPending    Status = "pending"
	StatusConfirming Status = "confirming"
	StatusConfirmed  Status = "confirmed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transition happens without Retry or Reset.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// Snapshot is an immutable view of the tracker state.
type Snapshot struct {
	Status        Status
	AttemptNumber uint64
	Account       common.Address
	TxHash        common.Hash
	BlockNumber   uint64
	Err           *swaperr.Error
	Attempt       *Attempt
	Swap          *model.SwapEventData
}

type event string

const (
	eventSubmitting event = "submitting"
	eventSubmitted  event = "submitted"
	eventConfirmed  event = "confirmed"
	eventFailed     event = "failed"
)

// Tracker drives one swap transaction at a time through submission and
// confirmation. Collaborator errors are classified and kept in state.
type Tracker struct {
	executor Executor
	accounts AccountSource
	sink     notify.Sink
	logger   *zap.Logger

	mu       sync.Mutex
	status   Status
	number   uint64
	account  common.Address
	hash     common.Hash
	block    uint64
	err      *swaperr.Error
	attempt  *Attempt
	swap     *model.SwapEventData
	notified map[event]uint64
	subs     map[int]func(Snapshot)
	nextSub  int
}

func NewTracker(executor Executor, accounts AccountSource, sink notify.Sink, logger *zap.Logger) *Tracker {
	if sink == nil {
		sink = notify.Nop
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		executor: executor,
		accounts: accounts,
		sink:     sink,
		logger:   logger,
		status:   StatusIdle,
		notified: make(map[event]uint64),
		subs:     make(map[int]func(Snapshot)),
	}
}

// Subscribe registers fn for every state change and returns a function that
// removes it.
func (t *Tracker) Subscribe(fn func(Snapshot)) func() {
	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Execute submits attempt. A missing signer fails the attempt with
// NotConnectedError without touching the executor. The only returned error
// is AttemptInFlightError, when a previous attempt is still pending or
// confirming; every other failure is recorded in the snapshot.
func (t *Tracker) Execute(ctx context.Context, attempt Attempt) (Snapshot, error) {
	t.mu.Lock()
	if t.status == StatusPending || t.status == StatusConfirming {
		snap := t.snapshotLocked()
		t.mu.Unlock()
		return snap, swaperr.New(swaperr.KindAttemptActive, "a swap is already in flight")
	}

	t.number++
	number := t.number
	t.hash = common.Hash{}
	t.block = 0
	t.err = nil
	t.swap = nil

	var account common.Address
	connected := false
	if t.accounts != nil {
		account, connected = t.accounts.Account()
	}
	if !connected {
		t.account = common.Address{}
		t.status = StatusFailed
		t.err = swaperr.New(swaperr.KindNotConnected, "wallet not connected")
		return t.commitLocked(eventFailed, number), nil
	}

	stored := attempt.clone()
	t.attempt = &stored
	t.account = account
	t.status = StatusPending
	t.commitLocked(eventSubmitting, number)

	t.logger.Info("submitting swap",
		zap.Uint64("attempt", number),
		zap.String("pool", attempt.Key.ID().Hex()),
		zap.Bool("zero_for_one", attempt.Params.ZeroForOne),
	)

	var (
		hash common.Hash
		err  error
	)
	if t.executor == nil {
		err = swaperr.New(swaperr.KindSubmission, "no executor configured")
	} else {
		hash, err = t.executor.Submit(ctx, attempt.Call)
	}

	t.mu.Lock()
	if t.number != number {
		snap := t.snapshotLocked()
		t.mu.Unlock()
		return snap, nil
	}
	if err != nil {
		t.status = StatusFailed
		t.err = swaperr.ClassifySubmission(err)
		t.logger.Warn("swap submission failed", zap.Uint64("attempt", number), zap.String("kind", string(t.err.Kind)), zap.Error(err))
		return t.commitLocked(eventFailed, number), nil
	}
	t.hash = hash
	t.status = StatusConfirming
	return t.commitLocked(eventSubmitted, number), nil
}

// HandleReceipt applies a receipt observed for hash. It is ignored unless
// the tracker is confirming that hash, so repeated observations are no-ops.
func (t *Tracker) HandleReceipt(hash common.Hash, receipt Receipt) bool {
	t.mu.Lock()
	if t.status != StatusConfirming || t.hash != hash {
		t.mu.Unlock()
		return false
	}
	number := t.number
	t.block = receipt.BlockNumber
	if !receipt.Success {
		t.status = StatusFailed
		t.err = swaperr.New(swaperr.KindOnChainFailure, "transaction reverted on-chain")
		t.logger.Warn("swap reverted", zap.String("tx", hash.Hex()), zap.Uint64("block", receipt.BlockNumber))
		t.commitLocked(eventFailed, number)
		return true
	}

	t.status = StatusConfirmed
	if t.attempt != nil {
		swap, found, err := dex.FindSwapEvent(receipt.Logs, t.attempt.Key.ID())
		if err != nil {
			t.logger.Warn("decode swap event failed", zap.String("tx", hash.Hex()), zap.Error(err))
		} else if found {
			t.swap = &swap
		}
	}
	t.logger.Info("swap confirmed", zap.String("tx", hash.Hex()), zap.Uint64("block", receipt.BlockNumber))
	t.commitLocked(eventConfirmed, number)
	return true
}

// Wait blocks until the executor reports the receipt of the current
// transaction and applies it. Collaborator errors are returned and leave
// the attempt confirming.
func (t *Tracker) Wait(ctx context.Context) (Snapshot, error) {
	t.mu.Lock()
	if t.status != StatusConfirming || t.executor == nil {
		snap := t.snapshotLocked()
		t.mu.Unlock()
		return snap, nil
	}
	hash := t.hash
	t.mu.Unlock()

	receipt, err := t.executor.AwaitReceipt(ctx, hash)
	if err != nil {
		return t.Snapshot(), err
	}
	t.HandleReceipt(hash, receipt)
	return t.Snapshot(), nil
}

// Retry resubmits the stored attempt. Without one it does nothing.
func (t *Tracker) Retry(ctx context.Context) (Snapshot, error) {
	t.mu.Lock()
	if t.attempt == nil {
		snap := t.snapshotLocked()
		t.mu.Unlock()
		return snap, nil
	}
	attempt := t.attempt.clone()
	t.mu.Unlock()
	return t.Execute(ctx, attempt)
}

// Reset returns to idle and forgets the stored attempt. Results of an
// in-flight submission arriving afterwards are discarded.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.number++
	t.status = StatusIdle
	t.account = common.Address{}
	t.hash = common.Hash{}
	t.block = 0
	t.err = nil
	t.attempt = nil
	t.swap = nil
	t.commitLocked("", t.number)
}

func (t *Tracker) snapshotLocked() Snapshot {
	snap := Snapshot{
		Status:        t.status,
		AttemptNumber: t.number,
		Account:       t.account,
		TxHash:        t.hash,
		BlockNumber:   t.block,
		Err:           t.err,
	}
	if t.attempt != nil {
		attempt := t.attempt.clone()
		snap.Attempt = &attempt
	}
	if t.swap != nil {
		swap := *t.swap
		snap.Swap = &swap
	}
	return snap
}

// commitLocked releases mu, then emits the notification for ev (at most
// once per attempt) and publishes the snapshot to subscribers.
func (t *Tracker) commitLocked(ev event, number uint64) Snapshot {
	snap := t.snapshotLocked()
	emit := ev != "" && t.notified[ev] != number
	if emit {
		t.notified[ev] = number
	}
	subs := make([]func(Snapshot), 0, len(t.subs))
	for _, fn := range t.subs {
		subs = append(subs, fn)
	}
	t.mu.Unlock()

	if emit {
		t.sink.Notify(notificationFor(ev, snap))
	}
	for _, fn := range subs {
		fn(snap)
	}
	return snap
}

func notificationFor(ev event, snap Snapshot) notify.Notification {
	switch ev {
	case eventSubmitting:
		return notify.Notification{Kind: notify.KindInfo, Title: "Confirm swap", Description: "Waiting for the transaction to be signed"}
	case eventSubmitted:
		return notify.Notification{Kind: notify.KindInfo, Title: "Swap submitted", Description: "Waiting for confirmation of " + snap.TxHash.Hex()}
	case eventConfirmed:
		return notify.Notification{Kind: notify.KindSuccess, Title: "Swap confirmed", Description: snap.TxHash.Hex()}
	default:
		return failureNotification("Swap failed", snap.Err)
	}
}

const displayErrorLength = 120

func failureNotification(title string, err *swaperr.Error) notify.Notification {
	if err == nil {
		return notify.Notification{Kind: notify.KindError, Title: title}
	}
	switch err.Kind {
	case swaperr.KindNotConnected:
		return notify.Notification{Kind: notify.KindWarning, Title: "Wallet not connected", Action: "connect wallet"}
	case swaperr.KindUserCancelled:
		return notify.Notification{Kind: notify.KindWarning, Title: "Transaction cancelled", Description: "The request was rejected in the wallet"}
	}
	n := notify.Notification{Kind: notify.KindError, Title: title, Description: err.Display(displayErrorLength)}
	if err.Expected() {
		n.Kind = notify.KindWarning
	}
	if err.Retryable() {
		n.Action = "retry"
	}
	return n
}
