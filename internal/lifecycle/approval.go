package lifecycle

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"go.uber.org/zap"

	"swapDesk/internal/dex"
	"swapDesk/internal/notify"
	"swapDesk/internal/swaperr"
)

// ApprovalStatus is the state of an ERC20 approval for one spender.
type ApprovalStatus string

const (
	ApprovalIdle      ApprovalStatus = "idle"
	ApprovalChecking  ApprovalStatus = "checking"
	ApprovalNeeded    ApprovalStatus = "needs-approval"
	ApprovalApproved  ApprovalStatus = "approved"
	ApprovalApproving ApprovalStatus = "approving"
	ApprovalError     ApprovalStatus = "error"
)

// MaxAllowance is the amount submitted for unlimited approvals.
var MaxAllowance = math.MaxBig256

// ApprovalState is a view of the approval flow. A nil Allowance means it
// has not been read yet.
type ApprovalState struct {
	Status    ApprovalStatus
	Token     common.Address
	Owner     common.Address
	Spender   common.Address
	Allowance *big.Int
	Required  *big.Int
	TxHash    common.Hash
	Err       *swaperr.Error
}

// Sufficient reports whether the known allowance covers the required amount.
func (s ApprovalState) Sufficient() bool {
	return s.Allowance != nil && s.Required != nil && s.Allowance.Cmp(s.Required) >= 0
}

// Approval tracks the allowance of one token for one spender and submits
// approvals. The native asset is always approved.
type Approval struct {
	allowances Allowances
	accounts   AccountSource
	sink       notify.Sink
	logger     *zap.Logger

	mu    sync.Mutex
	state ApprovalState
	seq   uint64
	subs  []func(ApprovalState)
}

func NewApproval(allowances Allowances, accounts AccountSource, token, spender common.Address, required *big.Int, sink notify.Sink, logger *zap.Logger) *Approval {
	if sink == nil {
		sink = notify.Nop
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Approval{
		allowances: allowances,
		accounts:   accounts,
		sink:       sink,
		logger:     logger,
		state: ApprovalState{
			Status:   ApprovalIdle,
			Token:    token,
			Spender:  spender,
			Required: cloneInt(required),
		},
	}
	if dex.IsNative(token) {
		a.state.Status = ApprovalApproved
	}
	return a
}

// Subscribe registers fn for every state change.
func (a *Approval) Subscribe(fn func(ApprovalState)) {
	a.mu.Lock()
	a.subs = append(a.subs, fn)
	a.mu.Unlock()
}

// State returns the current approval state.
func (a *Approval) State() ApprovalState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stateLocked()
}

// SetRequired changes the amount the allowance must cover and re-derives
// the status from the last known allowance.
func (a *Approval) SetRequired(required *big.Int) ApprovalState {
	a.mu.Lock()
	a.state.Required = cloneInt(required)
	switch a.state.Status {
	case ApprovalNeeded, ApprovalApproved:
		a.state.Status = a.deriveLocked()
	}
	return a.commitLocked(nil)
}

// Check reads the current allowance and moves to needs-approval or approved.
// While an approval is in flight it returns the current state unchanged.
func (a *Approval) Check(ctx context.Context) ApprovalState {
	a.mu.Lock()
	if dex.IsNative(a.state.Token) {
		a.state.Status = ApprovalApproved
		return a.commitLocked(nil)
	}
	if a.state.Status == ApprovalApproving {
		state := a.stateLocked()
		a.mu.Unlock()
		return state
	}
	owner, ok := a.ownerLocked()
	if !ok {
		a.state.Status = ApprovalError
		a.state.Err = swaperr.New(swaperr.KindNotConnected, "wallet not connected")
		return a.commitLocked(nil)
	}
	a.seq++
	seq := a.seq
	a.state.Owner = owner
	a.state.Status = ApprovalChecking
	a.state.Err = nil
	state := a.commitLocked(nil)

	allowance, err := a.allowances.ReadAllowance(ctx, state.Token, owner, state.Spender)

	a.mu.Lock()
	if a.seq != seq {
		state := a.stateLocked()
		a.mu.Unlock()
		return state
	}
	if err != nil {
		a.state.Status = ApprovalError
		a.state.Err = swaperr.Wrap(swaperr.KindSubmission, "read allowance failed", err)
		a.logger.Warn("read allowance failed", zap.String("token", state.Token.Hex()), zap.Error(err))
		return a.commitLocked(nil)
	}
	a.state.Allowance = allowance
	a.state.Status = a.deriveLocked()
	return a.commitLocked(nil)
}

// Approve submits an approval for the required amount, or MaxAllowance when
// unlimited is set, waits for it to be mined and re-reads the allowance.
// The only returned error is AttemptInFlightError.
func (a *Approval) Approve(ctx context.Context, unlimited bool) (ApprovalState, error) {
	a.mu.Lock()
	if dex.IsNative(a.state.Token) {
		a.state.Status = ApprovalApproved
		return a.commitLocked(nil), nil
	}
	if a.state.Status == ApprovalApproving || a.state.Status == ApprovalChecking {
		state := a.stateLocked()
		a.mu.Unlock()
		return state, swaperr.New(swaperr.KindAttemptActive, "an approval is already in flight")
	}
	owner, ok := a.ownerLocked()
	if !ok {
		a.state.Status = ApprovalError
		a.state.Err = swaperr.New(swaperr.KindNotConnected, "wallet not connected")
		return a.commitLocked(nil), nil
	}

	amount := cloneInt(a.state.Required)
	if unlimited || amount == nil {
		amount = new(big.Int).Set(MaxAllowance)
	}
	if a.state.Required == nil {
		a.state.Required = cloneInt(amount)
	}
	a.seq++
	seq := a.seq
	a.state.Owner = owner
	a.state.Status = ApprovalApproving
	a.state.TxHash = common.Hash{}
	a.state.Err = nil
	state := a.commitLocked(&notify.Notification{Kind: notify.KindInfo, Title: "Approve token", Description: "Waiting for the approval to be signed"})

	hash, err := a.allowances.SubmitApproval(ctx, state.Token, state.Spender, amount)
	if err != nil {
		return a.fail(seq, swaperr.ClassifySubmission(err)), nil
	}

	a.mu.Lock()
	if a.seq != seq {
		state := a.stateLocked()
		a.mu.Unlock()
		return state, nil
	}
	a.state.TxHash = hash
	a.commitLocked(&notify.Notification{Kind: notify.KindInfo, Title: "Approval submitted", Description: hash.Hex()})

	receipt, err := a.allowances.AwaitReceipt(ctx, hash)
	if err != nil {
		return a.fail(seq, swaperr.Wrap(swaperr.KindSubmission, "approval receipt unavailable", err)), nil
	}
	if !receipt.Success {
		return a.fail(seq, swaperr.New(swaperr.KindOnChainFailure, "approval reverted on-chain")), nil
	}

	allowance, err := a.allowances.ReadAllowance(ctx, state.Token, owner, state.Spender)
	if err != nil {
		return a.fail(seq, swaperr.Wrap(swaperr.KindSubmission, "read allowance failed", err)), nil
	}

	a.mu.Lock()
	if a.seq != seq {
		state := a.stateLocked()
		a.mu.Unlock()
		return state, nil
	}
	a.state.Allowance = allowance
	a.state.Status = a.deriveLocked()
	if a.state.Status != ApprovalApproved {
		a.logger.Warn("allowance below requirement after approval",
			zap.String("token", state.Token.Hex()),
			zap.Stringer("allowance", allowance),
			zap.Stringer("required", a.state.Required),
		)
		return a.commitLocked(&notify.Notification{Kind: notify.KindWarning, Title: "Allowance still insufficient", Description: hash.Hex(), Action: "check allowance"}), nil
	}
	a.logger.Info("approval confirmed",
		zap.String("token", state.Token.Hex()),
		zap.String("spender", state.Spender.Hex()),
		zap.String("allowance", allowance.String()),
	)
	return a.commitLocked(&notify.Notification{Kind: notify.KindSuccess, Title: "Token approved", Description: hash.Hex()}), nil
}

func (a *Approval) fail(seq uint64, err *swaperr.Error) ApprovalState {
	a.mu.Lock()
	if a.seq != seq {
		state := a.stateLocked()
		a.mu.Unlock()
		return state
	}
	a.state.Status = ApprovalError
	a.state.Err = err
	a.logger.Warn("approval failed", zap.String("kind", string(err.Kind)), zap.Error(err))
	n := failureNotification("Approval failed", err)
	return a.commitLocked(&n)
}

func (a *Approval) ownerLocked() (common.Address, bool) {
	if a.accounts == nil {
		return common.Address{}, false
	}
	return a.accounts.Account()
}

func (a *Approval) deriveLocked() ApprovalStatus {
	if a.state.Allowance == nil || a.state.Required == nil || a.state.Allowance.Cmp(a.state.Required) < 0 {
		return ApprovalNeeded
	}
	return ApprovalApproved
}

func (a *Approval) stateLocked() ApprovalState {
	state := a.state
	state.Allowance = cloneInt(a.state.Allowance)
	state.Required = cloneInt(a.state.Required)
	return state
}

func (a *Approval) commitLocked(n *notify.Notification) ApprovalState {
	state := a.stateLocked()
	subs := append([]func(ApprovalState){}, a.subs...)
	a.mu.Unlock()

	if n != nil {
		a.sink.Notify(*n)
	}
	for _, fn := range subs {
		fn(state)
	}
	return state
}
