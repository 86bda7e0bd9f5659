package swaperr

import (
	"context"
	"errors"
	"strings"
)

// ErrUserRejected is returned by signers when the user declines to sign.
var ErrUserRejected = errors.New("user rejected the request")

// rpcCoder matches JSON-RPC errors that expose a numeric code
// (go-ethereum rpc.Error, EIP-1193 provider errors).
type rpcCoder interface {
	ErrorCode() int
}

const eip1193UserRejected = 4001

var rejectionPatterns = []string{
	"user rejected",
	"user denied",
	"rejected the request",
	"action_rejected",
	"cancelled by user",
	"canceled by user",
}

// IsUserRejection reports whether err looks like a user declining a request.
func IsUserRejection(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUserRejected) || errors.Is(err, UserCancelledError) {
		return true
	}
	var coded rpcCoder
	if errors.As(err, &coded) && coded.ErrorCode() == eip1193UserRejected {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range rejectionPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// ClassifySubmission maps a collaborator rejection to UserCancelled or Submission.
// Only a wallet rejection counts as UserCancelled. Already classified errors are
// returned unchanged.
func ClassifySubmission(err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	if IsUserRejection(err) {
		return Wrap(KindUserCancelled, "transaction rejected by user", err)
	}
	if errors.Is(err, context.Canceled) {
		return Wrap(KindSubmission, "submission interrupted, the transaction may have been broadcast", err)
	}
	return Wrap(KindSubmission, "transaction submission failed", err)
}
