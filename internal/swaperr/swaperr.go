package swaperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a swap failure.
type Kind string

const (
	KindParse          Kind = "parse"
	KindInvalidPool    Kind = "invalid_pool"
	KindNotConnected   Kind = "not_connected"
	KindUserCancelled  Kind = "user_cancelled"
	KindSubmission     Kind = "submission"
	KindOnChainFailure Kind = "on_chain_failure"
	KindAttemptActive  Kind = "attempt_in_flight"
)

// Sentinels for errors.Is matching by kind.
var (
	ParseError           = &Error{Kind: KindParse}
	InvalidPoolError     = &Error{Kind: KindInvalidPool}
	NotConnectedError    = &Error{Kind: KindNotConnected}
	UserCancelledError   = &Error{Kind: KindUserCancelled}
	SubmissionError      = &Error{Kind: KindSubmission}
	OnChainFailureError  = &Error{Kind: KindOnChainFailure}
	AttemptInFlightError = &Error{Kind: KindAttemptActive}
)

// Error is a classified failure with an optional underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Display returns the message truncated to max runes.
func (e *Error) Display(max int) string {
	return Truncate(e.Error(), max)
}

// Expected reports whether the failure is part of the normal user flow
// (cancellation, empty input, missing wallet) rather than a fault.
func (e *Error) Expected() bool {
	switch e.Kind {
	case KindParse, KindUserCancelled, KindNotConnected:
		return true
	default:
		return false
	}
}

// Retryable reports whether resubmitting the same attempt makes sense.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindSubmission, KindOnChainFailure, KindUserCancelled:
		return true
	default:
		return false
	}
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or "" when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Truncate shortens s to max runes, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return strings.TrimSpace(string(runes[:max-3])) + "..."
}
