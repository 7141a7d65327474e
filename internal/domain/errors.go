package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindInvalidTransition ErrorKind = "invalid_state_transition"
	KindConflict          ErrorKind = "conflict"
	KindInsufficientFunds ErrorKind = "insufficient_funds"
	KindAccountBlocked    ErrorKind = "account_blocked"
	KindPlanRequired      ErrorKind = "plan_required"
	KindBidLimitExceeded  ErrorKind = "bid_limit_exceeded"
	KindUpstream          ErrorKind = "upstream_service_error"
	KindNotification      ErrorKind = "notification_delivery_error"
	KindUnknown           ErrorKind = "unknown"
)

// Error is a kind-tagged failure with a single user-facing message.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NewNotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

func NewConflict(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

func NewInsufficientFunds(message string) error {
	return &Error{Kind: KindInsufficientFunds, Message: message}
}

func NewAccountBlocked(message string) error {
	return &Error{Kind: KindAccountBlocked, Message: message}
}

func NewPlanRequired(message string) error {
	return &Error{Kind: KindPlanRequired, Message: message}
}

func NewBidLimitExceeded(limit int) error {
	return &Error{
		Kind:    KindBidLimitExceeded,
		Message: fmt.Sprintf("You can place up to %d bids at one time", limit),
	}
}

// InvalidTransitionError rejects a lifecycle transition whose precondition
// on the current status failed.
type InvalidTransitionError struct {
	Transition string
	Current    BidStatus
	Payment    PaymentStatus // set when the precondition is on payment state
}

func (e *InvalidTransitionError) Error() string {
	if e.Payment != "" {
		return fmt.Sprintf("transition %q is not allowed: bid is %s with payment %s",
			e.Transition, e.Current, e.Payment)
	}
	return fmt.Sprintf("transition %q is not allowed: bid is %s", e.Transition, e.Current)
}

// UpstreamError wraps a remote collaborator failure with the collaborator's
// identity and the upstream code.
type UpstreamError struct {
	Service string
	Code    string
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s service error (%s): %s", e.Service, e.Code, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NotificationError reports a failed publish to the message bus.
//
// Reverted means the local state change was rolled back and the operation is
// safe to retry. Otherwise an irreversible side effect (described by
// Committed) has already happened and the failure needs manual follow-up.
type NotificationError struct {
	Reverted  bool
	Committed string
	Err       error
}

func (e *NotificationError) Error() string {
	if !e.Reverted && e.Committed != "" {
		return fmt.Sprintf("failed to send notification after %s: %v", e.Committed, e.Err)
	}
	return fmt.Sprintf("failed to send notification: %v", e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

// KindOf classifies any error returned by the workflows so callers can
// always determine, without string matching, what failed and whether funds
// moved.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	var te *InvalidTransitionError
	if errors.As(err, &te) {
		return KindInvalidTransition
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return KindUpstream
	}
	var ne *NotificationError
	if errors.As(err, &ne) {
		return KindNotification
	}
	return KindUnknown
}
