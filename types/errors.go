package types

import (
	"errors"
	"fmt"

	"github.com/filecoin-project/go-state-types/abi"
)

// ErrorKind is the normalized failure taxonomy surfaced to the UI layer.
type ErrorKind string

const (
	KindConnectionRejected ErrorKind = "ConnectionRejected"
	KindConnectionFailed   ErrorKind = "ConnectionFailed"
	KindSigningUnsupported ErrorKind = "SigningUnsupported"
	KindSigningRejected    ErrorKind = "SigningRejected"
	KindAlreadyClaimed     ErrorKind = "AlreadyClaimed"
	KindInsufficientFunds  ErrorKind = "InsufficientFunds"
	KindSubmissionFailed   ErrorKind = "SubmissionFailed"
)

var (
	// ErrConnectionRejected means the user declined the authorization prompt.
	ErrConnectionRejected = errors.New("connection rejected by user")
	ErrConnectionFailed   = errors.New("connection failed")
	// ErrConnectBusy guards connect re-entrancy: a second connect while one
	// is pending is refused immediately rather than queued.
	ErrConnectBusy = errors.New("connect already in progress")

	ErrSigningUnsupported = errors.New("signing not supported without an active session")
	// ErrSigningRejected means the user declined the signature prompt.
	ErrSigningRejected = errors.New("signing rejected by user")

	ErrAlreadyClaimed = errors.New("participation already claimed for this event")
	// ErrClaimInFlight marks a claim attempt racing an unfinished one for the
	// same (owner, event) key.
	ErrClaimInFlight    = errors.New("claim already in progress for this event")
	ErrSubmissionFailed = errors.New("proof submission failed")
)

// InsufficientFundsError carries the measured balance alongside the threshold
// it missed.
type InsufficientFundsError struct {
	Balance  abi.TokenAmount
	Required abi.TokenAmount
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient balance %s, need at least %s to cover fees", e.Balance, e.Required)
}

// KindOf maps an error to its taxonomy kind. The second return is false when
// the error matches no known kind; callers decide the fallback.
func KindOf(err error) (ErrorKind, bool) {
	var ife *InsufficientFundsError
	switch {
	case err == nil:
		return "", false
	case errors.Is(err, ErrConnectionRejected):
		return KindConnectionRejected, true
	case errors.Is(err, ErrConnectionFailed), errors.Is(err, ErrConnectBusy):
		return KindConnectionFailed, true
	case errors.Is(err, ErrSigningUnsupported):
		return KindSigningUnsupported, true
	case errors.Is(err, ErrSigningRejected):
		return KindSigningRejected, true
	case errors.Is(err, ErrAlreadyClaimed), errors.Is(err, ErrClaimInFlight):
		return KindAlreadyClaimed, true
	case errors.As(err, &ife):
		return KindInsufficientFunds, true
	case errors.Is(err, ErrSubmissionFailed):
		return KindSubmissionFailed, true
	}
	return "", false
}

// ClaimKind normalizes any claim failure into the taxonomy, treating unknown
// technical errors as submission failures.
func ClaimKind(err error) ErrorKind {
	if kind, ok := KindOf(err); ok {
		return kind
	}
	return KindSubmissionFailed
}

// ConnectKind normalizes any connect failure, treating unknown technical
// errors as generic connection failures.
func ConnectKind(err error) ErrorKind {
	if kind, ok := KindOf(err); ok {
		return kind
	}
	return KindConnectionFailed
}
