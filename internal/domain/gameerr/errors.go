package gameerr

import (
	"errors"
	"fmt"
)

// Kind groups error codes into the categories callers branch on.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthorization
	KindStateConflict
	KindResourceExhausted
	KindNotReady
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindStateConflict:
		return "state_conflict"
	case KindResourceExhausted:
		return "resource_exhausted"
	case KindNotReady:
		return "not_ready"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

type Code string

// Error is a typed engine error. Two errors match with errors.Is when their codes match,
// so a sentinel can be decorated with details and still be compared.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Withf returns a copy of e with a more specific message.
func (e *Error) Withf(format string, args ...any) *Error {
	return &Error{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: fmt.Sprintf(format, args...),
		cause:   e.cause,
	}
}

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	return &Error{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: e.Message,
		cause:   cause,
	}
}

func New(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrInvalidInput      = New(KindValidation, "InvalidInput", "invalid input")
	ErrIncompatibleRank  = New(KindValidation, "IncompatibleRank", "card ranks are not compatible for trading")
	ErrInsufficientRank  = New(KindValidation, "InsufficientRank", "familiar rank is too low for this location")
	ErrCardNotOwned      = New(KindValidation, "CardNotOwned", "card is not owned")
	ErrUnauthorized      = New(KindAuthorization, "Unauthorized", "not allowed to perform this action")
	ErrRequestNotPending = New(KindStateConflict, "RequestNotPending", "trade request is no longer pending")
	ErrCardNoLongerOwned = New(KindStateConflict, "CardNoLongerOwned", "card is no longer owned")
	ErrFamiliarBusy      = New(KindStateConflict, "FamiliarBusy", "familiar is already on an expedition")
	ErrHuntCapReached    = New(KindStateConflict, "HuntCapReached", "too many expeditions at this location")
	ErrHuntFinished      = New(KindStateConflict, "HuntFinished", "expedition already finished, claim it instead")
	ErrStaleState        = New(KindStateConflict, "StaleState", "state changed concurrently, try again")
	ErrInsufficientFunds = New(KindResourceExhausted, "InsufficientFunds", "insufficient points")
	ErrAllCardsCollected = New(KindResourceExhausted, "AllCardsCollected", "every card has already been collected")
	ErrNotReady          = New(KindNotReady, "NotReady", "expedition has not finished yet")
	ErrCharacterNotFound = New(KindNotFound, "CharacterNotFound", "character not found")
	ErrCardNotFound      = New(KindNotFound, "CardNotFound", "card not found")
	ErrTradeNotFound     = New(KindNotFound, "TradeNotFound", "trade request not found")
	ErrHuntNotFound      = New(KindNotFound, "HuntNotFound", "expedition not found")
	ErrLocationNotFound  = New(KindNotFound, "LocationNotFound", "hunting location not found")
)

// KindOf reports the kind of err, or KindInternal when err is not an engine error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf reports the code of err and whether err is an engine error at all.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}
