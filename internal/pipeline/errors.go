package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure. Callers map kinds to responses.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindExtraction
	KindRateLimited
	KindUpstream
	KindRender
	KindDelivery
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindExtraction:
		return "extraction"
	case KindRateLimited:
		return "rate_limited"
	case KindUpstream:
		return "upstream"
	case KindRender:
		return "render"
	case KindDelivery:
		return "delivery"
	default:
		return "unknown"
	}
}

// Validation causes.
var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
	ErrNoText          = errors.New("no text found")
	ErrMissingFields   = errors.New("email and summary required")
	ErrInvalidAddress  = errors.New("invalid email address")
)

// Error is returned by every Orchestrator operation. Msg is safe to show to
// the caller; Err carries the cause for logs and errors.Is.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

func validation(cause error, msg string) *Error {
	if msg == "" {
		msg = cause.Error()
	}
	return &Error{Kind: KindValidation, Msg: msg, Err: cause}
}

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	return KindOf(err).String()
}
