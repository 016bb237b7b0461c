package summarize

import "errors"

var (
	// ErrRateLimited marks a call the upstream refused for quota reasons, or
	// one the circuit breaker refused while open.
	ErrRateLimited = errors.New("summarizer rate limited")
	// ErrUpstream marks every other failed call: transport, timeout, non-2xx
	// status or an unusable response body.
	ErrUpstream = errors.New("summarizer upstream failure")
)

// Error is a classified summarization failure. errors.Is matches it against
// its Kind, and errors.Unwrap returns the underlying cause.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == e.Kind }

func rateLimited(msg string, err error) *Error {
	return &Error{Kind: ErrRateLimited, Msg: msg, Err: err}
}

func upstream(msg string, err error) *Error {
	return &Error{Kind: ErrUpstream, Msg: msg, Err: err}
}

// outcome labels used by stats and metrics.
const (
	outcomeSuccess     = "success"
	outcomeRateLimited = "rate_limited"
	outcomeUpstream    = "upstream_error"
)

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.Is(err, ErrRateLimited):
		return outcomeRateLimited
	default:
		return outcomeUpstream
	}
}
