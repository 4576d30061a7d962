// Package fault defines the application's error taxonomy.
//
// Every failure a user can hit falls into one kind:
//
//	Config       - missing credential or bad setting; fatal at startup
//	Connectivity - store or network unreachable; fatal for the operation only
//	Structural   - malformed input (bad JSON, missing collections)
//	Integrity    - a referential-integrity condition (normally resolved
//	               silently, surfaced only when something went wrong)
//	Transport    - an HTTP status mapped to a human-readable cause
//	InvalidState - a lifecycle precondition failed (e.g. staging a batch
//	               that is not NEW)
//	NotFound     - the referenced record does not exist
//
// Callers branch on kinds with fault.KindOf or errors.Is against the
// sentinel helpers; they never parse message strings.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an error per the taxonomy above.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfig
	KindConnectivity
	KindStructural
	KindIntegrity
	KindTransport
	KindInvalidState
	KindNotFound
)

// String returns the lowercase taxonomy name, used in log fields.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindConnectivity:
		return "connectivity"
	case KindStructural:
		return "structural"
	case KindIntegrity:
		return "integrity"
	case KindTransport:
		return "transport"
	case KindInvalidState:
		return "invalid_state"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// ErrCancelled marks an operation the operator declined at a confirmation
// prompt. It is not a failure: callers log it and move on.
var ErrCancelled = errors.New("operation cancelled")

// Error is a kind-tagged error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Msg != "" {
			return e.Msg + ": " + e.Err.Error()
		}
		return e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a kind-tagged error with a formatted message.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap tags an existing error with a kind and context message.
// A nil err returns nil.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or KindUnknown for untagged errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }
