// Package apperr is the error taxonomy shared by the integration adapters,
// the datastore and the HTTP layer. Every error carries a Kind so callers can
// switch on it instead of string matching.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindTransport: network failure, timeout, non-2xx or malformed upstream response.
	KindTransport
	// KindAuthentication: credentials rejected by an upstream or by local validation.
	KindAuthentication
	// KindNotFound: business-level absence.
	KindNotFound
	// KindClientNotFound: no billing client id could be resolved for an email.
	KindClientNotFound
	// KindMisconfigured: integration has no credentials.
	KindMisconfigured
	// KindUnavailable: a write could not reach its backing store.
	KindUnavailable
	// KindValidation: caller input rejected.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuthentication:
		return "authentication"
	case KindNotFound:
		return "not_found"
	case KindClientNotFound:
		return "client_not_found"
	case KindMisconfigured:
		return "integration_not_configured"
	case KindUnavailable:
		return "temporarily_unavailable"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is; an *Error matches the sentinel of its Kind.
var (
	ErrTransport      = errors.New("transport error")
	ErrAuthentication = errors.New("authentication failure")
	ErrNotFound       = errors.New("not found")
	ErrClientNotFound = errors.New("client not found")
	ErrMisconfigured  = errors.New("integration not configured")
	ErrUnavailable    = errors.New("temporarily unavailable")
	ErrValidation     = errors.New("validation failed")
)

var sentinels = map[Kind]error{
	KindTransport:      ErrTransport,
	KindAuthentication: ErrAuthentication,
	KindNotFound:       ErrNotFound,
	KindClientNotFound: ErrClientNotFound,
	KindMisconfigured:  ErrMisconfigured,
	KindUnavailable:    ErrUnavailable,
	KindValidation:     ErrValidation,
}

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

func New(kind Kind, op, message string) error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Wrap(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Transport(op string, err error) error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

func Authentication(op, message string) error {
	return &Error{Kind: KindAuthentication, Op: op, Message: message}
}

func NotFound(op, message string) error {
	return &Error{Kind: KindNotFound, Op: op, Message: message}
}

func ClientNotFound(op, email string) error {
	return &Error{Kind: KindClientNotFound, Op: op, Message: fmt.Sprintf("no billing client for %q", email)}
}

func Misconfigured(op, integration string) error {
	return &Error{Kind: KindMisconfigured, Op: op, Message: integration + " integration not configured"}
}

func Unavailable(op string, err error) error {
	return &Error{Kind: KindUnavailable, Op: op, Err: err}
}

func Validation(op, message string) error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindNotFound, KindClientNotFound:
		return http.StatusNotFound
	case KindMisconfigured, KindTransport, KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the user-facing text for an error of the given kind.
func PublicMessage(err error) string {
	switch KindOf(err) {
	case KindClientNotFound:
		return "Please log into the client portal first"
	case KindTransport, KindUnavailable:
		return "Service temporarily unavailable, please try again later"
	case KindMisconfigured:
		return "Integration not configured"
	case KindAuthentication:
		return "Invalid credentials"
	case KindNotFound:
		return "Not found"
	case KindValidation:
		var e *Error
		if errors.As(err, &e) && e.Message != "" {
			return e.Message
		}
		return "Invalid request"
	default:
		return "Internal server error"
	}
}
