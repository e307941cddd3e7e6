package errorx

import "fmt"

// Kind is the wire-level error discriminator carried in the "!" field of an
// error envelope. All kinds are request-scoped: they are reported to the
// originating connection and never terminate the connection loop.
type Kind string

const (
	KindMalformed          Kind = "malformed"
	KindInvalidData        Kind = "invalid_data"
	KindUnauthorized       Kind = "unauthorized"
	KindForbidden          Kind = "forbidden"
	KindNotFound           Kind = "not_found"
	KindDuplicate          Kind = "duplicate"
	KindPreconditionFailed Kind = "precondition_failed"
	KindInternal           Kind = "internal_error"
)

// Error is a domain error bound for the wire. MessageID is translated at the
// protocol boundary; Detail, when set, is sent verbatim in the "#" field
// instead of the translated message.
type Error struct {
	Kind      Kind
	MessageID string
	Detail    any
	cause     error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.MessageID, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.MessageID)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetail attaches a structured payload to the error envelope.
func (e *Error) WithDetail(detail any) *Error {
	e.Detail = detail
	return e
}

// New creates a domain error with the given kind and i18n message id.
func New(kind Kind, messageID string) *Error {
	return &Error{Kind: kind, MessageID: messageID}
}

// Wrap creates a domain error that preserves the underlying cause for logs.
func Wrap(err error, kind Kind, messageID string) *Error {
	return &Error{Kind: kind, MessageID: messageID, cause: err}
}

func Malformed(messageID string) *Error          { return New(KindMalformed, messageID) }
func InvalidData(messageID string) *Error        { return New(KindInvalidData, messageID) }
func Unauthorized() *Error                       { return New(KindUnauthorized, "error.unauthorized") }
func Forbidden(messageID string) *Error          { return New(KindForbidden, messageID) }
func NotFound(messageID string) *Error           { return New(KindNotFound, messageID) }
func Duplicate(messageID string) *Error          { return New(KindDuplicate, messageID) }
func PreconditionFailed(messageID string) *Error { return New(KindPreconditionFailed, messageID) }

// Internal reports an unexpected failure without leaking its cause to the wire.
func Internal(err error) *Error {
	return Wrap(err, KindInternal, "error.internal")
}
