package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Wire field markers. "@" carries the event name, "#" the payload, "$" an
// optional auth token on inbound messages. Error envelopes use "!" instead
// of "@" so clients can discriminate without inspecting content.
const (
	keyEvent   = "@"
	keyPayload = "#"
	keyToken   = "$"
	keyError   = "!"
)

// ErrMalformedEnvelope is returned when the inbound bytes are not a JSON
// object at all.
var ErrMalformedEnvelope = errors.New("malformed envelope")

// Reason is a machine-readable field error code.
type Reason string

const (
	ReasonMissing     Reason = "missing"
	ReasonWrongType   Reason = "wrong_type"
	ReasonInvalidEnum Reason = "invalid_enum_value"
)

// FieldError describes one offending field of an inbound message.
type FieldError struct {
	Path   string `json:"path"`
	Reason Reason `json:"reason"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Path, e.Reason)
}

// FieldErrors aggregates every offending field of one message.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	return fmt.Sprintf("%d invalid fields", len(e))
}

// Envelope is a decoded inbound message. Payload is nil when "#" held null.
type Envelope struct {
	Event   string
	Payload json.RawMessage
	Token   string
}

// HasPayload reports whether the message carried a non-null payload.
func (e *Envelope) HasPayload() bool {
	return len(e.Payload) > 0
}

// Decode parses inbound bytes into an Envelope. It returns
// ErrMalformedEnvelope for non-object input and FieldErrors for shape
// violations ("@" and "#" are required; "$" optional).
func Decode(data []byte) (*Envelope, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	var fieldErrs FieldErrors
	env := &Envelope{}

	eventRaw, ok := raw[keyEvent]
	if !ok {
		fieldErrs = append(fieldErrs, FieldError{Path: keyEvent, Reason: ReasonMissing})
	} else if err := json.Unmarshal(eventRaw, &env.Event); err != nil {
		fieldErrs = append(fieldErrs, FieldError{Path: keyEvent, Reason: ReasonWrongType})
	}

	payloadRaw, ok := raw[keyPayload]
	if !ok {
		fieldErrs = append(fieldErrs, FieldError{Path: keyPayload, Reason: ReasonMissing})
	} else if !isNull(payloadRaw) {
		if !isStructured(payloadRaw) {
			fieldErrs = append(fieldErrs, FieldError{Path: keyPayload, Reason: ReasonWrongType})
		} else {
			env.Payload = payloadRaw
		}
	}

	if tokenRaw, ok := raw[keyToken]; ok && !isNull(tokenRaw) {
		if err := json.Unmarshal(tokenRaw, &env.Token); err != nil {
			fieldErrs = append(fieldErrs, FieldError{Path: keyToken, Reason: ReasonWrongType})
		}
	}

	if len(fieldErrs) > 0 {
		return nil, fieldErrs
	}
	return env, nil
}

// Encode serializes an outbound success envelope. A nil payload omits the
// "#" key entirely.
func Encode(event string, payload any) ([]byte, error) {
	out := make(map[string]any, 2)
	out[keyEvent] = event
	if payload != nil {
		out[keyPayload] = payload
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode envelope %q: %w", event, err)
	}
	return data, nil
}

// EncodeError serializes an error envelope. A nil detail omits the "#" key.
func EncodeError(kind string, detail any) ([]byte, error) {
	out := make(map[string]any, 2)
	out[keyError] = kind
	if detail != nil {
		out[keyPayload] = detail
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode error envelope %q: %w", kind, err)
	}
	return data, nil
}

// isNull reports whether raw JSON is the null literal.
func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// isStructured reports whether raw JSON is an object, array or string —
// the only payload shapes the protocol admits.
func isStructured(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	switch trimmed[0] {
	case '{', '[', '"':
		return true
	default:
		return false
	}
}
