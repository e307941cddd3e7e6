// Package dispatch routes decoded envelopes to their event handlers and
// turns every failure into exactly one error envelope for the caller.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clatterlab/clatter/internal/broadcast"
	"github.com/clatterlab/clatter/internal/common/cnst"
	"github.com/clatterlab/clatter/internal/common/errorx"
	"github.com/clatterlab/clatter/internal/i18n"
	"github.com/clatterlab/clatter/internal/presence"
	"github.com/clatterlab/clatter/internal/protocol"
	"github.com/clatterlab/clatter/pkg/metrics"
	"go.uber.org/zap"
)

// AuthMode declares a handler's authentication precondition.
type AuthMode string

const (
	// AuthNone admits unauthenticated connections.
	AuthNone AuthMode = "none"
	// AuthToken requires a token exactly matching the session's bound secret.
	AuthToken AuthMode = "token"
)

// Request carries one decoded inbound message into a handler.
type Request struct {
	ConnID  string
	Session presence.Session // snapshot taken after the auth check
	Payload []byte           // raw payload, nil when "#" held null
	Token   string
}

// HandlerFunc processes one event. A returned error is serialized back to
// the originating connection only; handlers deliver their own successes and
// broadcasts through the engine.
type HandlerFunc func(ctx context.Context, req *Request) error

// Handler binds an event name to its function and preconditions.
type Handler struct {
	Event cnst.EventType
	Auth  AuthMode
	Fn    HandlerFunc
}

// Dispatcher owns the closed handler table. Registration happens once at
// startup; Dispatch is called concurrently by connection loops afterwards.
type Dispatcher struct {
	logger     *zap.Logger
	registry   *presence.Registry
	translator *i18n.Translator
	conns      broadcast.ConnResolver
	metrics    *metrics.Metrics
	handlers   map[string]Handler
}

// New creates an empty dispatcher.
func New(logger *zap.Logger, registry *presence.Registry, translator *i18n.Translator, conns broadcast.ConnResolver, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		logger:     logger.Named("dispatch"),
		registry:   registry,
		translator: translator,
		conns:      conns,
		metrics:    m,
		handlers:   make(map[string]Handler),
	}
}

// Register adds a handler. A duplicate event name is a wiring bug and panics.
func (d *Dispatcher) Register(h Handler) {
	if _, exists := d.handlers[h.Event.String()]; exists {
		panic(fmt.Sprintf("dispatch: handler for %q already registered", h.Event))
	}
	d.handlers[h.Event.String()] = h
}

// Dispatch handles one inbound frame from connID. It never returns an
// error: every failure is reported to the connection as an error envelope
// and the connection loop keeps running.
func (d *Dispatcher) Dispatch(ctx context.Context, connID string, raw []byte) {
	start := time.Now()
	event := "unknown"

	err := d.dispatch(ctx, connID, raw, &event)
	if err == nil {
		d.metrics.EventDone(event, "ok", start)
		return
	}
	d.metrics.EventDone(event, "error", start)
	d.replyError(connID, event, err)
}

func (d *Dispatcher) dispatch(ctx context.Context, connID string, raw []byte, event *string) (err error) {
	env, decodeErr := protocol.Decode(raw)
	if decodeErr != nil {
		return decodeErr
	}

	handler, ok := d.handlers[env.Event]
	if !ok {
		return errorx.NotFound("error.unknown_event")
	}
	// Only registered names become a metrics label; arbitrary client
	// strings would blow up the label cardinality.
	*event = env.Event

	if handler.Auth == AuthToken && !d.registry.ValidateToken(connID, env.Token) {
		return errorx.Unauthorized()
	}

	session, sessionErr := d.registry.Get(connID)
	if sessionErr != nil {
		// The connection vanished between read and dispatch.
		return errorx.Internal(sessionErr)
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("handler panicked",
				zap.String("event", env.Event),
				zap.String("conn_id", connID),
				zap.Any("panic", r))
			err = errorx.Internal(fmt.Errorf("panic: %v", r))
		}
	}()

	return handler.Fn(ctx, &Request{
		ConnID:  connID,
		Session: session,
		Payload: env.Payload,
		Token:   env.Token,
	})
}

// replyError serializes err into an error envelope for connID alone.
func (d *Dispatcher) replyError(connID, event string, err error) {
	kind, detail := d.render(err)

	if kind == errorx.KindInternal {
		d.logger.Error("request failed",
			zap.String("event", event),
			zap.String("conn_id", connID),
			zap.Error(err))
	} else {
		d.logger.Debug("request rejected",
			zap.String("event", event),
			zap.String("conn_id", connID),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}

	data, encodeErr := protocol.EncodeError(string(kind), detail)
	if encodeErr != nil {
		d.logger.Error("failed to encode error envelope", zap.Error(encodeErr))
		return
	}
	sender, ok := d.conns.Sender(connID)
	if !ok {
		return
	}
	if sendErr := sender.Send(data); sendErr != nil {
		d.logger.Debug("failed to deliver error envelope",
			zap.String("conn_id", connID),
			zap.Error(sendErr))
	}
}

// render maps an error onto its wire kind and localized detail.
func (d *Dispatcher) render(err error) (errorx.Kind, any) {
	var fieldErrs protocol.FieldErrors
	if errors.As(err, &fieldErrs) {
		return errorx.KindInvalidData, d.localizeFields(fieldErrs)
	}
	if errors.Is(err, protocol.ErrMalformedEnvelope) {
		return errorx.KindMalformed, d.translator.T("error.invalid_json", nil)
	}

	var domain *errorx.Error
	if errors.As(err, &domain) {
		detail := domain.Detail
		if fieldDetail, ok := detail.(protocol.FieldErrors); ok {
			detail = d.localizeFields(fieldDetail)
		}
		if detail == nil {
			detail = d.translator.T(domain.MessageID, nil)
		}
		return domain.Kind, detail
	}

	return errorx.KindInternal, d.translator.T("error.internal", nil)
}

// localizeFields builds one user-facing message per offending field.
func (d *Dispatcher) localizeFields(fieldErrs protocol.FieldErrors) []string {
	out := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		var id string
		switch fe.Reason {
		case protocol.ReasonMissing:
			id = "error.field_missing"
		case protocol.ReasonWrongType:
			id = "error.field_wrong_type"
		case protocol.ReasonInvalidEnum:
			id = "error.field_invalid_enum"
		default:
			id = "error.validation"
		}
		out = append(out, d.translator.T(id, map[string]any{"Field": fe.Path}))
	}
	return out
}
