// Package broadcast fans one outbound message out to many live connections.
package broadcast

import (
	"github.com/clatterlab/clatter/internal/common/cnst"
	"github.com/clatterlab/clatter/internal/presence"
	"github.com/clatterlab/clatter/internal/protocol"
	"github.com/clatterlab/clatter/pkg/metrics"
	"go.uber.org/zap"
)

// Sender delivers one pre-serialized frame to a connection.
type Sender interface {
	Send(data []byte) error
}

// ConnResolver maps connection ids to their transport senders.
type ConnResolver interface {
	Sender(connID string) (Sender, bool)
}

// Engine serializes a message once and delivers it to each target
// independently. A failed delivery never aborts the batch: the failing
// target is handed to the disconnect callback and the rest still receive
// the message.
type Engine struct {
	logger    *zap.Logger
	registry  *presence.Registry
	conns     ConnResolver
	metrics   *metrics.Metrics
	onFailure func(connID string)
}

// New creates an engine. onFailure is invoked asynchronously for every
// connection a delivery failed on; it must be safe to call concurrently and
// more than once per connection.
func New(logger *zap.Logger, registry *presence.Registry, conns ConnResolver, m *metrics.Metrics, onFailure func(connID string)) *Engine {
	return &Engine{
		logger:    logger.Named("broadcast"),
		registry:  registry,
		conns:     conns,
		metrics:   m,
		onFailure: onFailure,
	}
}

// SendTo delivers an event to an explicit set of connections.
func (e *Engine) SendTo(connIDs []string, event cnst.EventType, payload any) {
	if len(connIDs) == 0 {
		return
	}
	data, err := protocol.Encode(event.String(), payload)
	if err != nil {
		e.logger.Error("failed to encode broadcast",
			zap.String("event", event.String()),
			zap.Error(err))
		return
	}

	delivered := 0
	for _, connID := range connIDs {
		sender, ok := e.conns.Sender(connID)
		if !ok {
			// Already gone; membership snapshots may lag disconnects.
			continue
		}
		if err := sender.Send(data); err != nil {
			e.logger.Warn("broadcast delivery failed",
				zap.String("conn_id", connID),
				zap.String("event", event.String()),
				zap.Error(err))
			e.metrics.DeliveryFailed()
			if e.onFailure != nil {
				go e.onFailure(connID)
			}
			continue
		}
		delivered++
	}
	e.metrics.Delivered(delivered)
}

// SendToRoom delivers an event to every member of a room, minus the
// excluded connections.
func (e *Engine) SendToRoom(roomID int64, event cnst.EventType, payload any, exclude ...string) {
	members := e.registry.Members(roomID)
	if len(exclude) > 0 {
		skip := make(map[string]struct{}, len(exclude))
		for _, id := range exclude {
			skip[id] = struct{}{}
		}
		kept := members[:0]
		for _, id := range members {
			if _, ok := skip[id]; !ok {
				kept = append(kept, id)
			}
		}
		members = kept
	}
	e.SendTo(members, event, payload)
}
