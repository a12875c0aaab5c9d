// Package handler routes inbound messages to the case service. There is one
// Router per topic and each accepts a fixed set of event types.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"caseprocessor/internal/cases/models"
	"caseprocessor/internal/platform/kafka/consumer"
)

// EventHandler handles one decoded event.
type EventHandler interface {
	HandleEvent(ctx context.Context, env *models.Envelope, payload models.Payload) error
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ctx context.Context, env *models.Envelope, payload models.Payload) error

func (f EventHandlerFunc) HandleEvent(ctx context.Context, env *models.Envelope, payload models.Payload) error {
	return f(ctx, env, payload)
}

// On adapts a handler for one concrete payload type. A payload of another type
// means the event type was bound to the wrong handler.
func On[P models.Payload](fn func(ctx context.Context, env *models.Envelope, payload P) error) EventHandler {
	return EventHandlerFunc(func(ctx context.Context, env *models.Envelope, payload models.Payload) error {
		p, ok := payload.(P)
		if !ok {
			return fmt.Errorf("%w: %s decoded to %T", models.ErrMalformedPayload, env.Event.Type, payload)
		}
		return fn(ctx, env, p)
	})
}

// Router dispatches the messages of one topic by event type.
type Router struct {
	topic    string
	handlers map[models.EventType]EventHandler
	logger   *slog.Logger
}

// NewRouter creates an empty router for topic.
func NewRouter(topic string, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		topic:    topic,
		handlers: make(map[models.EventType]EventHandler),
		logger:   logger.With("topic", topic),
	}
}

// Register adds eventType to the allow-list and binds its handler.
func (r *Router) Register(eventType models.EventType, h EventHandler) {
	r.handlers[eventType] = h
}

// Topic returns the topic this router serves.
func (r *Router) Topic() string {
	return r.topic
}

// EventTypes returns the allow-list in sorted order.
func (r *Router) EventTypes() []models.EventType {
	types := make([]models.EventType, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Handle decodes the envelope of msg and routes it.
func (r *Router) Handle(ctx context.Context, msg *consumer.Message) error {
	env, err := models.DecodeEnvelope(msg.Value)
	if err != nil {
		return err
	}
	return r.Route(ctx, env)
}

// Route dispatches env to exactly one handler. The allow-list is checked before
// the payload is decoded.
func (r *Router) Route(ctx context.Context, env *models.Envelope) error {
	h, ok := r.handlers[env.Event.Type]
	if !ok {
		return &models.InvalidEventTypeError{Type: env.Event.Type}
	}
	payload, err := env.DecodePayload()
	if err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "routing event",
		"event_type", env.Event.Type,
		"transaction_id", env.Event.TransactionID,
	)
	return h.HandleEvent(ctx, env, payload)
}
