// Package requestcontext provides transport-independent context accessors for
// values scoped to the handling of one inbound message.
//
// Consumers set the values once per record; services read them:
//
//	ctx = requestcontext.WithMessage(ctx, topic, hash)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

type (
	topicKey       struct{}
	messageHashKey struct{}
	attemptKey     struct{}
	requestTimeKey struct{}
)

// Topic returns the topic the message was consumed from.
func Topic(ctx context.Context) string {
	if topic, ok := ctx.Value(topicKey{}).(string); ok {
		return topic
	}
	return ""
}

// MessageHash returns the content hash of the raw message.
func MessageHash(ctx context.Context) string {
	if hash, ok := ctx.Value(messageHashKey{}).(string); ok {
		return hash
	}
	return ""
}

// WithMessage injects the topic and content hash of the message being handled.
func WithMessage(ctx context.Context, topic, hash string) context.Context {
	ctx = context.WithValue(ctx, topicKey{}, topic)
	return context.WithValue(ctx, messageHashKey{}, hash)
}

// Attempt returns the 1-based handling attempt, or 0 outside the recovery layer.
func Attempt(ctx context.Context) int {
	if n, ok := ctx.Value(attemptKey{}).(int); ok {
		return n
	}
	return 0
}

// WithAttempt injects the handling attempt number.
func WithAttempt(ctx context.Context, n int) context.Context {
	return context.WithValue(ctx, attemptKey{}, n)
}

// Now retrieves the message-scoped processing time from context.
// Falls back to time.Now() if not set.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
// Used by:
//   - Consumers, so one message's audit rows share a processing timestamp
//   - Tests that need deterministic time
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
