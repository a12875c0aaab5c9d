// Package recovery wraps message handlers with bounded retry and hands messages
// that keep failing to the exception manager, which decides whether they are
// quarantined, peeked or simply rejected. Every message ends either acknowledged
// or rejected to its dead letter topic; none is redelivered forever.
package recovery

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"caseprocessor/internal/platform/exceptionmanager"
	"caseprocessor/internal/platform/kafka/consumer"
	"caseprocessor/internal/platform/metrics"
	"caseprocessor/pkg/platform/errs"
	"caseprocessor/pkg/requestcontext"
)

const (
	defaultMaxAttempts = 3
	defaultBackoff     = 2 * time.Second
	tracerName         = "caseprocessor/recovery"
)

// ExceptionManager is the external service consulted once a message is exhausted.
type ExceptionManager interface {
	ReportException(ctx context.Context, report exceptionmanager.ExceptionReport) (*exceptionmanager.Advice, error)
	StoreMessageBeforeSkipping(ctx context.Context, msg exceptionmanager.SkippedMessage) error
	RespondToPeek(ctx context.Context, messageHash string, payload []byte) error
}

// Rejecter removes a message from its topic without requeueing it.
type Rejecter interface {
	Reject(ctx context.Context, msg *consumer.Message, messageHash string, cause error) error
}

// Recoverer is a consumer.Handler that applies the recovery protocol around next.
type Recoverer struct {
	next     consumer.Handler
	manager  ExceptionManager
	rejecter Rejecter
	service  string
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer

	maxAttempts    int
	backoff        time.Duration
	logMessageBody bool
	permanent      func(error) bool
	now            func() time.Time
	sleep          func(ctx context.Context, d time.Duration) error
}

// Option configures a Recoverer.
type Option func(*Recoverer)

// WithMaxAttempts sets the total number of handler invocations per message.
func WithMaxAttempts(n int) Option {
	return func(r *Recoverer) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithBackoff sets the fixed delay between attempts.
func WithBackoff(d time.Duration) Option {
	return func(r *Recoverer) {
		if d >= 0 {
			r.backoff = d
		}
	}
}

// WithLogMessageBody includes the raw body in failure logs. The hash is always logged.
func WithLogMessageBody(enabled bool) Option {
	return func(r *Recoverer) { r.logMessageBody = enabled }
}

// WithPermanent marks errors no retry can fix. They skip the remaining attempts.
func WithPermanent(fn func(error) bool) Option {
	return func(r *Recoverer) {
		if fn != nil {
			r.permanent = fn
		}
	}
}

// WithMetrics enables recovery metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recoverer) { r.metrics = m }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(r *Recoverer) { r.tracer = t }
}

// WithClock overrides the clock stamping processing times and skipped messages.
func WithClock(now func() time.Time) Option {
	return func(r *Recoverer) { r.now = now }
}

// New wraps next. The manager may be nil, in which case every exhausted message
// is rejected without a report.
func New(next consumer.Handler, manager ExceptionManager, rejecter Rejecter, service string, logger *slog.Logger, opts ...Option) (*Recoverer, error) {
	if next == nil {
		return nil, errors.New("handler is required")
	}
	if rejecter == nil {
		return nil, errors.New("rejecter is required")
	}
	if service == "" {
		return nil, errors.New("service name is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recoverer{
		next:        next,
		manager:     manager,
		rejecter:    rejecter,
		service:     service,
		logger:      logger,
		tracer:      otel.Tracer(tracerName),
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		permanent:   func(error) bool { return false },
		now:         time.Now,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// MessageHash is the lowercase hex SHA-256 of the raw message value.
func MessageHash(value []byte) string {
	sum := sha256.Sum256(value)
	return hex.EncodeToString(sum[:])
}

// Handle runs the protocol for one message. A nil return means the message is
// either acknowledged or rejected and its offset may be committed. Errors are
// returned only when ctx ends mid-flight or the rejection itself fails, so the
// broker redelivers the message.
func (r *Recoverer) Handle(ctx context.Context, msg *consumer.Message) error {
	m := NewMachine()
	hash := MessageHash(msg.Value)
	log := r.logger.With("topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "message_hash", hash)

	cause, err := r.attempts(ctx, m, msg, hash, log)
	if err != nil {
		return err
	}
	if cause == nil {
		r.metrics.IncrementDisposition(msg.Topic, m.State().String())
		return nil
	}

	if err := r.dispose(ctx, m, msg, hash, cause, log); err != nil {
		return err
	}
	r.metrics.IncrementDisposition(msg.Topic, m.State().String())
	return nil
}

// attempts invokes the handler until it succeeds or no attempt remains. It
// returns the last handler error once the machine is exhausted.
func (r *Recoverer) attempts(ctx context.Context, m *Machine, msg *consumer.Message, hash string, log *slog.Logger) (cause, err error) {
	for attempt := 1; ; attempt++ {
		err := r.attempt(ctx, msg, hash, attempt)
		r.metrics.IncrementAttempt(msg.Topic, err)
		if err == nil {
			return nil, m.Fire(EventSucceeded)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt >= r.maxAttempts || r.permanent(err) {
			log.ErrorContext(ctx, "message processing exhausted",
				"attempt", attempt,
				"error", errs.Loggable(err),
			)
			return err, m.Fire(EventGaveUp)
		}

		log.WarnContext(ctx, "message processing failed, retrying",
			"attempt", attempt,
			"max_attempts", r.maxAttempts,
			"backoff", r.backoff,
			"error", err.Error(),
		)
		if fireErr := m.Fire(EventFailed); fireErr != nil {
			return nil, fireErr
		}
		if err := r.sleep(ctx, r.backoff); err != nil {
			return nil, err
		}
	}
}

// attempt runs the handler once inside its own span. Panics become errors and
// take the ordinary retry path.
func (r *Recoverer) attempt(ctx context.Context, msg *consumer.Message, hash string, n int) (err error) {
	ctx = requestcontext.WithMessage(ctx, msg.Topic, hash)
	ctx = requestcontext.WithAttempt(ctx, n)
	ctx = requestcontext.WithTime(ctx, r.now())

	ctx, span := r.tracer.Start(ctx, "process "+msg.Topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", msg.Topic),
			attribute.Int64("messaging.kafka.offset", msg.Offset),
			attribute.Int("messaging.kafka.partition", int(msg.Partition)),
			attribute.Int("caseprocessor.attempt", n),
		),
	)
	defer func() {
		if rec := recover(); rec != nil {
			err = errs.FromPanic(rec)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return r.next.Handle(ctx, msg)
}

// dispose reports an exhausted message and performs exactly one terminal action.
func (r *Recoverer) dispose(ctx context.Context, m *Machine, msg *consumer.Message, hash string, cause error, log *slog.Logger) error {
	advice := r.report(ctx, msg, hash, cause, log)
	if advice != nil {
		if err := m.Fire(EventReported); err != nil {
			return err
		}
		switch {
		case advice.SkipIt:
			if err := r.manager.StoreMessageBeforeSkipping(ctx, r.skipped(msg, hash)); err != nil {
				log.WarnContext(ctx, "storing skipped message failed", "error", err.Error())
			} else if err := m.Fire(EventQuarantined); err != nil {
				return err
			}
		case advice.Peek:
			if err := r.manager.RespondToPeek(ctx, hash, msg.Value); err != nil {
				log.WarnContext(ctx, "peek reply failed", "error", err.Error())
			} else if err := m.Fire(EventPeeked); err != nil {
				return err
			}
		}
	}

	if err := r.rejecter.Reject(ctx, msg, hash, cause); err != nil {
		return fmt.Errorf("reject message at %s offset %d: %w", msg.Topic, msg.Offset, err)
	}
	if err := m.Fire(EventRejected); err != nil {
		return err
	}

	path := make([]string, 0, len(m.History()))
	for _, st := range m.History() {
		path = append(path, st.String())
	}
	attrs := []any{"state_path", path, "attempts", m.Attempts()}
	if r.logMessageBody {
		attrs = append(attrs, "message_body", string(msg.Value))
	}
	log.WarnContext(ctx, "message rejected", attrs...)
	return nil
}

// report asks the manager for advice. A nil result means the manager could not
// be consulted and the message is rejected without further action.
func (r *Recoverer) report(ctx context.Context, msg *consumer.Message, hash string, cause error, log *slog.Logger) *exceptionmanager.Advice {
	if r.manager == nil {
		return nil
	}
	advice, err := r.manager.ReportException(ctx, exceptionmanager.ExceptionReport{
		MessageHash:      hash,
		Service:          r.service,
		Queue:            msg.Topic,
		ExceptionClass:   exceptionClass(cause),
		ExceptionMessage: cause.Error(),
	})
	if err != nil {
		log.ErrorContext(ctx, "exception manager unreachable, rejecting", "error", err.Error())
		return nil
	}
	return advice
}

func (r *Recoverer) skipped(msg *consumer.Message, hash string) exceptionmanager.SkippedMessage {
	return exceptionmanager.SkippedMessage{
		MessageHash:      hash,
		MessagePayload:   msg.Value,
		Service:          r.service,
		Queue:            msg.Topic,
		RoutingKey:       string(msg.Key),
		Headers:          msg.Headers,
		SkippedTimestamp: r.now().UTC(),
	}
}

// exceptionClass names the type of the first error in the chain that is more
// than a context wrapper.
func exceptionClass(err error) string {
	for {
		name := fmt.Sprintf("%T", err)
		inner := errors.Unwrap(err)
		if inner == nil || !wrapperTypes[name] {
			return name
		}
		err = inner
	}
}

var wrapperTypes = map[string]bool{
	"*fmt.wrapError":   true,
	"*fmt.wrapErrors":  true,
	"*errs.StackError": true,
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
