package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"listkeeper/internal/apperr"
	"listkeeper/internal/mailer"
	"listkeeper/internal/repository"
	"listkeeper/pkg/metrics"
	"listkeeper/pkg/mq"
	"listkeeper/pkg/util"

	"go.uber.org/zap"
)

const handlerName = "confirmation"

// TokenIssuer creates confirmation tokens.
type TokenIssuer interface {
	Issue(subscriberID int64) (string, error)
}

// AttemptCounter counts delivery attempts per task message across queue
// redeliveries.
type AttemptCounter interface {
	IncrementAndGet(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

// DeadLetterPublisher parks tasks that exhausted their retry budget.
type DeadLetterPublisher interface {
	PublishToDLQ(routingKey string, payload []byte, originalError string) error
}

// Config bounds the retry behavior. MaxAttempts/Backoff govern in-process
// send retries on transient errors; MaxDeliveries bounds how many times
// the queue may redeliver the task before it is declared dead.
type Config struct {
	MaxAttempts   int
	Backoff       time.Duration
	MaxDeliveries int
}

// ConfirmationHandler is the worker-side body of a confirmation dispatch
// task. It must be safe under at-least-once delivery: duplicate tasks for
// the same subscriber, tasks racing a manual confirmation, and tasks
// whose subscriber has been deleted all complete as no-ops.
type ConfirmationHandler struct {
	subscribers repository.SubscriberStore
	lists       repository.MailingListStore
	tokens      TokenIssuer
	transport   mailer.Transport
	composer    *mailer.Composer
	attempts    AttemptCounter
	dlq         DeadLetterPublisher
	cfg         Config
	logger      *zap.Logger

	sleep func(time.Duration)
}

func NewConfirmationHandler(
	subscribers repository.SubscriberStore,
	lists repository.MailingListStore,
	tokens TokenIssuer,
	transport mailer.Transport,
	composer *mailer.Composer,
	attempts AttemptCounter,
	dlq DeadLetterPublisher,
	cfg Config,
	logger *zap.Logger,
) *ConfirmationHandler {
	return &ConfirmationHandler{
		subscribers: subscribers,
		lists:       lists,
		tokens:      tokens,
		transport:   transport,
		composer:    composer,
		attempts:    attempts,
		dlq:         dlq,
		cfg:         cfg,
		logger:      logger,
		sleep:       time.Sleep,
	}
}

// Handle processes one task delivery. A nil return acks the delivery
// (sent, no-op, or parked on the DLQ); an error return nacks it so the
// queue redelivers.
func (h *ConfirmationHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mq.ConfirmationTaskPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		// Unparseable payloads can never succeed; straight to the DLQ.
		h.logger.Error("Failed to unmarshal confirmation payload", zap.Error(err))
		return h.deadLetter(raw, err)
	}

	sub, err := h.subscribers.FindByID(ctx, p.SubscriberID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			// Deleted before we got here. Nothing to send.
			h.logger.Info("Subscriber gone, skipping confirmation",
				zap.Int64("subscriber_id", p.SubscriberID),
			)
			metrics.IncrementDispatchOutcome("noop")
			return nil
		}
		return err
	}
	if sub.Confirmed {
		// Already confirmed, e.g. a duplicate delivery of this task.
		metrics.IncrementDispatchOutcome("noop")
		return nil
	}

	list, err := h.lists.FindByID(ctx, sub.MailingListID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			metrics.IncrementDispatchOutcome("noop")
			return nil
		}
		return err
	}

	tokenStr, err := h.tokens.Issue(sub.ID)
	if err != nil {
		return err
	}
	subject, body, err := h.composer.Compose(sub, list, tokenStr)
	if err != nil {
		return h.deadLetter(raw, err)
	}

	if err := h.send(ctx, sub.Email, subject, body); err != nil {
		return h.handleSendFailure(ctx, raw, p, err)
	}

	if h.attempts != nil && p.MessageID != "" {
		_ = h.attempts.Reset(ctx, util.FormatAttemptKey(handlerName, p.MessageID))
	}
	metrics.IncrementDispatchOutcome("sent")
	h.logger.Info("Confirmation email sent",
		zap.Int64("subscriber_id", sub.ID),
		zap.Int64("mailing_list_id", sub.MailingListID),
	)
	return nil
}

// send attempts delivery with bounded retries and exponential backoff.
// Only transient failures are retried.
func (h *ConfirmationHandler) send(ctx context.Context, to, subject, body string) error {
	backoff := h.cfg.Backoff
	var err error
	for attempt := 1; attempt <= h.cfg.MaxAttempts; attempt++ {
		start := time.Now()
		err = h.transport.Send(ctx, to, subject, body)
		metrics.RecordSendLatency(time.Since(start))
		if err == nil {
			return nil
		}
		if !apperr.IsTransient(err) {
			return err
		}
		if attempt < h.cfg.MaxAttempts {
			h.logger.Warn("Transient send failure, backing off",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
			metrics.IncrementDispatchOutcome("retried")
			h.sleep(backoff)
			backoff *= 2
		}
	}
	return err
}

// handleSendFailure decides between queue redelivery and the DLQ once
// in-process retries are spent.
func (h *ConfirmationHandler) handleSendFailure(ctx context.Context, raw json.RawMessage, p mq.ConfirmationTaskPayload, sendErr error) error {
	if !apperr.IsTransient(sendErr) {
		h.logger.Error("Permanent send failure",
			zap.Int64("subscriber_id", p.SubscriberID),
			zap.Error(sendErr),
		)
		return h.deadLetter(raw, sendErr)
	}

	deliveries := int64(h.cfg.MaxDeliveries) // fail closed if no counter
	if h.attempts != nil && p.MessageID != "" {
		n, err := h.attempts.IncrementAndGet(ctx, util.FormatAttemptKey(handlerName, p.MessageID))
		if err != nil {
			h.logger.Warn("Attempt counter unavailable", zap.Error(err))
		}
		deliveries = n
	}

	if deliveries < int64(h.cfg.MaxDeliveries) {
		// Still within budget: nack and let the queue redeliver.
		return sendErr
	}

	h.logger.Error("Confirmation dispatch exhausted retries",
		zap.Int64("subscriber_id", p.SubscriberID),
		zap.Int64("deliveries", deliveries),
		zap.Error(sendErr),
	)
	return h.deadLetter(raw, sendErr)
}

// deadLetter parks the task and acks the delivery. The failure stays on
// the operator channel (DLQ + metrics + log); it is never surfaced back
// to whoever enqueued the task.
func (h *ConfirmationHandler) deadLetter(raw json.RawMessage, cause error) error {
	metrics.IncrementDispatchOutcome("dead")
	if h.dlq != nil {
		if err := h.dlq.PublishToDLQ(mq.RoutingKeyConfirmation, raw, cause.Error()); err != nil {
			h.logger.Error("Failed to publish to DLQ", zap.Error(err))
			// Keep the delivery in the queue rather than dropping it.
			return err
		}
	}
	return nil
}
