// Package subscription is the orchestration core: subscriber signup,
// confirmation, and the owner-scoped views over lists and subscribers.
package subscription

import (
	"context"
	"net/mail"
	"strings"

	"listkeeper/internal/apperr"
	"listkeeper/internal/model"
	"listkeeper/internal/repository"
	"listkeeper/pkg/metrics"

	"go.uber.org/zap"
)

// TaskQueue schedules asynchronous confirmation dispatch. Delivery to the
// worker is at-least-once; the worker side is idempotent.
type TaskQueue interface {
	EnqueueConfirmation(ctx context.Context, subscriberID int64) error
}

// TokenResolver maps a confirmation token back to a subscriber id.
type TokenResolver interface {
	Resolve(token string) (int64, error)
}

type Service struct {
	subscribers repository.SubscriberStore
	lists       repository.MailingListStore
	queue       TaskQueue
	tokens      TokenResolver
	logger      *zap.Logger
}

func NewService(
	subscribers repository.SubscriberStore,
	lists repository.MailingListStore,
	queue TaskQueue,
	tokens TokenResolver,
	logger *zap.Logger,
) *Service {
	return &Service{
		subscribers: subscribers,
		lists:       lists,
		queue:       queue,
		tokens:      tokens,
		logger:      logger,
	}
}

// CreateSubscriber persists a new unconfirmed subscriber and schedules
// exactly one confirmation dispatch. If the enqueue fails the subscriber
// is still returned together with a *apperr.DispatchSchedulingError: a
// created-but-unnotified subscriber beats losing the signup.
func (s *Service) CreateSubscriber(ctx context.Context, mailingListID int64, email string) (*model.Subscriber, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	if _, err := s.lists.FindByID(ctx, mailingListID); err != nil {
		return nil, err
	}

	sub, err := s.subscribers.Create(ctx, mailingListID, email, false)
	if err != nil {
		return nil, err
	}
	metrics.IncrementSubscribersCreated()

	if err := s.queue.EnqueueConfirmation(ctx, sub.ID); err != nil {
		s.logger.Error("Failed to enqueue confirmation dispatch",
			zap.Int64("subscriber_id", sub.ID),
			zap.Int64("mailing_list_id", mailingListID),
			zap.Error(err),
		)
		metrics.IncrementDispatchEnqueue("error")
		return sub, &apperr.DispatchSchedulingError{SubscriberID: sub.ID, Err: err}
	}
	metrics.IncrementDispatchEnqueue("ok")

	s.logger.Info("Subscriber created",
		zap.Int64("subscriber_id", sub.ID),
		zap.Int64("mailing_list_id", mailingListID),
	)
	return sub, nil
}

// ConfirmSubscriber resolves a confirmation token and flips the
// subscriber to confirmed. Re-confirming is a no-op, not an error. A
// token whose subscriber no longer exists reads the same as a bad token.
func (s *Service) ConfirmSubscriber(ctx context.Context, tokenStr string) (*model.Subscriber, error) {
	subscriberID, err := s.tokens.Resolve(tokenStr)
	if err != nil {
		return nil, err
	}

	sub, err := s.subscribers.FindByID(ctx, subscriberID)
	if err != nil {
		return nil, apperr.ErrInvalidToken
	}
	if sub.Confirmed {
		return sub, nil
	}

	sub, err = s.subscribers.Confirm(ctx, subscriberID)
	if err != nil {
		return nil, err
	}
	metrics.IncrementConfirmations()

	s.logger.Info("Subscriber confirmed", zap.Int64("subscriber_id", sub.ID))
	return sub, nil
}

// ConfirmedSubscribers returns the confirmed subset of a list's
// subscribers. No ordering is guaranteed.
func (s *Service) ConfirmedSubscribers(ctx context.Context, mailingListID int64) ([]model.Subscriber, error) {
	return s.subscribers.ListConfirmedByMailingList(ctx, mailingListID)
}

func validateEmail(email string) error {
	if email == "" {
		return apperr.Validationf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperr.Validationf("invalid email address")
	}
	return nil
}
