package subscription

import (
	"context"

	"listkeeper/internal/apperr"
	"listkeeper/internal/model"
)

// Owner-scoped operations. Everything here answers apperr.ErrNotFound for
// lists outside the caller's ownership, including lists that do exist
// under another owner, so ids cannot be probed.

// CreateList creates a mailing list owned by ownerID.
func (s *Service) CreateList(ctx context.Context, ownerID int64, name string) (*model.MailingList, error) {
	if name == "" {
		return nil, apperr.Validationf("list name is required")
	}
	return s.lists.Create(ctx, name, ownerID)
}

// ListsForOwner returns all of ownerID's mailing lists.
func (s *Service) ListsForOwner(ctx context.Context, ownerID int64) ([]model.MailingList, error) {
	return s.lists.ListByOwner(ctx, ownerID)
}

// ListForOwner returns one of ownerID's mailing lists by id.
func (s *Service) ListForOwner(ctx context.Context, ownerID, mailingListID int64) (*model.MailingList, error) {
	return s.lists.FindByIDForOwner(ctx, mailingListID, ownerID)
}

// DeleteList deletes one of ownerID's mailing lists and its subscribers.
func (s *Service) DeleteList(ctx context.Context, ownerID, mailingListID int64) error {
	return s.lists.Delete(ctx, mailingListID, ownerID)
}

// SubscribersForList returns the subscribers of a list the caller owns,
// optionally filtered by confirmation state.
func (s *Service) SubscribersForList(ctx context.Context, ownerID, mailingListID int64, confirmedOnly bool) ([]model.Subscriber, error) {
	if _, err := s.lists.FindByIDForOwner(ctx, mailingListID, ownerID); err != nil {
		return nil, err
	}
	if confirmedOnly {
		return s.subscribers.ListConfirmedByMailingList(ctx, mailingListID)
	}
	return s.subscribers.ListByMailingList(ctx, mailingListID)
}

// SubscriberForOwner returns a subscriber if its list belongs to ownerID.
func (s *Service) SubscriberForOwner(ctx context.Context, ownerID, subscriberID int64) (*model.Subscriber, error) {
	sub, err := s.subscribers.FindByID(ctx, subscriberID)
	if err != nil {
		return nil, err
	}
	if _, err := s.lists.FindByIDForOwner(ctx, sub.MailingListID, ownerID); err != nil {
		return nil, err
	}
	return sub, nil
}

// DeleteSubscriber removes a subscriber from one of ownerID's lists.
// Deletion is independent of confirmation state.
func (s *Service) DeleteSubscriber(ctx context.Context, ownerID, subscriberID int64) error {
	if _, err := s.SubscriberForOwner(ctx, ownerID, subscriberID); err != nil {
		return err
	}
	return s.subscribers.Delete(ctx, subscriberID)
}
