package repository

import (
	"context"

	"listkeeper/internal/model"
)

// UserStore persists user accounts.
type UserStore interface {
	Create(ctx context.Context, username, passwordHash string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

// MailingListStore persists mailing lists. Owner-scoped methods return
// apperr.ErrNotFound both when the list is absent and when it belongs to
// a different owner.
type MailingListStore interface {
	Create(ctx context.Context, name string, ownerID int64) (*model.MailingList, error)
	FindByID(ctx context.Context, id int64) (*model.MailingList, error)
	FindByIDForOwner(ctx context.Context, id, ownerID int64) (*model.MailingList, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]model.MailingList, error)
	Delete(ctx context.Context, id, ownerID int64) error
}

// SubscriberStore persists subscribers. Confirm is idempotent: confirming
// an already-confirmed subscriber succeeds without changing anything.
type SubscriberStore interface {
	Create(ctx context.Context, mailingListID int64, email string, confirmed bool) (*model.Subscriber, error)
	FindByID(ctx context.Context, id int64) (*model.Subscriber, error)
	ListByMailingList(ctx context.Context, mailingListID int64) ([]model.Subscriber, error)
	ListConfirmedByMailingList(ctx context.Context, mailingListID int64) ([]model.Subscriber, error)
	Confirm(ctx context.Context, id int64) (*model.Subscriber, error)
	Delete(ctx context.Context, id int64) error
}
