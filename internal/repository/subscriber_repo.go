package repository

import (
	"context"
	"errors"

	"listkeeper/internal/apperr"
	"listkeeper/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SubscriberRepository struct {
	db *pgxpool.Pool
}

func NewSubscriberRepository(db *pgxpool.Pool) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

// Create inserts a subscriber. The unique index on
// (mailing_list_id, lower(email)) makes a repeat signup a validation
// error rather than a second row.
func (r *SubscriberRepository) Create(ctx context.Context, mailingListID int64, email string, confirmed bool) (*model.Subscriber, error) {
	query := `
        INSERT INTO subscribers (mailing_list_id, email, confirmed, created_at)
        VALUES ($1, $2, $3, NOW())
        RETURNING id, created_at
    `
	s := model.Subscriber{MailingListID: mailingListID, Email: email, Confirmed: confirmed}
	err := r.db.QueryRow(ctx, query, mailingListID, email, confirmed).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperr.Validationf("email already subscribed to this list")
		}
		return nil, err
	}
	return &s, nil
}

// FindByID returns a subscriber by id.
func (r *SubscriberRepository) FindByID(ctx context.Context, id int64) (*model.Subscriber, error) {
	query := `
        SELECT id, mailing_list_id, email, confirmed, created_at
        FROM subscribers
        WHERE id = $1
    `
	var s model.Subscriber
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.MailingListID,
		&s.Email,
		&s.Confirmed,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListByMailingList returns all subscribers of a list.
func (r *SubscriberRepository) ListByMailingList(ctx context.Context, mailingListID int64) ([]model.Subscriber, error) {
	query := `
        SELECT id, mailing_list_id, email, confirmed, created_at
        FROM subscribers
        WHERE mailing_list_id = $1
    `
	return r.list(ctx, query, mailingListID)
}

// ListConfirmedByMailingList returns only confirmed subscribers. Row
// order is whatever the store gives back; callers must not depend on it.
func (r *SubscriberRepository) ListConfirmedByMailingList(ctx context.Context, mailingListID int64) ([]model.Subscriber, error) {
	query := `
        SELECT id, mailing_list_id, email, confirmed, created_at
        FROM subscribers
        WHERE mailing_list_id = $1 AND confirmed = TRUE
    `
	return r.list(ctx, query, mailingListID)
}

// Confirm sets confirmed = true and returns the updated row. The update
// is a no-op on an already-confirmed subscriber, so concurrent confirms
// cannot conflict.
func (r *SubscriberRepository) Confirm(ctx context.Context, id int64) (*model.Subscriber, error) {
	query := `
        UPDATE subscribers
        SET confirmed = TRUE
        WHERE id = $1
        RETURNING id, mailing_list_id, email, confirmed, created_at
    `
	var s model.Subscriber
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.MailingListID,
		&s.Email,
		&s.Confirmed,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Delete removes a subscriber.
func (r *SubscriberRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM subscribers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *SubscriberRepository) list(ctx context.Context, query string, args ...any) ([]model.Subscriber, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []model.Subscriber{}
	for rows.Next() {
		var s model.Subscriber
		if err := rows.Scan(&s.ID, &s.MailingListID, &s.Email, &s.Confirmed, &s.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}
