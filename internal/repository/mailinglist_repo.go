package repository

import (
	"context"
	"errors"

	"listkeeper/internal/apperr"
	"listkeeper/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MailingListRepository struct {
	db *pgxpool.Pool
}

func NewMailingListRepository(db *pgxpool.Pool) *MailingListRepository {
	return &MailingListRepository{db: db}
}

// Create inserts a mailing list owned by ownerID.
func (r *MailingListRepository) Create(ctx context.Context, name string, ownerID int64) (*model.MailingList, error) {
	query := `
        INSERT INTO mailing_lists (name, owner_id, created_at)
        VALUES ($1, $2, NOW())
        RETURNING id, created_at
    `
	l := model.MailingList{Name: name, OwnerID: ownerID}
	err := r.db.QueryRow(ctx, query, name, ownerID).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// FindByID returns a mailing list regardless of owner. Used on the public
// subscribe path, where the caller is not authenticated.
func (r *MailingListRepository) FindByID(ctx context.Context, id int64) (*model.MailingList, error) {
	query := `
        SELECT id, name, owner_id, created_at
        FROM mailing_lists
        WHERE id = $1
    `
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// FindByIDForOwner returns the list only if ownerID owns it. A list owned
// by someone else is reported as not found, never as forbidden.
func (r *MailingListRepository) FindByIDForOwner(ctx context.Context, id, ownerID int64) (*model.MailingList, error) {
	query := `
        SELECT id, name, owner_id, created_at
        FROM mailing_lists
        WHERE id = $1 AND owner_id = $2
    `
	return r.scanOne(r.db.QueryRow(ctx, query, id, ownerID))
}

// ListByOwner returns all lists owned by ownerID.
func (r *MailingListRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.MailingList, error) {
	query := `
        SELECT id, name, owner_id, created_at
        FROM mailing_lists
        WHERE owner_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lists := []model.MailingList{}
	for rows.Next() {
		var l model.MailingList
		if err := rows.Scan(&l.ID, &l.Name, &l.OwnerID, &l.CreatedAt); err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

// Delete removes the list and its subscribers if ownerID owns it.
func (r *MailingListRepository) Delete(ctx context.Context, id, ownerID int64) error {
	query := `
        DELETE FROM mailing_lists
        WHERE id = $1 AND owner_id = $2
    `
	tag, err := r.db.Exec(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *MailingListRepository) scanOne(row pgx.Row) (*model.MailingList, error) {
	var l model.MailingList
	err := row.Scan(&l.ID, &l.Name, &l.OwnerID, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}
