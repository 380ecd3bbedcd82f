package ads

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adboard/adboard/internal/platform/db"
	"github.com/adboard/adboard/internal/shared"
)

// TxRepository exposes the statements that run inside a transaction.
type TxRepository interface {
	// LockOwner returns the owner of ad id and holds a row lock until commit.
	LockOwner(ctx context.Context, id int64) (int64, error)
	UpdateAd(ctx context.Context, id int64, patch Patch) error
	DeleteAd(ctx context.Context, id int64) error
}

// Repository provides PostgreSQL backed persistence for ads.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in a transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// CreateAd inserts an ad and returns its id. created_at comes from the
// database clock.
func (r *Repository) CreateAd(ctx context.Context, ownerID int64, title, description string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO ad (title, description, owner_id) VALUES ($1, $2, $3) RETURNING id`,
		title, description, ownerID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ads: insert: %w", err)
	}
	return id, nil
}

// GetAd loads an ad together with its owner's email.
func (r *Repository) GetAd(ctx context.Context, id int64) (*Ad, error) {
	query := `
		SELECT a.id, a.title, a.description, a.created_at, a.owner_id, u.email
		FROM ad a
		JOIN "user" u ON u.id = a.owner_id
		WHERE a.id = $1
	`
	var ad Ad
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&ad.ID, &ad.Title, &ad.Description, &ad.CreatedAt, &ad.OwnerID, &ad.OwnerEmail,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("ads: get %d: %w", id, err)
	}
	return &ad, nil
}

func (t *txRepo) LockOwner(ctx context.Context, id int64) (int64, error) {
	var ownerID int64
	err := t.tx.QueryRow(ctx, `SELECT owner_id FROM ad WHERE id = $1 FOR UPDATE`, id).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrNotFound
		}
		return 0, fmt.Errorf("ads: lock %d: %w", id, err)
	}
	return ownerID, nil
}

func (t *txRepo) UpdateAd(ctx context.Context, id int64, patch Patch) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE ad SET title = COALESCE($2, title), description = COALESCE($3, description) WHERE id = $1`,
		id, patch.Title, patch.Description,
	)
	if err != nil {
		return fmt.Errorf("ads: update %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepo) DeleteAd(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM ad WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ads: delete %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
