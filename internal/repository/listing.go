package repository

import (
	"context"

	"baraholka/internal/domain"
	"github.com/jmoiron/sqlx"
)

// ListingRepo is the thin surface this service needs from the listing
// collaborator: resolving a title for chat context and cascading deletes
// during a user purge.
type ListingRepo struct {
	db *sqlx.DB
}

func NewListingRepo(db *sqlx.DB) *ListingRepo {
	return &ListingRepo{
		db: db,
	}
}

func (lr *ListingRepo) Get(ctx context.Context, id int) (*domain.Listing, error) {
	query := `SELECT id, owner_id, title, status FROM listings WHERE id = $1;`

	var listing domain.Listing
	err := lr.db.GetContext(ctx, &listing, query, id)
	return &listing, err
}

func (lr *ListingRepo) DeleteByOwner(ctx context.Context, ownerID string) (int, error) {
	query := `DELETE FROM listings WHERE owner_id = $1;`

	res, err := lr.db.ExecContext(ctx, query, ownerID)
	if err != nil {
		return 0, err
	}

	rowsAff, err := res.RowsAffected()
	return int(rowsAff), err
}
