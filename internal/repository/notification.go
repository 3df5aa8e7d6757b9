package repository

import (
	"context"

	"baraholka/internal/domain"
	"github.com/jmoiron/sqlx"
)

type NotificationRepo struct {
	db *sqlx.DB
}

func NewNotificationRepo(db *sqlx.DB) *NotificationRepo {
	return &NotificationRepo{
		db: db,
	}
}

func (nr *NotificationRepo) Create(ctx context.Context, in *domain.Notification) (*domain.Notification, error) {
	query := `
		INSERT INTO notifications (owner_id, type, title, body, related_id, related_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *;
	`

	var notification domain.Notification
	err := nr.db.GetContext(ctx, &notification, query,
		in.OwnerID, in.Type, in.Title, in.Body, in.RelatedID, in.RelatedType,
	)
	return &notification, err
}

func (nr *NotificationRepo) ListForOwner(ctx context.Context, ownerID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	query := `
		SELECT * FROM notifications
		WHERE owner_id = $1 AND ($2 = FALSE OR read = FALSE)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4;
	`

	notifications := []domain.Notification{}
	err := nr.db.SelectContext(ctx, &notifications, query, ownerID, unreadOnly, limit, offset)
	return notifications, err
}

func (nr *NotificationRepo) Counts(ctx context.Context, ownerID string) (total, unread int, err error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE read = FALSE)
		FROM notifications
		WHERE owner_id = $1;
	`

	err = nr.db.QueryRowContext(ctx, query, ownerID).Scan(&total, &unread)
	return total, unread, err
}

func (nr *NotificationRepo) MarkRead(ctx context.Context, id int) error {
	query := `UPDATE notifications SET read = TRUE WHERE id = $1;`

	res, err := nr.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAff, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAff == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (nr *NotificationRepo) MarkAllRead(ctx context.Context, ownerID string) error {
	query := `UPDATE notifications SET read = TRUE WHERE owner_id = $1 AND read = FALSE;`

	_, err := nr.db.ExecContext(ctx, query, ownerID)
	return err
}

func (nr *NotificationRepo) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM notifications WHERE id = $1;`

	res, err := nr.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAff, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAff == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (nr *NotificationRepo) ClearRead(ctx context.Context, ownerID string) error {
	query := `DELETE FROM notifications WHERE owner_id = $1 AND read = TRUE;`

	_, err := nr.db.ExecContext(ctx, query, ownerID)
	return err
}

func (nr *NotificationRepo) DeleteByOwner(ctx context.Context, ownerID string) (int, error) {
	query := `DELETE FROM notifications WHERE owner_id = $1;`

	res, err := nr.db.ExecContext(ctx, query, ownerID)
	if err != nil {
		return 0, err
	}

	rowsAff, err := res.RowsAffected()
	return int(rowsAff), err
}
