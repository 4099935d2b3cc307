package notification

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrNotificationNotFound = errors.New("notification not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, userID int, ntype, title, message string, metadata map[string]interface{}) (*Notification, error) {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	meta, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO notifications (user_id, type, title, message, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, type, title, message, read, metadata, created_at
	`

	var n Notification
	if err := r.db.GetContext(ctx, &n, query, userID, ntype, title, message, meta); err != nil {
		return nil, err
	}

	return &n, nil
}

func (r *repository) HasUnreadLowBalance(ctx context.Context, userID, threshold int) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM notifications
			WHERE user_id = $1
			  AND type = 'low_balance'
			  AND NOT read
			  AND (metadata->>'threshold')::int = $2
		)
	`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, threshold); err != nil {
		return false, err
	}

	return exists, nil
}

// MarkLowBalanceRead supersedes all unread low_balance notifications, so a
// later crossing can fire again.
func (r *repository) MarkLowBalanceRead(ctx context.Context, userID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications
		 SET read = TRUE
		 WHERE user_id = $1 AND type = 'low_balance' AND NOT read`,
		userID,
	)
	return err
}

func (r *repository) ListByUser(ctx context.Context, userID int, limit, offset int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	var notifications []Notification
	err := r.db.SelectContext(ctx, &notifications, `
		SELECT id, user_id, type, title, message, read, metadata, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return notifications, nil
}

func (r *repository) MarkRead(ctx context.Context, userID, notificationID int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`,
		notificationID, userID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotificationNotFound
	}

	return nil
}
