// internal/storage/notifications.go
package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"immunization-engine/internal/common/errors"
	"immunization-engine/internal/models"
)

// PostgresNotifications implements NotificationRepository over PostgreSQL.
// A partial unique index on (child_id, vaccine_id, type, dose_number) WHERE
// state = 'PENDING' backs the scheduler's dedup check.
type PostgresNotifications struct {
	db *sql.DB
}

func NewPostgresNotifications(db *sql.DB) *PostgresNotifications {
	return &PostgresNotifications{db: db}
}

func (r *PostgresNotifications) Create(ctx context.Context, n models.Notification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications
			(id, child_id, vaccine_id, dose_number, type, priority, state, title, message, scheduled_date, expiration_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		n.ID, n.ChildID, n.VaccineID, n.DoseNumber,
		string(n.Type), string(n.Priority), string(n.State),
		n.Title, n.Message, n.ScheduledDate, n.ExpirationDate, n.CreatedAt,
	)
	if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
		return errors.NewDuplicateNotificationError(n.DedupKey())
	}
	if err != nil {
		return errors.NewQueryExecutionFailedError("notifications.create", err)
	}
	return nil
}

const notificationColumns = `id, child_id, vaccine_id, dose_number, type, priority, state, title, message, scheduled_date, expiration_date, created_at`

func scanNotification(rows *sql.Rows) (models.Notification, error) {
	var n models.Notification
	var typ, priority, state string
	var expiration sql.NullTime
	err := rows.Scan(&n.ID, &n.ChildID, &n.VaccineID, &n.DoseNumber,
		&typ, &priority, &state, &n.Title, &n.Message,
		&n.ScheduledDate, &expiration, &n.CreatedAt)
	if err != nil {
		return models.Notification{}, err
	}
	n.Type = models.NotificationType(typ)
	n.Priority = models.Priority(priority)
	n.State = models.NotificationState(state)
	if expiration.Valid {
		t := expiration.Time
		n.ExpirationDate = &t
	}
	return n, nil
}

func (r *PostgresNotifications) ListByChild(ctx context.Context, childID string) ([]models.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications WHERE child_id = $1
		ORDER BY created_at, id`, childID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("notifications.list_by_child", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("notifications.list_by_child.scan", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("notifications.list_by_child.rows", err)
	}
	return out, nil
}

func (r *PostgresNotifications) UpdateState(ctx context.Context, id string, state models.NotificationState) error {
	var current string
	err := r.db.QueryRowContext(ctx, `
		SELECT state FROM notifications WHERE id = $1`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return errors.NewRecordNotFoundError("notificationId: " + id)
	}
	if err != nil {
		return errors.NewQueryExecutionFailedError("notifications.update_state.read", err)
	}
	if !models.NotificationState(current).CanTransitionTo(state) {
		return errors.NewInvalidStateTransitionError(current, string(state))
	}

	// Guard on the observed state so a concurrent transition loses cleanly.
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET state = $2 WHERE id = $1 AND state = $3`,
		id, string(state), current)
	if err != nil {
		return errors.NewQueryExecutionFailedError("notifications.update_state", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewInvalidStateTransitionError(current, string(state))
	}
	return nil
}

func (r *PostgresNotifications) ListPendingDue(ctx context.Context, by time.Time, limit int) ([]models.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE state = 'PENDING' AND scheduled_date <= $1
		ORDER BY
			CASE priority WHEN 'URGENT' THEN 0 WHEN 'HIGH' THEN 1 WHEN 'NORMAL' THEN 2 ELSE 3 END,
			scheduled_date
		LIMIT $2`, by, limit)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("notifications.list_pending_due", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("notifications.list_pending_due.scan", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("notifications.list_pending_due.rows", err)
	}
	return out, nil
}
