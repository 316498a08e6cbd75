package store

import (
	"context"

	"github.com/google/uuid"
)

const notificationColumns = `id, branch_id, title, message, kind, priority, related_entity, entity_id, read, created_at`

func scanNotification(row scanner) (Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.BranchID, &n.Title, &n.Message, &n.Kind, &n.Priority, &n.RelatedEntity,
		&n.EntityID, &n.Read, &n.CreatedAt)
	return n, err
}

type InsertNotificationParams struct {
	BranchID      *uuid.UUID
	Title         string
	Message       string
	Kind          string
	Priority      string
	RelatedEntity *string
	EntityID      *uuid.UUID
}

const insertNotification = `INSERT INTO notifications (branch_id, title, message, kind, priority, related_entity, entity_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + notificationColumns

func (q *Queries) InsertNotification(ctx context.Context, arg InsertNotificationParams) (Notification, error) {
	return scanNotification(q.db.QueryRow(ctx, insertNotification, arg.BranchID, arg.Title, arg.Message, arg.Kind,
		arg.Priority, arg.RelatedEntity, arg.EntityID))
}

type ListNotificationsParams struct {
	BranchID   *uuid.UUID
	UnreadOnly bool
	Limit      int32
	Offset     int32
}

const listNotifications = `SELECT ` + notificationColumns + ` FROM notifications
WHERE ($1::uuid IS NULL OR branch_id IS NULL OR branch_id = $1)
  AND (NOT $2::bool OR NOT read)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`

func (q *Queries) ListNotifications(ctx context.Context, arg ListNotificationsParams) ([]Notification, error) {
	rows, err := q.db.Query(ctx, listNotifications, arg.BranchID, arg.UnreadOnly, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

const markNotificationRead = `UPDATE notifications SET read = TRUE WHERE id = $1`

func (q *Queries) MarkNotificationRead(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, markNotificationRead, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const deleteNotification = `DELETE FROM notifications WHERE id = $1`

func (q *Queries) DeleteNotification(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteNotification, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
