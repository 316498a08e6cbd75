// Package notify turns domain events into inbox entries, emails and webhook deliveries.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-salon/internal/events"
	"github.com/noah-isme/backend-salon/internal/store"
)

// ErrNotFound is returned for unknown notifications and endpoints.
var ErrNotFound = errors.New("not found")

// Publisher is the part of *redis.Client used for branch broadcasts.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// BranchChannel names the pub/sub channel carrying a branch's notifications.
// Notices without a branch go to branch:all:notifications.
func BranchChannel(branchID *uuid.UUID) string {
	if branchID == nil {
		return "branch:all:notifications"
	}
	return "branch:" + branchID.String() + ":notifications"
}

// InboxNotifier persists the notice carried by an event and broadcasts it
// on the branch channel. Events without a notice are ignored.
type InboxNotifier struct {
	Q   InboxQuerier
	Pub Publisher
}

// Notify implements events.Notifier.
func (n InboxNotifier) Notify(ctx context.Context, ev store.DomainEvent) error {
	if n.Q == nil {
		return nil
	}
	notice, ok := events.DecodeNotice(ev)
	if !ok {
		return nil
	}
	params := store.InsertNotificationParams{
		BranchID: notice.BranchID,
		Title:    notice.Title,
		Message:  notice.Message,
		Kind:     notice.Kind,
		Priority: notice.Priority,
	}
	if notice.RelatedEntity != "" {
		entity := notice.RelatedEntity
		params.RelatedEntity = &entity
		id := ev.AggregateID
		params.EntityID = &id
	}
	row, err := n.Q.InsertNotification(ctx, params)
	if err != nil {
		return fmt.Errorf("inbox: insert: %w", err)
	}
	if n.Pub == nil {
		return nil
	}
	msg, err := json.Marshal(struct {
		Topic        string             `json:"topic"`
		Notification store.Notification `json:"notification"`
	}{ev.Topic, row})
	if err != nil {
		return err
	}
	if err := n.Pub.Publish(ctx, BranchChannel(row.BranchID), msg).Err(); err != nil {
		return fmt.Errorf("inbox: publish: %w", err)
	}
	return nil
}

// Inbox reads and maintains persisted notifications.
type Inbox struct {
	Q InboxQuerier
}

// List returns the branch's notifications newest first, plus the ones without a branch.
func (i *Inbox) List(ctx context.Context, branchID *uuid.UUID, unreadOnly bool, limit, offset int) ([]store.Notification, error) {
	if i == nil || i.Q == nil {
		return nil, errors.New("inbox not configured")
	}
	if limit <= 0 {
		limit = 20
	}
	items, err := i.Q.ListNotifications(ctx, store.ListNotificationsParams{
		BranchID: branchID, UnreadOnly: unreadOnly, Limit: int32(limit), Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []store.Notification{}
	}
	return items, nil
}

// MarkRead flags one notification as read.
func (i *Inbox) MarkRead(ctx context.Context, id uuid.UUID) error {
	n, err := i.Q.MarkNotificationRead(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one notification.
func (i *Inbox) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := i.Q.DeleteNotification(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
