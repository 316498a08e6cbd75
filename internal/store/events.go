package store

import (
	"context"

	"github.com/google/uuid"
)

type InsertDomainEventParams struct {
	Topic       string
	AggregateID uuid.UUID
	Payload     []byte
}

const insertDomainEvent = `INSERT INTO domain_events (topic, aggregate_id, payload)
VALUES ($1, $2, $3)
RETURNING id, topic, aggregate_id, payload, occurred_at`

func (q *Queries) InsertDomainEvent(ctx context.Context, arg InsertDomainEventParams) (DomainEvent, error) {
	var e DomainEvent
	err := q.db.QueryRow(ctx, insertDomainEvent, arg.Topic, arg.AggregateID, arg.Payload).
		Scan(&e.ID, &e.Topic, &e.AggregateID, &e.Payload, &e.OccurredAt)
	return e, err
}

const getDomainEvent = `SELECT id, topic, aggregate_id, payload, occurred_at FROM domain_events WHERE id = $1`

func (q *Queries) GetDomainEvent(ctx context.Context, id uuid.UUID) (DomainEvent, error) {
	var e DomainEvent
	err := q.db.QueryRow(ctx, getDomainEvent, id).Scan(&e.ID, &e.Topic, &e.AggregateID, &e.Payload, &e.OccurredAt)
	return e, err
}
