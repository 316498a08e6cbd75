package store

import (
	"context"

	"github.com/google/uuid"
)

const webhookColumns = `id, url, secret, topics, active, created_at, updated_at`

func scanWebhookEndpoint(row scanner) (WebhookEndpoint, error) {
	var w WebhookEndpoint
	err := row.Scan(&w.ID, &w.URL, &w.Secret, &w.Topics, &w.Active, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

func collectWebhookEndpoints(ctx context.Context, q *Queries, sql string, args ...any) ([]WebhookEndpoint, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WebhookEndpoint
	for rows.Next() {
		w, err := scanWebhookEndpoint(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

type UpsertWebhookEndpointParams struct {
	ID     uuid.UUID
	URL    string
	Secret string
	Topics []string
	Active bool
}

const createWebhookEndpoint = `INSERT INTO webhook_endpoints (url, secret, topics, active) VALUES ($1, $2, $3, $4)
RETURNING ` + webhookColumns

func (q *Queries) CreateWebhookEndpoint(ctx context.Context, arg UpsertWebhookEndpointParams) (WebhookEndpoint, error) {
	return scanWebhookEndpoint(q.db.QueryRow(ctx, createWebhookEndpoint, arg.URL, arg.Secret, arg.Topics, arg.Active))
}

const updateWebhookEndpoint = `UPDATE webhook_endpoints SET url = $2, secret = $3, topics = $4, active = $5, updated_at = now()
WHERE id = $1
RETURNING ` + webhookColumns

func (q *Queries) UpdateWebhookEndpoint(ctx context.Context, arg UpsertWebhookEndpointParams) (WebhookEndpoint, error) {
	return scanWebhookEndpoint(q.db.QueryRow(ctx, updateWebhookEndpoint, arg.ID, arg.URL, arg.Secret, arg.Topics, arg.Active))
}

const getWebhookEndpoint = `SELECT ` + webhookColumns + ` FROM webhook_endpoints WHERE id = $1`

func (q *Queries) GetWebhookEndpoint(ctx context.Context, id uuid.UUID) (WebhookEndpoint, error) {
	return scanWebhookEndpoint(q.db.QueryRow(ctx, getWebhookEndpoint, id))
}

const listWebhookEndpoints = `SELECT ` + webhookColumns + ` FROM webhook_endpoints ORDER BY created_at`

func (q *Queries) ListWebhookEndpoints(ctx context.Context) ([]WebhookEndpoint, error) {
	return collectWebhookEndpoints(ctx, q, listWebhookEndpoints)
}

const listActiveEndpointsForTopic = `SELECT ` + webhookColumns + ` FROM webhook_endpoints
WHERE active AND (cardinality(topics) = 0 OR $1 = ANY(topics))`

// ListActiveEndpointsForTopic treats an empty topic list as a subscription to everything.
func (q *Queries) ListActiveEndpointsForTopic(ctx context.Context, topic string) ([]WebhookEndpoint, error) {
	return collectWebhookEndpoints(ctx, q, listActiveEndpointsForTopic, topic)
}

const deleteWebhookEndpoint = `DELETE FROM webhook_endpoints WHERE id = $1`

func (q *Queries) DeleteWebhookEndpoint(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteWebhookEndpoint, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
