package store

import (
	"context"

	"github.com/google/uuid"
)

const auditColumns = `id, staff_id, role, branch_id, action, resource_type, resource_id, method, path, status_code, ip, request_id, created_at`

type InsertAuditLogParams struct {
	StaffID      *uuid.UUID
	Role         string
	BranchID     *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   string
	Method       string
	Path         string
	StatusCode   int32
	IP           string
	RequestID    string
}

const insertAuditLog = `INSERT INTO audit_logs (staff_id, role, branch_id, action, resource_type, resource_id, method, path, status_code, ip, request_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

func (q *Queries) InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) error {
	_, err := q.db.Exec(ctx, insertAuditLog, arg.StaffID, arg.Role, arg.BranchID, arg.Action, arg.ResourceType,
		arg.ResourceID, arg.Method, arg.Path, arg.StatusCode, arg.IP, arg.RequestID)
	return err
}

type ListAuditLogsParams struct {
	ResourceType string
	Limit        int32
	Offset       int32
}

const listAuditLogs = `SELECT ` + auditColumns + ` FROM audit_logs
WHERE ($1::text = '' OR resource_type = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

func (q *Queries) ListAuditLogs(ctx context.Context, arg ListAuditLogsParams) ([]AuditLog, error) {
	rows, err := q.db.Query(ctx, listAuditLogs, arg.ResourceType, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AuditLog
	for rows.Next() {
		var a AuditLog
		if err := rows.Scan(&a.ID, &a.StaffID, &a.Role, &a.BranchID, &a.Action, &a.ResourceType, &a.ResourceID,
			&a.Method, &a.Path, &a.StatusCode, &a.IP, &a.RequestID, &a.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
