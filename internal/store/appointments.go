package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const appointmentColumns = `id, branch_id, customer_id, service_id, staff_id, scheduled_at, duration_minutes, status, notes, created_at`

func scanAppointment(row scanner) (Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.BranchID, &a.CustomerID, &a.ServiceID, &a.StaffID, &a.ScheduledAt,
		&a.DurationMinutes, &a.Status, &a.Notes, &a.CreatedAt)
	return a, err
}

type CreateAppointmentParams struct {
	BranchID        *uuid.UUID
	CustomerID      uuid.UUID
	ServiceID       uuid.UUID
	StaffID         *uuid.UUID
	ScheduledAt     time.Time
	DurationMinutes int32
	Notes           string
}

const createAppointment = `INSERT INTO appointments (branch_id, customer_id, service_id, staff_id, scheduled_at, duration_minutes, status, notes)
VALUES ($1, $2, $3, $4, $5, $6, 'Confirmed', $7)
RETURNING ` + appointmentColumns

func (q *Queries) CreateAppointment(ctx context.Context, arg CreateAppointmentParams) (Appointment, error) {
	return scanAppointment(q.db.QueryRow(ctx, createAppointment, arg.BranchID, arg.CustomerID, arg.ServiceID,
		arg.StaffID, arg.ScheduledAt, arg.DurationMinutes, arg.Notes))
}

const getAppointment = `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

func (q *Queries) GetAppointment(ctx context.Context, id uuid.UUID) (Appointment, error) {
	return scanAppointment(q.db.QueryRow(ctx, getAppointment, id))
}

type ListAppointmentsParams struct {
	BranchID *uuid.UUID
	Status   string
	From     time.Time
	To       time.Time
}

const listAppointments = `SELECT ` + appointmentColumns + ` FROM appointments
WHERE ($1::uuid IS NULL OR branch_id = $1)
  AND ($2::text = '' OR status = $2)
  AND scheduled_at >= $3 AND scheduled_at < $4
ORDER BY scheduled_at`

func (q *Queries) ListAppointments(ctx context.Context, arg ListAppointmentsParams) ([]Appointment, error) {
	rows, err := q.db.Query(ctx, listAppointments, arg.BranchID, arg.Status, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

const updateAppointmentStatus = `UPDATE appointments SET status = $2 WHERE id = $1 RETURNING ` + appointmentColumns

func (q *Queries) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status AppointmentStatus) (Appointment, error) {
	return scanAppointment(q.db.QueryRow(ctx, updateAppointmentStatus, id, status))
}

const countUpcomingAppointments = `SELECT count(*) FROM appointments
WHERE ($1::uuid IS NULL OR branch_id = $1) AND status = 'Confirmed' AND scheduled_at >= $2`

func (q *Queries) CountUpcomingAppointments(ctx context.Context, branchID *uuid.UUID, now time.Time) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countUpcomingAppointments, branchID, now).Scan(&n)
	return n, err
}
