// Package appointment books and tracks salon appointments.
package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-salon/internal/catalog"
	"github.com/noah-isme/backend-salon/internal/customer"
	"github.com/noah-isme/backend-salon/internal/events"
	"github.com/noah-isme/backend-salon/internal/store"
)

var (
	// ErrNotFound is returned for unknown appointments.
	ErrNotFound = errors.New("appointment not found")
	// ErrInvalidInput is returned for bad bookings or unknown statuses.
	ErrInvalidInput = errors.New("invalid appointment")
	// ErrInvalidTransition is returned when a closed appointment is changed.
	ErrInvalidTransition = errors.New("appointment is already closed")
)

// Querier captures the store methods used for appointments.
type Querier interface {
	CreateAppointment(ctx context.Context, arg store.CreateAppointmentParams) (store.Appointment, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (store.Appointment, error)
	ListAppointments(ctx context.Context, arg store.ListAppointmentsParams) ([]store.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status store.AppointmentStatus) (store.Appointment, error)
	CountUpcomingAppointments(ctx context.Context, branchID *uuid.UUID, now time.Time) (int64, error)
}

// Customers resolves the customer being booked.
type Customers interface {
	Get(ctx context.Context, id uuid.UUID) (store.Customer, error)
}

// Catalog resolves the booked service.
type Catalog interface {
	Get(ctx context.Context, id uuid.UUID) (catalog.Item, error)
}

// Notifier emits events with an inbox notice.
type Notifier interface {
	EmitNotice(ctx context.Context, topic string, aggregateID uuid.UUID, notice events.Notice, data any) (store.DomainEvent, error)
}

// Service manages appointments.
type Service struct {
	Q         Querier
	Customers Customers
	Catalog   Catalog
	Events    Notifier
	Logger    *zerolog.Logger
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ParseStatus maps a client value onto a known status.
func ParseStatus(v string) (store.AppointmentStatus, bool) {
	switch st := store.AppointmentStatus(strings.TrimSpace(v)); st {
	case store.AppointmentConfirmed, store.AppointmentCompleted, store.AppointmentCancelled, store.AppointmentNoShow:
		return st, true
	}
	return "", false
}

// BookInput describes a new appointment.
type BookInput struct {
	BranchID    *uuid.UUID
	CustomerID  uuid.UUID
	ServiceID   uuid.UUID
	StaffID     *uuid.UUID
	ScheduledAt time.Time
	Notes       string
}

// Book creates a Confirmed appointment. Duration comes from the service.
func (s *Service) Book(ctx context.Context, in BookInput) (store.Appointment, error) {
	if s == nil || s.Q == nil || s.Customers == nil || s.Catalog == nil {
		return store.Appointment{}, errors.New("appointment service not configured")
	}
	if in.ScheduledAt.IsZero() || in.ScheduledAt.Before(s.now()) {
		return store.Appointment{}, fmt.Errorf("scheduledAt must be in the future: %w", ErrInvalidInput)
	}
	cust, err := s.Customers.Get(ctx, in.CustomerID)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return store.Appointment{}, fmt.Errorf("unknown customer: %w", ErrInvalidInput)
		}
		return store.Appointment{}, err
	}
	svc, err := s.Catalog.Get(ctx, in.ServiceID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return store.Appointment{}, fmt.Errorf("unknown service: %w", ErrInvalidInput)
		}
		return store.Appointment{}, err
	}
	if !svc.IsActive {
		return store.Appointment{}, fmt.Errorf("service %q is not offered: %w", svc.Name, ErrInvalidInput)
	}
	appt, err := s.Q.CreateAppointment(ctx, store.CreateAppointmentParams{
		BranchID:        in.BranchID,
		CustomerID:      cust.ID,
		ServiceID:       svc.ID,
		StaffID:         in.StaffID,
		ScheduledAt:     in.ScheduledAt,
		DurationMinutes: svc.DurationMinutes,
		Notes:           strings.TrimSpace(in.Notes),
	})
	if err != nil {
		return store.Appointment{}, err
	}
	s.emit(ctx, events.TopicAppointmentBooked, appt, events.Notice{
		Title:         "New Appointment Booked",
		Message:       fmt.Sprintf("%s booked %s for %s", cust.Name, svc.Name, appt.ScheduledAt.Format("2006-01-02")),
		Kind:          "info",
		Priority:      events.PriorityMedium,
		BranchID:      appt.BranchID,
		RelatedEntity: "appointment",
	})
	return appt, nil
}

// ListParams filters appointments. A zero range means the next 7 days.
type ListParams struct {
	BranchID *uuid.UUID
	Status   string
	From     time.Time
	To       time.Time
}

// List returns appointments ordered by time.
func (s *Service) List(ctx context.Context, p ListParams) ([]store.Appointment, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("appointment service not configured")
	}
	if p.Status != "" {
		if _, ok := ParseStatus(p.Status); !ok {
			return nil, fmt.Errorf("unknown status %q: %w", p.Status, ErrInvalidInput)
		}
	}
	if p.From.IsZero() {
		y, m, d := s.now().Date()
		p.From = time.Date(y, m, d, 0, 0, 0, 0, s.now().Location())
	}
	if p.To.IsZero() {
		p.To = p.From.AddDate(0, 0, 7)
	}
	items, err := s.Q.ListAppointments(ctx, store.ListAppointmentsParams{
		BranchID: p.BranchID, Status: p.Status, From: p.From, To: p.To,
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []store.Appointment{}
	}
	return items, nil
}

// UpdateStatus moves a Confirmed appointment to another status.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (store.Appointment, error) {
	if s == nil || s.Q == nil {
		return store.Appointment{}, errors.New("appointment service not configured")
	}
	next, ok := ParseStatus(status)
	if !ok {
		return store.Appointment{}, fmt.Errorf("unknown status %q: %w", status, ErrInvalidInput)
	}
	cur, err := s.Q.GetAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Appointment{}, ErrNotFound
		}
		return store.Appointment{}, err
	}
	if cur.Status == next {
		return cur, nil
	}
	if cur.Status != store.AppointmentConfirmed {
		return store.Appointment{}, ErrInvalidTransition
	}
	appt, err := s.Q.UpdateAppointmentStatus(ctx, id, next)
	if err != nil {
		return store.Appointment{}, err
	}
	s.emit(ctx, events.TopicAppointmentUpdated, appt, events.Notice{
		Title:         "Appointment " + string(next),
		Message:       fmt.Sprintf("Appointment on %s is now %s", appt.ScheduledAt.Format("2006-01-02 15:04"), next),
		Kind:          "info",
		Priority:      events.PriorityLow,
		BranchID:      appt.BranchID,
		RelatedEntity: "appointment",
	})
	return appt, nil
}

// Upcoming counts Confirmed appointments from now on.
func (s *Service) Upcoming(ctx context.Context, branchID *uuid.UUID) (int64, error) {
	if s == nil || s.Q == nil {
		return 0, errors.New("appointment service not configured")
	}
	return s.Q.CountUpcomingAppointments(ctx, branchID, s.now())
}

func (s *Service) emit(ctx context.Context, topic string, appt store.Appointment, notice events.Notice) {
	if s.Events == nil {
		return
	}
	if _, err := s.Events.EmitNotice(ctx, topic, appt.ID, notice, appt); err != nil && s.Logger != nil {
		s.Logger.Warn().Err(err).Str("appointment", appt.ID.String()).Str("topic", topic).Msg("emit appointment event failed")
	}
}
