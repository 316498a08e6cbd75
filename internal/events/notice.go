package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-salon/internal/store"
)

// Priorities understood by the inbox.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Notice is the human-facing part of an event: what a cashier sees in the
// notification inbox.
type Notice struct {
	Title         string     `json:"title"`
	Message       string     `json:"message"`
	Kind          string     `json:"type"`
	Priority      string     `json:"priority"`
	BranchID      *uuid.UUID `json:"branchId,omitempty"`
	RelatedEntity string     `json:"relatedEntity,omitempty"`
}

// Envelope is the payload shape used by EmitNotice.
type Envelope struct {
	Notice *Notice `json:"notice,omitempty"`
	Data   any     `json:"data,omitempty"`
}

// EmitNotice emits an event carrying both a notice and structured data.
func (b *Bus) EmitNotice(ctx context.Context, topic string, aggregateID uuid.UUID, notice Notice, data any) (store.DomainEvent, error) {
	if notice.Priority == "" {
		notice.Priority = PriorityLow
	}
	if notice.Kind == "" {
		notice.Kind = "info"
	}
	return b.Emit(ctx, topic, aggregateID, Envelope{Notice: &notice, Data: data})
}

// DecodeNotice extracts the notice from an event payload, if any.
func DecodeNotice(ev store.DomainEvent) (Notice, bool) {
	var env struct {
		Notice *Notice `json:"notice"`
	}
	if err := json.Unmarshal(ev.Payload, &env); err != nil || env.Notice == nil {
		return Notice{}, false
	}
	return *env.Notice, true
}

// DecodeData unmarshals the data part of an envelope payload into dst.
func DecodeData(ev store.DomainEvent, dst any) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(ev.Payload, &env); err != nil {
		return err
	}
	if len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, dst)
}
