// Package events publishes ledger change notifications.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mmynk/settleup/internal/money"
)

// Event types. They double as AMQP routing keys.
const (
	ExpenseLogged   = "expense.logged"
	PaymentRecorded = "payment.recorded"
	MemberAdded     = "member.added"
	MemberRemoved   = "member.removed"
)

// Event is a lightweight notification that a group's ledger changed.
// Consumers fetch the full record through the API if they need it.
type Event struct {
	Type       string       `json:"type"`
	GroupID    string       `json:"groupId"`
	EntityID   string       `json:"entityId"`
	ActorID    string       `json:"actorId,omitempty"`
	Amount     money.Amount `json:"amount,omitempty"`
	OccurredAt time.Time    `json:"occurredAt"`
}

// New builds an event stamped with the current time.
func New(typ, groupID, entityID, actorID string) Event {
	return Event{
		Type:       typ,
		GroupID:    groupID,
		EntityID:   entityID,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
