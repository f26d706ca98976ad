package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entity names the kind of record a mutation touched.
type Entity string

const (
	EntityGoal        Entity = "goal"
	EntityTransaction Entity = "transaction"
	EntityEnvironment Entity = "environment"
	EntityBalance     Entity = "balance"
	EntityUser        Entity = "user"
)

// Action names what happened to the record.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// MutationEvent is a lightweight notice that the user changed something through the view server.
// It carries ids only; consumers re-read what they need from the finance API.
type MutationEvent struct {
	ID            string    `json:"id"`
	Entity        Entity    `json:"entity"`
	Action        Action    `json:"action"`
	EntityID      string    `json:"entityId,omitempty"`
	EnvironmentID string    `json:"environmentId,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewMutationEvent stamps a new event with a random id and the current time.
func NewMutationEvent(entity Entity, action Action, entityID, environmentID string) *MutationEvent {
	return &MutationEvent{
		ID:            uuid.NewString(),
		Entity:        entity,
		Action:        action,
		EntityID:      entityID,
		EnvironmentID: environmentID,
		Timestamp:     time.Now(),
	}
}

// AffectsTransactions reports whether the event can change the transaction views.
func (m *MutationEvent) AffectsTransactions() bool {
	return m.Entity == EntityTransaction || m.Entity == EntityBalance || m.Entity == EntityEnvironment
}

// ToJSON converts the message to JSON bytes
func (m *MutationEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MutationEventFromJSON creates a message from JSON bytes
func MutationEventFromJSON(data []byte) (*MutationEvent, error) {
	var msg MutationEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
