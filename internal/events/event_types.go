package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/roadguard/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered       EventType = "user.registered"
	EventUserRoleChanged      EventType = "user.role_changed"
	EventProblemCreated       EventType = "problem.created"
	EventProblemStatusChanged EventType = "problem.status_changed"
	EventProblemDeleted       EventType = "problem.deleted"
)

// AllEventTypes lists every event a subscriber can receive.
var AllEventTypes = []EventType{
	EventUserRegistered,
	EventUserRoleChanged,
	EventProblemCreated,
	EventProblemStatusChanged,
	EventProblemDeleted,
}

// Actor identifies the user who caused an event.
type Actor struct {
	UserID string      `json:"user_id,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// ActorOf describes user as an event actor. A nil user yields the zero actor.
func ActorOf(user *domain.User) Actor {
	if user == nil {
		return Actor{}
	}
	return Actor{UserID: user.ID, Role: user.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, subject string, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// UserRoleChangedPayload payload.
type UserRoleChangedPayload struct {
	OldRole domain.Role `json:"old_role"`
	NewRole domain.Role `json:"new_role"`
}

// ProblemCreatedPayload payload.
type ProblemCreatedPayload struct {
	Type            domain.ProblemType `json:"type"`
	Address         string             `json:"address"`
	IsFromInspector bool               `json:"is_from_inspector"`
}

// ProblemStatusChangedPayload payload.
type ProblemStatusChangedPayload struct {
	OldStatus domain.ProblemStatus `json:"old_status"`
	NewStatus domain.ProblemStatus `json:"new_status"`
}

// ProblemDeletedPayload payload.
type ProblemDeletedPayload struct {
	Address string `json:"address"`
}
