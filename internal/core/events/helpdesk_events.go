package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeTicketCreated       = "ticket.created"
	EventTypeTicketStatusChanged = "ticket.status_changed"
	EventTypeUserRegistered      = "user.registered"
	EventTypeUserCreated         = "user.created"
	EventTypeUserUpdated         = "user.updated"
	EventTypeUserDeleted         = "user.deleted"
)

// TicketSnapshot is the ticket state captured when an event is raised, including the owner's
// contact details so that handlers never have to reload the ticket.
type TicketSnapshot struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Priority        string `json:"priority"`
	Status          string `json:"status"`
	OwnerID         string `json:"owner_id"`
	OwnerName       string `json:"owner_name"`
	OwnerEmail      string `json:"owner_email"`
	OwnerDepartment string `json:"owner_department"`
}

type TicketCreatedEvent struct {
	BaseEvent
	Ticket TicketSnapshot `json:"ticket"`
}

func NewTicketCreatedEvent(t TicketSnapshot) *TicketCreatedEvent {
	return &TicketCreatedEvent{
		BaseEvent: newBaseEvent(EventTypeTicketCreated, map[string]interface{}{
			"ticket_id": t.ID,
			"owner_id":  t.OwnerID,
			"priority":  t.Priority,
		}),
		Ticket: t,
	}
}

type TicketStatusChangedEvent struct {
	BaseEvent
	Ticket         TicketSnapshot `json:"ticket"`
	PreviousStatus string         `json:"previous_status"`
}

// StatusChanged reports whether the update moved the ticket to a different status.
func (e *TicketStatusChangedEvent) StatusChanged() bool {
	return e.PreviousStatus != e.Ticket.Status
}

func NewTicketStatusChangedEvent(t TicketSnapshot, previousStatus string) *TicketStatusChangedEvent {
	return &TicketStatusChangedEvent{
		BaseEvent: newBaseEvent(EventTypeTicketStatusChanged, map[string]interface{}{
			"ticket_id":       t.ID,
			"status":          t.Status,
			"previous_status": previousStatus,
		}),
		Ticket:         t,
		PreviousStatus: previousStatus,
	}
}

type UserRegisteredEvent struct {
	BaseEvent
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

func NewUserRegisteredEvent(userID, name, email, department string) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseEvent: newBaseEvent(EventTypeUserRegistered, map[string]interface{}{
			"user_id": userID,
		}),
		UserID:     userID,
		Name:       name,
		Email:      email,
		Department: department,
	}
}

// UserChangedEvent covers administrative creation, edits and deletion of accounts.
type UserChangedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
}

func NewUserChangedEvent(eventType, userID string) *UserChangedEvent {
	return &UserChangedEvent{
		BaseEvent: newBaseEvent(eventType, map[string]interface{}{
			"user_id": userID,
		}),
		UserID: userID,
	}
}

func newBaseEvent(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}
