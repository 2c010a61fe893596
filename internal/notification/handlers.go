package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/it-helpdesk/internal/core/events"
	"github.com/frahmantamala/it-helpdesk/internal/ticket"
)

type Queue interface {
	Enqueue(msg *Message) bool
}

type EventSubscriber interface {
	Subscribe(handler events.Handler, eventTypes ...string)
}

// EventHandler turns domain events into queued e-mails.
type EventHandler struct {
	queue       Queue
	itTeamEmail string
	logger      *slog.Logger
}

func NewEventHandler(queue Queue, itTeamEmail string, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		queue:       queue,
		itTeamEmail: itTeamEmail,
		logger:      logger,
	}
}

func (h *EventHandler) Register(bus EventSubscriber) {
	bus.Subscribe(h.HandleUserRegistered, events.EventTypeUserRegistered)
	bus.Subscribe(h.HandleTicketCreated, events.EventTypeTicketCreated)
	bus.Subscribe(h.HandleTicketStatusChanged, events.EventTypeTicketStatusChanged)
	h.logger.Info("notification event handlers registered")
}

func (h *EventHandler) HandleUserRegistered(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.UserRegisteredEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", event)
	}
	msg, err := WelcomeMessage(e)
	if err != nil {
		return err
	}
	h.queue.Enqueue(msg)
	return nil
}

func (h *EventHandler) HandleTicketCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.TicketCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", event)
	}

	if e.Ticket.OwnerEmail != "" {
		msg, err := TicketOwnerMessage(e.Ticket)
		if err != nil {
			return err
		}
		h.queue.Enqueue(msg)
	}

	if h.itTeamEmail == "" {
		h.logger.Debug("no IT team address configured, skipping notification", "ticket_id", e.Ticket.ID)
		return nil
	}
	msg, err := TicketITTeamMessage(e.Ticket, h.itTeamEmail)
	if err != nil {
		return err
	}
	h.queue.Enqueue(msg)
	return nil
}

// HandleTicketStatusChanged mails the owner when the ticket actually moved into a status they
// are told about.
func (h *EventHandler) HandleTicketStatusChanged(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.TicketStatusChangedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", event)
	}
	if !e.StatusChanged() || !ticket.Status(e.Ticket.Status).NotifiesOwner() || e.Ticket.OwnerEmail == "" {
		return nil
	}
	msg, err := StatusUpdateMessage(e.Ticket)
	if err != nil {
		return err
	}
	h.queue.Enqueue(msg)
	return nil
}
