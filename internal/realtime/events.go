package realtime

import (
	"context"

	"github.com/frahmantamala/it-helpdesk/internal/core/events"
)

type EventSubscriber interface {
	Subscribe(handler events.Handler, eventTypes ...string)
}

// topicsByEvent maps domain events to the lists they invalidate. Deleting a user also removes
// their tickets.
var topicsByEvent = map[string][]Topic{
	events.EventTypeTicketCreated:       {TopicTickets},
	events.EventTypeTicketStatusChanged: {TopicTickets},
	events.EventTypeUserRegistered:      {TopicUsers},
	events.EventTypeUserCreated:         {TopicUsers},
	events.EventTypeUserUpdated:         {TopicUsers},
	events.EventTypeUserDeleted:         {TopicUsers, TopicTickets},
}

func TopicsFor(eventType string) []Topic {
	return topicsByEvent[eventType]
}

// RegisterEventHandlers broadcasts a refresh signal for every domain event that changes a list.
func RegisterEventHandlers(bus EventSubscriber, hub *Hub) {
	handler := func(ctx context.Context, event events.Event) error {
		var firstErr error
		for _, topic := range TopicsFor(event.EventType()) {
			if err := hub.Publish(ctx, topic); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	eventTypes := make([]string, 0, len(topicsByEvent))
	for eventType := range topicsByEvent {
		eventTypes = append(eventTypes, eventType)
	}
	bus.Subscribe(handler, eventTypes...)
}
