package ticket

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/it-helpdesk/internal/core/events"
)

// Repository interface defines the data access methods for tickets
type Repository interface {
	Create(ctx context.Context, t *Ticket) error
	GetByID(ctx context.Context, id string) (*Ticket, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Ticket, error)
	// ListOpen returns non-completed tickets in creation order.
	ListOpen(ctx context.Context, filter QueueFilter) ([]*Ticket, error)
	// ListByStatus returns tickets in creation order, ties broken by id.
	ListByStatus(ctx context.Context, status Status) ([]*Ticket, error)
	OldestByOwnerAndStatus(ctx context.Context, ownerID string, status Status) (*Ticket, error)
	UpdateStatus(ctx context.Context, t *Ticket) error
	ListCompleted(ctx context.Context, window *Window, limit, offset int) ([]*Ticket, int64, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Service handles ticket business logic
type Service struct {
	repo      Repository
	publisher EventPublisher
	location  *time.Location
	now       func() time.Time
	logger    *slog.Logger
}

// NewService creates a ticket service. loc is the business timezone used for history filters.
func NewService(repo Repository, publisher EventPublisher, loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		location:  loc,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

// WithClock replaces the time source, used by tests that assert on timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) CreateTicket(ctx context.Context, ownerID string, dto CreateTicketDTO) (*Ticket, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Debug("ticket validation failed", "error", err, "owner_id", ownerID)
		return nil, err
	}

	priority, _ := ParsePriority(dto.Priority)
	now := s.now()
	t := &Ticket{
		ID:          uuid.New().String(),
		Title:       dto.Title,
		Description: dto.Description,
		Priority:    priority,
		Status:      StatusRequested,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		s.logger.Error("failed to create ticket", "error", err, "owner_id", ownerID)
		return nil, err
	}

	created, err := s.repo.GetByID(ctx, t.ID)
	if err != nil {
		s.logger.Error("failed to reload created ticket", "error", err, "ticket_id", t.ID)
		return nil, err
	}

	s.logger.Info("ticket created",
		"ticket_id", created.ID,
		"owner_id", ownerID,
		"priority", created.Priority)

	s.publish(ctx, events.NewTicketCreatedEvent(created.Snapshot()))
	return created, nil
}

func (s *Service) ListOwnTickets(ctx context.Context, ownerID string) ([]*Ticket, error) {
	tickets, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list own tickets", "error", err, "owner_id", ownerID)
		return nil, err
	}
	return tickets, nil
}

// ListQueueTickets returns every non-completed ticket in service order.
func (s *Service) ListQueueTickets(ctx context.Context, filter QueueFilter) ([]*Ticket, error) {
	tickets, err := s.repo.ListOpen(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list queue", "error", err)
		return nil, err
	}
	SortQueue(tickets)
	return tickets, nil
}

func (s *Service) UpdateTicketStatus(ctx context.Context, id string, dto UpdateStatusDTO) (*Ticket, error) {
	status, estimate, err := dto.Parse()
	if err != nil {
		return nil, err
	}

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrTicketNotFound) {
			s.logger.Error("failed to load ticket", "error", err, "ticket_id", id)
		}
		return nil, err
	}

	previous := t.Status
	if err := t.ApplyStatus(status, s.now()); err != nil {
		s.logger.Warn("rejected status transition",
			"ticket_id", id,
			"from", previous,
			"to", status)
		return nil, err
	}
	if estimate != nil {
		t.EstimatedCompletion = estimate
	}

	if err := s.repo.UpdateStatus(ctx, t); err != nil {
		s.logger.Error("failed to update ticket status", "error", err, "ticket_id", id)
		return nil, err
	}

	s.logger.Info("ticket status updated",
		"ticket_id", id,
		"from", previous,
		"to", status)

	s.publish(ctx, events.NewTicketStatusChangedEvent(t.Snapshot(), string(previous)))
	return t, nil
}

func (s *Service) ListHistory(ctx context.Context, q HistoryQuery) (*HistoryPage, error) {
	if err := q.Normalize(); err != nil {
		return nil, err
	}
	window, err := DateWindow(q.Date, s.location)
	if err != nil {
		return nil, err
	}

	tickets, total, err := s.repo.ListCompleted(ctx, window, q.Limit, q.Offset())
	if err != nil {
		s.logger.Error("failed to list ticket history", "error", err)
		return nil, err
	}
	return &HistoryPage{Tickets: tickets, Total: total}, nil
}

func (s *Service) CurrentAssignment(ctx context.Context) (*Assignment, error) {
	inProgress, err := s.repo.ListByStatus(ctx, StatusInProgress)
	if err != nil {
		s.logger.Error("failed to load in-progress tickets", "error", err)
		return nil, err
	}
	return AssignmentFor(inProgress), nil
}

// MyQueuePosition locates the caller's oldest REQUESTED ticket in the queue. The answer is
// recomputed on every call and may be stale by the time it is read.
func (s *Service) MyQueuePosition(ctx context.Context, userID string) (*QueuePosition, error) {
	mine, err := s.repo.OldestByOwnerAndStatus(ctx, userID, StatusRequested)
	if err != nil {
		if errors.Is(err, ErrTicketNotFound) {
			return &QueuePosition{}, nil
		}
		s.logger.Error("failed to load caller ticket", "error", err, "user_id", userID)
		return nil, err
	}

	queue, err := s.repo.ListByStatus(ctx, StatusRequested)
	if err != nil {
		s.logger.Error("failed to load queue", "error", err)
		return nil, err
	}
	SortQueue(queue)

	position := PositionOf(queue, mine.ID)
	if position == 0 {
		// the ticket left the queue between the two reads
		return &QueuePosition{}, nil
	}
	title := mine.Title
	return &QueuePosition{Position: &position, TicketTitle: &title}, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
