package ticket_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/frahmantamala/it-helpdesk/internal"
	"github.com/frahmantamala/it-helpdesk/internal/core/events"
	"github.com/frahmantamala/it-helpdesk/internal/ticket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type mockTicketRepository struct {
	tickets   map[string]*ticket.Ticket
	owners    map[string]*ticket.Owner
	createErr error
	listErr   error
	lastQuery ticket.QueueFilter
	lastPage  [2]int
	window    *ticket.Window
}

func newMockTicketRepository() *mockTicketRepository {
	return &mockTicketRepository{
		tickets: make(map[string]*ticket.Ticket),
		owners:  make(map[string]*ticket.Owner),
	}
}

func (m *mockTicketRepository) withOwner(t *ticket.Ticket) *ticket.Ticket {
	cp := *t
	cp.Owner = m.owners[t.OwnerID]
	return &cp
}

func (m *mockTicketRepository) sorted(keep func(*ticket.Ticket) bool) []*ticket.Ticket {
	var out []*ticket.Ticket
	for _, t := range m.tickets {
		if keep(t) {
			out = append(out, m.withOwner(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *mockTicketRepository) Create(ctx context.Context, t *ticket.Ticket) error {
	if m.createErr != nil {
		return m.createErr
	}
	cp := *t
	m.tickets[t.ID] = &cp
	return nil
}

func (m *mockTicketRepository) GetByID(ctx context.Context, id string) (*ticket.Ticket, error) {
	t, ok := m.tickets[id]
	if !ok {
		return nil, ticket.ErrTicketNotFound
	}
	return m.withOwner(t), nil
}

func (m *mockTicketRepository) ListByOwner(ctx context.Context, ownerID string) ([]*ticket.Ticket, error) {
	out := m.sorted(func(t *ticket.Ticket) bool { return t.OwnerID == ownerID })
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (m *mockTicketRepository) ListOpen(ctx context.Context, filter ticket.QueueFilter) ([]*ticket.Ticket, error) {
	m.lastQuery = filter
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.sorted(func(t *ticket.Ticket) bool {
		if t.Status == ticket.StatusCompleted {
			return false
		}
		return filter.Priority == nil || t.Priority == *filter.Priority
	}), nil
}

func (m *mockTicketRepository) ListByStatus(ctx context.Context, status ticket.Status) ([]*ticket.Ticket, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.sorted(func(t *ticket.Ticket) bool { return t.Status == status }), nil
}

func (m *mockTicketRepository) OldestByOwnerAndStatus(ctx context.Context, ownerID string, status ticket.Status) (*ticket.Ticket, error) {
	out := m.sorted(func(t *ticket.Ticket) bool { return t.OwnerID == ownerID && t.Status == status })
	if len(out) == 0 {
		return nil, ticket.ErrTicketNotFound
	}
	return out[0], nil
}

func (m *mockTicketRepository) UpdateStatus(ctx context.Context, t *ticket.Ticket) error {
	if _, ok := m.tickets[t.ID]; !ok {
		return ticket.ErrTicketNotFound
	}
	cp := *t
	cp.Owner = nil
	m.tickets[t.ID] = &cp
	return nil
}

func (m *mockTicketRepository) ListCompleted(ctx context.Context, window *ticket.Window, limit, offset int) ([]*ticket.Ticket, int64, error) {
	m.window = window
	m.lastPage = [2]int{limit, offset}
	out := m.sorted(func(t *ticket.Ticket) bool {
		return t.Status == ticket.StatusCompleted && (window == nil || window.Contains(*t.CompletedAt))
	})
	total := int64(len(out))
	if offset >= len(out) {
		return []*ticket.Ticket{}, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

var _ = Describe("Ticket Service", func() {
	var (
		ctx       context.Context
		repo      *mockTicketRepository
		publisher *recordingPublisher
		service   *ticket.Service
		now       time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = newMockTicketRepository()
		repo.owners["owner-1"] = &ticket.Owner{Name: "Ana", Email: "ana@example.com", Department: "Finance"}
		repo.owners["owner-2"] = &ticket.Owner{Name: "Bruno", Email: "bruno@example.com", Department: "HR"}
		publisher = &recordingPublisher{}
		now = time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = ticket.NewService(repo, publisher, time.UTC, logger).WithClock(func() time.Time { return now })
	})

	Describe("CreateTicket", func() {
		It("should create a REQUESTED ticket with the owner summary and publish it", func() {
			// When
			t, err := service.CreateTicket(ctx, "owner-1", ticket.CreateTicketDTO{
				Title:       "Laptop will not boot",
				Description: "Black screen after update",
				Priority:    "urgent",
			})

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(t.ID).NotTo(BeEmpty())
			Expect(t.Status).To(Equal(ticket.StatusRequested))
			Expect(t.Priority).To(Equal(ticket.PriorityUrgent))
			Expect(t.Owner).To(Equal(&ticket.Owner{Name: "Ana", Email: "ana@example.com", Department: "Finance"}))
			Expect(t.CompletedAt).To(BeNil())
			Expect(publisher.types()).To(Equal([]string{events.EventTypeTicketCreated}))

			created := publisher.events[0].(*events.TicketCreatedEvent)
			Expect(created.Ticket.OwnerEmail).To(Equal("ana@example.com"))
		})

		It("should reject an unknown priority", func() {
			_, err := service.CreateTicket(ctx, "owner-1", ticket.CreateTicketDTO{
				Title:       "Mouse",
				Description: "Broken",
				Priority:    "HIGH",
			})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidPriority))
			Expect(repo.tickets).To(BeEmpty())
			Expect(publisher.types()).To(BeEmpty())
		})

		It("should reject missing fields", func() {
			_, err := service.CreateTicket(ctx, "owner-1", ticket.CreateTicketDTO{Priority: "NORMAL"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})

		It("should propagate repository failures without publishing", func() {
			repo.createErr = errors.New("connection reset")

			_, err := service.CreateTicket(ctx, "owner-1", ticket.CreateTicketDTO{Title: "a", Description: "b", Priority: "NORMAL"})

			Expect(err).To(MatchError("connection reset"))
			Expect(publisher.types()).To(BeEmpty())
		})
	})

	Describe("UpdateTicketStatus", func() {
		BeforeEach(func() {
			repo.tickets["t1"] = &ticket.Ticket{ID: "t1", Title: "VPN", Status: ticket.StatusRequested, Priority: ticket.PriorityNormal, OwnerID: "owner-1", CreatedAt: now}
		})

		It("should complete a ticket and stamp completedAt", func() {
			t, err := service.UpdateTicketStatus(ctx, "t1", ticket.UpdateStatusDTO{Status: "COMPLETED"})

			Expect(err).NotTo(HaveOccurred())
			Expect(t.Status).To(Equal(ticket.StatusCompleted))
			Expect(t.CompletedAt).NotTo(BeNil())
			Expect(repo.tickets["t1"].CompletedAt).NotTo(BeNil())

			changed := publisher.events[0].(*events.TicketStatusChangedEvent)
			Expect(changed.PreviousStatus).To(Equal("REQUESTED"))
			Expect(changed.Ticket.Status).To(Equal("COMPLETED"))
			Expect(changed.Ticket.OwnerEmail).To(Equal("ana@example.com"))
		})

		It("should store the estimated completion as a calendar date", func() {
			estimate := "2024-03-08"

			t, err := service.UpdateTicketStatus(ctx, "t1", ticket.UpdateStatusDTO{Status: "IN_PROGRESS", EstimatedCompletion: &estimate})

			Expect(err).NotTo(HaveOccurred())
			Expect(t.CompletedAt).To(BeNil())
			Expect(t.EstimatedCompletion.String()).To(Equal("2024-03-08"))
		})

		It("should reject a malformed estimate", func() {
			estimate := "08/03/2024"

			_, err := service.UpdateTicketStatus(ctx, "t1", ticket.UpdateStatusDTO{Status: "IN_PROGRESS", EstimatedCompletion: &estimate})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidDate))
		})

		It("should reject a missing or unknown status", func() {
			_, err := service.UpdateTicketStatus(ctx, "t1", ticket.UpdateStatusDTO{})
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidStatus))

			_, err = service.UpdateTicketStatus(ctx, "t1", ticket.UpdateStatusDTO{Status: "DONE"})
			appErr, _ = internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidStatus))
		})

		It("should return not found for an unknown ticket", func() {
			_, err := service.UpdateTicketStatus(ctx, "missing", ticket.UpdateStatusDTO{Status: "COMPLETED"})

			Expect(err).To(MatchError(ticket.ErrTicketNotFound))
		})

		It("should refuse to move a completed ticket backwards", func() {
			_, err := service.UpdateTicketStatus(ctx, "t1", ticket.UpdateStatusDTO{Status: "COMPLETED"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.UpdateTicketStatus(ctx, "t1", ticket.UpdateStatusDTO{Status: "REQUESTED"})

			Expect(err).To(MatchError(ticket.ErrInvalidStatusTransition))
			Expect(repo.tickets["t1"].Status).To(Equal(ticket.StatusCompleted))
			Expect(publisher.types()).To(HaveLen(1))
		})
	})

	Describe("ListQueueTickets", func() {
		It("should return open tickets in service order", func() {
			repo.tickets["a"] = &ticket.Ticket{ID: "a", Status: ticket.StatusRequested, Priority: ticket.PriorityNormal, OwnerID: "owner-1", CreatedAt: now}
			repo.tickets["b"] = &ticket.Ticket{ID: "b", Status: ticket.StatusInProgress, Priority: ticket.PriorityUrgent, OwnerID: "owner-2", CreatedAt: now.Add(5 * time.Minute)}
			done := now
			repo.tickets["c"] = &ticket.Ticket{ID: "c", Status: ticket.StatusCompleted, Priority: ticket.PriorityUrgent, OwnerID: "owner-2", CreatedAt: now, CompletedAt: &done}

			tickets, err := service.ListQueueTickets(ctx, ticket.QueueFilter{Department: "HR"})

			Expect(err).NotTo(HaveOccurred())
			Expect(ids(tickets)).To(Equal([]string{"b", "a"}))
			Expect(repo.lastQuery.Department).To(Equal("HR"))
		})
	})

	Describe("MyQueuePosition", func() {
		It("should return null fields when the caller has nothing waiting", func() {
			position, err := service.MyQueuePosition(ctx, "owner-1")

			Expect(err).NotTo(HaveOccurred())
			Expect(position.Position).To(BeNil())
			Expect(position.TicketTitle).To(BeNil())
		})

		It("should rank the caller's oldest REQUESTED ticket behind urgent work", func() {
			// Given A 10:00 NORMAL owned by owner-1, B 10:05 URGENT owned by owner-2
			repo.tickets["A"] = &ticket.Ticket{ID: "A", Title: "Keyboard", Status: ticket.StatusRequested, Priority: ticket.PriorityNormal, OwnerID: "owner-1", CreatedAt: now}
			repo.tickets["B"] = &ticket.Ticket{ID: "B", Title: "Email down", Status: ticket.StatusRequested, Priority: ticket.PriorityUrgent, OwnerID: "owner-2", CreatedAt: now.Add(5 * time.Minute)}
			repo.tickets["A2"] = &ticket.Ticket{ID: "A2", Title: "Monitor", Status: ticket.StatusRequested, Priority: ticket.PriorityUrgent, OwnerID: "owner-1", CreatedAt: now.Add(10 * time.Minute)}

			// When
			position, err := service.MyQueuePosition(ctx, "owner-1")

			// Then the oldest ticket A is considered, at position 3
			Expect(err).NotTo(HaveOccurred())
			Expect(*position.Position).To(Equal(3))
			Expect(*position.TicketTitle).To(Equal("Keyboard"))

			position, err = service.MyQueuePosition(ctx, "owner-2")
			Expect(err).NotTo(HaveOccurred())
			Expect(*position.Position).To(Equal(1))
		})
	})

	Describe("CurrentAssignment", func() {
		It("should report the IT team as available when nothing is in progress", func() {
			assignment, err := service.CurrentAssignment(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(assignment.Status).To(Equal(ticket.ITStatusAvailable))
		})

		It("should surface repository errors", func() {
			repo.listErr = errors.New("db gone")

			_, err := service.CurrentAssignment(ctx)

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ListHistory", func() {
		BeforeEach(func() {
			for i, day := range []int{1, 2, 2, 3} {
				completed := time.Date(2024, time.May, day, 15, i, 0, 0, time.UTC)
				id := string(rune('a' + i))
				repo.tickets[id] = &ticket.Ticket{ID: id, Status: ticket.StatusCompleted, OwnerID: "owner-1", CreatedAt: now, CompletedAt: &completed}
			}
		})

		It("should apply defaults and return the total", func() {
			page, err := service.ListHistory(ctx, ticket.HistoryQuery{})

			Expect(err).NotTo(HaveOccurred())
			Expect(page.Total).To(Equal(int64(4)))
			Expect(repo.lastPage).To(Equal([2]int{10, 0}))
			Expect(repo.window).To(BeNil())
		})

		It("should filter by day", func() {
			page, err := service.ListHistory(ctx, ticket.HistoryQuery{
				Date:  ticket.DateFilter{Year: intPtr(2024), Month: intPtr(5), Day: intPtr(2)},
				Page:  1,
				Limit: 1,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(page.Total).To(Equal(int64(2)))
			Expect(page.Tickets).To(HaveLen(1))
		})

		It("should compute the offset from the page", func() {
			_, err := service.ListHistory(ctx, ticket.HistoryQuery{Page: 3, Limit: 20})

			Expect(err).NotTo(HaveOccurred())
			Expect(repo.lastPage).To(Equal([2]int{20, 40}))
		})

		It("should reject an out of range limit and an orphan day", func() {
			_, err := service.ListHistory(ctx, ticket.HistoryQuery{Limit: 101})
			Expect(err).To(HaveOccurred())

			_, err = service.ListHistory(ctx, ticket.HistoryQuery{Date: ticket.DateFilter{Day: intPtr(2)}})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidDate))
		})
	})
})
