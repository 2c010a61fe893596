package ticket

import (
	"fmt"
	"strings"
	"time"

	ticketDatamodel "github.com/frahmantamala/it-helpdesk/internal/core/datamodel/ticket"
	"github.com/frahmantamala/it-helpdesk/internal/core/events"
)

type Priority string

const (
	PriorityNormal Priority = "NORMAL"
	PriorityUrgent Priority = "URGENT"
)

func ParsePriority(s string) (Priority, bool) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	return p, p.Valid()
}

func (p Priority) Valid() bool {
	return p == PriorityNormal || p == PriorityUrgent
}

// Rank orders priorities for the queue; a higher rank is served first.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 1
	default:
		return 0
	}
}

type Status string

const (
	StatusRequested  Status = "REQUESTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}

func (s Status) Valid() bool {
	return s == StatusRequested || s == StatusInProgress || s == StatusCompleted
}

func (s Status) step() int {
	switch s {
	case StatusInProgress:
		return 1
	case StatusCompleted:
		return 2
	default:
		return 0
	}
}

// CanTransitionTo reports whether next is reachable from s. Tickets only move forward;
// staying on the same status is allowed so the estimate can be edited.
func (s Status) CanTransitionTo(next Status) bool {
	return next.Valid() && next.step() >= s.step()
}

// NotifiesOwner reports whether entering this status warrants an e-mail to the ticket owner.
func (s Status) NotifiesOwner() bool {
	return s == StatusInProgress || s == StatusCompleted
}

// Date is a calendar day, stored and rendered without any time-of-day or zone shift.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("date %q must use the YYYY-MM-DD format", s)
	}
	return DateOf(t), nil
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns the day at midnight UTC, the representation handed to the database.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	parsed, err := ParseDate(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Owner is the public summary of the account that opened a ticket.
type Owner struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

type Ticket struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	Priority            Priority   `json:"priority"`
	Status              Status     `json:"status"`
	OwnerID             string     `json:"ownerId"`
	Owner               *Owner     `json:"owner,omitempty"`
	EstimatedCompletion *Date      `json:"estimatedCompletion"`
	CompletedAt         *time.Time `json:"completedAt"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// ApplyStatus moves the ticket to next, keeping completedAt in step with the COMPLETED status.
// A ticket that is already completed keeps its original completion time.
func (t *Ticket) ApplyStatus(next Status, now time.Time) error {
	if !t.Status.CanTransitionTo(next) {
		return ErrInvalidStatusTransition
	}
	if next == StatusCompleted {
		if t.Status != StatusCompleted || t.CompletedAt == nil {
			completedAt := now
			t.CompletedAt = &completedAt
		}
	} else {
		t.CompletedAt = nil
	}
	t.Status = next
	t.UpdatedAt = now
	return nil
}

// ShortRef is the human friendly reference used in e-mail subjects.
func ShortRef(id string) string {
	if len(id) <= 5 {
		return id
	}
	return id[len(id)-5:]
}

func (t *Ticket) Snapshot() events.TicketSnapshot {
	s := events.TicketSnapshot{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		OwnerID:     t.OwnerID,
	}
	if t.Owner != nil {
		s.OwnerName = t.Owner.Name
		s.OwnerEmail = t.Owner.Email
		s.OwnerDepartment = t.Owner.Department
	}
	return s
}

func ToDataModel(t *Ticket) *ticketDatamodel.Ticket {
	m := &ticketDatamodel.Ticket{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		OwnerID:     t.OwnerID,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.EstimatedCompletion != nil {
		day := t.EstimatedCompletion.Time()
		m.EstimatedCompletion = &day
	}
	return m
}

func FromDataModel(m *ticketDatamodel.Ticket) *Ticket {
	t := &Ticket{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Priority:    Priority(m.Priority),
		Status:      Status(m.Status),
		OwnerID:     m.OwnerID,
		CompletedAt: m.CompletedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.EstimatedCompletion != nil {
		day := DateOf(*m.EstimatedCompletion)
		t.EstimatedCompletion = &day
	}
	if m.Owner != nil {
		t.Owner = &Owner{
			Name:       m.Owner.Name,
			Email:      m.Owner.Email,
			Department: m.Owner.Department,
		}
	}
	return t
}

func FromDataModelSlice(models []*ticketDatamodel.Ticket) []*Ticket {
	result := make([]*Ticket, len(models))
	for i, m := range models {
		result[i] = FromDataModel(m)
	}
	return result
}
