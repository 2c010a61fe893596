package ticket

import (
	"sort"
)

const (
	ITStatusBusy      = "BUSY"
	ITStatusAvailable = "AVAILABLE"
)

// queueLess orders URGENT before NORMAL, then by creation time, then by id so that
// tickets created in the same instant keep a stable order across calls.
func queueLess(a, b *Ticket) bool {
	if a.Priority.Rank() != b.Priority.Rank() {
		return a.Priority.Rank() > b.Priority.Rank()
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// SortQueue orders tickets in service order, in place.
func SortQueue(tickets []*Ticket) {
	sort.SliceStable(tickets, func(i, j int) bool {
		return queueLess(tickets[i], tickets[j])
	})
}

// PositionOf returns the 1-based position of ticketID in an ordered queue, or 0 when absent.
func PositionOf(queue []*Ticket, ticketID string) int {
	for i, t := range queue {
		if t.ID == ticketID {
			return i + 1
		}
	}
	return 0
}

// Head returns the ticket that would be served first, or nil for an empty slice.
func Head(tickets []*Ticket) *Ticket {
	var head *Ticket
	for _, t := range tickets {
		if head == nil || queueLess(t, head) {
			head = t
		}
	}
	return head
}

type AssignedTask struct {
	TicketID string   `json:"ticketId"`
	Title    string   `json:"title"`
	Priority Priority `json:"priority"`
	OwnerID  string   `json:"ownerId"`
}

// Assignment tells whether the IT team is working on something and what.
type Assignment struct {
	Status string        `json:"status"`
	Task   *AssignedTask `json:"task,omitempty"`
}

func AssignmentFor(inProgress []*Ticket) *Assignment {
	current := Head(inProgress)
	if current == nil {
		return &Assignment{Status: ITStatusAvailable}
	}
	return &Assignment{
		Status: ITStatusBusy,
		Task: &AssignedTask{
			TicketID: current.ID,
			Title:    current.Title,
			Priority: current.Priority,
			OwnerID:  current.OwnerID,
		},
	}
}

// QueuePosition is the caller's place in the REQUESTED queue; both fields are null when the
// caller has nothing waiting.
type QueuePosition struct {
	Position    *int    `json:"position"`
	TicketTitle *string `json:"ticketTitle"`
}
