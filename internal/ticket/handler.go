package ticket

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/it-helpdesk/internal"
	"github.com/frahmantamala/it-helpdesk/internal/transport"
	"github.com/frahmantamala/it-helpdesk/pkg/logger"
)

type ServiceAPI interface {
	CreateTicket(ctx context.Context, ownerID string, dto CreateTicketDTO) (*Ticket, error)
	ListOwnTickets(ctx context.Context, ownerID string) ([]*Ticket, error)
	ListQueueTickets(ctx context.Context, filter QueueFilter) ([]*Ticket, error)
	UpdateTicketStatus(ctx context.Context, id string, dto UpdateStatusDTO) (*Ticket, error)
	ListHistory(ctx context.Context, q HistoryQuery) (*HistoryPage, error)
	CurrentAssignment(ctx context.Context) (*Assignment, error)
	MyQueuePosition(ctx context.Context, userID string) (*QueuePosition, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper()),
		Service:     service,
	}
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*internal.User, bool) {
	user, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrMissingToken)
		return nil, false
	}
	return user, true
}

func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var dto CreateTicketDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	t, err := h.Service.CreateTicket(r.Context(), user.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) ListOwnTickets(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	tickets, err := h.Service.ListOwnTickets(r.Context(), user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, nonNil(tickets))
}

func (h *Handler) MyQueuePosition(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	position, err := h.Service.MyQueuePosition(r.Context(), user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, position)
}

func (h *Handler) ITStatus(w http.ResponseWriter, r *http.Request) {
	assignment, err := h.Service.CurrentAssignment(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, assignment)
}

// ListQueue serves GET /admin/tickets?department=&priority=
func (h *Handler) ListQueue(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := QueueFilter{Department: strings.TrimSpace(query.Get("department"))}

	if raw := strings.TrimSpace(query.Get("priority")); raw != "" {
		priority, ok := ParsePriority(raw)
		if !ok {
			h.WriteAppError(w, internal.NewValidationError("priority must be NORMAL or URGENT", internal.ErrCodeInvalidPriority))
			return
		}
		filter.Priority = &priority
	}

	tickets, err := h.Service.ListQueueTickets(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, nonNil(tickets))
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		h.WriteAppError(w, internal.NewValidationError("ticket id is required", internal.ErrCodeInvalidRequest))
		return
	}

	var dto UpdateStatusDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	t, err := h.Service.UpdateTicketStatus(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}

// ListHistory serves GET /admin/tickets/history?year=&month=&day=&page=&limit=
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var q HistoryQuery
	var err error

	if q.Date.Year, err = optionalInt(query.Get("year")); err != nil {
		h.WriteAppError(w, newInvalidDateError("year must be a number"))
		return
	}
	if q.Date.Month, err = optionalInt(query.Get("month")); err != nil {
		h.WriteAppError(w, newInvalidDateError("month must be a number"))
		return
	}
	if q.Date.Day, err = optionalInt(query.Get("day")); err != nil {
		h.WriteAppError(w, newInvalidDateError("day must be a number"))
		return
	}

	page, err := optionalInt(query.Get("page"))
	if err != nil || (page != nil && *page < 1) {
		h.WriteAppError(w, internal.NewValidationError("page must be a positive number", internal.ErrCodeInvalidRequest))
		return
	}
	if page != nil {
		q.Page = *page
	}

	limit, err := optionalInt(query.Get("limit"))
	if err != nil || (limit != nil && (*limit < 1 || *limit > MaxHistoryLimit)) {
		h.WriteAppError(w, internal.NewValidationError("limit must be between 1 and 100", internal.ErrCodeInvalidRequest))
		return
	}
	if limit != nil {
		q.Limit = *limit
	}

	result, err := h.Service.ListHistory(r.Context(), q)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	result.Tickets = nonNil(result.Tickets)

	h.WriteJSON(w, http.StatusOK, result)
}

func optionalInt(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func nonNil(tickets []*Ticket) []*Ticket {
	if tickets == nil {
		return []*Ticket{}
	}
	return tickets
}
