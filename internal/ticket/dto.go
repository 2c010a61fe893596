package ticket

import (
	"strings"

	"github.com/frahmantamala/it-helpdesk/internal"
	"github.com/frahmantamala/it-helpdesk/internal/core/common/validation"
)

const (
	DefaultHistoryPage  = 1
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

type CreateTicketDTO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

func (dto CreateTicketDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("title", dto.Title).Required().MaxLength(200)
	v.Field("description", dto.Description).Required().MaxLength(5000)
	v.Field("priority", dto.Priority).Required().Custom(func(value interface{}) *internal.AppError {
		if _, ok := ParsePriority(dto.Priority); !ok {
			return internal.NewValidationFieldError("priority", "priority must be NORMAL or URGENT", internal.ErrCodeInvalidPriority)
		}
		return nil
	})
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateStatusDTO struct {
	Status              string  `json:"status"`
	EstimatedCompletion *string `json:"estimatedCompletion,omitempty"`
}

// Parse validates the payload and returns the target status and, when supplied, the estimate.
func (dto UpdateStatusDTO) Parse() (Status, *Date, error) {
	if strings.TrimSpace(dto.Status) == "" {
		return "", nil, internal.NewValidationError("status is required", internal.ErrCodeInvalidStatus)
	}
	status, ok := ParseStatus(dto.Status)
	if !ok {
		return "", nil, internal.NewValidationError("status must be REQUESTED, IN_PROGRESS or COMPLETED", internal.ErrCodeInvalidStatus)
	}
	if dto.EstimatedCompletion == nil || strings.TrimSpace(*dto.EstimatedCompletion) == "" {
		return status, nil, nil
	}
	day, err := ParseDate(*dto.EstimatedCompletion)
	if err != nil {
		return "", nil, newInvalidDateError("estimatedCompletion must use the YYYY-MM-DD format")
	}
	return status, &day, nil
}

// QueueFilter narrows the open-ticket queue. Set fields are combined with AND.
type QueueFilter struct {
	Department string
	Priority   *Priority
}

type HistoryQuery struct {
	Date  DateFilter
	Page  int
	Limit int
}

func (q *HistoryQuery) Normalize() error {
	if q.Page == 0 {
		q.Page = DefaultHistoryPage
	}
	if q.Limit == 0 {
		q.Limit = DefaultHistoryLimit
	}
	if q.Page < 1 {
		return internal.NewValidationError("page must be at least 1", internal.ErrCodeInvalidRequest)
	}
	if q.Limit < 1 || q.Limit > MaxHistoryLimit {
		return internal.NewValidationError("limit must be between 1 and 100", internal.ErrCodeInvalidRequest)
	}
	return nil
}

func (q HistoryQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type HistoryPage struct {
	Tickets []*Ticket `json:"tickets"`
	Total   int64     `json:"total"`
}
