package ticket

import (
	"github.com/frahmantamala/it-helpdesk/internal"
)

var (
	ErrTicketNotFound          = internal.ErrTicketNotFound
	ErrInvalidStatusTransition = internal.ErrInvalidStatusTransition
)

func newInvalidDateError(message string) *internal.AppError {
	return internal.NewValidationError(message, internal.ErrCodeInvalidDate)
}
