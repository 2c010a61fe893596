package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	ticketDatamodel "github.com/frahmantamala/it-helpdesk/internal/core/datamodel/ticket"
	coreUser "github.com/frahmantamala/it-helpdesk/internal/core/user"
	"github.com/frahmantamala/it-helpdesk/internal/ticket"
)

const creationOrder = "tickets.created_at ASC, tickets.id ASC"

// TicketRepository implements the ticket.Repository interface using GORM
type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) ticket.Repository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) Create(ctx context.Context, t *ticket.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket.ToDataModel(t)).Error
}

// GetByID loads a ticket together with its owner summary.
func (r *TicketRepository) GetByID(ctx context.Context, id string) (*ticket.Ticket, error) {
	var m ticketDatamodel.Ticket
	err := r.db.WithContext(ctx).
		Joins("Owner").
		Where("tickets.id = ?", id).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ticket.ErrTicketNotFound
		}
		return nil, err
	}
	return ticket.FromDataModel(&m), nil
}

func (r *TicketRepository) ListByOwner(ctx context.Context, ownerID string) ([]*ticket.Ticket, error) {
	var models []*ticketDatamodel.Ticket
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return ticket.FromDataModelSlice(models), nil
}

// ListOpen filters on the owner's normalized department so that "Recepção" matches "recepcao".
func (r *TicketRepository) ListOpen(ctx context.Context, filter ticket.QueueFilter) ([]*ticket.Ticket, error) {
	query := r.db.WithContext(ctx).Joins("Owner")
	if filter.Department != "" {
		// a department that normalizes to an empty key still filters
		key := coreUser.NormalizeDepartment(filter.Department)
		query = query.Where(clause.Eq{
			Column: clause.Column{Table: "Owner", Name: "department_key"},
			Value:  key,
		})
	}

	query = query.Where("tickets.status <> ?", string(ticket.StatusCompleted))
	if filter.Priority != nil {
		query = query.Where("tickets.priority = ?", string(*filter.Priority))
	}

	var models []*ticketDatamodel.Ticket
	if err := query.Order(creationOrder).Find(&models).Error; err != nil {
		return nil, err
	}
	return ticket.FromDataModelSlice(models), nil
}

func (r *TicketRepository) ListByStatus(ctx context.Context, status ticket.Status) ([]*ticket.Ticket, error) {
	var models []*ticketDatamodel.Ticket
	err := r.db.WithContext(ctx).
		Where("tickets.status = ?", string(status)).
		Order(creationOrder).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return ticket.FromDataModelSlice(models), nil
}

func (r *TicketRepository) OldestByOwnerAndStatus(ctx context.Context, ownerID string, status ticket.Status) (*ticket.Ticket, error) {
	var m ticketDatamodel.Ticket
	err := r.db.WithContext(ctx).
		Where("tickets.owner_id = ? AND tickets.status = ?", ownerID, string(status)).
		Order(creationOrder).
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ticket.ErrTicketNotFound
		}
		return nil, err
	}
	return ticket.FromDataModel(&m), nil
}

// UpdateStatus persists the status machine fields. Nil values are written as NULL.
func (r *TicketRepository) UpdateStatus(ctx context.Context, t *ticket.Ticket) error {
	m := ticket.ToDataModel(t)
	result := r.db.WithContext(ctx).
		Model(&ticketDatamodel.Ticket{}).
		Where("id = ?", t.ID).
		Updates(map[string]interface{}{
			"status":               m.Status,
			"completed_at":         m.CompletedAt,
			"estimated_completion": m.EstimatedCompletion,
			"updated_at":           m.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ticket.ErrTicketNotFound
	}
	return nil
}

// ListCompleted pages through completed tickets, most recently completed first.
func (r *TicketRepository) ListCompleted(ctx context.Context, window *ticket.Window, limit, offset int) ([]*ticket.Ticket, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&ticketDatamodel.Ticket{}).
		Where("tickets.status = ?", string(ticket.StatusCompleted))
	if window != nil {
		base = base.Where("tickets.completed_at >= ? AND tickets.completed_at < ?", window.Start.UTC(), window.End.UTC())
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []*ticketDatamodel.Ticket
	err := base.Session(&gorm.Session{}).
		Joins("Owner").
		Order("tickets.completed_at DESC").
		Order("tickets.id ASC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}
	return ticket.FromDataModelSlice(models), total, nil
}
