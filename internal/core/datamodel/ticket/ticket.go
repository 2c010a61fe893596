package ticket

import (
	"time"

	"github.com/frahmantamala/it-helpdesk/internal/core/datamodel/user"
)

type Ticket struct {
	ID                  string     `gorm:"primaryKey;type:varchar(36)"`
	Title               string     `gorm:"column:title;not null"`
	Description         string     `gorm:"column:description;not null"`
	Priority            string     `gorm:"column:priority;not null;default:NORMAL"`
	Status              string     `gorm:"column:status;not null;default:REQUESTED;index"`
	OwnerID             string     `gorm:"column:owner_id;type:varchar(36);not null;index"`
	Owner               *user.User `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	EstimatedCompletion *time.Time `gorm:"column:estimated_completion;type:date"`
	CompletedAt         *time.Time `gorm:"column:completed_at;index"`
	CreatedAt           time.Time  `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Ticket) TableName() string {
	return "tickets"
}
