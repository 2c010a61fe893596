package user

import "time"

type User struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	Name       string `gorm:"column:name;not null"`
	Username   string `gorm:"column:username;uniqueIndex;not null"`
	Email      string `gorm:"column:email;uniqueIndex;not null"`
	Department string `gorm:"column:department;not null"`
	// DepartmentKey is the normalized department, used for equality filters.
	DepartmentKey string    `gorm:"column:department_key;not null;index"`
	PasswordHash  string    `gorm:"column:password_hash;not null"`
	Role          string    `gorm:"column:role;not null;default:USER"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
