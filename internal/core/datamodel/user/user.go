package user

import "time"

// User is a tenant-admin account allowed to manage gateway settings.
type User struct {
	ID           int64     `gorm:"primaryKey"`
	SchoolID     string    `gorm:"column:school_id;not null;index"`
	Email        string    `gorm:"column:email;not null;uniqueIndex"`
	Name         string    `gorm:"column:name;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	IsActive     bool      `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time `gorm:"column:updated_at;default:now()"`
}

func (User) TableName() string {
	return "users"
}
