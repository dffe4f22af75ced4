package settings

import "time"

// PaymentSettings is the per-school gateway configuration record.
// Secrets are read on every initiation and callback verification.
type PaymentSettings struct {
	ID         int64     `gorm:"primaryKey"`
	SchoolID   string    `gorm:"column:school_id;not null;uniqueIndex"`
	Provider   string    `gorm:"column:provider"`
	IsEnabled  bool      `gorm:"column:is_enabled;default:false"`
	TestMode   bool      `gorm:"column:test_mode;default:true"`
	MerchantID string    `gorm:"column:merchant_id"`
	AccessCode string    `gorm:"column:access_code"`
	SecretKey  string    `gorm:"column:secret_key"`
	WorkingKey string    `gorm:"column:working_key"`
	SuccessURL string    `gorm:"column:success_url"`
	FailureURL string    `gorm:"column:failure_url"`
	CreatedAt  time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt  time.Time `gorm:"column:updated_at;default:now()"`
}

func (PaymentSettings) TableName() string {
	return "school_payment_settings"
}
