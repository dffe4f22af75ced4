package postgres

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	settingsmodel "github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/settings"
	settingspkg "github.com/KinzixInfotech/edutemp-sub018/internal/settings"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) settingspkg.RepositoryAPI {
	return &SettingsRepository{
		db: db,
	}
}

func (r *SettingsRepository) GetBySchoolID(schoolID string) (*settingsmodel.PaymentSettings, error) {
	var s settingsmodel.PaymentSettings
	err := r.db.Where("school_id = ?", schoolID).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepository) Upsert(s *settingsmodel.PaymentSettings) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "school_id"}},
		UpdateAll: true,
	}).Create(s).Error
}
