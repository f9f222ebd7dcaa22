package sql

import (
	"context"
	"fmt"
	"strings"

	"ows/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertSetting creates or replaces a setting by key.
func (r *GormRepository) UpsertSetting(ctx context.Context, setting *entity.DbSetting) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if setting == nil || strings.TrimSpace(setting.Key) == "" {
		return fmt.Errorf("invalid setting")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "data_type", "description"}),
	}).Create(setting).Error
}

// GetSetting loads a setting by key.
func (r *GormRepository) GetSetting(ctx context.Context, key string) (*entity.DbSetting, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return nil, fmt.Errorf("setting key is empty")
	}
	var setting entity.DbSetting
	if err := r.db.WithContext(ctx).Where("key = ?", trimmed).First(&setting).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

// ListSettings returns all settings ordered by key.
func (r *GormRepository) ListSettings(ctx context.Context) ([]entity.DbSetting, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var settings []entity.DbSetting
	if err := r.db.WithContext(ctx).Order("key ASC").Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

// DeleteSetting removes a setting by key.
func (r *GormRepository) DeleteSetting(ctx context.Context, key string) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return fmt.Errorf("setting key is empty")
	}
	result := r.db.WithContext(ctx).Where("key = ?", trimmed).Delete(&entity.DbSetting{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
