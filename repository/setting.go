package repository

import (
	"context"

	"github.com/dedilute/catalog-backend/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) ListByLang(ctx context.Context, lang string) ([]entity.Setting, error) {
	var settings []entity.Setting
	err := r.db.WithContext(ctx).Where("lang = ?", lang).Order("key ASC").Find(&settings).Error
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// Upsert inserts or overwrites value and type on (key, lang).
func (r *SettingRepository) Upsert(ctx context.Context, setting *entity.Setting) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}, {Name: "lang"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "type", "updated_at"}),
	}).Create(setting).Error
}
