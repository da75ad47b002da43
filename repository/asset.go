package repository

import (
	"context"

	"github.com/dedilute/catalog-backend/entity"
	"gorm.io/gorm"
)

type AssetRepository struct {
	db *gorm.DB
}

func NewAssetRepository(db *gorm.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

func (r *AssetRepository) Create(ctx context.Context, asset *entity.Asset) error {
	return r.db.WithContext(ctx).Create(asset).Error
}

func (r *AssetRepository) FindByID(ctx context.Context, id int64) (*entity.Asset, error) {
	var asset entity.Asset
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&asset).Error
	if err != nil {
		return nil, translate(err)
	}
	return &asset, nil
}

// ListByEntity returns the assets of one entity ordered by sort_order then id.
// An empty purpose matches every purpose.
func (r *AssetRepository) ListByEntity(ctx context.Context, entityType string, entityID int64, purpose entity.Purpose) ([]entity.Asset, error) {
	var assets []entity.Asset
	q := r.db.WithContext(ctx).Where("entity_type = ? AND entity_id = ?", entityType, entityID)
	if purpose != "" {
		q = q.Where("purpose = ?", purpose)
	}
	err := q.Order("sort_order ASC").Order("id ASC").Find(&assets).Error
	if err != nil {
		return nil, err
	}
	return assets, nil
}

// ListByEntities loads the assets of many entities at once, used by listings.
func (r *AssetRepository) ListByEntities(ctx context.Context, entityType string, entityIDs []int64) ([]entity.Asset, error) {
	var assets []entity.Asset
	if len(entityIDs) == 0 {
		return assets, nil
	}
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id IN ?", entityType, entityIDs).
		Order("sort_order ASC").Order("id ASC").
		Find(&assets).Error
	if err != nil {
		return nil, err
	}
	return assets, nil
}

// MaxSortOrder returns -1 when the entity has no assets.
func (r *AssetRepository) MaxSortOrder(ctx context.Context, entityType string, entityID int64) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&entity.Asset{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Select("COALESCE(MAX(sort_order), -1)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max, nil
}

// DeleteByID returns ErrNotFound when no row was removed.
func (r *AssetRepository) DeleteByID(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Asset{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByEntity removes the matching rows and returns them so the caller can
// clean up their objects. An empty purpose matches every purpose. Run it
// inside a transaction to make the select and delete one unit.
func (r *AssetRepository) DeleteByEntity(ctx context.Context, entityType string, entityID int64, purpose entity.Purpose) ([]entity.Asset, error) {
	assets, err := r.ListByEntity(ctx, entityType, entityID, purpose)
	if err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return assets, nil
	}

	ids := make([]int64, len(assets))
	for i, a := range assets {
		ids[i] = a.ID
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&entity.Asset{}).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

// UpdateSortOrder returns the number of rows changed, zero for an unknown id.
func (r *AssetRepository) UpdateSortOrder(ctx context.Context, id int64, sortOrder int) (int64, error) {
	res := r.db.WithContext(ctx).Model(&entity.Asset{}).
		Where("id = ?", id).
		Update("sort_order", sortOrder)
	return res.RowsAffected, res.Error
}
