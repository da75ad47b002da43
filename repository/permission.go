package repository

import (
	"context"

	"github.com/dedilute/catalog-backend/entity"
	"gorm.io/gorm"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) Create(ctx context.Context, permission *entity.Permission) error {
	return r.db.WithContext(ctx).Create(permission).Error
}

func (r *PermissionRepository) HasPermission(ctx context.Context, userID int64, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Permission{}).
		Where("user_id = ? AND name = ?", userID, name).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Grant fills the empty row created at registration, or adds a new row when
// the user has none free. Granting an existing permission is a no-op.
func (r *PermissionRepository) Grant(ctx context.Context, userID int64, name string) error {
	has, err := r.HasPermission(ctx, userID, name)
	if err != nil || has {
		return err
	}

	var free entity.Permission
	err = r.db.WithContext(ctx).Where("user_id = ? AND name IS NULL", userID).Order("id").First(&free).Error
	switch translate(err) {
	case nil:
		return r.db.WithContext(ctx).Model(&free).Update("name", name).Error
	case ErrNotFound:
		return r.Create(ctx, &entity.Permission{UserID: userID, Name: &name})
	default:
		return err
	}
}

// Revoke returns the number of rows removed.
func (r *PermissionRepository) Revoke(ctx context.Context, userID int64, name string) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND name = ?", userID, name).Delete(&entity.Permission{})
	return res.RowsAffected, res.Error
}

func (r *PermissionRepository) ListNames(ctx context.Context, userID int64) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&entity.Permission{}).
		Where("user_id = ? AND name IS NOT NULL", userID).
		Order("name").
		Pluck("name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}
