package repository

import (
	"context"
	"errors"

	"github.com/dedilute/catalog-backend/entity"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

type Repository struct {
	db             *gorm.DB
	AssetRepo      *AssetRepository
	ProductRepo    *ProductRepository
	UserRepo       *UserRepository
	PermissionRepo *PermissionRepository
	SettingRepo    *SettingRepository
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:             db,
		AssetRepo:      NewAssetRepository(db),
		ProductRepo:    NewProductRepository(db),
		UserRepo:       NewUserRepository(db),
		PermissionRepo: NewPermissionRepository(db),
		SettingRepo:    NewSettingRepository(db),
	}
}

func (r *Repository) WithTransaction(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction runs fn against repositories bound to one transaction. It
// commits when fn returns nil and rolls back on error or panic; the pooled
// connection is released on every path.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTransaction(tx))
	})
}

// Ping runs SELECT 1.
func (r *Repository) Ping(ctx context.Context) error {
	var one int
	return r.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Permission{},
		&entity.Product{},
		&entity.Asset{},
		&entity.Setting{},
	)
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
