package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/dedilute/catalog-backend/entity"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return NewRepository(db)
}

func seedAsset(t *testing.T, repo *Repository, entityID int64, purpose entity.Purpose, order int) *entity.Asset {
	t.Helper()
	a := &entity.Asset{
		EntityType: "product",
		EntityID:   entityID,
		Purpose:    purpose,
		URL:        "/api/media/file/k",
		StorageKey: "k",
		Kind:       entity.MediaKindImage,
		MimeType:   "image/png",
		SortOrder:  order,
	}
	require.NoError(t, repo.AssetRepo.Create(context.Background(), a))
	return a
}

func TestAssetListOrderedBySortOrderThenID(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	third := seedAsset(t, repo, 1, entity.PurposeGallery, 2)
	first := seedAsset(t, repo, 1, entity.PurposeGallery, 0)
	second := seedAsset(t, repo, 1, entity.PurposeVideo, 0)
	seedAsset(t, repo, 2, entity.PurposeGallery, 0)

	all, err := repo.AssetRepo.ListByEntity(ctx, "product", 1, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{first.ID, second.ID, third.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	gallery, err := repo.AssetRepo.ListByEntity(ctx, "product", 1, entity.PurposeGallery)
	require.NoError(t, err)
	assert.Len(t, gallery, 2)
}

func TestAssetMaxSortOrder(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	max, err := repo.AssetRepo.MaxSortOrder(ctx, "product", 1)
	require.NoError(t, err)
	assert.Equal(t, -1, max)

	seedAsset(t, repo, 1, entity.PurposeGallery, 4)
	seedAsset(t, repo, 1, entity.PurposeGallery, 7)

	max, err = repo.AssetRepo.MaxSortOrder(ctx, "product", 1)
	require.NoError(t, err)
	assert.Equal(t, 7, max)
}

func TestAssetDeleteByIDMissing(t *testing.T) {
	repo := newTestRepository(t)

	err := repo.AssetRepo.DeleteByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssetDeleteByEntityReturnsRows(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	seedAsset(t, repo, 42, entity.PurposeThumbnail, 0)
	seedAsset(t, repo, 42, entity.PurposeGallery, 1)
	seedAsset(t, repo, 43, entity.PurposeGallery, 0)

	deleted, err := repo.AssetRepo.DeleteByEntity(ctx, "product", 42, entity.PurposeThumbnail)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, entity.PurposeThumbnail, deleted[0].Purpose)

	deleted, err = repo.AssetRepo.DeleteByEntity(ctx, "product", 42, "")
	require.NoError(t, err)
	assert.Len(t, deleted, 1)

	left, err := repo.AssetRepo.ListByEntity(ctx, "product", 43, "")
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestAssetUpdateSortOrder(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	a := seedAsset(t, repo, 1, entity.PurposeGallery, 0)

	n, err := repo.AssetRepo.UpdateSortOrder(ctx, a.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.AssetRepo.UpdateSortOrder(ctx, 12345, 5)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := repo.AssetRepo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.SortOrder)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	err := repo.Transaction(ctx, func(tx *Repository) error {
		seedAsset(t, tx, 1, entity.PurposeGallery, 0)
		return errors.New("put failed")
	})
	require.Error(t, err)

	assets, err := repo.AssetRepo.ListByEntity(ctx, "product", 1, "")
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestTransactionRollsBackOnPanic(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = repo.Transaction(ctx, func(tx *Repository) error {
			seedAsset(t, tx, 1, entity.PurposeGallery, 0)
			panic("boom")
		})
	})

	assets, err := repo.AssetRepo.ListByEntity(ctx, "product", 1, "")
	require.NoError(t, err)
	assert.Empty(t, assets)

	// pool is usable afterwards
	require.NoError(t, repo.Ping(ctx))
}

func TestTransactionCommits(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Transaction(ctx, func(tx *Repository) error {
		seedAsset(t, tx, 1, entity.PurposeGallery, 0)
		return nil
	}))

	assets, err := repo.AssetRepo.ListByEntity(ctx, "product", 1, "")
	require.NoError(t, err)
	assert.Len(t, assets, 1)
}

func TestProductUpdateAndExists(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	p := &entity.Product{Slug: "blue-vase", Name: "Blue vase", Price: 12.5, IsActive: true}
	require.NoError(t, repo.ProductRepo.Create(ctx, p))

	ok, err := repo.ProductRepo.ExistsByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ProductRepo.ExistsBySlug(ctx, "blue-vase", p.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	updated, err := repo.ProductRepo.Update(ctx, p.ID, map[string]interface{}{"name": "Big blue vase", "is_active": false})
	require.NoError(t, err)
	assert.Equal(t, "Big blue vase", updated.Name)
	assert.False(t, updated.IsActive)

	_, err = repo.ProductRepo.FindActiveBySlug(ctx, "blue-vase")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.ProductRepo.Update(ctx, 9999, map[string]interface{}{"name": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPermissionGrantFillsEmptyRow(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	u := &entity.User{Email: "a@example.com", PasswordHash: "x"}
	require.NoError(t, repo.UserRepo.Create(ctx, u))
	require.NoError(t, repo.PermissionRepo.Create(ctx, &entity.Permission{UserID: u.ID}))

	require.NoError(t, repo.PermissionRepo.Grant(ctx, u.ID, "ADMIN"))
	require.NoError(t, repo.PermissionRepo.Grant(ctx, u.ID, "ADMIN"))

	has, err := repo.PermissionRepo.HasPermission(ctx, u.ID, "ADMIN")
	require.NoError(t, err)
	assert.True(t, has)

	var rows int64
	require.NoError(t, repo.db.Model(&entity.Permission{}).Where("user_id = ?", u.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	n, err := repo.PermissionRepo.Revoke(ctx, u.ID, "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSettingUpsert(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SettingRepo.Upsert(ctx, &entity.Setting{Key: "title", Value: "Shop", Type: "text", Lang: "en"}))
	require.NoError(t, repo.SettingRepo.Upsert(ctx, &entity.Setting{Key: "title", Value: "Boutique", Type: "text", Lang: "en"}))
	require.NoError(t, repo.SettingRepo.Upsert(ctx, &entity.Setting{Key: "about", Value: "Hi", Type: "html", Lang: "en"}))
	require.NoError(t, repo.SettingRepo.Upsert(ctx, &entity.Setting{Key: "title", Value: "Laden", Type: "text", Lang: "de"}))

	settings, err := repo.SettingRepo.ListByLang(ctx, "en")
	require.NoError(t, err)
	require.Len(t, settings, 2)
	assert.Equal(t, "about", settings[0].Key)
	assert.Equal(t, "Boutique", settings[1].Value)
}
