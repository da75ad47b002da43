package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dedilute/catalog-backend/entity"
	"github.com/dedilute/catalog-backend/infra"
	"github.com/dedilute/catalog-backend/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PurgeQueue schedules an object delete for later. *produce.ObjectPurgeService
// satisfies it.
type PurgeQueue interface {
	PublishObjectPurge(ctx context.Context, storageKey, reason string) error
}

type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

type UploadRequest struct {
	EntityType string
	EntityID   int64
	Purpose    entity.Purpose
	Replace    bool
	Files      []UploadFile
}

// SortItem keeps id and sort_order raw so one malformed entry does not reject
// the whole batch at decode time.
type SortItem struct {
	ID        json.RawMessage `json:"id"`
	SortOrder json.RawMessage `json:"sort_order"`
}

type MediaConfig struct {
	Layout   KeyLayout
	MaxFiles int
}

type MediaService struct {
	repo   *repository.Repository
	store  infra.ObjectStore
	cache  *CacheInvalidator
	purge  PurgeQueue
	owners OwnerRegistry
	logger *infra.LoggerClient
	cfg    MediaConfig

	uploaded    metric.Int64Counter
	deleted     metric.Int64Counter
	purgeFailed metric.Int64Counter
}

// NewMediaService wires the media workflow. store may be nil when storage is
// not configured and purge may be nil when no queue is available.
func NewMediaService(
	repo *repository.Repository,
	store infra.ObjectStore,
	cache *CacheInvalidator,
	purge PurgeQueue,
	owners OwnerRegistry,
	logger *infra.LoggerClient,
	cfg MediaConfig,
) *MediaService {
	meter := otel.Meter("github.com/dedilute/catalog-backend/service")
	uploaded, _ := meter.Int64Counter("media.assets.uploaded", metric.WithDescription("Assets stored by upload"))
	deleted, _ := meter.Int64Counter("media.assets.deleted", metric.WithDescription("Asset rows removed"))
	purgeFailed, _ := meter.Int64Counter("media.objects.purge_failed", metric.WithDescription("Object deletes that failed inline"))

	if owners == nil {
		owners = DefaultOwnerRegistry()
	}
	if logger == nil {
		logger = infra.NewNopLogger()
	}

	return &MediaService{
		repo:        repo,
		store:       store,
		cache:       cache,
		purge:       purge,
		owners:      owners,
		logger:      logger,
		cfg:         cfg,
		uploaded:    uploaded,
		deleted:     deleted,
		purgeFailed: purgeFailed,
	}
}

func (s *MediaService) Layout() KeyLayout {
	return s.cfg.Layout
}

// Upload stores files for one entity and returns the created rows in upload
// order. Each file is one transaction: the row is inserted, then the object
// is written, and a failed write rolls the row back. The batch stops at the
// first failing file; rows created before it are returned with the error.
func (s *MediaService) Upload(ctx context.Context, req UploadRequest) ([]entity.Asset, error) {
	kind, ok := s.owners.Lookup(req.EntityType)
	if !ok {
		return nil, ErrInvalidEntityType
	}
	if req.EntityID <= 0 {
		return nil, ErrInvalidEntityID
	}
	if !req.Purpose.Valid() {
		return nil, ErrInvalidPurpose
	}
	if len(req.Files) == 0 {
		return nil, ErrNoFilesProvided
	}
	if s.cfg.MaxFiles > 0 && len(req.Files) > s.cfg.MaxFiles {
		return nil, ErrTooManyFiles
	}
	for _, f := range req.Files {
		if !SupportedMime(f.ContentType) {
			return nil, fmt.Errorf("%s: %w", f.Name, ErrUnsupportedFileType)
		}
	}
	if s.store == nil {
		return nil, ErrStorageMisconfigured
	}

	exists, err := kind.Exists(ctx, s.repo, req.EntityID)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s %d: %w", kind.Name, req.EntityID, err)
	}
	if !exists {
		return nil, ErrEntityNotFound
	}

	files := req.Files
	isThumbnail := req.Purpose == entity.PurposeThumbnail
	if isThumbnail {
		// a thumbnail is a single asset; extra files are ignored
		files = files[:1]
	}

	next := 0
	if !isThumbnail {
		highest, err := s.repo.AssetRepo.MaxSortOrder(ctx, kind.Name, req.EntityID)
		if err != nil {
			return nil, fmt.Errorf("failed to read sort order: %w", err)
		}
		next = highest + 1
	}

	var (
		created  []entity.Asset
		replaced []entity.Asset
	)
	for i, f := range files {
		asset := entity.Asset{
			EntityType: kind.Name,
			EntityID:   req.EntityID,
			Purpose:    req.Purpose,
			Kind:       KindForMime(f.ContentType),
			MimeType:   f.ContentType,
			SortOrder:  next,
		}
		asset.StorageKey = s.cfg.Layout.NewKey(kind.Name, req.EntityID, req.Purpose, f.Name)
		asset.URL = s.cfg.Layout.URLFor(asset.StorageKey)

		replace := isThumbnail && req.Replace && i == 0
		err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			if replace {
				old, err := tx.AssetRepo.DeleteByEntity(ctx, kind.Name, req.EntityID, entity.PurposeThumbnail)
				if err != nil {
					return fmt.Errorf("failed to remove previous thumbnail: %w", err)
				}
				replaced = old
			}
			if err := tx.AssetRepo.Create(ctx, &asset); err != nil {
				return fmt.Errorf("failed to record asset: %w", err)
			}
			return s.putObject(ctx, asset.StorageKey, f)
		})
		if err != nil {
			replaced = nil
			s.logger.ErrorWithContextf(ctx, err, "[Media] Upload of %s for %s %d failed after %d file(s)", f.Name, kind.Name, req.EntityID, len(created))
			s.afterMutation(ctx, kind.CachePrefix, len(created) > 0)
			return created, err
		}

		created = append(created, asset)
		if !isThumbnail {
			next++
		}
	}

	if len(replaced) > 0 {
		s.deleted.Add(ctx, int64(len(replaced)), metric.WithAttributes(attribute.String("purpose", string(entity.PurposeThumbnail))))
		s.removeObjects(ctx, replaced, "thumbnail replaced")
	}

	s.uploaded.Add(ctx, int64(len(created)), metric.WithAttributes(attribute.String("purpose", string(req.Purpose))))
	s.logger.InfoWithContextf(ctx, "[Media] Uploaded %d %s asset(s) for %s %d", len(created), req.Purpose, kind.Name, req.EntityID)
	s.afterMutation(ctx, kind.CachePrefix, true)
	return created, nil
}

func (s *MediaService) putObject(ctx context.Context, key string, f UploadFile) error {
	if f.Open == nil {
		return fmt.Errorf("%s: no content", f.Name)
	}
	body, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer body.Close()

	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.store.PutObject(ctx, key, body, f.Size, contentType); err != nil {
		return fmt.Errorf("failed to store %s: %w", f.Name, err)
	}
	return nil
}

// Delete removes one asset row, then its object on a best-effort basis.
func (s *MediaService) Delete(ctx context.Context, id int64) (int64, error) {
	if id <= 0 {
		return 0, ErrNotFound
	}

	asset, err := s.repo.AssetRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load asset %d: %w", id, err)
	}

	if err := s.repo.AssetRepo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to delete asset %d: %w", id, err)
	}

	s.deleted.Add(ctx, 1, metric.WithAttributes(attribute.String("purpose", string(asset.Purpose))))
	s.removeObjects(ctx, []entity.Asset{*asset}, "asset deleted")
	s.afterMutation(ctx, s.prefixFor(asset.EntityType), true)
	return id, nil
}

// DeleteByEntity removes every asset of an entity, optionally of one purpose,
// and returns how many rows went away.
func (s *MediaService) DeleteByEntity(ctx context.Context, entityType string, entityID int64, purpose entity.Purpose) (int, error) {
	kind, ok := s.owners.Lookup(entityType)
	if !ok {
		return 0, ErrInvalidEntityType
	}
	if entityID <= 0 {
		return 0, ErrInvalidEntityID
	}
	if purpose != "" && !purpose.Valid() {
		return 0, ErrInvalidPurpose
	}

	var deleted []entity.Asset
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		deleted, err = tx.AssetRepo.DeleteByEntity(ctx, kind.Name, entityID, purpose)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete assets of %s %d: %w", kind.Name, entityID, err)
	}

	if len(deleted) > 0 {
		s.deleted.Add(ctx, int64(len(deleted)))
		s.removeObjects(ctx, deleted, "entity assets deleted")
	}
	s.afterMutation(ctx, kind.CachePrefix, true)
	return len(deleted), nil
}

// Reorder applies every well-formed {id, sort_order} pair and skips the rest.
// It returns the number of rows updated. Concurrent calls are last write wins.
func (s *MediaService) Reorder(ctx context.Context, items []SortItem) (int, error) {
	if len(items) == 0 {
		return 0, ErrNoSortItems
	}

	applied := 0
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		for _, item := range items {
			id, ok := ParseInt(item.ID)
			if !ok || id <= 0 {
				continue
			}
			order, ok := ParseInt(item.SortOrder)
			if !ok {
				continue
			}
			n, err := tx.AssetRepo.UpdateSortOrder(ctx, id, int(order))
			if err != nil {
				return fmt.Errorf("failed to update sort order of %d: %w", id, err)
			}
			if n > 0 {
				applied++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.afterMutation(ctx, "", true)
	return applied, nil
}

// List returns the assets of one entity ordered by sort_order.
func (s *MediaService) List(ctx context.Context, entityType string, entityID int64, purpose entity.Purpose) ([]entity.Asset, error) {
	kind, ok := s.owners.Lookup(entityType)
	if !ok {
		return nil, ErrInvalidEntityType
	}
	if entityID <= 0 {
		return nil, ErrInvalidEntityID
	}
	if purpose != "" && !purpose.Valid() {
		return nil, ErrInvalidPurpose
	}
	assets, err := s.repo.AssetRepo.ListByEntity(ctx, kind.Name, entityID, purpose)
	if err != nil {
		return nil, err
	}
	if assets == nil {
		assets = []entity.Asset{}
	}
	return assets, nil
}

// Fetch opens the object for a caller supplied key, trying the prefixed key
// before the unprefixed one. The caller closes the body.
func (s *MediaService) Fetch(ctx context.Context, rawKey string) (*infra.StoredObject, error) {
	key, err := CleanKey(rawKey)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, ErrStorageMisconfigured
	}

	var lastErr error
	for _, candidate := range s.cfg.Layout.LookupKeys(key) {
		obj, err := s.store.GetObject(ctx, candidate)
		if err == nil {
			return obj, nil
		}
		if !errors.Is(err, infra.ErrObjectNotFound) {
			lastErr = err
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrNotFound
}

// removeObjects deletes backing objects after their rows are gone. Failures
// are logged and queued for the purge worker; they never reach the caller.
func (s *MediaService) removeObjects(ctx context.Context, assets []entity.Asset, reason string) {
	if be := s.deleteObjects(ctx, assets, reason); be != nil {
		s.logger.WarningWithContextf(ctx, "[Media] %v", be)
	}
}

func (s *MediaService) deleteObjects(ctx context.Context, assets []entity.Asset, reason string) *BestEffortError {
	if s.store == nil {
		return nil
	}
	be := &BestEffortError{Op: "object delete"}
	for i := range assets {
		key := s.cfg.Layout.StorageKey(&assets[i])
		if key == "" {
			continue
		}
		err := s.store.DeleteObject(ctx, key)
		if err == nil || errors.Is(err, infra.ErrObjectNotFound) {
			continue
		}
		s.purgeFailed.Add(ctx, 1)
		be.add(fmt.Errorf("%s: %w", key, err))
		if s.purge != nil {
			if qerr := s.purge.PublishObjectPurge(ctx, key, reason); qerr != nil {
				be.add(fmt.Errorf("enqueue purge of %s: %w", key, qerr))
			}
		}
	}
	return be.orNil()
}

// afterMutation invalidates the public cache for prefix, or for every owner
// kind when prefix is empty.
func (s *MediaService) afterMutation(ctx context.Context, prefix string, changed bool) {
	if !changed {
		return
	}
	prefixes := []string{prefix}
	if prefix == "" {
		prefixes = s.owners.CachePrefixes()
	}
	if be := s.cache.Invalidate(ctx, prefixes...); be != nil {
		s.logger.WarningWithContextf(ctx, "[Media] %v", be)
	}
}

func (s *MediaService) prefixFor(entityType string) string {
	if kind, ok := s.owners.Lookup(entityType); ok && kind.CachePrefix != "" {
		return kind.CachePrefix
	}
	return ""
}

// ParseInt accepts a JSON integer or a string holding one.
func ParseInt(raw json.RawMessage) (int64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		raw = []byte(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}
