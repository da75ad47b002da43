package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/dedilute/catalog-backend/entity"
	"github.com/dedilute/catalog-backend/infra"
	"github.com/dedilute/catalog-backend/repository"
	"gorm.io/datatypes"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrSlugTaken       = errors.New("slug already exists")
	ErrNoFieldsToPatch = errors.New("at least one field is required")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidationError is a client input problem reported as 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

type ProductInput struct {
	Slug        string         `json:"slug"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       *float64       `json:"price"`
	IsActive    *bool          `json:"is_active"`
	Attributes  map[string]any `json:"attributes"`
}

// ProductPatch lists the only columns an update may touch.
type ProductPatch struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Price       *float64       `json:"price"`
	IsActive    *bool          `json:"is_active"`
	Attributes  map[string]any `json:"attributes"`
}

type ProductService struct {
	repo   *repository.Repository
	media  *MediaService
	cache  *CacheInvalidator
	logger *infra.LoggerClient
}

func NewProductService(repo *repository.Repository, media *MediaService, cache *CacheInvalidator, logger *infra.LoggerClient) *ProductService {
	if logger == nil {
		logger = infra.NewNopLogger()
	}
	return &ProductService{repo: repo, media: media, cache: cache, logger: logger}
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*entity.Product, error) {
	in.Slug = strings.TrimSpace(in.Slug)
	in.Name = strings.TrimSpace(in.Name)
	if err := validateSlug(in.Slug); err != nil {
		return nil, err
	}
	if err := validateName(in.Name); err != nil {
		return nil, err
	}
	if in.Price == nil {
		return nil, &ValidationError{Field: "price", Message: "is required"}
	}
	if err := validatePrice(*in.Price); err != nil {
		return nil, err
	}

	taken, err := s.repo.ProductRepo.ExistsBySlug(ctx, in.Slug, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlugTaken
	}

	product := &entity.Product{
		Slug:        in.Slug,
		Name:        in.Name,
		Description: in.Description,
		Price:       *in.Price,
		IsActive:    in.IsActive == nil || *in.IsActive,
		Attributes:  in.Attributes,
	}
	if err := s.repo.ProductRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.invalidate(ctx)
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, id int64, patch ProductPatch) (*entity.Product, error) {
	columns := make(map[string]interface{})
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if err := validateName(name); err != nil {
			return nil, err
		}
		columns["name"] = name
	}
	if patch.Description != nil {
		columns["description"] = *patch.Description
	}
	if patch.Price != nil {
		if err := validatePrice(*patch.Price); err != nil {
			return nil, err
		}
		columns["price"] = *patch.Price
	}
	if patch.IsActive != nil {
		columns["is_active"] = *patch.IsActive
	}
	if patch.Attributes != nil {
		columns["attributes"] = datatypes.JSONMap(patch.Attributes)
	}
	if len(columns) == 0 {
		return nil, ErrNoFieldsToPatch
	}

	product, err := s.repo.ProductRepo.Update(ctx, id, columns)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update product %d: %w", id, err)
	}

	s.invalidate(ctx)
	return product, nil
}

// Delete removes the product row and then all of its media.
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	err := s.repo.ProductRepo.DeleteByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}

	if s.media != nil {
		if n, err := s.media.DeleteByEntity(ctx, OwnerProduct, id, ""); err != nil {
			s.logger.ErrorWithContextf(ctx, err, "[Product] Product %d deleted but its media could not be removed", id)
		} else if n > 0 {
			s.logger.InfoWithContextf(ctx, "[Product] Removed %d media asset(s) of product %d", n, id)
		}
	}

	s.invalidate(ctx)
	return nil
}

func (s *ProductService) Get(ctx context.Context, id int64) (*entity.Product, error) {
	product, err := s.repo.ProductRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return product, err
}

func (s *ProductService) List(ctx context.Context, limit, offset int) ([]entity.Product, error) {
	products, err := s.repo.ProductRepo.List(ctx, false, limit, offset)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []entity.Product{}
	}
	return products, nil
}

// ListPublic returns active products with their thumbnail and ordered media.
func (s *ProductService) ListPublic(ctx context.Context, limit, offset int) ([]entity.PublicProduct, error) {
	products, err := s.repo.ProductRepo.List(ctx, true, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.withMedia(ctx, products)
}

func (s *ProductService) GetPublicBySlug(ctx context.Context, slug string) (*entity.PublicProduct, error) {
	product, err := s.repo.ProductRepo.FindActiveBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	out, err := s.withMedia(ctx, []entity.Product{*product})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *ProductService) withMedia(ctx context.Context, products []entity.Product) ([]entity.PublicProduct, error) {
	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	assets, err := s.repo.AssetRepo.ListByEntities(ctx, OwnerProduct, ids)
	if err != nil {
		return nil, err
	}

	byProduct := make(map[int64][]entity.Asset, len(products))
	for _, a := range assets {
		byProduct[a.EntityID] = append(byProduct[a.EntityID], a)
	}

	out := make([]entity.PublicProduct, len(products))
	for i, p := range products {
		pub := entity.PublicProduct{
			ID:          p.ID,
			Slug:        p.Slug,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Attributes:  p.Attributes,
			Gallery:     []entity.Asset{},
			Videos:      []entity.Asset{},
		}
		for _, a := range byProduct[p.ID] {
			switch a.Purpose {
			case entity.PurposeThumbnail:
				if pub.ThumbnailURL == "" {
					pub.ThumbnailURL = a.URL
				}
			case entity.PurposeGallery:
				pub.Gallery = append(pub.Gallery, a)
			case entity.PurposeVideo:
				pub.Videos = append(pub.Videos, a)
			}
		}
		out[i] = pub
	}
	return out, nil
}

func (s *ProductService) invalidate(ctx context.Context) {
	if be := s.cache.Invalidate(ctx, ProductsPublicCachePrefix); be != nil {
		s.logger.WarningWithContextf(ctx, "[Product] %v", be)
	}
}

func validateSlug(slug string) error {
	if len(slug) < 3 || len(slug) > 50 {
		return &ValidationError{Field: "slug", Message: "must be 3 to 50 characters"}
	}
	if !slugPattern.MatchString(slug) {
		return &ValidationError{Field: "slug", Message: "may only contain lowercase letters, digits and dashes"}
	}
	return nil
}

func validateName(name string) error {
	if n := len([]rune(name)); n < 3 || n > 100 {
		return &ValidationError{Field: "name", Message: "must be 3 to 100 characters"}
	}
	return nil
}

func validatePrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return &ValidationError{Field: "price", Message: "must be a number greater than or equal to 0"}
	}
	if math.Abs(price*100-math.Round(price*100)) > 1e-6 {
		return &ValidationError{Field: "price", Message: "must have at most 2 decimal places"}
	}
	return nil
}
