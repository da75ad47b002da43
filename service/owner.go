package service

import (
	"context"
	"sort"

	"github.com/dedilute/catalog-backend/repository"
)

const (
	OwnerProduct = "product"

	ProductsPublicCachePrefix = "products_public:"
	SettingsPublicCachePrefix = "settings_public:"
)

// OwnerKind describes an entity type that can own media assets.
type OwnerKind struct {
	Name string
	// CachePrefix is invalidated whenever assets of this kind change.
	CachePrefix string
	Exists      func(ctx context.Context, repo *repository.Repository, id int64) (bool, error)
}

type OwnerRegistry map[string]OwnerKind

func DefaultOwnerRegistry() OwnerRegistry {
	return OwnerRegistry{
		OwnerProduct: {
			Name:        OwnerProduct,
			CachePrefix: ProductsPublicCachePrefix,
			Exists: func(ctx context.Context, repo *repository.Repository, id int64) (bool, error) {
				return repo.ProductRepo.ExistsByID(ctx, id)
			},
		},
	}
}

func (r OwnerRegistry) Lookup(name string) (OwnerKind, bool) {
	kind, ok := r[name]
	return kind, ok
}

// CachePrefixes returns every distinct prefix in a stable order.
func (r OwnerRegistry) CachePrefixes() []string {
	seen := make(map[string]struct{}, len(r))
	var prefixes []string
	for _, kind := range r {
		if _, ok := seen[kind.CachePrefix]; ok || kind.CachePrefix == "" {
			continue
		}
		seen[kind.CachePrefix] = struct{}{}
		prefixes = append(prefixes, kind.CachePrefix)
	}
	sort.Strings(prefixes)
	return prefixes
}
