package controller

import (
	"time"

	"github.com/dedilute/catalog-backend/config"
	"github.com/dedilute/catalog-backend/infra"
	"github.com/dedilute/catalog-backend/repository"
	"github.com/dedilute/catalog-backend/service"
)

type Controller struct {
	Config     *config.Config
	Infra      *infra.Infra
	Repository *repository.Repository
	Cache      *service.CacheInvalidator
	Media      *service.MediaService
	Products   *service.ProductService
	StartedAt  time.Time
}

func NewController(config *config.Config, infra *infra.Infra, repo *repository.Repository) *Controller {
	if repo == nil {
		panic("Failed to initialize Repository")
	}

	var cacheStore service.CacheStore
	if infra.Redis != nil {
		cacheStore = infra.Redis
	}
	cache := service.NewCacheInvalidator(cacheStore)

	var purge service.PurgeQueue
	if infra.Produce != nil && infra.Produce.ObjectPurgeService != nil {
		purge = infra.Produce.ObjectPurgeService
	}

	storage := config.EnvConfig.Storage
	media := service.NewMediaService(repo, infra.Storage, cache, purge, nil, infra.Logger, service.MediaConfig{
		Layout:   service.NewKeyLayout(storage.KeyPrefix, storage.PublicBaseURL, storage.ProxyPath),
		MaxFiles: storage.MaxFiles,
	})

	return &Controller{
		Config:     config,
		Infra:      infra,
		Repository: repo,
		Cache:      cache,
		Media:      media,
		Products:   service.NewProductService(repo, media, cache, infra.Logger),
		StartedAt:  time.Now(),
	}
}
