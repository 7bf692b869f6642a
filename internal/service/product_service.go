package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "stockpilot/internal/errors"
	"stockpilot/internal/model"
	"stockpilot/internal/repository"
)

const (
	productListCacheTTL = 5 * time.Minute
	// Must outlive productListCacheTTL.
	productGenerationTTL = 24 * time.Hour
)

// ListCache is the cache surface used for product listings. *cache.Client satisfies it.
type ListCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ProductListFilter carries the raw list query parameters.
type ProductListFilter struct {
	Category string
	Search   string
}

// ProductService exposes owner-scoped product operations.
type ProductService interface {
	List(ctx context.Context, ownerID uint, filter ProductListFilter) ([]model.Product, error)
	Create(ctx context.Context, ownerID uint, input ProductInput) (*model.Product, error)
	Get(ctx context.Context, ownerID uint, id string) (*model.Product, error)
	Update(ctx context.Context, ownerID uint, id string, input ProductInput) (*model.Product, error)
	Delete(ctx context.Context, ownerID uint, id string) error
}

type productService struct {
	repo  repository.ProductRepository
	cache ListCache
	log   *zap.Logger
}

// NewProductService builds a ProductService. Listings are cached per owner under
// a random generation that every write replaces.
func NewProductService(repo repository.ProductRepository, cache ListCache, log *zap.Logger) ProductService {
	if log == nil {
		log = zap.NewNop()
	}
	return &productService{repo: repo, cache: cache, log: log}
}

func generationKey(ownerID uint) string {
	return fmt.Sprintf("products:gen:%d", ownerID)
}

func (s *productService) listKey(ctx context.Context, ownerID uint, filter ProductListFilter) string {
	sum := sha256.Sum256([]byte(filter.Category + "\x00" + filter.Search))
	return fmt.Sprintf("products:list:%d:%s:%s", ownerID, s.generation(ctx, ownerID), hex.EncodeToString(sum[:8]))
}

// generation returns the owner's current cache generation, starting a new one
// when the key is missing (first use, expiry or eviction).
func (s *productService) generation(ctx context.Context, ownerID uint) string {
	if data, _ := s.cache.Get(ctx, generationKey(ownerID)); data != nil {
		return string(data)
	}
	return s.invalidate(ctx, ownerID)
}

// invalidate moves the owner to a fresh generation. Generations are random and
// never reused, so a lost generation key cannot revive an older listing.
func (s *productService) invalidate(ctx context.Context, ownerID uint) string {
	gen := uuid.NewString()
	_ = s.cache.Set(ctx, generationKey(ownerID), []byte(gen), productGenerationTTL)
	return gen
}

// List returns the owner's products newest first. An absent category or "all"
// disables the category filter; an empty search disables the text filter.
func (s *productService) List(ctx context.Context, ownerID uint, filter ProductListFilter) ([]model.Product, error) {
	key := s.listKey(ctx, ownerID, filter)
	if data, _ := s.cache.Get(ctx, key); data != nil {
		var cached []model.Product
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	repoFilter := repository.ProductFilter{Search: filter.Search}
	if filter.Category != "" && filter.Category != model.CategoryAll {
		repoFilter.Category = model.Category(filter.Category)
	}

	products, err := s.repo.ListByOwner(ctx, ownerID, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	if payload, err := json.Marshal(products); err == nil {
		_ = s.cache.Set(ctx, key, payload, productListCacheTTL)
	}
	return products, nil
}

func (s *productService) Create(ctx context.Context, ownerID uint, input ProductInput) (*model.Product, error) {
	product := &model.Product{Category: model.CategoryOther}
	if err := input.Apply(product, false); err != nil {
		return nil, err
	}
	product.CreatedByID = ownerID

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.invalidate(ctx, ownerID)
	s.log.Debug("product created", zap.String("product_id", product.ID.String()), zap.Uint("owner_id", ownerID))
	return product, nil
}

// Get returns ErrProductNotFound for malformed ids, missing products and products owned by others alike.
func (s *productService) Get(ctx context.Context, ownerID uint, id string) (*model.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.ErrProductNotFound
	}
	product, err := s.repo.FindByIDAndOwner(ctx, productID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return product, nil
}

// Update applies a partial update. Absent fields keep their stored values.
func (s *productService) Update(ctx context.Context, ownerID uint, id string, input ProductInput) (*model.Product, error) {
	product, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := input.Apply(product, true); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	s.invalidate(ctx, ownerID)
	return product, nil
}

func (s *productService) Delete(ctx context.Context, ownerID uint, id string) error {
	productID, err := uuid.Parse(id)
	if err != nil {
		return apperrors.ErrProductNotFound
	}
	if err := s.repo.DeleteByIDAndOwner(ctx, productID, ownerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrProductNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidate(ctx, ownerID)
	return nil
}
