package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"stockpilot/internal/model"
)

// likeEscape is the ESCAPE character used for search patterns.
const likeEscape = "!"

var likeEscaper = strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")

// ProductFilter narrows an owner's product list. Empty fields do not filter.
type ProductFilter struct {
	Category model.Category
	Search   string
}

// ProductRepository defines product persistence. Every operation is scoped to an owner.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByIDAndOwner(ctx context.Context, id uuid.UUID, ownerID uint) (*model.Product, error)
	ListByOwner(ctx context.Context, ownerID uint, filter ProductFilter) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	DeleteByIDAndOwner(ctx context.Context, id uuid.UUID, ownerID uint) error
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create creates a new product.
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// FindByIDAndOwner returns gorm.ErrRecordNotFound both for missing ids and for products owned by someone else.
func (r *productRepository) FindByIDAndOwner(ctx context.Context, id uuid.UUID, ownerID uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).
		Where("id = ? AND created_by_id = ?", id, ownerID).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListByOwner lists the owner's products newest first.
func (r *productRepository) ListByOwner(ctx context.Context, ownerID uint, filter ProductFilter) ([]model.Product, error) {
	query := r.db.WithContext(ctx).Where("created_by_id = ?", ownerID)

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(filter.Search)) + "%"
		query = query.Where(r.searchClause(), pattern, pattern)
	}

	var products []model.Product
	if err := query.Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) searchClause() string {
	if r.db.Dialector.Name() == "postgres" {
		return "(name ILIKE ? ESCAPE '" + likeEscape + "' OR description ILIKE ? ESCAPE '" + likeEscape + "')"
	}
	return "(LOWER(name) LIKE ? ESCAPE '" + likeEscape + "' OR LOWER(description) LIKE ? ESCAPE '" + likeEscape + "')"
}

// Update writes every mutable column of product. The owner and creation time are never rewritten.
func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	res := r.db.WithContext(ctx).Model(product).
		Where("created_by_id = ?", product.CreatedByID).
		Select("*").
		Omit("id", "created_by_id", "created_at").
		Updates(product)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteByIDAndOwner hard-deletes in a single statement.
func (r *productRepository) DeleteByIDAndOwner(ctx context.Context, id uuid.UUID, ownerID uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND created_by_id = ?", id, ownerID).
		Delete(&model.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
