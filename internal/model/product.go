package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category is the closed set of product categories.
type Category string

const (
	CategoryStationary  Category = "stationary"
	CategoryElectronics Category = "electronics"
	CategoryClothing    Category = "clothing"
	CategoryBooks       Category = "books"
	CategoryHome        Category = "home"
	CategorySports      Category = "sports"
	CategoryOther       Category = "other"

	// CategoryAll is the list filter value that disables category filtering.
	CategoryAll = "all"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryStationary,
	CategoryElectronics,
	CategoryClothing,
	CategoryBooks,
	CategoryHome,
	CategorySports,
	CategoryOther,
}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

var hundred = decimal.NewFromInt(100)

// Product is an inventory item owned by exactly one user.
// DemandForecast and OptimizedPrice are stored as supplied; nothing computes them.
type Product struct {
	ID             uuid.UUID           `json:"id" gorm:"type:char(36);primaryKey"`
	Name           string              `json:"name" gorm:"size:255;not null"`
	Description    *string             `json:"description" gorm:"type:text"`
	CostPrice      decimal.Decimal     `json:"cost_price" gorm:"type:decimal(10,2);not null"`
	SellingPrice   decimal.Decimal     `json:"selling_price" gorm:"type:decimal(10,2);not null"`
	Category       Category            `json:"category" gorm:"type:varchar(50);not null;default:'other';index"`
	StockAvailable uint                `json:"stock_available" gorm:"not null;default:0"`
	UnitsSold      uint                `json:"units_sold" gorm:"not null;default:0"`
	CustomerRating decimal.NullDecimal `json:"customer_rating" gorm:"type:decimal(3,2)"`
	DemandForecast *uint               `json:"demand_forecast"`
	OptimizedPrice decimal.NullDecimal `json:"optimized_price" gorm:"type:decimal(10,2)"`
	CreatedByID    uint                `json:"created_by" gorm:"not null;index"`
	CreatedAt      time.Time           `json:"created_at" gorm:"index"`
	UpdatedAt      time.Time           `json:"updated_at"`

	CreatedBy *User `json:"-" gorm:"foreignKey:CreatedByID"`
}

// BeforeCreate sets UUID before creating the record.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Category == "" {
		p.Category = CategoryOther
	}
	return nil
}

// ProfitMargin returns (selling - cost) / cost * 100, or zero when the cost is not positive.
func (p *Product) ProfitMargin() decimal.Decimal {
	if !p.CostPrice.IsPositive() {
		return decimal.Zero
	}
	return p.SellingPrice.Sub(p.CostPrice).Div(p.CostPrice).Mul(hundred)
}
