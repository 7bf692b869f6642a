package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProduct_ProfitMargin(t *testing.T) {
	tests := []struct {
		name    string
		cost    string
		selling string
		want    string
	}{
		{"zero cost", "0", "75", "0"},
		{"fifty percent", "50", "75", "50"},
		{"loss", "80", "60", "-25"},
		{"fractional", "3.00", "4.00", "33.33333333333333"},
		{"break even", "12.50", "12.50", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Product{
				CostPrice:    decimal.RequireFromString(tt.cost),
				SellingPrice: decimal.RequireFromString(tt.selling),
			}
			assert.True(t, decimal.RequireFromString(tt.want).Equal(p.ProfitMargin()), "got %s", p.ProfitMargin())
		})
	}
}

func TestProduct_BeforeCreate(t *testing.T) {
	p := &Product{}
	assert.NoError(t, p.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, CategoryOther, p.Category)

	id := uuid.New()
	p = &Product{ID: id, Category: CategoryBooks}
	assert.NoError(t, p.BeforeCreate(nil))
	assert.Equal(t, id, p.ID)
	assert.Equal(t, CategoryBooks, p.Category)
}

func TestCategory_Valid(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, Category("all").Valid())
	assert.False(t, Category("Electronics").Valid())
	assert.False(t, Category("").Valid())
}
