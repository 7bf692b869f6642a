package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"stockpilot/internal/db/dbtest"
	"stockpilot/internal/model"
)

func createUser(t *testing.T, repo UserRepository, username string) *model.User {
	t.Helper()
	user := &model.User{Username: username, Email: username + "@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func strPtr(s string) *string { return &s }

func TestUserRepository(t *testing.T) {
	gdb := dbtest.New(t)
	repo := NewUserRepository(gdb)
	ctx := context.Background()

	alice := createUser(t, repo, "alice")
	require.NotZero(t, alice.ID)

	byName, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)
	assert.False(t, byName.EmailVerified)

	byEmail, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)

	_, err = repo.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	exists, err := repo.ExistsByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.ExistsByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.MarkEmailVerified(ctx, alice.ID))
	byID, err := repo.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, byID.EmailVerified)

	assert.ErrorIs(t, repo.MarkEmailVerified(ctx, 9999), gorm.ErrRecordNotFound)
}

func TestUserRepository_EmailLookupIgnoresCase(t *testing.T) {
	gdb := dbtest.New(t)
	repo := NewUserRepository(gdb)
	ctx := context.Background()

	bob := &model.User{Username: "bob", Email: "Bob@Example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, repo.Create(ctx, bob))

	found, err := repo.FindByEmail(ctx, " bob@example.COM ")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, found.ID)

	exists, err := repo.ExistsByEmail(ctx, "BOB@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserRepository_UniqueUsername(t *testing.T) {
	repo := NewUserRepository(dbtest.New(t))
	createUser(t, repo, "alice")

	dup := &model.User{Username: "alice", Email: "other@example.com", PasswordHash: "x", IsActive: true}
	assert.Error(t, repo.Create(context.Background(), dup))
}

func seedProducts(t *testing.T, gdb *gorm.DB, owner uint) []*model.Product {
	t.Helper()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	products := []*model.Product{
		{Name: "Blue Pen", Description: strPtr("ink pen"), Category: model.CategoryStationary, CostPrice: decimal.RequireFromString("1.00"), SellingPrice: decimal.RequireFromString("1.50"), CreatedAt: base},
		{Name: "Laptop", Description: strPtr("A fast BLUE machine"), Category: model.CategoryElectronics, CostPrice: decimal.RequireFromString("500.00"), SellingPrice: decimal.RequireFromString("650.00"), CreatedAt: base.Add(time.Minute)},
		{Name: "100% cotton_shirt", Category: model.CategoryClothing, CostPrice: decimal.RequireFromString("8.00"), SellingPrice: decimal.RequireFromString("20.00"), CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, p := range products {
		p.CreatedByID = owner
		require.NoError(t, gdb.Create(p).Error)
	}
	return products
}

func names(products []model.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

func TestProductRepository_ListByOwner(t *testing.T) {
	gdb := dbtest.New(t)
	users := NewUserRepository(gdb)
	repo := NewProductRepository(gdb)
	ctx := context.Background()

	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bob")
	seedProducts(t, gdb, alice.ID)
	seedProducts(t, gdb, bob.ID)

	tests := []struct {
		name   string
		filter ProductFilter
		want   []string
	}{
		{"all newest first", ProductFilter{}, []string{"100% cotton_shirt", "Laptop", "Blue Pen"}},
		{"category", ProductFilter{Category: model.CategoryElectronics}, []string{"Laptop"}},
		{"search name or description case-insensitive", ProductFilter{Search: "blue"}, []string{"Laptop", "Blue Pen"}},
		{"search and category", ProductFilter{Search: "blue", Category: model.CategoryStationary}, []string{"Blue Pen"}},
		{"percent is literal", ProductFilter{Search: "%"}, []string{"100% cotton_shirt"}},
		{"underscore is literal", ProductFilter{Search: "n_s"}, []string{"100% cotton_shirt"}},
		{"escape char is literal", ProductFilter{Search: "!"}, []string{}},
		{"no match", ProductFilter{Search: "zzz"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := repo.ListByOwner(ctx, alice.ID, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(products))
			for _, p := range products {
				assert.Equal(t, alice.ID, p.CreatedByID)
			}
		})
	}
}

func TestProductRepository_OwnerScoping(t *testing.T) {
	gdb := dbtest.New(t)
	users := NewUserRepository(gdb)
	repo := NewProductRepository(gdb)
	ctx := context.Background()

	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bob")
	pen := seedProducts(t, gdb, alice.ID)[0]

	found, err := repo.FindByIDAndOwner(ctx, pen.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Blue Pen", found.Name)
	assert.True(t, decimal.RequireFromString("1.50").Equal(found.SellingPrice))

	_, err = repo.FindByIDAndOwner(ctx, pen.ID, bob.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.FindByIDAndOwner(ctx, uuid.New(), alice.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, repo.DeleteByIDAndOwner(ctx, pen.ID, bob.ID), gorm.ErrRecordNotFound)
	require.NoError(t, repo.DeleteByIDAndOwner(ctx, pen.ID, alice.ID))
	assert.ErrorIs(t, repo.DeleteByIDAndOwner(ctx, pen.ID, alice.ID), gorm.ErrRecordNotFound)
}

func TestProductRepository_Update(t *testing.T) {
	gdb := dbtest.New(t)
	users := NewUserRepository(gdb)
	repo := NewProductRepository(gdb)
	ctx := context.Background()

	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bob")
	pen := seedProducts(t, gdb, alice.ID)[0]
	before := pen.UpdatedAt

	loaded, err := repo.FindByIDAndOwner(ctx, pen.ID, alice.ID)
	require.NoError(t, err)
	loaded.Name = "Red Pen"
	loaded.Description = nil
	loaded.CustomerRating = decimal.NewNullDecimal(decimal.RequireFromString("4.50"))
	require.NoError(t, repo.Update(ctx, loaded))

	reloaded, err := repo.FindByIDAndOwner(ctx, pen.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Red Pen", reloaded.Name)
	assert.Nil(t, reloaded.Description)
	assert.True(t, reloaded.CustomerRating.Valid)
	assert.True(t, reloaded.UpdatedAt.After(before))
	assert.True(t, pen.CreatedAt.Equal(reloaded.CreatedAt))

	stolen := *reloaded
	stolen.CreatedByID = bob.ID
	assert.ErrorIs(t, repo.Update(ctx, &stolen), gorm.ErrRecordNotFound)
}

func TestProductRepository_CascadeOnUserDelete(t *testing.T) {
	gdb := dbtest.New(t)
	users := NewUserRepository(gdb)
	repo := NewProductRepository(gdb)
	ctx := context.Background()

	alice := createUser(t, users, "alice")
	seedProducts(t, gdb, alice.ID)

	require.NoError(t, gdb.Delete(&model.User{}, alice.ID).Error)
	products, err := repo.ListByOwner(ctx, alice.ID, ProductFilter{})
	require.NoError(t, err)
	assert.Empty(t, products)
}
