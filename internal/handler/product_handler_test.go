package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "stockpilot/internal/errors"
	"stockpilot/internal/model"
	"stockpilot/internal/service"
)

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context, ownerID uint, filter service.ProductListFilter) ([]model.Product, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, ownerID uint, input service.ProductInput) (*model.Product, error) {
	args := m.Called(ctx, ownerID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Get(ctx context.Context, ownerID uint, id string) (*model.Product, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, ownerID uint, id string, input service.ProductInput) (*model.Product, error) {
	args := m.Called(ctx, ownerID, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, ownerID uint, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func newContext(method, target, body string, principal *model.User) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if principal != nil {
		SetPrincipal(c, principal)
	}
	return c, rec
}

func samplePen() *model.Product {
	return &model.Product{
		ID:           uuid.MustParse("7d5c3c2e-8f5b-4a55-9e55-1f1f6f0c2a10"),
		Name:         "Pen",
		CostPrice:    decimal.RequireFromString("3"),
		SellingPrice: decimal.RequireFromString("4"),
		Category:     model.CategoryStationary,
		CreatedByID:  1,
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestNewProductResponse(t *testing.T) {
	p := samplePen()
	p.CustomerRating = decimal.NewNullDecimal(decimal.RequireFromString("4.5"))

	body, err := json.Marshal(NewProductResponse(p))
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "3.00", out["cost_price"])
	assert.Equal(t, "4.00", out["selling_price"])
	assert.Equal(t, "4.50", out["customer_rating"])
	assert.Nil(t, out["optimized_price"])
	assert.Nil(t, out["demand_forecast"])
	assert.Equal(t, 33.33, out["profit_margin"])
	assert.NotContains(t, out, "created_by")
}

func TestProductHandler_Create(t *testing.T) {
	svc := new(MockProductService)
	svc.On("Create", mock.Anything, uint(1), mock.MatchedBy(func(in service.ProductInput) bool {
		return string(in["name"]) == `"Pen"`
	})).Return(samplePen(), nil)

	c, rec := newContext(http.MethodPost, "/products/", `{"name":"Pen","cost_price":3,"selling_price":4}`, &model.User{ID: 1})
	require.NoError(t, NewProductHandler(svc).Create(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	var out struct {
		Meta apperrors.Meta   `json:"meta"`
		Data ProductResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Product created successfully.", out.Meta.Message)
	assert.Equal(t, "Pen", out.Data.Name)
	svc.AssertExpectations(t)
}

func TestProductHandler_Create_MalformedBody(t *testing.T) {
	svc := new(MockProductService)
	c, _ := newContext(http.MethodPost, "/products/", `{"name":`, &model.User{ID: 1})

	err := NewProductHandler(svc).Create(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Equal(t, "parse_error", he.Message.(apperrors.ErrorResponse).Meta.Code)
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestProductHandler_Get_NotFound(t *testing.T) {
	svc := new(MockProductService)
	svc.On("Get", mock.Anything, uint(1), "missing").Return(nil, apperrors.ErrProductNotFound)

	c, _ := newContext(http.MethodGet, "/products/missing/", "", &model.User{ID: 1})
	c.SetParamNames("id")
	c.SetParamValues("missing")

	err := NewProductHandler(svc).Get(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusNotFound, he.Code)
	assert.Equal(t, "No Product matches the given query.", he.Message.(apperrors.ErrorResponse).Meta.Message)
}

func TestProductHandler_Delete(t *testing.T) {
	svc := new(MockProductService)
	svc.On("Delete", mock.Anything, uint(1), "abc").Return(nil)

	c, rec := newContext(http.MethodDelete, "/products/abc/", "", &model.User{ID: 1})
	c.SetParamNames("id")
	c.SetParamValues("abc")

	require.NoError(t, NewProductHandler(svc).Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestProductHandler_List_PassesFilters(t *testing.T) {
	svc := new(MockProductService)
	svc.On("List", mock.Anything, uint(1), service.ProductListFilter{Category: "books", Search: "go"}).
		Return([]model.Product{}, nil)

	c, rec := newContext(http.MethodGet, "/products/?category=books&search=go", "", &model.User{ID: 1})
	require.NoError(t, NewProductHandler(svc).List(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"meta":{"message":"Products fetched successfully."},"data":[]}`, rec.Body.String())
}

func TestProductHandler_RequiresPrincipal(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/products/", "", nil)

	err := NewProductHandler(new(MockProductService)).List(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}
