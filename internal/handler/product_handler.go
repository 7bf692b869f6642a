package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"stockpilot/internal/model"
	"stockpilot/internal/service"
)

// ProductHandler handles the owner-scoped product endpoints.
type ProductHandler struct {
	productService service.ProductService
}

// NewProductHandler creates a new product handler.
func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// ProductRequest documents the accepted product fields. Prices accept numbers or numeric strings.
type ProductRequest struct {
	Name           string  `json:"name" example:"Notebook"`
	Description    *string `json:"description" example:"A5, ruled"`
	CostPrice      string  `json:"cost_price" example:"2.50"`
	SellingPrice   string  `json:"selling_price" example:"4.00"`
	Category       string  `json:"category" enums:"stationary,electronics,clothing,books,home,sports,other"`
	StockAvailable uint    `json:"stock_available"`
	UnitsSold      uint    `json:"units_sold"`
	CustomerRating *string `json:"customer_rating" example:"4.50"`
	DemandForecast *uint   `json:"demand_forecast"`
	OptimizedPrice *string `json:"optimized_price"`
}

// ProductResponse is the public view of a product.
type ProductResponse struct {
	ID             uuid.UUID      `json:"id"`
	Name           string         `json:"name"`
	Description    *string        `json:"description"`
	CostPrice      string         `json:"cost_price"`
	SellingPrice   string         `json:"selling_price"`
	Category       model.Category `json:"category"`
	StockAvailable uint           `json:"stock_available"`
	UnitsSold      uint           `json:"units_sold"`
	CustomerRating *string        `json:"customer_rating"`
	DemandForecast *uint          `json:"demand_forecast"`
	OptimizedPrice *string        `json:"optimized_price"`
	ProfitMargin   float64        `json:"profit_margin"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func nullMoney(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := money(d.Decimal)
	return &s
}

// NewProductResponse renders p with two-place decimals and a freshly computed profit margin.
func NewProductResponse(p *model.Product) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		CostPrice:      money(p.CostPrice),
		SellingPrice:   money(p.SellingPrice),
		Category:       p.Category,
		StockAvailable: p.StockAvailable,
		UnitsSold:      p.UnitsSold,
		CustomerRating: nullMoney(p.CustomerRating),
		DemandForecast: p.DemandForecast,
		OptimizedPrice: nullMoney(p.OptimizedPrice),
		ProfitMargin:   p.ProfitMargin().Round(2).InexactFloat64(),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (h *ProductHandler) bindInput(c echo.Context) (service.ProductInput, error) {
	var input service.ProductInput
	if err := (&echo.DefaultBinder{}).BindBody(c, &input); err != nil {
		return nil, parseError(err)
	}
	if input == nil {
		input = service.ProductInput{}
	}
	return input, nil
}

// List godoc
// @Summary List products
// @Description Lists the caller's products, newest first.
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param category query string false "Category filter; 'all' disables it"
// @Param search query string false "Case-insensitive match on name or description"
// @Success 200 {object} DataResponse{data=[]ProductResponse}
// @Failure 401 {object} errors.ErrorResponse
// @Router /products/ [get]
func (h *ProductHandler) List(c echo.Context) error {
	principal, err := Principal(c)
	if err != nil {
		return err
	}

	products, err := h.productService.List(c.Request().Context(), principal.ID, service.ProductListFilter{
		Category: c.QueryParam("category"),
		Search:   c.QueryParam("search"),
	})
	if err != nil {
		return fail(err)
	}

	data := make([]ProductResponse, 0, len(products))
	for i := range products {
		data = append(data, NewProductResponse(&products[i]))
	}
	return respond(c, http.StatusOK, "Products fetched successfully.", data)
}

// Create godoc
// @Summary Create product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProductRequest true "Product fields"
// @Success 201 {object} DataResponse{data=ProductResponse}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /products/ [post]
func (h *ProductHandler) Create(c echo.Context) error {
	principal, err := Principal(c)
	if err != nil {
		return err
	}
	input, err := h.bindInput(c)
	if err != nil {
		return err
	}

	product, err := h.productService.Create(c.Request().Context(), principal.ID, input)
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusCreated, "Product created successfully.", NewProductResponse(product))
}

// Get godoc
// @Summary Get product
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} DataResponse{data=ProductResponse}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id}/ [get]
func (h *ProductHandler) Get(c echo.Context) error {
	principal, err := Principal(c)
	if err != nil {
		return err
	}

	product, err := h.productService.Get(c.Request().Context(), principal.ID, c.Param("id"))
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, "Product fetched successfully.", NewProductResponse(product))
}

// Update godoc
// @Summary Update product
// @Description Partial update for both PUT and PATCH. Absent fields are kept; null clears nullable fields.
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param request body ProductRequest true "Fields to change"
// @Success 200 {object} DataResponse{data=ProductResponse}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id}/ [patch]
// @Router /products/{id}/ [put]
func (h *ProductHandler) Update(c echo.Context) error {
	principal, err := Principal(c)
	if err != nil {
		return err
	}
	input, err := h.bindInput(c)
	if err != nil {
		return err
	}

	product, err := h.productService.Update(c.Request().Context(), principal.ID, c.Param("id"), input)
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, "Product updated successfully.", NewProductResponse(product))
}

// Delete godoc
// @Summary Delete product
// @Tags products
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 204
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id}/ [delete]
func (h *ProductHandler) Delete(c echo.Context) error {
	principal, err := Principal(c)
	if err != nil {
		return err
	}

	if err := h.productService.Delete(c.Request().Context(), principal.ID, c.Param("id")); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}
