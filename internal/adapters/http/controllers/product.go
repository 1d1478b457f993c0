package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mercatto/catalog/internal/adapters/http/handlers"
	"github.com/mercatto/catalog/internal/core/domain"
	"github.com/mercatto/catalog/internal/core/dto"
	"github.com/mercatto/catalog/internal/core/service"
	"github.com/mercatto/catalog/internal/core/serviceerrors"
)

type ProductController struct {
	productService *service.ProductService
}

type ProductUnitResponse struct {
	Unit  string `json:"unit,omitempty"`
	Count int    `json:"count,omitempty"`
}

// ProductResponse is the external projection: the record keyed by the
// normalized id, never the raw storage identifier.
type ProductResponse struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Price       float64             `json:"price"`
	Unit        ProductUnitResponse `json:"unit"`
	Count       int                 `json:"count"`
	Description string              `json:"description,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

type ProductListResponse struct {
	Count int64             `json:"count"`
	Rows  []ProductResponse `json:"rows"`
}

// NewProductResponse projects a product for the outside world. The full view
// is an extension point: today it carries the same fields as the simple one.
func NewProductResponse(product *domain.Product, full bool) ProductResponse {
	view := ProductResponse{
		ID:    string(product.ID),
		Name:  product.Name,
		Price: product.Price,
		Unit: ProductUnitResponse{
			Unit:  string(product.Unit.Unit),
			Count: product.Unit.Count,
		},
		Count:       product.Count,
		Description: product.Description,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}

	if full {
		// properties reserved for the full view go here
		return view
	}

	return view
}

func NewProductController(productService *service.ProductService) *ProductController {
	return &ProductController{productService: productService}
}

// CreateProduct godoc
// @Summary     Create a product
// @Description Creates a new product (admin only)
// @Tags        products
// @Accept      json
// @Produce     json
// @Param       Authorization   header   string                   true  "Bearer token"
// @Param       Idempotency-Key header   string                   false "Idempotency key"
// @Param       request         body     dto.CreateProductRequest true  "Product data"
// @Success     201             {object} ProductResponse
// @Failure     400             {object} handlers.ErrorResponse
// @Failure     401             {object} handlers.ErrorResponse
// @Failure     403             {object} handlers.ErrorResponse
// @Failure     429             {object} handlers.ErrorResponse
// @Failure     500             {object} handlers.ErrorResponse
// @Router      /products [post]
func (pc *ProductController) CreateProduct(c *gin.Context) {
	var request dto.CreateProductRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handlers.HandleError(c, serviceerrors.NewInvalidRequestError(err.Error()))
		return
	}
	idempotencyKey := c.GetHeader("Idempotency-Key")
	product, err := pc.productService.CreateProduct(c.Request.Context(), idempotencyKey, &request)
	if err != nil {
		handlers.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewProductResponse(product, true))
}

// ListProducts godoc
// @Summary     List products
// @Description Returns a page of products with the total match count
// @Tags        products
// @Produce     json
// @Param       page  query    int    false "Page number"
// @Param       limit query    int    false "Page size (max 100)"
// @Param       sort  query    string false "Comma-separated sort keys, - prefix for descending"
// @Param       name  query    string false "Exact name filter"
// @Param       q     query    string false "Search term"
// @Success     200   {object} ProductListResponse
// @Failure     400   {object} handlers.ErrorResponse
// @Failure     500   {object} handlers.ErrorResponse
// @Router      /products [get]
func (pc *ProductController) ListProducts(c *gin.Context) {
	var query dto.ListProductsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		handlers.HandleError(c, serviceerrors.NewInvalidRequestError(err.Error()))
		return
	}
	params, err := query.Normalize()
	if err != nil {
		handlers.HandleError(c, serviceerrors.NewInvalidRequestError(err.Error()))
		return
	}

	products, total, err := pc.productService.List(c.Request.Context(), params)
	if err != nil {
		handlers.HandleError(c, err)
		return
	}

	rows := make([]ProductResponse, len(products))
	for i, product := range products {
		rows[i] = NewProductResponse(product, false)
	}

	c.JSON(http.StatusOK, ProductListResponse{Count: total, Rows: rows})
}

// GetProductByID godoc
// @Summary     Get product by ID
// @Description Returns a single product
// @Tags        products
// @Produce     json
// @Param       id  path     string true "Product ID"
// @Success     200 {object} ProductResponse
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /products/{id} [get]
func (pc *ProductController) GetProductByID(c *gin.Context) {
	productID := c.Param("id")
	if !domain.ValidateID(productID) {
		handlers.HandleError(c, serviceerrors.NewInvalidRequestError("invalid product ID"))
		return
	}
	product, err := pc.productService.GetByID(c.Request.Context(), domain.ID(productID))
	if err != nil {
		handlers.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewProductResponse(product, false))
}

// UpdateProduct godoc
// @Summary     Update a product
// @Description Replaces the mutable fields of an existing product (admin only)
// @Tags        products
// @Accept      json
// @Produce     json
// @Param       Authorization header   string                   true "Bearer token"
// @Param       id            path     string                   true "Product ID"
// @Param       request       body     dto.UpdateProductRequest true "Product data"
// @Success     200           {object} ProductResponse
// @Failure     400           {object} handlers.ErrorResponse
// @Failure     401           {object} handlers.ErrorResponse
// @Failure     403           {object} handlers.ErrorResponse
// @Failure     404           {object} handlers.ErrorResponse
// @Failure     429           {object} handlers.ErrorResponse
// @Failure     500           {object} handlers.ErrorResponse
// @Router      /products/{id} [put]
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	productID := c.Param("id")
	if !domain.ValidateID(productID) {
		handlers.HandleError(c, serviceerrors.NewInvalidRequestError("invalid product ID"))
		return
	}
	var request dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handlers.HandleError(c, serviceerrors.NewInvalidRequestError(err.Error()))
		return
	}
	product, err := pc.productService.UpdateProduct(c.Request.Context(), domain.ID(productID), &request)
	if err != nil {
		handlers.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewProductResponse(product, true))
}

// DeleteProduct godoc
// @Summary     Delete a product
// @Description Removes a product permanently (admin only)
// @Tags        products
// @Produce     json
// @Param       Authorization header string true "Bearer token"
// @Param       id            path   string true "Product ID"
// @Success     204
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     401 {object} handlers.ErrorResponse
// @Failure     403 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Failure     429 {object} handlers.ErrorResponse
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /products/{id} [delete]
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	productID := c.Param("id")
	if !domain.ValidateID(productID) {
		handlers.HandleError(c, serviceerrors.NewInvalidRequestError("invalid product ID"))
		return
	}
	if err := pc.productService.DeleteProduct(c.Request.Context(), domain.ID(productID)); err != nil {
		handlers.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
