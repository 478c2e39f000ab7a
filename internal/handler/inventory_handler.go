package handler

import (
	"errors"
	"net/http"

	"stocksage/internal/service"
	"stocksage/pkg/pagination"
	"stocksage/pkg/response"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	productService   service.ProductService
	stocktakeService service.StocktakeService
}

func NewInventoryHandler(productService service.ProductService, stocktakeService service.StocktakeService) *InventoryHandler {
	return &InventoryHandler{productService: productService, stocktakeService: stocktakeService}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/api/products")
	{
		products.GET("", h.ListProducts)
		products.POST("", h.CreateProduct)
		products.PUT("/:id", h.UpdateProduct)
		products.DELETE("/:id", h.DeleteProduct)
		products.POST("/:id/adjust", h.AdjustStock)
	}

	inventory := router.Group("/api/inventory")
	{
		inventory.POST("/batch/stocktake", h.BatchStocktake)
		inventory.GET("/logs/:productId", h.ListLogs)
	}

	router.GET("/api/reports/low-stock", h.ListLowStock)
}

// ListProducts retrieves paginated products for the current owner
// @Summary      List products
// @Tags         inventory
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Param        search  query     string  false  "Search by product name"
// @Success      200  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/products [get]
func (h *InventoryHandler) ListProducts(c *gin.Context) {
	params := pagination.Parse(c)
	search := c.Query("search")
	userID := c.GetString("userID")

	products, total, err := h.productService.ListProducts(c.Request.Context(), userID, params.Page, params.Limit, search)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to retrieve products"))
		return
	}

	c.JSON(http.StatusOK, response.OK("", map[string]interface{}{
		"products": products,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// CreateProduct creates a new inventory product entry
// @Summary      Create product
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateProductRequest  true  "Create Product Payload"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/products [post]
func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")
	product, err := h.productService.CreateProduct(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.OK("Product created", product))
}

// UpdateProduct updates an existing product's metadata
// @Summary      Update product
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Product ID"
// @Param        payload  body      service.UpdateProductRequest  true  "Update Product Payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/products/{id} [put]
func (h *InventoryHandler) UpdateProduct(c *gin.Context) {
	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")
	product, err := h.productService.UpdateProduct(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		h.writeProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.OK("Product updated", product))
}

// DeleteProduct soft deletes a product
// @Summary      Delete product
// @Tags         inventory
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [delete]
func (h *InventoryHandler) DeleteProduct(c *gin.Context) {
	userID := c.GetString("userID")
	if err := h.productService.DeleteProduct(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.writeProductError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK("Product deleted", nil))
}

// AdjustStock applies a manual in/out stock movement
// @Summary      Adjust stock
// @Description  Applies a typed stock movement and appends the audit log entry
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Product ID"
// @Param        payload  body      service.AdjustStockRequest  true  "Adjustment Payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/products/{id}/adjust [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var req service.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")
	product, err := h.productService.AdjustStock(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		if errors.Is(err, service.ErrInsufficientStock) || errors.Is(err, service.ErrInvalidAdjustment) ||
			errors.Is(err, service.ErrInvalidAdjustmentType) {
			c.JSON(http.StatusBadRequest, response.Error(err.Error()))
			return
		}
		h.writeProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.OK("Stock adjusted", product))
}

// BatchStocktake reconciles scanned counts against recorded stock
// @Summary      Batch stocktake
// @Description  Resolves each scanned barcode, sets the absolute stock level and appends an audit entry per item. Per-item failures do not change the outer status code.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        payload  body      service.StocktakeRequest  true  "Stocktake Payload"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  response.Response
// @Router       /api/inventory/batch/stocktake [post]
func (h *InventoryHandler) BatchStocktake(c *gin.Context) {
	var req service.StocktakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("items must be a non-empty list"))
		return
	}

	userID := c.GetString("userID")
	result, err := h.stocktakeService.Reconcile(c.Request.Context(), userID, req.Items)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Stocktake failed; some items may have been processed"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "Stocktake processed",
		"successCount": result.SuccessCount,
		"failCount":    result.FailCount,
		"results":      result.Results,
	})
}

// ListLogs returns the audit trail for a product
// @Summary      List inventory logs
// @Tags         inventory
// @Produce      json
// @Param        productId  path      string  true   "Product ID"
// @Param        page       query     int     false  "Page number"
// @Param        limit      query     int     false  "Items per page"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/inventory/logs/{productId} [get]
func (h *InventoryHandler) ListLogs(c *gin.Context) {
	params := pagination.Parse(c)
	userID := c.GetString("userID")

	logs, total, err := h.productService.ListLogs(c.Request.Context(), userID, c.Param("productId"), params.Page, params.Limit)
	if err != nil {
		h.writeProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.OK("", map[string]interface{}{
		"logs":  logs,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// ListLowStock returns products at or under their minimum stock level
// @Summary      Low stock report
// @Tags         reports
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/reports/low-stock [get]
func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	userID := c.GetString("userID")
	products, err := h.productService.ListLowStock(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to build low stock report"))
		return
	}
	c.JSON(http.StatusOK, response.OK("", map[string]interface{}{"products": products}))
}

func (h *InventoryHandler) writeProductError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, response.Error(err.Error()))
	case errors.Is(err, service.ErrInvalidProductID):
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(err.Error()))
	}
}
