package handler

import (
	"errors"
	"net/http"

	"stocksage/internal/payment"
	"stocksage/internal/service"
	"stocksage/pkg/pagination"
	"stocksage/pkg/response"

	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
	payments       *payment.Client
}

func NewInvoiceHandler(invoiceService service.InvoiceService, payments *payment.Client) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService, payments: payments}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/api/invoices")
	{
		invoices.GET("", h.ListInvoices)
		invoices.POST("", h.CreateInvoice)
		invoices.POST("/bulk", h.BulkOperation)
		invoices.GET("/:id", h.GetInvoice)
		invoices.PUT("/:id", h.UpdateInvoice)
		invoices.DELETE("/:id", h.DeleteInvoice)
		invoices.POST("/:id/checkout", h.CreateCheckout)
	}
}

// ListInvoices retrieves paginated invoices for the current owner
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Items per page"
// @Success      200  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	params := pagination.Parse(c)
	userID := c.GetString("userID")

	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), userID, c.Query("status"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to retrieve invoices"))
		return
	}

	c.JSON(http.StatusOK, response.OK("", map[string]interface{}{
		"invoices": invoices,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// CreateInvoice creates an invoice with its line items
// @Summary      Create invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateInvoiceRequest  true  "Create Invoice Payload"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req service.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")
	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), userID, req)
	if err != nil {
		if service.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, response.Error(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.OK("Invoice created", invoice))
}

// BulkOperation applies one operation across a set of invoices
// @Summary      Bulk invoice operation
// @Description  Applies updateStatus, delete or export to the listed invoice IDs. Missing IDs are skipped, not errored.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        payload  body      service.BulkInvoiceRequest  true  "Bulk Operation Payload"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/invoices/bulk [post]
func (h *InvoiceHandler) BulkOperation(c *gin.Context) {
	var req service.BulkInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")
	result, err := h.invoiceService.ApplyBulk(c.Request.Context(), userID, req)
	if err != nil {
		if service.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, response.Error(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error("Bulk operation failed"))
		return
	}

	if req.Operation == service.BulkOpExport {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Invoices exported",
			"data":    result.Invoices,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Bulk operation applied",
		"count":   result.Count,
	})
}

// GetInvoice returns one invoice with its items
// @Summary      Get invoice
// @Tags         invoices
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	userID := c.GetString("userID")
	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.writeInvoiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK("", invoice))
}

// UpdateInvoice updates an invoice's status or customer details
// @Summary      Update invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Invoice ID"
// @Param        payload  body      service.UpdateInvoiceRequest  true  "Update Invoice Payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/invoices/{id} [put]
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	var req service.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")
	invoice, err := h.invoiceService.UpdateInvoice(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		h.writeInvoiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK("Invoice updated", invoice))
}

// DeleteInvoice removes an invoice and its items
// @Summary      Delete invoice
// @Tags         invoices
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	userID := c.GetString("userID")
	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.writeInvoiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK("Invoice deleted", nil))
}

// CreateCheckout creates a hosted payment page for the invoice
// @Summary      Create payment checkout
// @Description  Registers the invoice with the payment processor and returns the hosted checkout URL
// @Tags         invoices
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      502  {object}  response.Response
// @Router       /api/invoices/{id}/checkout [post]
func (h *InvoiceHandler) CreateCheckout(c *gin.Context) {
	userID := c.GetString("userID")
	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.writeInvoiceError(c, err)
		return
	}

	checkoutURL, err := h.payments.CreateCheckout(c.Request.Context(), invoice)
	if err != nil {
		c.JSON(http.StatusBadGateway, response.Error("Payment processor unavailable"))
		return
	}

	c.JSON(http.StatusOK, response.OK("Checkout created", map[string]interface{}{
		"checkout_url": checkoutURL,
	}))
}

func (h *InvoiceHandler) writeInvoiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvoiceNotFound):
		c.JSON(http.StatusNotFound, response.Error(err.Error()))
	case service.IsValidationError(err):
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(err.Error()))
	}
}
