package service

import (
	"context"
	"errors"
	"log"

	"stocksage/internal/model"
	"stocksage/internal/repository"
	ws "stocksage/internal/websocket"

	"gorm.io/gorm"
)

const stocktakeReference = "Bulk Scan Stocktake"

// DTOs
type StocktakeItem struct {
	Barcode  string `json:"barcode" binding:"required"`
	Quantity int    `json:"quantity" binding:"min=0"`
}

type StocktakeRequest struct {
	Items []StocktakeItem `json:"items" binding:"required,min=1,dive"`
}

// StocktakeItemResult reports one scanned item's outcome. Failed items carry
// only Barcode, Success and Error.
type StocktakeItemResult struct {
	Barcode        string `json:"barcode"`
	ProductID      string `json:"product_id,omitempty"`
	ProductName    string `json:"product_name,omitempty"`
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
	PreviousStock  int    `json:"previous_stock,omitempty"`
	NewStock       int    `json:"new_stock,omitempty"`
	QuantityChange int    `json:"quantity_change,omitempty"`
}

type StocktakeResult struct {
	SuccessCount int                   `json:"successCount"`
	FailCount    int                   `json:"failCount"`
	Results      []StocktakeItemResult `json:"results"`
}

// StocktakeService reconciles scanned physical counts against recorded
// stock, item by item.
type StocktakeService interface {
	Reconcile(ctx context.Context, ownerUserID string, items []StocktakeItem) (StocktakeResult, error)
}

type stocktakeService struct {
	productRepo repository.ProductRepository
	logRepo     repository.InventoryLogRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
}

func NewStocktakeService(
	productRepo repository.ProductRepository,
	logRepo repository.InventoryLogRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) StocktakeService {
	return &stocktakeService{
		productRepo: productRepo,
		logRepo:     logRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

// Reconcile processes each item independently: one item's failure never
// aborts its siblings, and results preserve input order. The per-item
// read-compute-write runs inside its own transaction with the product row
// locked, so concurrent stocktakes for the same product serialize instead of
// losing updates.
func (s *stocktakeService) Reconcile(ctx context.Context, ownerUserID string, items []StocktakeItem) (StocktakeResult, error) {
	result := StocktakeResult{Results: make([]StocktakeItemResult, 0, len(items))}

	for _, item := range items {
		itemResult := s.reconcileItem(ctx, ownerUserID, item)
		if itemResult.Success {
			result.SuccessCount++
			s.hub.BroadcastEvent(ws.StockEvent{
				Event: "stock.updated",
				Data: map[string]interface{}{
					"product_id":    itemResult.ProductID,
					"product_name":  itemResult.ProductName,
					"current_stock": itemResult.NewStock,
				},
			})
		} else {
			result.FailCount++
		}
		result.Results = append(result.Results, itemResult)
	}

	return result, nil
}

func (s *stocktakeService) reconcileItem(ctx context.Context, ownerUserID string, item StocktakeItem) StocktakeItemResult {
	var product *model.Product
	var delta int

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		product, findErr = s.productRepo.FindByBarcodeForUpdate(txCtx, ownerUserID, item.Barcode)
		if findErr != nil {
			return findErr
		}

		delta = item.Quantity - product.CurrentStock

		if err := s.productRepo.UpdateStock(txCtx, product.ID, item.Quantity); err != nil {
			return err
		}

		logType := model.LogTypeAdjustmentAdd
		if delta < 0 {
			logType = model.LogTypeAdjustmentSub
		}
		entry := &model.InventoryLogEntry{
			ProductID:      product.ID,
			Quantity:       item.Quantity,
			QuantityChange: delta,
			Type:           logType,
			Reference:      stocktakeReference,
			CreatedBy:      ownerUserID,
		}
		return s.logRepo.Append(txCtx, entry)
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StocktakeItemResult{Barcode: item.Barcode, Error: "Product not found"}
		}
		log.Printf("stocktake: failed to reconcile barcode %s: %v", item.Barcode, err)
		return StocktakeItemResult{Barcode: item.Barcode, Error: "Failed to update stock"}
	}

	return StocktakeItemResult{
		Barcode:        item.Barcode,
		ProductID:      product.ID.String(),
		ProductName:    product.Name,
		Success:        true,
		PreviousStock:  product.CurrentStock,
		NewStock:       item.Quantity,
		QuantityChange: delta,
	}
}
