package service

import (
	"context"
	"errors"
	"fmt"

	"stocksage/internal/model"
	"stocksage/internal/repository"
	ws "stocksage/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound       = errors.New("product not found")
	ErrInvalidProductID      = errors.New("invalid product id")
	ErrInvalidAdjustment     = errors.New("adjustment quantity must be greater than zero")
	ErrInsufficientStock     = errors.New("insufficient stock for adjustment")
	ErrInvalidAdjustmentType = errors.New("adjustment type must be in or out")
)

// DTOs
type CreateProductRequest struct {
	SKU           string  `json:"sku" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	MinStockLevel int     `json:"min_stock_level" binding:"min=0"`
	Barcode       *string `json:"barcode"`
}

type UpdateProductRequest struct {
	SKU           string  `json:"sku" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	MinStockLevel int     `json:"min_stock_level" binding:"min=0"`
	Barcode       *string `json:"barcode"`
}

type AdjustStockRequest struct {
	Type      string `json:"type" binding:"required,oneof=in out"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	Reference string `json:"reference" binding:"required"`
	Notes     string `json:"notes"`
}

type ProductService interface {
	ListProducts(ctx context.Context, ownerUserID string, page, limit int, search string) ([]model.Product, int64, error)
	CreateProduct(ctx context.Context, ownerUserID string, req CreateProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, ownerUserID, id string, req UpdateProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, ownerUserID, id string) error
	AdjustStock(ctx context.Context, ownerUserID, id string, req AdjustStockRequest) (*model.Product, error)
	ListLogs(ctx context.Context, ownerUserID, productID string, page, limit int) ([]model.InventoryLogEntry, int64, error)
	ListLowStock(ctx context.Context, ownerUserID string) ([]model.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
	logRepo     repository.InventoryLogRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
}

func NewProductService(
	productRepo repository.ProductRepository,
	logRepo repository.InventoryLogRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) ProductService {
	return &productService{
		productRepo: productRepo,
		logRepo:     logRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

func (s *productService) ListProducts(ctx context.Context, ownerUserID string, page, limit int, search string) ([]model.Product, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.productRepo.List(ctx, ownerUserID, page, limit, search)
}

func (s *productService) CreateProduct(ctx context.Context, ownerUserID string, req CreateProductRequest) (*model.Product, error) {
	product := &model.Product{
		SKU:           req.SKU,
		Name:          req.Name,
		MinStockLevel: req.MinStockLevel,
		Barcode:       req.Barcode,
		OwnerUserID:   ownerUserID,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, ownerUserID, id string, req UpdateProductRequest) (*model.Product, error) {
	product, err := s.findProduct(ctx, ownerUserID, id)
	if err != nil {
		return nil, err
	}

	product.SKU = req.SKU
	product.Name = req.Name
	product.MinStockLevel = req.MinStockLevel
	product.Barcode = req.Barcode

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, ownerUserID, id string) error {
	product, err := s.findProduct(ctx, ownerUserID, id)
	if err != nil {
		return err
	}
	return s.productRepo.Delete(ctx, ownerUserID, product.ID)
}

// AdjustStock applies a manual in/out movement and appends the matching
// audit entry in one transaction.
func (s *productService) AdjustStock(ctx context.Context, ownerUserID, id string, req AdjustStockRequest) (*model.Product, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidAdjustment
	}
	if req.Type != model.LogTypeIn && req.Type != model.LogTypeOut {
		return nil, ErrInvalidAdjustmentType
	}

	product, err := s.findProduct(ctx, ownerUserID, id)
	if err != nil {
		return nil, err
	}

	change := req.Quantity
	if req.Type == model.LogTypeOut {
		change = -req.Quantity
	}
	newStock := product.CurrentStock + change
	if newStock < 0 {
		return nil, ErrInsufficientStock
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.UpdateStock(txCtx, product.ID, newStock); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}
		entry := &model.InventoryLogEntry{
			ProductID:      product.ID,
			Quantity:       newStock,
			QuantityChange: change,
			Type:           req.Type,
			Reference:      req.Reference,
			Notes:          req.Notes,
			CreatedBy:      ownerUserID,
		}
		return s.logRepo.Append(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}

	product.CurrentStock = newStock
	s.hub.BroadcastEvent(ws.StockEvent{
		Event: "stock.updated",
		Data: map[string]interface{}{
			"product_id":    product.ID.String(),
			"product_name":  product.Name,
			"current_stock": newStock,
		},
	})
	return product, nil
}

func (s *productService) ListLogs(ctx context.Context, ownerUserID, productID string, page, limit int) ([]model.InventoryLogEntry, int64, error) {
	product, err := s.findProduct(ctx, ownerUserID, productID)
	if err != nil {
		return nil, 0, err
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.logRepo.ListByProduct(ctx, product.ID, page, limit)
}

func (s *productService) ListLowStock(ctx context.Context, ownerUserID string) ([]model.Product, error) {
	return s.productRepo.ListLowStock(ctx, ownerUserID)
}

func (s *productService) findProduct(ctx context.Context, ownerUserID, id string) (*model.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProductID, id)
	}
	product, err := s.productRepo.FindByID(ctx, ownerUserID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return product, nil
}
