package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stocksage/internal/model"
	"stocksage/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Bulk operation names
const (
	BulkOpUpdateStatus = "updateStatus"
	BulkOpDelete       = "delete"
	BulkOpExport       = "export"
)

// invoiceNumberAttempts bounds retries when two creates race to the same
// monthly sequence number.
const invoiceNumberAttempts = 3

// Validation errors surfaced as 400 before any persistence call.
var (
	ErrEmptyInvoiceIDs        = errors.New("invoiceIds must not be empty")
	ErrUnsupportedOperation   = errors.New("unsupported bulk operation")
	ErrInvalidBulkStatus      = errors.New("status must be one of paid, pending, overdue")
	ErrInvalidInvoiceID       = errors.New("invalid invoice id")
	ErrInvoiceNotFound        = errors.New("invoice not found")
	ErrInvoiceItemsRequired   = errors.New("invoice requires at least one item")
	ErrInvalidInvoiceStatus   = errors.New("invalid invoice status")
	ErrInvalidInvoiceQuantity = errors.New("item quantity must be greater than zero")
)

// IsValidationError reports whether err should map to a 400 response.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyInvoiceIDs) ||
		errors.Is(err, ErrUnsupportedOperation) ||
		errors.Is(err, ErrInvalidBulkStatus) ||
		errors.Is(err, ErrInvalidInvoiceID) ||
		errors.Is(err, ErrInvoiceItemsRequired) ||
		errors.Is(err, ErrInvalidInvoiceStatus) ||
		errors.Is(err, ErrInvalidInvoiceQuantity)
}

// DTOs
type InvoiceItemRequest struct {
	Description string `json:"description" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required,gt=0"`
	UnitPrice   string `json:"unit_price" binding:"required"`
	ProductSKU  string `json:"product_sku"`
}

type CreateInvoiceRequest struct {
	CustomerName    string               `json:"customer_name" binding:"required"`
	CustomerEmail   string               `json:"customer_email" binding:"omitempty,email"`
	CustomerAddress string               `json:"customer_address"`
	Items           []InvoiceItemRequest `json:"items" binding:"required,min=1,dive"`
}

type UpdateInvoiceRequest struct {
	Status          string `json:"status"`
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email" binding:"omitempty,email"`
	CustomerAddress string `json:"customer_address"`
}

type BulkInvoiceData struct {
	Status string `json:"status"`
}

type BulkInvoiceRequest struct {
	Operation  string           `json:"operation" binding:"required"`
	InvoiceIDs []string         `json:"invoiceIds"`
	Data       *BulkInvoiceData `json:"data"`
}

// BulkInvoiceResult aggregates a bulk operation's outcome. Count is the
// number of invoices affected; Invoices is populated for export only.
type BulkInvoiceResult struct {
	Count    int64           `json:"count"`
	Invoices []model.Invoice `json:"invoices,omitempty"`
}

type InvoiceService interface {
	CreateInvoice(ctx context.Context, ownerUserID string, req CreateInvoiceRequest) (*model.Invoice, error)
	GetInvoice(ctx context.Context, ownerUserID, id string) (*model.Invoice, error)
	ListInvoices(ctx context.Context, ownerUserID, status string, page, limit int) ([]model.Invoice, int64, error)
	UpdateInvoice(ctx context.Context, ownerUserID, id string, req UpdateInvoiceRequest) (*model.Invoice, error)
	DeleteInvoice(ctx context.Context, ownerUserID, id string) error
	ApplyBulk(ctx context.Context, ownerUserID string, req BulkInvoiceRequest) (*BulkInvoiceResult, error)
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	txManager   repository.TransactionManager
}

func NewInvoiceService(invoiceRepo repository.InvoiceRepository, txManager repository.TransactionManager) InvoiceService {
	return &invoiceService{invoiceRepo: invoiceRepo, txManager: txManager}
}

// Statuses a bulk updateStatus may set. Other transitions go through the
// single-invoice update endpoint.
var bulkStatuses = map[string]bool{
	model.InvoiceStatusPaid:    true,
	model.InvoiceStatusPending: true,
	model.InvoiceStatusOverdue: true,
}

var invoiceStatuses = map[string]bool{
	model.InvoiceStatusDraft:    true,
	model.InvoiceStatusSent:     true,
	model.InvoiceStatusPaid:     true,
	model.InvoiceStatusPending:  true,
	model.InvoiceStatusOverdue:  true,
	model.InvoiceStatusCanceled: true,
}

// ApplyBulk applies one operation across a set of invoices. Request-shape
// problems (empty id list, unknown operation, bad status) are rejected
// before any persistence call; ids inside a valid request that match no
// invoice are not an error, they simply don't count. An id that is not even
// a well-formed key can never match a row, so it is skipped the same way.
func (s *invoiceService) ApplyBulk(ctx context.Context, ownerUserID string, req BulkInvoiceRequest) (*BulkInvoiceResult, error) {
	if len(req.InvoiceIDs) == 0 {
		return nil, ErrEmptyInvoiceIDs
	}

	ids := make([]uuid.UUID, 0, len(req.InvoiceIDs))
	for _, raw := range req.InvoiceIDs {
		if id, err := uuid.Parse(raw); err == nil {
			ids = append(ids, id)
		}
	}

	switch req.Operation {
	case BulkOpUpdateStatus:
		if req.Data == nil || !bulkStatuses[req.Data.Status] {
			return nil, ErrInvalidBulkStatus
		}
		if len(ids) == 0 {
			return &BulkInvoiceResult{}, nil
		}
		count, err := s.invoiceRepo.BulkUpdateStatus(ctx, ownerUserID, ids, req.Data.Status)
		if err != nil {
			return nil, fmt.Errorf("failed to update invoice statuses: %w", err)
		}
		return &BulkInvoiceResult{Count: count}, nil

	case BulkOpDelete:
		if len(ids) == 0 {
			return &BulkInvoiceResult{}, nil
		}
		var count int64
		err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			// Items first: the storage layer does not cascade them.
			if err := s.invoiceRepo.DeleteItemsByInvoiceIDs(txCtx, ownerUserID, ids); err != nil {
				return fmt.Errorf("failed to delete invoice items: %w", err)
			}
			deleted, err := s.invoiceRepo.DeleteByIDs(txCtx, ownerUserID, ids)
			if err != nil {
				return fmt.Errorf("failed to delete invoices: %w", err)
			}
			count = deleted
			return nil
		})
		if err != nil {
			return nil, err
		}
		return &BulkInvoiceResult{Count: count}, nil

	case BulkOpExport:
		if len(ids) == 0 {
			return &BulkInvoiceResult{}, nil
		}
		invoices, err := s.invoiceRepo.FindByIDsWithItems(ctx, ownerUserID, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to export invoices: %w", err)
		}
		return &BulkInvoiceResult{Count: int64(len(invoices)), Invoices: invoices}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperation, req.Operation)
	}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, ownerUserID string, req CreateInvoiceRequest) (*model.Invoice, error) {
	if len(req.Items) == 0 {
		return nil, ErrInvoiceItemsRequired
	}

	total := decimal.Zero
	items := make([]model.InvoiceItem, 0, len(req.Items))
	for _, itemReq := range req.Items {
		if itemReq.Quantity <= 0 {
			return nil, ErrInvalidInvoiceQuantity
		}
		unitPrice, err := decimal.NewFromString(itemReq.UnitPrice)
		if err != nil || unitPrice.IsNegative() {
			return nil, fmt.Errorf("invalid unit price %q", itemReq.UnitPrice)
		}
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(itemReq.Quantity)))
		items = append(items, model.InvoiceItem{
			Description: itemReq.Description,
			Quantity:    itemReq.Quantity,
			UnitPrice:   unitPrice,
			TotalPrice:  lineTotal,
			ProductSKU:  itemReq.ProductSKU,
		})
		total = total.Add(lineTotal)
	}

	invoice := &model.Invoice{
		Status:          model.InvoiceStatusDraft,
		PaymentStatus:   model.PaymentPending,
		TotalAmount:     total,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerAddress: req.CustomerAddress,
		Items:           items,
		OwnerUserID:     ownerUserID,
	}

	// Concurrent creates (or a bulk delete regressing the count) can land on
	// an already-issued number; the unique index arbitrates and the loser
	// recounts and takes the next slot.
	for attempt := 0; ; attempt++ {
		number, err := s.nextInvoiceNumber(ctx, attempt)
		if err != nil {
			return nil, err
		}
		invoice.InvoiceNumber = number

		err = s.invoiceRepo.Create(ctx, invoice)
		if err == nil {
			return invoice, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) || attempt+1 >= invoiceNumberAttempts {
			return nil, fmt.Errorf("failed to create invoice: %w", err)
		}
	}
}

func (s *invoiceService) GetInvoice(ctx context.Context, ownerUserID, id string) (*model.Invoice, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInvoiceID, id)
	}
	invoice, err := s.invoiceRepo.FindByIDWithItems(ctx, ownerUserID, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return invoice, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, ownerUserID, status string, page, limit int) ([]model.Invoice, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.invoiceRepo.List(ctx, ownerUserID, status, page, limit)
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, ownerUserID, id string, req UpdateInvoiceRequest) (*model.Invoice, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInvoiceID, id)
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, ownerUserID, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if req.Status != "" {
		if !invoiceStatuses[req.Status] {
			return nil, ErrInvalidInvoiceStatus
		}
		invoice.Status = req.Status
	}
	if req.CustomerName != "" {
		invoice.CustomerName = req.CustomerName
	}
	if req.CustomerEmail != "" {
		invoice.CustomerEmail = req.CustomerEmail
	}
	if req.CustomerAddress != "" {
		invoice.CustomerAddress = req.CustomerAddress
	}

	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}
	return invoice, nil
}

// DeleteInvoice removes a single invoice through the same two-phase cascade
// the bulk engine uses.
func (s *invoiceService) DeleteInvoice(ctx context.Context, ownerUserID, id string) error {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInvoiceID, id)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ids := []uuid.UUID{invoiceID}
		if err := s.invoiceRepo.DeleteItemsByInvoiceIDs(txCtx, ownerUserID, ids); err != nil {
			return fmt.Errorf("failed to delete invoice items: %w", err)
		}
		deleted, err := s.invoiceRepo.DeleteByIDs(txCtx, ownerUserID, ids)
		if err != nil {
			return fmt.Errorf("failed to delete invoice: %w", err)
		}
		if deleted == 0 {
			return ErrInvoiceNotFound
		}
		return nil
	})
}

func (s *invoiceService) nextInvoiceNumber(ctx context.Context, attempt int) (string, error) {
	prefix := fmt.Sprintf("INV-%s-", time.Now().Format("200601"))
	count, err := s.invoiceRepo.CountByPrefix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to generate invoice number: %w", err)
	}
	return fmt.Sprintf("%s%04d", prefix, count+1+int64(attempt)), nil
}
