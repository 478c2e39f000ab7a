package repository

import (
	"context"

	"stocksage/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	Update(ctx context.Context, invoice *model.Invoice) error
	FindByID(ctx context.Context, ownerUserID string, id uuid.UUID) (*model.Invoice, error)
	FindByIDWithItems(ctx context.Context, ownerUserID string, id uuid.UUID) (*model.Invoice, error)
	FindByIDsWithItems(ctx context.Context, ownerUserID string, ids []uuid.UUID) ([]model.Invoice, error)
	List(ctx context.Context, ownerUserID, status string, page, limit int) ([]model.Invoice, int64, error)
	BulkUpdateStatus(ctx context.Context, ownerUserID string, ids []uuid.UUID, status string) (int64, error)
	DeleteItemsByInvoiceIDs(ctx context.Context, ownerUserID string, ids []uuid.UUID) error
	DeleteByIDs(ctx context.Context, ownerUserID string, ids []uuid.UUID) (int64, error)
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Create(invoice).Error
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Save(invoice).Error
}

func (r *invoiceRepository) FindByID(ctx context.Context, ownerUserID string, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).
		Where("id = ? AND owner_user_id = ?", id, ownerUserID).
		First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindByIDWithItems(ctx context.Context, ownerUserID string, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).Preload("Items").
		Where("id = ? AND owner_user_id = ?", id, ownerUserID).
		First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindByIDsWithItems(ctx context.Context, ownerUserID string, ids []uuid.UUID) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := GetDB(ctx, r.db).Preload("Items").
		Where("id IN ? AND owner_user_id = ?", ids, ownerUserID).
		Order("created_at desc").Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *invoiceRepository) List(ctx context.Context, ownerUserID, status string, page, limit int) ([]model.Invoice, int64, error) {
	var invoices []model.Invoice
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Invoice{}).Where("owner_user_id = ?", ownerUserID)
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Items").Order("created_at desc").
		Offset(offset).Limit(limit).Find(&invoices).Error; err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}

// BulkUpdateStatus applies the status to every matching invoice in one UPDATE
// and reports the number of rows actually matched. IDs that do not exist (or
// belong to another owner) are simply not counted.
func (r *invoiceRepository) BulkUpdateStatus(ctx context.Context, ownerUserID string, ids []uuid.UUID, status string) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Invoice{}).
		Where("id IN ? AND owner_user_id = ?", ids, ownerUserID).
		Update("status", status)
	return res.RowsAffected, res.Error
}

// DeleteItemsByInvoiceIDs removes the line items of the targeted invoices.
// The storage layer does not cascade item deletion, so callers must invoke
// this before DeleteByIDs within the same transaction.
func (r *invoiceRepository) DeleteItemsByInvoiceIDs(ctx context.Context, ownerUserID string, ids []uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("invoice_id IN (?)",
			GetDB(ctx, r.db).Model(&model.Invoice{}).Select("id").
				Where("id IN ? AND owner_user_id = ?", ids, ownerUserID)).
		Delete(&model.InvoiceItem{}).Error
}

func (r *invoiceRepository) DeleteByIDs(ctx context.Context, ownerUserID string, ids []uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).
		Where("id IN ? AND owner_user_id = ?", ids, ownerUserID).
		Delete(&model.Invoice{})
	return res.RowsAffected, res.Error
}

func (r *invoiceRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Invoice{}).
		Where("invoice_number LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
