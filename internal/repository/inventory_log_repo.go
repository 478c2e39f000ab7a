package repository

import (
	"context"

	"stocksage/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryLogRepository appends and reads the stock audit trail. The trail
// is append-only, so no update or delete methods exist here.
type InventoryLogRepository interface {
	Append(ctx context.Context, entry *model.InventoryLogEntry) error
	ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.InventoryLogEntry, int64, error)
}

type inventoryLogRepository struct {
	db *gorm.DB
}

func NewInventoryLogRepository(db *gorm.DB) InventoryLogRepository {
	return &inventoryLogRepository{db: db}
}

func (r *inventoryLogRepository) Append(ctx context.Context, entry *model.InventoryLogEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *inventoryLogRepository) ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.InventoryLogEntry, int64, error) {
	var entries []model.InventoryLogEntry
	var total int64

	db := GetDB(ctx, r.db).Model(&model.InventoryLogEntry{}).Where("product_id = ?", productID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
