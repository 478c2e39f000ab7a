package repository

import (
	"context"

	"stocksage/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, ownerUserID string, id uuid.UUID) error
	FindByID(ctx context.Context, ownerUserID string, id uuid.UUID) (*model.Product, error)
	FindBySKU(ctx context.Context, ownerUserID, sku string) (*model.Product, error)
	FindByBarcodeForUpdate(ctx context.Context, ownerUserID, barcode string) (*model.Product, error)
	List(ctx context.Context, ownerUserID string, page, limit int, search string) ([]model.Product, int64, error)
	ListLowStock(ctx context.Context, ownerUserID string) ([]model.Product, error)
	UpdateStock(ctx context.Context, id uuid.UUID, stock int) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Save(product).Error
}

func (r *productRepository) Delete(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("id = ? AND owner_user_id = ?", id, ownerUserID).
		Delete(&model.Product{}).Error
}

func (r *productRepository) FindByID(ctx context.Context, ownerUserID string, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).
		Where("id = ? AND owner_user_id = ?", id, ownerUserID).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindBySKU(ctx context.Context, ownerUserID, sku string) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).
		Where("sku = ? AND owner_user_id = ?", sku, ownerUserID).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByBarcodeForUpdate locks the product row for the duration of the
// surrounding transaction. Stocktake reconciliation depends on this lock to
// keep the read-compute-write sequence atomic per product.
func (r *productRepository) FindByBarcodeForUpdate(ctx context.Context, ownerUserID, barcode string) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("barcode = ? AND owner_user_id = ?", barcode, ownerUserID).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, ownerUserID string, page, limit int, search string) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Product{}).Where("owner_user_id = ?", ownerUserID)
	if search != "" {
		db = db.Where("name ILIKE ?", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *productRepository) ListLowStock(ctx context.Context, ownerUserID string) ([]model.Product, error) {
	var products []model.Product
	err := GetDB(ctx, r.db).
		Where("owner_user_id = ? AND current_stock <= min_stock_level", ownerUserID).
		Order("current_stock asc").Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) UpdateStock(ctx context.Context, id uuid.UUID, stock int) error {
	return GetDB(ctx, r.db).Model(&model.Product{}).
		Where("id = ?", id).Update("current_stock", stock).Error
}
