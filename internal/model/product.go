package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product represents an item in the inventory, owned by a single user.
type Product struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU           string         `gorm:"type:varchar(100);uniqueIndex:idx_products_sku_owner;not null" json:"sku"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	CurrentStock  int            `gorm:"type:int;default:0;not null" json:"current_stock"`
	MinStockLevel int            `gorm:"type:int;default:0;not null" json:"min_stock_level"`
	Barcode       *string        `gorm:"type:varchar(100);uniqueIndex" json:"barcode,omitempty"`
	OwnerUserID   string         `gorm:"type:varchar(64);uniqueIndex:idx_products_sku_owner;index;not null" json:"owner_user_id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// InventoryLogType enum simulation
const (
	LogTypeIn            = "in"
	LogTypeOut           = "out"
	LogTypeAdjustmentAdd = "adjustment-add"
	LogTypeAdjustmentSub = "adjustment-remove"
)

// InventoryLogEntry is the append-only audit trail of stock movements. Rows
// are never updated or deleted; the sum of QuantityChange for a product since
// creation equals its current stock minus initial stock.
type InventoryLogEntry struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity       int       `gorm:"type:int;not null" json:"quantity"`        // Stock level after the change
	QuantityChange int       `gorm:"type:int;not null" json:"quantity_change"` // Signed delta
	Type           string    `gorm:"type:varchar(20);not null" json:"type"`    // in, out, adjustment-add, adjustment-remove
	Reference      string    `gorm:"type:varchar(255);not null" json:"reference"`
	Notes          string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy      string    `gorm:"type:varchar(64);not null;index" json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}
