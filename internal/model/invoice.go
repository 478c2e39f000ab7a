package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus constants
const (
	InvoiceStatusDraft    = "draft"
	InvoiceStatusSent     = "sent"
	InvoiceStatusPaid     = "paid"
	InvoiceStatusPending  = "pending"
	InvoiceStatusOverdue  = "overdue"
	InvoiceStatusCanceled = "canceled"
)

// PaymentStatus constants mirror the payment processor's states.
const (
	PaymentPending   = "PENDING"
	PaymentPaid      = "PAID"
	PaymentFailed    = "FAILED"
	PaymentRefunded  = "REFUNDED"
	PaymentCancelled = "CANCELLED"
)

// Invoice is a billing document owned by a single user. Items have no
// lifecycle of their own and are removed together with the invoice.
type Invoice struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceNumber   string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_number"`
	Status          string          `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	PaymentStatus   string          `gorm:"type:varchar(20);not null;default:'PENDING'" json:"payment_status"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_amount"`
	CustomerName    string          `gorm:"type:varchar(255);not null" json:"customer_name"`
	CustomerEmail   string          `gorm:"type:varchar(255)" json:"customer_email"`
	CustomerAddress string          `gorm:"type:text" json:"customer_address"`
	Items           []InvoiceItem   `gorm:"foreignKey:InvoiceID" json:"items"`
	OwnerUserID     string          `gorm:"type:varchar(64);not null;index" json:"owner_user_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// InvoiceItem is a line item within an Invoice.
type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Description string          `gorm:"type:varchar(255);not null" json:"description"`
	Quantity    int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_price"`
	ProductSKU  string          `gorm:"type:varchar(100)" json:"product_sku,omitempty"`
}
