// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusOnHold     OrderStatus = "ON_HOLD"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCanceled   OrderStatus = "CANCELED"
	OrderStatusReturned   OrderStatus = "RETURNED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusOnHold,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCanceled,
	OrderStatusReturned,
	OrderStatusRefunded,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// ShippingAddress is stored inline on the order row.
type ShippingAddress struct {
	FullName     string `json:"full_name" gorm:"size:120" validate:"required,max=120"`
	Phone        string `json:"phone" gorm:"size:32" validate:"required,max=32"`
	AddressLine1 string `json:"address_line1" gorm:"size:255" validate:"required,max=255"`
	AddressLine2 string `json:"address_line2,omitempty" gorm:"size:255" validate:"max=255"`
	Township     string `json:"township,omitempty" gorm:"size:100" validate:"max=100"`
	City         string `json:"city" gorm:"size:100" validate:"required,max=100"`
	Region       string `json:"region,omitempty" gorm:"size:100" validate:"max=100"`
	PostalCode   string `json:"postal_code,omitempty" gorm:"size:20" validate:"max=20"`
	Notes        string `json:"notes,omitempty" gorm:"type:text" validate:"max=500"`
}

type Order struct {
	BaseModel
	OrderNumber             string          `json:"order_number" gorm:"uniqueIndex;size:40;not null"`
	UserID                  uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index"`
	Status                  OrderStatus     `json:"status" gorm:"type:varchar(20);not null;index"`
	PaymentType             PaymentType     `json:"payment_type" gorm:"type:varchar(20);not null;index"`
	PaymentStatus           PaymentStatus   `json:"payment_status" gorm:"type:varchar(20);not null;index"`
	PaymentMethodID         *uuid.UUID      `json:"payment_method_id,omitempty" gorm:"type:uuid"`
	CompanyPaymentAccountID *uuid.UUID      `json:"company_payment_account_id,omitempty" gorm:"type:uuid;index"`
	Total                   decimal.Decimal `json:"total" gorm:"type:decimal(14,2);not null"`
	ShippingAddress         ShippingAddress `json:"shipping_address" gorm:"embedded;embeddedPrefix:shipping_"`
	CustomerNote            string          `json:"customer_note,omitempty" gorm:"type:text"`
	TransactionID           string          `json:"transaction_id,omitempty" gorm:"size:100"`
	PaymentScreenshot       string          `json:"payment_screenshot,omitempty" gorm:"type:text"`
	PaymentSubmittedAt      *time.Time      `json:"payment_submitted_at,omitempty"`
	PaymentVerifiedAt       *time.Time      `json:"payment_verified_at,omitempty"`
	PaymentVerifiedBy       *uuid.UUID      `json:"payment_verified_by,omitempty" gorm:"type:uuid"`
	PaymentNote             string          `json:"payment_note,omitempty" gorm:"type:text"`
	StockDeducted           bool            `json:"stock_deducted" gorm:"default:false"`
	CancelReason            string          `json:"cancel_reason,omitempty" gorm:"type:text"`
	ProcessingAt            *time.Time      `json:"processing_at,omitempty"`
	ShippedAt               *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt             *time.Time      `json:"delivered_at,omitempty"`
	CanceledAt              *time.Time      `json:"canceled_at,omitempty"`
	ReturnedAt              *time.Time      `json:"returned_at,omitempty"`
	RefundedAt              *time.Time      `json:"refunded_at,omitempty"`
	Version                 int             `json:"version" gorm:"not null;default:1"`

	// Relationships
	Items                 []OrderItem            `json:"items" gorm:"foreignKey:OrderID"`
	Refunds               []Refund               `json:"refunds,omitempty" gorm:"foreignKey:OrderID"`
	CompanyPaymentAccount *CompanyPaymentAccount `json:"company_payment_account,omitempty" gorm:"foreignKey:CompanyPaymentAccountID"`
}

// HasPaymentProof reports whether a transaction id or screenshot is attached.
func (o *Order) HasPaymentProof() bool {
	return o.TransactionID != "" || o.PaymentScreenshot != ""
}

// PaymentSettled reports whether money has reached the business.
func (o *Order) PaymentSettled() bool {
	return o.PaymentStatus == PaymentStatusVerified || o.PaymentStatus == PaymentStatusCollected
}

// OrderItem is immutable after creation; name, SKU and price are snapshots.
type OrderItem struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrderID       uuid.UUID       `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index"`
	Position      int             `json:"position" gorm:"not null;default:0"`
	ProductName   string          `json:"product_name" gorm:"size:255;not null"`
	ProductNameMy string          `json:"product_name_my,omitempty" gorm:"size:255"`
	SKU           string          `json:"sku,omitempty" gorm:"size:64"`
	Quantity      int64           `json:"quantity" gorm:"not null"`
	UnitPrice     decimal.Decimal `json:"unit_price" gorm:"type:decimal(14,2);not null"`
	LineTotal     decimal.Decimal `json:"line_total" gorm:"type:decimal(14,2);not null"`
	Metadata      Metadata        `json:"metadata" gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt     time.Time       `json:"created_at"`
}

// OrderStatusHistory records every accepted transition and payment decision.
type OrderStatusHistory struct {
	ID         uuid.UUID     `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrderID    uuid.UUID     `json:"order_id" gorm:"type:uuid;not null;index"`
	FromStatus OrderStatus   `json:"from_status" gorm:"type:varchar(20)"`
	ToStatus   OrderStatus   `json:"to_status" gorm:"type:varchar(20);not null"`
	Payment    PaymentStatus `json:"payment_status,omitempty" gorm:"type:varchar(20)"`
	ActorID    *uuid.UUID    `json:"actor_id,omitempty" gorm:"type:uuid"`
	Note       string        `json:"note,omitempty" gorm:"type:text"`
	CreatedAt  time.Time     `json:"created_at"`
}

func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}
