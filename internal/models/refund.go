// internal/models/refund.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Refund rows are only created by order transitions; Status moves once from pending to completed.
type Refund struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrderID     uuid.UUID       `json:"order_id" gorm:"type:uuid;not null;index"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(14,2);not null"`
	Reason      string          `json:"reason" gorm:"type:text"`
	Status      RefundStatus    `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	CompletedBy *uuid.UUID      `json:"completed_by,omitempty" gorm:"type:uuid"`
	CreatedAt   time.Time       `json:"created_at"`
}
