// internal/models/payment.go
package models

import (
	"github.com/google/uuid"
)

// PaymentMethod is a customer's saved bank or wallet account.
type PaymentMethod struct {
	BaseModel
	UserID        uuid.UUID          `json:"user_id" gorm:"type:uuid;not null;index"`
	Type          PaymentAccountType `json:"type" gorm:"type:varchar(20);not null"`
	AccountName   string             `json:"account_name" gorm:"size:120;not null"`
	AccountNumber string             `json:"account_number" gorm:"size:64;not null"`
	IsActive      bool               `json:"is_active" gorm:"default:true"`
}

// CompanyPaymentAccount is a transfer destination shown to customers at checkout.
type CompanyPaymentAccount struct {
	BaseModel
	Type          PaymentAccountType `json:"type" gorm:"type:varchar(20);not null"`
	AccountName   string             `json:"account_name" gorm:"size:120;not null"`
	AccountNumber string             `json:"account_number" gorm:"size:64;not null"`
	IsActive      bool               `json:"is_active" gorm:"default:true;index"`
	DisplayOrder  int                `json:"display_order" gorm:"default:0"`
}
