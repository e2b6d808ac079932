// internal/models/product.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const (
	LocaleEnglish = "en"
	LocaleMyanmar = "my"
)

type Product struct {
	BaseModel
	SKU                   *string         `json:"sku,omitempty" gorm:"uniqueIndex;size:64"`
	NameEn                string          `json:"name_en" gorm:"size:255;not null"`
	NameMy                string          `json:"name_my" gorm:"size:255"`
	DescriptionEn         string          `json:"description_en" gorm:"type:text"`
	DescriptionMy         string          `json:"description_my" gorm:"type:text"`
	Price                 decimal.Decimal `json:"price" gorm:"type:decimal(14,2);not null;index"`
	Images                pq.StringArray  `json:"images" gorm:"type:text[]"`
	Disabled              bool            `json:"disabled" gorm:"default:false;index"`
	OutOfStock            bool            `json:"out_of_stock" gorm:"default:false"`
	AllowSellWithoutStock bool            `json:"allow_sell_without_stock" gorm:"default:false"`
	Metadata              Metadata        `json:"metadata" gorm:"type:jsonb;not null;default:'{}'"`

	// Relationships
	StockEntries []StockEntry `json:"-" gorm:"foreignKey:ProductID"`
}

// Name returns the product name in locale, falling back to English.
func (p *Product) Name(locale string) string {
	if locale == LocaleMyanmar && p.NameMy != "" {
		return p.NameMy
	}
	return p.NameEn
}

func (p *Product) Description(locale string) string {
	if locale == LocaleMyanmar && p.DescriptionMy != "" {
		return p.DescriptionMy
	}
	return p.DescriptionEn
}

// Sellable reports whether quantity units may be ordered given the current net stock.
func (p *Product) Sellable(stock int64, quantity int64) bool {
	if p.Disabled {
		return false
	}
	if p.AllowSellWithoutStock {
		return true
	}
	return !p.OutOfStock && stock >= quantity
}

// InStock is the public availability flag.
func (p *Product) InStock(stock int64) bool {
	if p.OutOfStock {
		return false
	}
	return p.AllowSellWithoutStock || stock > 0
}

// StockEntry is a row of the append-only inventory ledger.
type StockEntry struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID     uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index"`
	Quantity      int64           `json:"quantity" gorm:"not null"`
	PurchasePrice decimal.Decimal `json:"purchase_price" gorm:"type:decimal(14,2);not null;default:0"`
	Reason        StockReason     `json:"reason" gorm:"type:varchar(30);not null"`
	OrderID       *uuid.UUID      `json:"order_id,omitempty" gorm:"type:uuid;index"`
	CreatedBy     *uuid.UUID      `json:"created_by,omitempty" gorm:"type:uuid"`
	Note          string          `json:"note,omitempty" gorm:"type:text"`
	CreatedAt     time.Time       `json:"created_at" gorm:"index"`
}
