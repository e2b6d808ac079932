// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("jsonb: unsupported scan type %T", value)
	}
}

// Metadata is an open attribute map whose values must be scalars
// (string, number, bool). Keys read by the catalog: variety, weight, grade, origin.
type Metadata map[string]interface{}

const (
	MetaVariety = "variety"
	MetaWeight  = "weight"
	MetaGrade   = "grade"
	MetaOrigin  = "origin"
)

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("metadata: unsupported scan type %T", value)
	}
}

// Validate rejects nested objects and arrays.
func (m Metadata) Validate() error {
	for k, v := range m {
		if k == "" {
			return fmt.Errorf("metadata keys must not be empty")
		}
		switch v.(type) {
		case nil, string, bool, float64, float32, int, int32, int64, json.Number:
		default:
			return fmt.Errorf("metadata %q must be a string, number or boolean", k)
		}
	}
	return nil
}

// String returns the value under key formatted as text, or "".
func (m Metadata) String(key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Clone returns a shallow copy, enough for scalar values.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return Metadata{}
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Enums
type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleAdmin    UserRole = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type PaymentType string

const (
	PaymentTypeCOD            PaymentType = "COD"
	PaymentTypeOnlineTransfer PaymentType = "ONLINE_TRANSFER"
)

func (p PaymentType) Valid() bool {
	return p == PaymentTypeCOD || p == PaymentTypeOnlineTransfer
}

// PaymentAccountType is shared by customer payment methods and company accounts.
type PaymentAccountType string

const (
	AccountTypeAYABank PaymentAccountType = "AYA_BANK"
	AccountTypeKBZBank PaymentAccountType = "KBZ_BANK"
	AccountTypeAYAPay  PaymentAccountType = "AYA_PAY"
	AccountTypeKBZPay  PaymentAccountType = "KBZ_PAY"
)

var PaymentAccountTypes = []PaymentAccountType{
	AccountTypeAYABank,
	AccountTypeKBZBank,
	AccountTypeAYAPay,
	AccountTypeKBZPay,
}

func (t PaymentAccountType) Valid() bool {
	for _, v := range PaymentAccountTypes {
		if v == t {
			return true
		}
	}
	return false
}

// PaymentStatus is the payment sub-state carried by every order.
type PaymentStatus string

const (
	PaymentStatusAwaitingProof  PaymentStatus = "awaiting_proof"
	PaymentStatusProofSubmitted PaymentStatus = "proof_submitted"
	PaymentStatusVerified       PaymentStatus = "verified"
	PaymentStatusRejected       PaymentStatus = "rejected"
	PaymentStatusCODPending     PaymentStatus = "cod_pending"
	PaymentStatusCollected      PaymentStatus = "collected"
)

type StockReason string

const (
	StockReasonPurchase       StockReason = "purchase"
	StockReasonAdjustment     StockReason = "adjustment"
	StockReasonOrderDeduction StockReason = "order_deduction"
	StockReasonOrderRestock   StockReason = "order_restock"
)

type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusCompleted RefundStatus = "completed"
)
