// internal/repository/repository.go

// Package repository holds the persistence interfaces used by services and
// their gorm implementations.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/utils"
)

var (
	ErrNotFound          = errors.New("repository: record not found")
	ErrConflict          = errors.New("repository: concurrent modification")
	ErrDuplicate         = errors.New("repository: duplicate record")
	ErrInsufficientStock = errors.New("repository: insufficient stock")
)

// StockShortage names the product whose ledger would go negative.
type StockShortage struct {
	ProductID uuid.UUID
	Available int64
}

func (e *StockShortage) Error() string {
	return "repository: insufficient stock for product " + e.ProductID.String()
}

func (e *StockShortage) Unwrap() error {
	return ErrInsufficientStock
}

type ProductFilter struct {
	utils.PaginationParams
	Variety   string
	Weight    string
	PriceMin  *decimal.Decimal
	PriceMax  *decimal.Decimal
	InStock   *bool
	Disabled  *bool
	ExcludeID *uuid.UUID
	Locale    string
}

// ProductStock pairs a product with its net ledger quantity.
type ProductStock struct {
	Product models.Product
	Stock   int64
}

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	// CreateWithStock inserts the product and its opening ledger entry in one
	// transaction. A nil entry creates the product alone.
	CreateWithStock(ctx context.Context, product *models.Product, entry *models.StockEntry) error
	Save(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	StockLevels(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error)
	AddStockEntry(ctx context.Context, entry *models.StockEntry) error
	ListStockEntries(ctx context.Context, productID uuid.UUID, page utils.PaginationParams) ([]models.StockEntry, int64, error)
	LowStock(ctx context.Context, threshold int64, limit int) ([]ProductStock, error)
}

type OrderFilter struct {
	utils.PaginationParams
	UserID        *uuid.UUID
	Status        models.OrderStatus
	PaymentType   models.PaymentType
	PaymentStatus models.PaymentStatus
	From          *time.Time
	To            *time.Time
}

// OrderChange is everything one order operation writes. Apply persists it
// atomically: the order row (guarded by ExpectedVersion), new stock entries,
// new refunds, completed refunds and the history row.
type OrderChange struct {
	Order           *models.Order
	ExpectedVersion int
	StockEntries    []models.StockEntry
	// StockGuard lists products whose net stock must stay >= 0 after the entries are written.
	StockGuard       []uuid.UUID
	NewRefunds       []models.Refund
	CompletedRefunds []models.Refund
	History          *models.OrderStatusHistory
}

type OrderRepository interface {
	// Create inserts change.Order with its items plus any stock entries and history in one transaction.
	Create(ctx context.Context, change *OrderChange) error
	Apply(ctx context.Context, change *OrderChange) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error)
	History(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error)
	CountByStatus(ctx context.Context) (map[models.OrderStatus]int64, error)
	SumTotal(ctx context.Context, statuses []models.OrderStatus) (decimal.Decimal, error)
	CountByCompanyAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
}

type RefundRepository interface {
	List(ctx context.Context, status models.RefundStatus, page utils.PaginationParams) ([]models.Refund, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Refund, error)
	// Complete moves a pending refund to completed; ErrConflict if it is not pending.
	Complete(ctx context.Context, id uuid.UUID, by uuid.UUID, at time.Time) error
}

type CompanyAccountRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.CompanyPaymentAccount, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.CompanyPaymentAccount, error)
	Create(ctx context.Context, account *models.CompanyPaymentAccount) error
	Save(ctx context.Context, account *models.CompanyPaymentAccount) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type PaymentMethodRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PaymentMethod, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
	Create(ctx context.Context, method *models.PaymentMethod) error
	Save(ctx context.Context, method *models.PaymentMethod) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
	TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	CountByRole(ctx context.Context, role models.UserRole) (int64, error)
}

type AuditFilter struct {
	utils.PaginationParams
	UserID       *uuid.UUID
	ResourceType string
	Action       string
}

type AuditLogRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, filter AuditFilter) ([]models.AuditLog, int64, error)
}

// Repositories bundles every repository the services need.
type Repositories struct {
	Products       ProductRepository
	Orders         OrderRepository
	Refunds        RefundRepository
	CompanyAccount CompanyAccountRepository
	PaymentMethods PaymentMethodRepository
	Users          UserRepository
	AuditLogs      AuditLogRepository
}

func NewGormRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Products:       NewProductRepository(db),
		Orders:         NewOrderRepository(db),
		Refunds:        NewRefundRepository(db),
		CompanyAccount: NewCompanyAccountRepository(db),
		PaymentMethods: NewPaymentMethodRepository(db),
		Users:          NewUserRepository(db),
		AuditLogs:      NewAuditLogRepository(db),
	}
}

// translate maps gorm errors onto repository errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
