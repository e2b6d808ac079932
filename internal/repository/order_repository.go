// internal/repository/order_repository.go
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/utils"
)

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, change *OrderChange) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProducts(tx, change.StockGuard); err != nil {
			return err
		}
		if err := tx.Create(change.Order).Error; err != nil {
			return translate(err)
		}
		return writeSideEffects(tx, change)
	})
}

func (r *orderRepository) Apply(ctx context.Context, change *OrderChange) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProducts(tx, change.StockGuard); err != nil {
			return err
		}

		order := change.Order
		result := tx.Model(&models.Order{}).
			Where("id = ? AND version = ?", order.ID, change.ExpectedVersion).
			Updates(orderColumns(order))
		if result.Error != nil {
			return fmt.Errorf("failed to update order: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrConflict
		}

		return writeSideEffects(tx, change)
	})
}

// orderColumns lists the mutable columns so zero values are written too.
func orderColumns(o *models.Order) map[string]interface{} {
	return map[string]interface{}{
		"status":               o.Status,
		"payment_status":       o.PaymentStatus,
		"transaction_id":       o.TransactionID,
		"payment_screenshot":   o.PaymentScreenshot,
		"payment_submitted_at": o.PaymentSubmittedAt,
		"payment_verified_at":  o.PaymentVerifiedAt,
		"payment_verified_by":  o.PaymentVerifiedBy,
		"payment_note":         o.PaymentNote,
		"stock_deducted":       o.StockDeducted,
		"cancel_reason":        o.CancelReason,
		"processing_at":        o.ProcessingAt,
		"shipped_at":           o.ShippedAt,
		"delivered_at":         o.DeliveredAt,
		"canceled_at":          o.CanceledAt,
		"returned_at":          o.ReturnedAt,
		"refunded_at":          o.RefundedAt,
		"version":              o.Version,
	}
}

func lockProducts(tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	var locked []uuid.UUID
	err := tx.Model(&models.Product{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Pluck("id", &locked).Error
	if err != nil {
		return fmt.Errorf("failed to lock products: %w", err)
	}
	return nil
}

func writeSideEffects(tx *gorm.DB, change *OrderChange) error {
	if len(change.StockEntries) > 0 {
		if err := tx.Create(&change.StockEntries).Error; err != nil {
			return fmt.Errorf("failed to write stock entries: %w", err)
		}
	}

	if len(change.StockGuard) > 0 {
		levels, err := stockLevels(tx, change.StockGuard)
		if err != nil {
			return err
		}
		for _, id := range change.StockGuard {
			if levels[id] < 0 {
				return &StockShortage{ProductID: id, Available: levels[id] - deducted(change.StockEntries, id)}
			}
		}
	}

	if len(change.NewRefunds) > 0 {
		if err := tx.Create(&change.NewRefunds).Error; err != nil {
			return fmt.Errorf("failed to create refunds: %w", err)
		}
	}

	for _, refund := range change.CompletedRefunds {
		result := tx.Model(&models.Refund{}).
			Where("id = ? AND status = ?", refund.ID, models.RefundStatusPending).
			Updates(map[string]interface{}{
				"status":       models.RefundStatusCompleted,
				"completed_at": refund.CompletedAt,
				"completed_by": refund.CompletedBy,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to complete refund: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrConflict
		}
	}

	if change.History != nil {
		if err := tx.Create(change.History).Error; err != nil {
			return fmt.Errorf("failed to write order history: %w", err)
		}
	}
	return nil
}

// deducted sums the quantities this change wrote for productID.
func deducted(entries []models.StockEntry, productID uuid.UUID) int64 {
	var sum int64
	for _, e := range entries {
		if e.ProductID == productID {
			sum += e.Quantity
		}
	}
	return sum
}

func (r *orderRepository) preload(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Refunds", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("CompanyPaymentAccount", func(db *gorm.DB) *gorm.DB { return db.Unscoped() })
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.preload(r.db.WithContext(ctx)).First(&order, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

var orderSorts = map[string]string{
	"newest":     "created_at DESC",
	"oldest":     "created_at ASC",
	"total_asc":  "total ASC",
	"total_desc": "total DESC",
}

func (r *orderRepository) List(ctx context.Context, f OrderFilter) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})

	if f.UserID != nil {
		query = query.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.PaymentType != "" {
		query = query.Where("payment_type = ?", f.PaymentType)
	}
	if f.PaymentStatus != "" {
		query = query.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.From != nil {
		query = query.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		query = query.Where("created_at < ?", *f.To)
	}
	if f.Search != "" {
		query = query.Where("LOWER(order_number) LIKE ?", "%"+strings.ToLower(f.Search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query = utils.ApplySort(query, f.PaginationParams, orderSorts, "created_at DESC")
	query = utils.ApplyPagination(r.preload(query), f.PaginationParams)

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}
	return orders, total, nil
}

func (r *orderRepository) History(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error) {
	var history []models.OrderStatusHistory
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order history: %w", err)
	}
	return history, nil
}

type statusCount struct {
	Status models.OrderStatus
	Count  int64
}

func (r *orderRepository) CountByStatus(ctx context.Context) (map[models.OrderStatus]int64, error) {
	var rows []statusCount
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}

	counts := make(map[models.OrderStatus]int64, len(models.OrderStatuses))
	for _, s := range models.OrderStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *orderRepository) SumTotal(ctx context.Context, statuses []models.OrderStatus) (decimal.Decimal, error) {
	var sum decimal.Decimal
	row := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0)").
		Where("status IN ?", statuses).
		Row()
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum order totals: %w", err)
	}
	return sum, nil
}

func (r *orderRepository) CountByCompanyAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("company_payment_account_id = ?", accountID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count orders for account: %w", err)
	}
	return count, nil
}
