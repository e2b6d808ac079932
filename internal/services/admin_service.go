// internal/services/admin_service.go
package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/repository"
	"github.com/goldenrice/rice-backend/internal/utils"
)

const (
	dashboardLowStockLimit = 10
	dashboardRecentAudits  = 10
)

type AdminService struct {
	orders            repository.OrderRepository
	products          repository.ProductRepository
	refunds           repository.RefundRepository
	users             repository.UserRepository
	audits            repository.AuditLogRepository
	lowStockThreshold int64
}

type LowStockProduct struct {
	ID    uuid.UUID `json:"id"`
	SKU   string    `json:"sku,omitempty"`
	Name  string    `json:"name"`
	Stock int64     `json:"stock"`
}

type AdminDashboardStats struct {
	OrdersByStatus       map[models.OrderStatus]int64 `json:"orders_by_status"`
	TotalOrders          int64                        `json:"total_orders"`
	AwaitingPaymentCheck int64                        `json:"awaiting_payment_review"`
	DeliveredRevenue     decimal.Decimal              `json:"delivered_revenue"`
	PendingRefunds       int64                        `json:"pending_refunds"`
	TotalCustomers       int64                        `json:"total_customers"`
	LowStock             []LowStockProduct            `json:"low_stock"`
	RecentAuditLogs      []models.AuditLog            `json:"recent_audit_logs"`
}

type AuditLogQuery struct {
	utils.PaginationParams
	UserID       *uuid.UUID
	ResourceType string
	Action       string
}

func NewAdminService(repos *repository.Repositories, lowStockThreshold int) *AdminService {
	return &AdminService{
		orders:            repos.Orders,
		products:          repos.Products,
		refunds:           repos.Refunds,
		users:             repos.Users,
		audits:            repos.AuditLogs,
		lowStockThreshold: int64(lowStockThreshold),
	}
}

// GetDashboardStats gathers the back-office overview.
func (s *AdminService) GetDashboardStats(ctx context.Context, locale string) (*AdminDashboardStats, error) {
	stats := &AdminDashboardStats{}

	// Order statistics
	byStatus, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return nil, repoError(err, "order")
	}
	stats.OrdersByStatus = byStatus
	for _, n := range byStatus {
		stats.TotalOrders += n
	}

	_, awaiting, err := s.orders.List(ctx, repository.OrderFilter{
		PaginationParams: utils.NewPaginationParams(1, 1, "", ""),
		Status:           models.OrderStatusPending,
		PaymentType:      models.PaymentTypeOnlineTransfer,
		PaymentStatus:    models.PaymentStatusProofSubmitted,
	})
	if err != nil {
		return nil, repoError(err, "order")
	}
	stats.AwaitingPaymentCheck = awaiting

	// Revenue statistics
	revenue, err := s.orders.SumTotal(ctx, []models.OrderStatus{models.OrderStatusDelivered})
	if err != nil {
		return nil, repoError(err, "order")
	}
	stats.DeliveredRevenue = revenue

	_, pending, err := s.refunds.List(ctx, models.RefundStatusPending, utils.NewPaginationParams(1, 1, "", ""))
	if err != nil {
		return nil, repoError(err, "refund")
	}
	stats.PendingRefunds = pending

	// User statistics
	customers, err := s.users.CountByRole(ctx, models.UserRoleCustomer)
	if err != nil {
		return nil, repoError(err, "user")
	}
	stats.TotalCustomers = customers

	// Stock
	low, err := s.products.LowStock(ctx, s.lowStockThreshold, dashboardLowStockLimit)
	if err != nil {
		return nil, repoError(err, "product")
	}
	stats.LowStock = make([]LowStockProduct, 0, len(low))
	for _, ps := range low {
		item := LowStockProduct{
			ID:    ps.Product.ID,
			Name:  ps.Product.Name(locale),
			Stock: ps.Stock,
		}
		if ps.Product.SKU != nil {
			item.SKU = *ps.Product.SKU
		}
		stats.LowStock = append(stats.LowStock, item)
	}

	logs, _, err := s.audits.List(ctx, repository.AuditFilter{
		PaginationParams: utils.NewPaginationParams(1, dashboardRecentAudits, "", ""),
	})
	if err != nil {
		return nil, repoError(err, "audit_log")
	}
	stats.RecentAuditLogs = logs

	return stats, nil
}

func (s *AdminService) GetAuditLogs(ctx context.Context, q AuditLogQuery) ([]models.AuditLog, int64, error) {
	logs, total, err := s.audits.List(ctx, repository.AuditFilter{
		PaginationParams: q.PaginationParams,
		UserID:           q.UserID,
		ResourceType:     q.ResourceType,
		Action:           q.Action,
	})
	if err != nil {
		return nil, 0, repoError(err, "audit_log")
	}
	return logs, total, nil
}

// RecordAudit stores one audit row. Failures are logged, never returned.
func (s *AdminService) RecordAudit(ctx context.Context, log *models.AuditLog) {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if err := s.audits.Create(ctx, log); err != nil {
		entryLog("admin.audit").WithError(err).WithField("action", log.Action).Error("failed to write audit log")
	}
}
