// internal/services/order_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/goldenrice/rice-backend/internal/apperror"
	"github.com/goldenrice/rice-backend/internal/config"
	"github.com/goldenrice/rice-backend/internal/i18n"
	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/repository"
	"github.com/goldenrice/rice-backend/internal/utils"
)

// OrderNotifier is told about committed order changes. Implementations must
// not fail the request; they log their own errors.
type OrderNotifier interface {
	OrderPlaced(ctx context.Context, order *models.Order)
	OrderStatusChanged(ctx context.Context, order *models.Order, from models.OrderStatus)
	PaymentReviewed(ctx context.Context, order *models.Order, accepted bool)
}

type OrderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	accounts repository.CompanyAccountRepository
	methods  repository.PaymentMethodRepository
	storage  *StorageService
	notifier OrderNotifier
	policy   config.OrderConfig
	now      Clock
}

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int64     `json:"quantity" validate:"required,min=1,max=10000"`
}

type CreateOrderRequest struct {
	Items                   []OrderItemRequest     `json:"items" validate:"required,min=1,max=100,dive"`
	ShippingAddress         models.ShippingAddress `json:"shipping_address"`
	PaymentType             models.PaymentType     `json:"payment_type" validate:"required,oneof=COD ONLINE_TRANSFER"`
	PaymentMethodID         *uuid.UUID             `json:"payment_method_id,omitempty"`
	CompanyPaymentAccountID *uuid.UUID             `json:"company_payment_account_id,omitempty"`
	TransactionID           string                 `json:"transaction_id,omitempty" validate:"max=100"`
	PaymentScreenshot       string                 `json:"payment_screenshot,omitempty" validate:"max=1024"`
	CustomerNote            string                 `json:"customer_note,omitempty" validate:"max=1000"`
}

type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required,order_status"`
	Note   string             `json:"note,omitempty" validate:"max=1000"`
}

type OrderReasonRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=1000"`
}

type OrderQuery struct {
	utils.PaginationParams
	Status        models.OrderStatus
	PaymentType   models.PaymentType
	PaymentStatus models.PaymentStatus
	From          *time.Time
	To            *time.Time
}

func NewOrderService(repos *repository.Repositories, storage *StorageService, notifier OrderNotifier, policy config.OrderConfig) *OrderService {
	return &OrderService{
		orders:   repos.Orders,
		products: repos.Products,
		accounts: repos.CompanyAccount,
		methods:  repos.PaymentMethods,
		storage:  storage,
		notifier: notifier,
		policy:   policy,
		now:      systemClock,
	}
}

func newOrderNumber() string {
	return "ORD-" + ulid.Make().String()
}

func sanitizeAddress(a models.ShippingAddress) models.ShippingAddress {
	return models.ShippingAddress{
		FullName:     utils.SanitizeText(a.FullName),
		Phone:        utils.SanitizeText(a.Phone),
		AddressLine1: utils.SanitizeText(a.AddressLine1),
		AddressLine2: utils.SanitizeText(a.AddressLine2),
		Township:     utils.SanitizeText(a.Township),
		City:         utils.SanitizeText(a.City),
		Region:       utils.SanitizeText(a.Region),
		PostalCode:   utils.SanitizeText(a.PostalCode),
		Notes:        utils.SanitizeText(a.Notes),
	}
}

func mergeItems(items []OrderItemRequest) []OrderItemRequest {
	index := make(map[uuid.UUID]int, len(items))
	merged := make([]OrderItemRequest, 0, len(items))
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged
}

// CreateOrder places an order. Prices are snapshotted into the items and the
// order, its items and any stock deduction are written in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, actor Actor, req *CreateOrderRequest) (*models.Order, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	address := sanitizeAddress(req.ShippingAddress)
	if err := utils.ValidateStruct(&address); err != nil {
		return nil, err
	}

	items := mergeItems(req.Items)
	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}

	// Load products and check availability
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, repoError(err, "product")
	}
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	levels, err := s.products.StockLevels(ctx, ids)
	if err != nil {
		return nil, repoError(err, "product")
	}

	now := s.now()
	order := &models.Order{
		OrderNumber:     newOrderNumber(),
		UserID:          actor.ID,
		Status:          models.OrderStatusPending,
		PaymentType:     req.PaymentType,
		ShippingAddress: address,
		CustomerNote:    utils.SanitizeText(req.CustomerNote),
		Version:         1,
	}
	order.ID = uuid.New()

	total := decimal.Zero
	order.Items = make([]models.OrderItem, 0, len(items))
	for i, item := range items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, apperror.NotFound("product")
		}
		if !p.Sellable(levels[p.ID], item.Quantity) {
			return nil, productUnavailable(p)
		}

		sku := ""
		if p.SKU != nil {
			sku = *p.SKU
		}
		lineTotal := p.Price.Mul(decimal.NewFromInt(item.Quantity)).Round(2)
		total = total.Add(lineTotal)

		order.Items = append(order.Items, models.OrderItem{
			ID:            uuid.New(),
			OrderID:       order.ID,
			ProductID:     p.ID,
			Position:      i,
			ProductName:   p.NameEn,
			ProductNameMy: p.NameMy,
			SKU:           sku,
			Quantity:      item.Quantity,
			UnitPrice:     p.Price,
			LineTotal:     lineTotal,
			Metadata:      p.Metadata.Clone(),
			CreatedAt:     now,
		})
	}
	order.Total = total

	// Resolve payment path
	if err := s.resolvePayment(ctx, actor, req, order, now); err != nil {
		return nil, err
	}

	change := &repository.OrderChange{
		Order: order,
		History: &models.OrderStatusHistory{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ToStatus:  models.OrderStatusPending,
			Payment:   order.PaymentStatus,
			ActorID:   &actor.ID,
			Note:      "order placed",
			CreatedAt: now,
		},
	}

	if order.PaymentType == models.PaymentTypeCOD && s.policy.CODAutoProcess {
		entries, guard, err := s.deductionEntries(ctx, order, now, &actor.ID)
		if err != nil {
			return nil, err
		}
		change.StockEntries = entries
		change.StockGuard = guard
		order.Status = models.OrderStatusProcessing
		order.StockDeducted = true
		order.ProcessingAt = &now
		change.History.ToStatus = models.OrderStatusProcessing
		change.History.Note = "order placed, cash on delivery auto-processed"
	}

	// Save order
	if err := s.orders.Create(ctx, change); err != nil {
		return nil, s.writeError(ctx, err)
	}

	s.notifier.OrderPlaced(ctx, order)
	return order, nil
}

func (s *OrderService) resolvePayment(ctx context.Context, actor Actor, req *CreateOrderRequest, order *models.Order, now time.Time) error {
	if req.PaymentMethodID != nil {
		method, err := s.methods.FindByID(ctx, *req.PaymentMethodID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return repoError(err, "payment_method")
		}
		if err != nil || method.UserID != actor.ID || !method.IsActive {
			return apperror.Field("payment_method_id", "payment method is not available")
		}
		order.PaymentMethodID = &method.ID
	}

	switch order.PaymentType {
	case models.PaymentTypeCOD:
		order.PaymentStatus = models.PaymentStatusCODPending

	case models.PaymentTypeOnlineTransfer:
		if req.CompanyPaymentAccountID == nil {
			return apperror.Field("company_payment_account_id", "company_payment_account_id is required for online transfer")
		}
		account, err := s.accounts.FindByID(ctx, *req.CompanyPaymentAccountID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return repoError(err, "company_account")
		}
		if err != nil || !account.IsActive {
			return apperror.Field("company_payment_account_id", "company account is not available")
		}
		order.CompanyPaymentAccountID = &account.ID

		order.TransactionID = utils.SanitizeText(req.TransactionID)
		order.PaymentScreenshot = strings.TrimSpace(req.PaymentScreenshot)
		order.PaymentStatus = models.PaymentStatusAwaitingProof
		if order.HasPaymentProof() {
			order.PaymentStatus = models.PaymentStatusProofSubmitted
			order.PaymentSubmittedAt = &now
		}
	}
	return nil
}

// writeError maps a failed order write. Stock shortages name the product.
func (s *OrderService) writeError(ctx context.Context, err error) error {
	var shortage *repository.StockShortage
	if errors.As(err, &shortage) {
		if p, findErr := s.products.FindByID(ctx, shortage.ProductID); findErr == nil {
			return productUnavailable(p)
		}
	}
	return repoError(err, "order")
}

// load fetches an order the actor may see. Other customers' orders are
// reported as missing.
func (s *OrderService) load(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "order")
	}
	if !actor.IsAdmin() && order.UserID != actor.ID {
		return nil, apperror.NotFound("order")
	}
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	return s.load(ctx, actor, id)
}

// ListOrders is the back-office listing across all customers.
func (s *OrderService) ListOrders(ctx context.Context, q OrderQuery) ([]models.Order, int64, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, 0, apperror.Field("status", "unknown order status")
	}
	if q.PaymentType != "" && !q.PaymentType.Valid() {
		return nil, 0, apperror.Field("payment_type", "unknown payment type")
	}
	orders, total, err := s.orders.List(ctx, repository.OrderFilter{
		PaginationParams: q.PaginationParams,
		Status:           q.Status,
		PaymentType:      q.PaymentType,
		PaymentStatus:    q.PaymentStatus,
		From:             q.From,
		To:               q.To,
	})
	if err != nil {
		return nil, 0, repoError(err, "order")
	}
	return orders, total, nil
}

func (s *OrderService) ListMyOrders(ctx context.Context, actor Actor, q OrderQuery) ([]models.Order, int64, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, 0, apperror.Field("status", "unknown order status")
	}
	orders, total, err := s.orders.List(ctx, repository.OrderFilter{
		PaginationParams: q.PaginationParams,
		UserID:           &actor.ID,
		Status:           q.Status,
	})
	if err != nil {
		return nil, 0, repoError(err, "order")
	}
	return orders, total, nil
}

func (s *OrderService) GetHistory(ctx context.Context, actor Actor, id uuid.UUID) ([]models.OrderStatusHistory, error) {
	if _, err := s.load(ctx, actor, id); err != nil {
		return nil, err
	}
	history, err := s.orders.History(ctx, id)
	if err != nil {
		return nil, repoError(err, "order")
	}
	return history, nil
}

func (s *OrderService) apply(ctx context.Context, order *models.Order, t transition) (*models.Order, error) {
	from := order.Status
	change, err := s.planTransition(ctx, order, t)
	if err != nil {
		return nil, err
	}
	if err := s.orders.Apply(ctx, change); err != nil {
		return nil, s.writeError(ctx, err)
	}

	entryLog("order.transition").WithFields(map[string]interface{}{
		"order_id": order.ID,
		"from":     from,
		"to":       order.Status,
	}).Info("order status changed")

	s.notifier.OrderStatusChanged(ctx, order, from)
	return order, nil
}

// UpdateStatus is the admin transition endpoint.
func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, req *UpdateStatusRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	order, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	note := utils.SanitizeText(req.Note)
	t := transition{to: req.Status, actorID: &actor.ID, note: note}
	if req.Status == models.OrderStatusCanceled || req.Status == models.OrderStatusReturned {
		t.reason = note
	}
	return s.apply(ctx, order, t)
}

// CancelOrder lets customers cancel their own order before it ships. Admins
// may cancel from any state the state machine allows.
func (s *OrderService) CancelOrder(ctx context.Context, actor Actor, id uuid.UUID, req *OrderReasonRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	order, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !customerCancelable[order.Status] {
		return nil, apperror.New(apperror.KindOrderNotEditable, "order %s can no longer be canceled", order.OrderNumber).
			WithKey(i18n.KeyOrderNotEditable)
	}

	reason := utils.SanitizeText(req.Reason)
	return s.apply(ctx, order, transition{
		to:      models.OrderStatusCanceled,
		actorID: &actor.ID,
		note:    reason,
		reason:  reason,
	})
}

// ReturnOrder records a customer return of a delivered order.
func (s *OrderService) ReturnOrder(ctx context.Context, actor Actor, id uuid.UUID, req *OrderReasonRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	order, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if days := s.policy.ReturnWindowDays; days > 0 && order.Status == models.OrderStatusDelivered && order.DeliveredAt != nil {
		deadline := order.DeliveredAt.AddDate(0, 0, days)
		if s.now().After(deadline) {
			return nil, apperror.New(apperror.KindOrderNotEditable, "return window for order %s closed", order.OrderNumber).
				WithKey(i18n.KeyOrderReturnWindow)
		}
	}

	reason := utils.SanitizeText(req.Reason)
	return s.apply(ctx, order, transition{
		to:      models.OrderStatusReturned,
		actorID: &actor.ID,
		note:    reason,
		reason:  reason,
	})
}
