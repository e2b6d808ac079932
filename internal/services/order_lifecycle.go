// internal/services/order_lifecycle.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/goldenrice/rice-backend/internal/apperror"
	"github.com/goldenrice/rice-backend/internal/i18n"
	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/repository"
)

var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:    {models.OrderStatusProcessing, models.OrderStatusCanceled},
	models.OrderStatusProcessing: {models.OrderStatusOnHold, models.OrderStatusShipped, models.OrderStatusCanceled},
	models.OrderStatusOnHold:     {models.OrderStatusProcessing, models.OrderStatusShipped, models.OrderStatusCanceled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered, models.OrderStatusCanceled},
	models.OrderStatusDelivered:  {models.OrderStatusReturned},
	models.OrderStatusReturned:   {models.OrderStatusRefunded},
	models.OrderStatusCanceled:   {},
	models.OrderStatusRefunded:   {},
}

// CanTransition reports whether from -> to is in the adjacency table.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func AllowedTransitions(from models.OrderStatus) []models.OrderStatus {
	next := transitions[from]
	out := make([]models.OrderStatus, len(next))
	copy(out, next)
	return out
}

// customerCancelable are the states a customer may cancel from.
var customerCancelable = map[models.OrderStatus]bool{
	models.OrderStatusPending:    true,
	models.OrderStatusProcessing: true,
	models.OrderStatusOnHold:     true,
}

type transition struct {
	to      models.OrderStatus
	actorID *uuid.UUID
	note    string
	// reason is stored as the cancel reason and used for refund rows.
	reason string
}

func invalidTransition(from, to models.OrderStatus) *apperror.Error {
	next := AllowedTransitions(from)
	allowed := make([]string, len(next))
	for i, s := range next {
		allowed[i] = string(s)
	}
	return apperror.New(apperror.KindInvalidTransition, "order cannot move from %s to %s (allowed: %s)", from, to, strings.Join(allowed, ", ")).
		WithKey(i18n.KeyOrderInvalidTransition, from, to)
}

// planTransition checks t against the state machine and mutates order into
// its target state, returning everything Apply must write. A rejected
// transition returns an error before order is touched.
func (s *OrderService) planTransition(ctx context.Context, order *models.Order, t transition) (*repository.OrderChange, error) {
	from := order.Status
	if !t.to.Valid() {
		return nil, apperror.Field("status", "unknown order status")
	}
	if from == t.to || !CanTransition(from, t.to) {
		return nil, invalidTransition(from, t.to)
	}

	// Transfer orders wait for the payment review before processing
	if order.PaymentType == models.PaymentTypeOnlineTransfer &&
		from == models.OrderStatusPending && t.to == models.OrderStatusProcessing &&
		order.PaymentStatus != models.PaymentStatusVerified {
		return nil, apperror.New(apperror.KindPaymentNotVerified, "payment for order %s is not verified", order.OrderNumber).
			WithKey(i18n.KeyPaymentNotVerified)
	}

	change := &repository.OrderChange{
		Order:           order,
		ExpectedVersion: order.Version,
	}
	now := s.now()

	switch t.to {
	case models.OrderStatusProcessing:
		if !order.StockDeducted {
			entries, guard, err := s.deductionEntries(ctx, order, now, t.actorID)
			if err != nil {
				return nil, err
			}
			change.StockEntries = entries
			change.StockGuard = guard
			order.StockDeducted = true
		}
		if order.ProcessingAt == nil {
			order.ProcessingAt = &now
		}

	case models.OrderStatusOnHold:
		// no side effects

	case models.OrderStatusShipped:
		order.ShippedAt = &now

	case models.OrderStatusDelivered:
		order.DeliveredAt = &now
		if order.PaymentType == models.PaymentTypeCOD {
			order.PaymentStatus = models.PaymentStatusCollected
		}

	case models.OrderStatusCanceled:
		order.CanceledAt = &now
		order.CancelReason = t.reason
		if order.StockDeducted {
			change.StockEntries = restockEntries(order, now, t.actorID)
			order.StockDeducted = false
		}
		if order.PaymentSettled() {
			change.NewRefunds = append(change.NewRefunds, newRefund(order, refundReason("order canceled", t.reason), now))
		}

	case models.OrderStatusReturned:
		order.ReturnedAt = &now
		if order.StockDeducted {
			change.StockEntries = restockEntries(order, now, t.actorID)
			order.StockDeducted = false
		}
		change.NewRefunds = append(change.NewRefunds, newRefund(order, refundReason("order returned", t.reason), now))

	case models.OrderStatusRefunded:
		order.RefundedAt = &now
		for i := range order.Refunds {
			if order.Refunds[i].Status != models.RefundStatusPending {
				continue
			}
			order.Refunds[i].Status = models.RefundStatusCompleted
			order.Refunds[i].CompletedAt = &now
			order.Refunds[i].CompletedBy = t.actorID
			change.CompletedRefunds = append(change.CompletedRefunds, order.Refunds[i])
		}
		// Refunds already paid out through the refund endpoint count as settled
		if len(change.CompletedRefunds) == 0 && refundedTotal(order.Refunds).IsZero() {
			refund := newRefund(order, refundReason("order refunded", t.reason), now)
			refund.Status = models.RefundStatusCompleted
			refund.CompletedAt = &now
			refund.CompletedBy = t.actorID
			change.NewRefunds = append(change.NewRefunds, refund)
		}
	}

	order.Status = t.to
	order.Version++
	change.History = &models.OrderStatusHistory{
		ID:         uuid.New(),
		OrderID:    order.ID,
		FromStatus: from,
		ToStatus:   t.to,
		Payment:    order.PaymentStatus,
		ActorID:    t.actorID,
		Note:       t.note,
		CreatedAt:  now,
	}
	return change, nil
}

// deductionEntries builds one negative ledger row per item and the list of
// products whose stock must not go below zero.
func (s *OrderService) deductionEntries(ctx context.Context, order *models.Order, now time.Time, actorID *uuid.UUID) ([]models.StockEntry, []uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, repoError(err, "product")
	}
	backorder := make(map[uuid.UUID]bool, len(products))
	for _, p := range products {
		backorder[p.ID] = p.AllowSellWithoutStock
	}

	orderID := order.ID
	entries := make([]models.StockEntry, 0, len(order.Items))
	var guard []uuid.UUID
	seen := make(map[uuid.UUID]bool, len(order.Items))
	for _, item := range order.Items {
		entries = append(entries, models.StockEntry{
			ID:        uuid.New(),
			ProductID: item.ProductID,
			Quantity:  -item.Quantity,
			Reason:    models.StockReasonOrderDeduction,
			OrderID:   &orderID,
			CreatedBy: actorID,
			Note:      order.OrderNumber,
			CreatedAt: now,
		})
		if !backorder[item.ProductID] && !seen[item.ProductID] {
			guard = append(guard, item.ProductID)
			seen[item.ProductID] = true
		}
	}
	return entries, guard, nil
}

func restockEntries(order *models.Order, now time.Time, actorID *uuid.UUID) []models.StockEntry {
	orderID := order.ID
	entries := make([]models.StockEntry, 0, len(order.Items))
	for _, item := range order.Items {
		entries = append(entries, models.StockEntry{
			ID:        uuid.New(),
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Reason:    models.StockReasonOrderRestock,
			OrderID:   &orderID,
			CreatedBy: actorID,
			Note:      order.OrderNumber,
			CreatedAt: now,
		})
	}
	return entries
}

func newRefund(order *models.Order, reason string, now time.Time) models.Refund {
	return models.Refund{
		ID:        uuid.New(),
		OrderID:   order.ID,
		Amount:    order.Total.Round(2),
		Reason:    reason,
		Status:    models.RefundStatusPending,
		CreatedAt: now,
	}
}

func refundReason(base, detail string) string {
	if detail == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, detail)
}

// refundedTotal sums completed refunds; used by payment info.
func refundedTotal(refunds []models.Refund) decimal.Decimal {
	total := decimal.Zero
	for _, r := range refunds {
		if r.Status == models.RefundStatusCompleted {
			total = total.Add(r.Amount)
		}
	}
	return total
}
