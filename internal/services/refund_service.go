// internal/services/refund_service.go
package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/goldenrice/rice-backend/internal/apperror"
	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/repository"
	"github.com/goldenrice/rice-backend/internal/utils"
)

type RefundService struct {
	refunds repository.RefundRepository
	now     Clock
}

func NewRefundService(refunds repository.RefundRepository) *RefundService {
	return &RefundService{
		refunds: refunds,
		now:     systemClock,
	}
}

func (s *RefundService) List(ctx context.Context, status models.RefundStatus, page utils.PaginationParams) ([]models.Refund, int64, error) {
	if status != "" && status != models.RefundStatusPending && status != models.RefundStatusCompleted {
		return nil, 0, apperror.Field("status", "status must be pending or completed")
	}
	refunds, total, err := s.refunds.List(ctx, status, page)
	if err != nil {
		return nil, 0, repoError(err, "refund")
	}
	return refunds, total, nil
}

// Complete marks a pending refund as paid out. Completing twice is a Conflict.
func (s *RefundService) Complete(ctx context.Context, actor Actor, id uuid.UUID) (*models.Refund, error) {
	refund, err := s.refunds.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "refund")
	}
	if refund.Status != models.RefundStatusPending {
		return nil, apperror.New(apperror.KindConflict, "refund %s is already completed", refund.ID)
	}

	now := s.now()
	if err := s.refunds.Complete(ctx, id, actor.ID, now); err != nil {
		return nil, repoError(err, "refund")
	}

	refund.Status = models.RefundStatusCompleted
	refund.CompletedAt = &now
	refund.CompletedBy = &actor.ID

	entryLog("refund.complete").WithFields(map[string]interface{}{
		"refund_id": refund.ID,
		"order_id":  refund.OrderID,
		"amount":    refund.Amount.StringFixed(2),
	}).Info("refund completed")
	return refund, nil
}
