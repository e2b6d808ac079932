// internal/repository/refund_repository.go
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/utils"
)

type refundRepository struct {
	db *gorm.DB
}

func NewRefundRepository(db *gorm.DB) RefundRepository {
	return &refundRepository{db: db}
}

func (r *refundRepository) List(ctx context.Context, status models.RefundStatus, page utils.PaginationParams) ([]models.Refund, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Refund{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count refunds: %w", err)
	}

	var refunds []models.Refund
	if err := utils.ApplyPagination(query.Order("created_at DESC"), page).Find(&refunds).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch refunds: %w", err)
	}
	return refunds, total, nil
}

func (r *refundRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Refund, error) {
	var refund models.Refund
	if err := r.db.WithContext(ctx).First(&refund, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &refund, nil
}

func (r *refundRepository) Complete(ctx context.Context, id uuid.UUID, by uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Refund{}).
		Where("id = ? AND status = ?", id, models.RefundStatusPending).
		Updates(map[string]interface{}{
			"status":       models.RefundStatusCompleted,
			"completed_at": at,
			"completed_by": by,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to complete refund: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}
