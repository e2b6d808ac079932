// internal/repository/payment_repository.go
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/goldenrice/rice-backend/internal/models"
)

type companyAccountRepository struct {
	db *gorm.DB
}

func NewCompanyAccountRepository(db *gorm.DB) CompanyAccountRepository {
	return &companyAccountRepository{db: db}
}

func (r *companyAccountRepository) List(ctx context.Context, activeOnly bool) ([]models.CompanyPaymentAccount, error) {
	query := r.db.WithContext(ctx).Model(&models.CompanyPaymentAccount{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var accounts []models.CompanyPaymentAccount
	if err := query.Order("display_order ASC, created_at ASC").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch company accounts: %w", err)
	}
	return accounts, nil
}

func (r *companyAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.CompanyPaymentAccount, error) {
	var account models.CompanyPaymentAccount
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (r *companyAccountRepository) Create(ctx context.Context, account *models.CompanyPaymentAccount) error {
	return translate(r.db.WithContext(ctx).Create(account).Error)
}

func (r *companyAccountRepository) Save(ctx context.Context, account *models.CompanyPaymentAccount) error {
	return translate(r.db.WithContext(ctx).Save(account).Error)
}

// Delete removes the row permanently; callers check it is unreferenced first.
func (r *companyAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Unscoped().Delete(&models.CompanyPaymentAccount{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete company account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type paymentMethodRepository struct {
	db *gorm.DB
}

func NewPaymentMethodRepository(db *gorm.DB) PaymentMethodRepository {
	return &paymentMethodRepository{db: db}
}

func (r *paymentMethodRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&methods).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment methods: %w", err)
	}
	return methods, nil
}

func (r *paymentMethodRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := r.db.WithContext(ctx).First(&method, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &method, nil
}

func (r *paymentMethodRepository) Create(ctx context.Context, method *models.PaymentMethod) error {
	return translate(r.db.WithContext(ctx).Create(method).Error)
}

func (r *paymentMethodRepository) Save(ctx context.Context, method *models.PaymentMethod) error {
	return translate(r.db.WithContext(ctx).Save(method).Error)
}

func (r *paymentMethodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PaymentMethod{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete payment method: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
