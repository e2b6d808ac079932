// internal/services/payment_service.go
package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/goldenrice/rice-backend/internal/apperror"
	"github.com/goldenrice/rice-backend/internal/i18n"
	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/repository"
	"github.com/goldenrice/rice-backend/internal/utils"
)

// CompanyAccountService manages the business accounts customers transfer to.
type CompanyAccountService struct {
	accounts repository.CompanyAccountRepository
	orders   repository.OrderRepository
}

type CompanyAccountRequest struct {
	Type          models.PaymentAccountType `json:"type" validate:"required,payment_account_type"`
	AccountName   string                    `json:"account_name" validate:"required,max=120"`
	AccountNumber string                    `json:"account_number" validate:"required,max=64"`
	IsActive      *bool                     `json:"is_active,omitempty"`
	DisplayOrder  int                       `json:"display_order" validate:"min=0"`
}

type UpdateCompanyAccountRequest struct {
	Type          *models.PaymentAccountType `json:"type,omitempty" validate:"omitempty,payment_account_type"`
	AccountName   *string                    `json:"account_name,omitempty" validate:"omitempty,max=120"`
	AccountNumber *string                    `json:"account_number,omitempty" validate:"omitempty,max=64"`
	IsActive      *bool                      `json:"is_active,omitempty"`
	DisplayOrder  *int                       `json:"display_order,omitempty" validate:"omitempty,min=0"`
}

type AccountStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func NewCompanyAccountService(accounts repository.CompanyAccountRepository, orders repository.OrderRepository) *CompanyAccountService {
	return &CompanyAccountService{
		accounts: accounts,
		orders:   orders,
	}
}

// ListActive is the public list shown at checkout.
func (s *CompanyAccountService) ListActive(ctx context.Context) ([]models.CompanyPaymentAccount, error) {
	accounts, err := s.accounts.List(ctx, true)
	if err != nil {
		return nil, repoError(err, "company_account")
	}
	return accounts, nil
}

func (s *CompanyAccountService) List(ctx context.Context) ([]models.CompanyPaymentAccount, error) {
	accounts, err := s.accounts.List(ctx, false)
	if err != nil {
		return nil, repoError(err, "company_account")
	}
	return accounts, nil
}

func (s *CompanyAccountService) Get(ctx context.Context, id uuid.UUID) (*models.CompanyPaymentAccount, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "company_account")
	}
	return account, nil
}

func (s *CompanyAccountService) Create(ctx context.Context, req *CompanyAccountRequest) (*models.CompanyPaymentAccount, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	account := &models.CompanyPaymentAccount{
		Type:          req.Type,
		AccountName:   utils.SanitizeText(req.AccountName),
		AccountNumber: utils.SanitizeText(req.AccountNumber),
		IsActive:      true,
		DisplayOrder:  req.DisplayOrder,
	}
	if req.IsActive != nil {
		account.IsActive = *req.IsActive
	}
	if account.AccountName == "" || account.AccountNumber == "" {
		return nil, apperror.Field("account_number", "account name and number are required")
	}
	account.ID = uuid.New()

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, repoError(err, "company_account")
	}
	return account, nil
}

func (s *CompanyAccountService) Update(ctx context.Context, id uuid.UUID, req *UpdateCompanyAccountRequest) (*models.CompanyPaymentAccount, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "company_account")
	}

	if req.Type != nil {
		account.Type = *req.Type
	}
	if req.AccountName != nil {
		account.AccountName = utils.SanitizeText(*req.AccountName)
	}
	if req.AccountNumber != nil {
		account.AccountNumber = utils.SanitizeText(*req.AccountNumber)
	}
	if req.IsActive != nil {
		account.IsActive = *req.IsActive
	}
	if req.DisplayOrder != nil {
		account.DisplayOrder = *req.DisplayOrder
	}
	if account.AccountName == "" || account.AccountNumber == "" {
		return nil, apperror.Field("account_number", "account name and number are required")
	}

	if err := s.accounts.Save(ctx, account); err != nil {
		return nil, repoError(err, "company_account")
	}
	return account, nil
}

func (s *CompanyAccountService) SetStatus(ctx context.Context, id uuid.UUID, req *AccountStatusRequest) (*models.CompanyPaymentAccount, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	return s.Update(ctx, id, &UpdateCompanyAccountRequest{IsActive: req.IsActive})
}

// Delete removes an account no order points at. Referenced accounts can only
// be disabled.
func (s *CompanyAccountService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.accounts.FindByID(ctx, id); err != nil {
		return repoError(err, "company_account")
	}
	count, err := s.orders.CountByCompanyAccount(ctx, id)
	if err != nil {
		return repoError(err, "company_account")
	}
	if count > 0 {
		return apperror.New(apperror.KindConflict, "company account is used by %d orders, disable it instead", count).
			WithKey(i18n.KeyCompanyAccountInUse, count)
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		return repoError(err, "company_account")
	}
	return nil
}

// PaymentMethodService manages a customer's own saved payment methods.
type PaymentMethodService struct {
	methods repository.PaymentMethodRepository
}

type PaymentMethodRequest struct {
	Type          models.PaymentAccountType `json:"type" validate:"required,payment_account_type"`
	AccountName   string                    `json:"account_name" validate:"required,max=120"`
	AccountNumber string                    `json:"account_number" validate:"required,max=64"`
	IsActive      *bool                     `json:"is_active,omitempty"`
}

type UpdatePaymentMethodRequest struct {
	Type          *models.PaymentAccountType `json:"type,omitempty" validate:"omitempty,payment_account_type"`
	AccountName   *string                    `json:"account_name,omitempty" validate:"omitempty,max=120"`
	AccountNumber *string                    `json:"account_number,omitempty" validate:"omitempty,max=64"`
	IsActive      *bool                      `json:"is_active,omitempty"`
}

func NewPaymentMethodService(methods repository.PaymentMethodRepository) *PaymentMethodService {
	return &PaymentMethodService{methods: methods}
}

func (s *PaymentMethodService) List(ctx context.Context, actor Actor) ([]models.PaymentMethod, error) {
	methods, err := s.methods.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, repoError(err, "payment_method")
	}
	return methods, nil
}

func (s *PaymentMethodService) Create(ctx context.Context, actor Actor, req *PaymentMethodRequest) (*models.PaymentMethod, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	method := &models.PaymentMethod{
		UserID:        actor.ID,
		Type:          req.Type,
		AccountName:   utils.SanitizeText(req.AccountName),
		AccountNumber: utils.SanitizeText(req.AccountNumber),
		IsActive:      true,
	}
	if req.IsActive != nil {
		method.IsActive = *req.IsActive
	}
	if method.AccountName == "" || method.AccountNumber == "" {
		return nil, apperror.Field("account_number", "account name and number are required")
	}
	method.ID = uuid.New()

	if err := s.methods.Create(ctx, method); err != nil {
		return nil, repoError(err, "payment_method")
	}
	return method, nil
}

// owned loads a method of the actor. Other users' methods are reported as missing.
func (s *PaymentMethodService) owned(ctx context.Context, actor Actor, id uuid.UUID) (*models.PaymentMethod, error) {
	method, err := s.methods.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "payment_method")
	}
	if method.UserID != actor.ID {
		return nil, apperror.NotFound("payment_method")
	}
	return method, nil
}

func (s *PaymentMethodService) Update(ctx context.Context, actor Actor, id uuid.UUID, req *UpdatePaymentMethodRequest) (*models.PaymentMethod, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	method, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Type != nil {
		method.Type = *req.Type
	}
	if req.AccountName != nil {
		method.AccountName = utils.SanitizeText(*req.AccountName)
	}
	if req.AccountNumber != nil {
		method.AccountNumber = utils.SanitizeText(*req.AccountNumber)
	}
	if req.IsActive != nil {
		method.IsActive = *req.IsActive
	}
	if method.AccountName == "" || method.AccountNumber == "" {
		return nil, apperror.Field("account_number", "account name and number are required")
	}

	if err := s.methods.Save(ctx, method); err != nil {
		return nil, repoError(err, "payment_method")
	}
	return method, nil
}

func (s *PaymentMethodService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.methods.Delete(ctx, id); err != nil {
		return repoError(err, "payment_method")
	}
	return nil
}
