// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/goldenrice/rice-backend/internal/models"
)

// ProductOption tweaks a fixture product before it is stored.
type ProductOption func(*models.Product)

func Price(v string) ProductOption {
	return func(p *models.Product) { p.Price = decimal.RequireFromString(v) }
}

func Backorder() ProductOption {
	return func(p *models.Product) { p.AllowSellWithoutStock = true }
}

func Disabled() ProductOption {
	return func(p *models.Product) { p.Disabled = true }
}

func OutOfStock() ProductOption {
	return func(p *models.Product) { p.OutOfStock = true }
}

func Meta(key, value string) ProductOption {
	return func(p *models.Product) { p.Metadata[key] = value }
}

func NameMy(name string) ProductOption {
	return func(p *models.Product) { p.NameMy = name }
}

// AddProduct stores a product with the given opening stock.
func (s *Store) AddProduct(t testing.TB, name string, stock int64, opts ...ProductOption) *models.Product {
	t.Helper()
	p := &models.Product{
		NameEn:   name,
		Price:    decimal.RequireFromString("10.00"),
		Metadata: models.Metadata{},
	}
	p.ID = uuid.New()
	for _, opt := range opts {
		opt(p)
	}
	repos := s.Repositories()
	require.NoError(t, repos.Products.Create(context.Background(), p))
	if stock != 0 {
		s.AddStock(t, p.ID, stock)
	}
	return p
}

func (s *Store) AddStock(t testing.TB, productID uuid.UUID, quantity int64) {
	t.Helper()
	err := s.Repositories().Products.AddStockEntry(context.Background(), &models.StockEntry{
		ID:        uuid.New(),
		ProductID: productID,
		Quantity:  quantity,
		Reason:    models.StockReasonPurchase,
	})
	require.NoError(t, err)
}

func (s *Store) AddUser(t testing.TB, email string, role models.UserRole) *models.User {
	t.Helper()
	u := &models.User{
		Name:   "Test " + string(role),
		Email:  email,
		Role:   role,
		Status: models.UserStatusActive,
		Locale: models.LocaleEnglish,
	}
	u.ID = uuid.New()
	require.NoError(t, u.SetPassword("Rice!2024"))
	require.NoError(t, s.Repositories().Users.Create(context.Background(), u))
	return u
}

func (s *Store) AddCompanyAccount(t testing.TB, accountType models.PaymentAccountType, active bool) *models.CompanyPaymentAccount {
	t.Helper()
	a := &models.CompanyPaymentAccount{
		Type:          accountType,
		AccountName:   "Golden Rice Trading",
		AccountNumber: "0012345678901",
		IsActive:      active,
	}
	a.ID = uuid.New()
	require.NoError(t, s.Repositories().CompanyAccount.Create(context.Background(), a))
	return a
}

func (s *Store) AddPaymentMethod(t testing.TB, userID uuid.UUID, accountType models.PaymentAccountType) *models.PaymentMethod {
	t.Helper()
	m := &models.PaymentMethod{
		UserID:        userID,
		Type:          accountType,
		AccountName:   "Customer",
		AccountNumber: "09420000000",
		IsActive:      true,
	}
	m.ID = uuid.New()
	require.NoError(t, s.Repositories().PaymentMethods.Create(context.Background(), m))
	return m
}

// Address is a valid shipping address for order requests.
func Address() models.ShippingAddress {
	return models.ShippingAddress{
		FullName:     "Aung Aung",
		Phone:        "09420000000",
		AddressLine1: "No. 12, Bogyoke Road",
		Township:     "Kamayut",
		City:         "Yangon",
	}
}
