// internal/services/notification_service_test.go
package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goldenrice/rice-backend/internal/config"
	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/testutil"
)

type sentEmail struct {
	to, subject, body string
}

func newCapturingNotifier(t *testing.T) (*NotificationService, *testutil.Store, *[]sentEmail) {
	t.Helper()
	store := testutil.NewStore()
	repos := store.Repositories()
	cfg := &config.Config{
		Email:    config.EmailConfig{FromName: "Golden Rice"},
		Frontend: config.FrontendConfig{BaseURL: "https://shop.example.com"},
	}
	n := NewNotificationService(repos.Users, repos.CompanyAccount, cfg)
	var sent []sentEmail
	n.send = func(to, subject, body string) error {
		sent = append(sent, sentEmail{to, subject, body})
		return nil
	}
	return n, store, &sent
}

func emailOrder(userID uuid.UUID, paymentType models.PaymentType) *models.Order {
	o := &models.Order{
		OrderNumber: "ORD-01HX",
		UserID:      userID,
		Status:      models.OrderStatusPending,
		PaymentType: paymentType,
		Total:       decimal.RequireFromString("25"),
		Items: []models.OrderItem{
			{ProductName: "Paw San <5kg>", Quantity: 2, LineTotal: decimal.RequireFromString("25")},
		},
	}
	o.ID = uuid.New()
	return o
}

func TestOrderPlacedEmail(t *testing.T) {
	n, store, sent := newCapturingNotifier(t)
	user := store.AddUser(t, "buyer@example.com", models.UserRoleCustomer)
	account := store.AddCompanyAccount(t, models.AccountTypeKBZPay, true)

	order := emailOrder(user.ID, models.PaymentTypeOnlineTransfer)
	order.CompanyPaymentAccountID = &account.ID
	n.OrderPlaced(context.Background(), order)

	require.Len(t, *sent, 1)
	email := (*sent)[0]
	assert.Equal(t, "buyer@example.com", email.to)
	assert.Equal(t, "Order ORD-01HX received", email.subject)
	assert.Contains(t, email.body, "*********8901")
	assert.NotContains(t, email.body, "0012345678901")
	assert.Contains(t, email.body, "Paw San &lt;5kg&gt;")
	assert.Contains(t, email.body, "25.00")
	assert.Contains(t, email.body, "https://shop.example.com/orders/"+order.ID.String())
	assert.NotContains(t, email.body, "cash")
}

func TestStatusAndPaymentEmails(t *testing.T) {
	n, store, sent := newCapturingNotifier(t)
	user := store.AddUser(t, "buyer@example.com", models.UserRoleCustomer)

	order := emailOrder(user.ID, models.PaymentTypeOnlineTransfer)
	order.PaymentNote = "amount mismatch"
	n.PaymentReviewed(context.Background(), order, false)

	order.Status = models.OrderStatusCanceled
	order.CancelReason = "out of stock"
	n.OrderStatusChanged(context.Background(), order, models.OrderStatusPending)

	n.PaymentReviewed(context.Background(), emailOrder(user.ID, models.PaymentTypeOnlineTransfer), true)

	require.Len(t, *sent, 3)
	assert.Contains(t, (*sent)[0].body, "Reason: amount mismatch")
	assert.Contains(t, (*sent)[0].body, "upload a new payment screenshot")
	assert.Contains(t, (*sent)[1].body, "from PENDING to <strong>CANCELED</strong>")
	assert.Contains(t, (*sent)[1].body, "out of stock")
	assert.Equal(t, "Payment for order ORD-01HX confirmed", (*sent)[2].subject)
}

func TestNotificationFailuresAreSwallowed(t *testing.T) {
	n, store, sent := newCapturingNotifier(t)

	// Unknown owner: nothing sent
	n.OrderPlaced(context.Background(), emailOrder(uuid.New(), models.PaymentTypeCOD))
	assert.Empty(t, *sent)

	user := store.AddUser(t, "buyer@example.com", models.UserRoleCustomer)
	n.send = func(string, string, string) error { return errors.New("smtp down") }
	assert.NotPanics(t, func() {
		n.OrderPlaced(context.Background(), emailOrder(user.ID, models.PaymentTypeCOD))
	})
}

func TestSendEmailWithoutSMTPHostOnlyLogs(t *testing.T) {
	n := NewNotificationService(nil, nil, &config.Config{})
	assert.NoError(t, n.sendEmail("buyer@example.com", "subject", "body"))
}
