// internal/services/online_transfer.go
package services

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/goldenrice/rice-backend/internal/apperror"
	"github.com/goldenrice/rice-backend/internal/i18n"
	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/repository"
	"github.com/goldenrice/rice-backend/internal/utils"
)

type PaymentDecision string

const (
	PaymentDecisionAccept PaymentDecision = "accept"
	PaymentDecisionReject PaymentDecision = "reject"
)

type PaymentProofRequest struct {
	TransactionID     string `json:"transaction_id,omitempty" form:"transaction_id" validate:"max=100"`
	PaymentScreenshot string `json:"payment_screenshot,omitempty" form:"payment_screenshot_url" validate:"max=1024"`
}

type ConfirmPaymentRequest struct {
	Decision    PaymentDecision `json:"decision" validate:"required,oneof=accept reject"`
	Note        string          `json:"note,omitempty" validate:"max=1000"`
	CancelOrder bool            `json:"cancel_order,omitempty"`
}

type PaymentInfo struct {
	OrderID            uuid.UUID                     `json:"order_id"`
	OrderNumber        string                        `json:"order_number"`
	Status             models.OrderStatus            `json:"status"`
	PaymentType        models.PaymentType            `json:"payment_type"`
	PaymentStatus      models.PaymentStatus          `json:"payment_status"`
	Amount             decimal.Decimal               `json:"amount"`
	RefundedAmount     decimal.Decimal               `json:"refunded_amount"`
	CompanyAccount     *models.CompanyPaymentAccount `json:"company_account,omitempty"`
	TransactionID      string                        `json:"transaction_id,omitempty"`
	PaymentScreenshot  string                        `json:"payment_screenshot,omitempty"`
	PaymentSubmittedAt *time.Time                    `json:"payment_submitted_at,omitempty"`
	PaymentVerifiedAt  *time.Time                    `json:"payment_verified_at,omitempty"`
	PaymentVerifiedBy  *uuid.UUID                    `json:"payment_verified_by,omitempty"`
	PaymentNote        string                        `json:"payment_note,omitempty"`
	CanSubmitProof     bool                          `json:"can_submit_proof"`
}

func orderNotEditable(order *models.Order) *apperror.Error {
	return apperror.New(apperror.KindOrderNotEditable, "order %s payment can no longer be changed", order.OrderNumber).
		WithKey(i18n.KeyOrderNotEditable)
}

// proofEditable holds while the order waits for the payment review.
func proofEditable(order *models.Order) bool {
	return order.Status == models.OrderStatusPending && order.PaymentStatus != models.PaymentStatusVerified
}

func paymentHistory(order *models.Order, actorID *uuid.UUID, note string, now time.Time) *models.OrderStatusHistory {
	return &models.OrderStatusHistory{
		ID:         uuid.New(),
		OrderID:    order.ID,
		FromStatus: order.Status,
		ToStatus:   order.Status,
		Payment:    order.PaymentStatus,
		ActorID:    actorID,
		Note:       note,
		CreatedAt:  now,
	}
}

// CreateOnlineTransferOrder places a transfer order, storing the screenshot
// first and deleting it again if the order is not saved.
func (s *OrderService) CreateOnlineTransferOrder(ctx context.Context, actor Actor, req *CreateOrderRequest, screenshot *multipart.FileHeader) (*models.Order, error) {
	req.PaymentType = models.PaymentTypeOnlineTransfer

	var upload *UploadResult
	if screenshot != nil {
		var err error
		upload, err = s.storage.Upload(ctx, screenshot, UploadPaymentScreenshot)
		if err != nil {
			return nil, err
		}
		req.PaymentScreenshot = upload.URL
	}

	order, err := s.CreateOrder(ctx, actor, req)
	if err != nil {
		s.storage.Discard(ctx, upload)
		return nil, err
	}
	return order, nil
}

// AttachPaymentProof records a transaction id and/or screenshot on the
// caller's own transfer order.
func (s *OrderService) AttachPaymentProof(ctx context.Context, actor Actor, id uuid.UUID, req *PaymentProofRequest, screenshot *multipart.FileHeader) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "order")
	}
	if order.UserID != actor.ID {
		return nil, apperror.NotFound("order")
	}
	if order.PaymentType != models.PaymentTypeOnlineTransfer {
		return nil, apperror.Field("payment_type", "payment proof only applies to online transfer orders")
	}
	if !proofEditable(order) {
		return nil, orderNotEditable(order)
	}

	transactionID := utils.SanitizeText(req.TransactionID)
	screenshotURL := strings.TrimSpace(req.PaymentScreenshot)
	if transactionID == "" && screenshotURL == "" && screenshot == nil {
		return nil, apperror.Validation("payment proof is required",
			apperror.FieldError{Field: "transaction_id", Message: "transaction_id or payment_screenshot is required"},
		).WithKey(i18n.KeyPaymentProofRequired)
	}

	var upload *UploadResult
	if screenshot != nil {
		upload, err = s.storage.Upload(ctx, screenshot, UploadPaymentScreenshot)
		if err != nil {
			return nil, err
		}
		screenshotURL = upload.URL
	}

	now := s.now()
	expected := order.Version
	if transactionID != "" {
		order.TransactionID = transactionID
	}
	if screenshotURL != "" {
		order.PaymentScreenshot = screenshotURL
	}
	order.PaymentStatus = models.PaymentStatusProofSubmitted
	order.PaymentSubmittedAt = &now
	order.Version++

	change := &repository.OrderChange{
		Order:           order,
		ExpectedVersion: expected,
		History:         paymentHistory(order, &actor.ID, "payment proof submitted", now),
	}
	if err := s.orders.Apply(ctx, change); err != nil {
		s.storage.Discard(ctx, upload)
		return nil, repoError(err, "order")
	}
	return order, nil
}

// ConfirmPayment is the admin review of a transfer order's proof.
func (s *OrderService) ConfirmPayment(ctx context.Context, actor Actor, id uuid.UUID, req *ConfirmPaymentRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "order")
	}
	if order.PaymentType != models.PaymentTypeOnlineTransfer {
		return nil, apperror.Field("payment_type", "only online transfer orders need payment confirmation")
	}
	if !proofEditable(order) {
		return nil, orderNotEditable(order)
	}

	now := s.now()
	note := utils.SanitizeText(req.Note)
	from := order.Status
	var change *repository.OrderChange

	switch req.Decision {
	case PaymentDecisionAccept:
		if !order.HasPaymentProof() {
			return nil, apperror.Validation("payment proof is required").WithKey(i18n.KeyPaymentProofRequired)
		}
		// A rejected proof stays rejected until the customer sends a new one
		if order.PaymentStatus == models.PaymentStatusRejected {
			return nil, apperror.Validation("payment proof was rejected and must be resubmitted").WithKey(i18n.KeyPaymentProofRequired)
		}
		expected := order.Version
		order.PaymentStatus = models.PaymentStatusVerified
		order.PaymentVerifiedAt = &now
		order.PaymentVerifiedBy = &actor.ID
		order.PaymentNote = note
		order.Version++
		change = &repository.OrderChange{
			Order:           order,
			ExpectedVersion: expected,
			History:         paymentHistory(order, &actor.ID, refundReason("payment verified", note), now),
		}

	case PaymentDecisionReject:
		order.PaymentStatus = models.PaymentStatusRejected
		order.PaymentNote = note
		if req.CancelOrder {
			// Rejected payments are not settled, so no refund is created
			change, err = s.planTransition(ctx, order, transition{
				to:      models.OrderStatusCanceled,
				actorID: &actor.ID,
				note:    refundReason("payment rejected", note),
				reason:  refundReason("payment rejected", note),
			})
			if err != nil {
				return nil, err
			}
		} else {
			expected := order.Version
			order.Version++
			change = &repository.OrderChange{
				Order:           order,
				ExpectedVersion: expected,
				History:         paymentHistory(order, &actor.ID, refundReason("payment rejected", note), now),
			}
		}
	}

	if err := s.orders.Apply(ctx, change); err != nil {
		return nil, repoError(err, "order")
	}

	s.notifier.PaymentReviewed(ctx, order, req.Decision == PaymentDecisionAccept)
	if order.Status != from {
		s.notifier.OrderStatusChanged(ctx, order, from)
	}
	return order, nil
}

// GetPaymentInfo is visible to the order owner and admins.
func (s *OrderService) GetPaymentInfo(ctx context.Context, actor Actor, id uuid.UUID) (*PaymentInfo, error) {
	order, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	info := &PaymentInfo{
		OrderID:            order.ID,
		OrderNumber:        order.OrderNumber,
		Status:             order.Status,
		PaymentType:        order.PaymentType,
		PaymentStatus:      order.PaymentStatus,
		Amount:             order.Total,
		RefundedAmount:     refundedTotal(order.Refunds),
		CompanyAccount:     order.CompanyPaymentAccount,
		TransactionID:      order.TransactionID,
		PaymentScreenshot:  order.PaymentScreenshot,
		PaymentSubmittedAt: order.PaymentSubmittedAt,
		PaymentVerifiedAt:  order.PaymentVerifiedAt,
		PaymentNote:        order.PaymentNote,
		CanSubmitProof:     order.PaymentType == models.PaymentTypeOnlineTransfer && proofEditable(order),
	}
	if actor.IsAdmin() {
		info.PaymentVerifiedBy = order.PaymentVerifiedBy
	}
	if info.CompanyAccount == nil && order.CompanyPaymentAccountID != nil {
		if account, err := s.accounts.FindByID(ctx, *order.CompanyPaymentAccountID); err == nil {
			info.CompanyAccount = account
		}
	}
	return info, nil
}
