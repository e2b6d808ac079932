// internal/services/online_transfer_test.go
package services

import (
	"errors"

	"github.com/goldenrice/rice-backend/internal/apperror"
	"github.com/goldenrice/rice-backend/internal/models"
)

func (s *OrderServiceSuite) TestCreateOnlineTransferOrderStoresScreenshot() {
	screenshot := fileHeader(s.T(), "receipt.png", pngBytes(s.T(), 40, 60))

	order, err := s.svc.CreateOnlineTransferOrder(s.ctx, s.customer, s.transferRequest("", s.item(s.rice, 1)), screenshot)
	s.Require().NoError(err)
	s.Equal(models.PaymentTypeOnlineTransfer, order.PaymentType)
	s.Equal(models.PaymentStatusProofSubmitted, order.PaymentStatus)
	s.Contains(order.PaymentScreenshot, "/uploads/files/originals/20250314_")
	s.Len(s.storedFiles(), 3)
}

func (s *OrderServiceSuite) TestCreateOnlineTransferOrderDiscardsScreenshotOnFailure() {
	screenshot := fileHeader(s.T(), "receipt.png", pngBytes(s.T(), 40, 60))
	s.store.FailNext("orders.Create", errors.New("db down"))

	_, err := s.svc.CreateOnlineTransferOrder(s.ctx, s.customer, s.transferRequest("", s.item(s.rice, 1)), screenshot)
	s.Equal(apperror.KindInternal, apperror.KindOf(err))
	s.Empty(s.storedFiles())

	// Validation failures also leave nothing behind
	screenshot = fileHeader(s.T(), "receipt.png", pngBytes(s.T(), 40, 60))
	_, err = s.svc.CreateOnlineTransferOrder(s.ctx, s.customer, s.transferRequest("", s.item(s.rice, 99)), screenshot)
	s.Equal(apperror.KindProductUnavailable, apperror.KindOf(err))
	s.Empty(s.storedFiles())
	s.Equal(0, s.store.OrderCount())
}

func (s *OrderServiceSuite) TestAttachPaymentProof() {
	order, err := s.svc.CreateOrder(s.ctx, s.customer, s.transferRequest("", s.item(s.rice, 1)))
	s.Require().NoError(err)

	_, err = s.svc.AttachPaymentProof(s.ctx, s.customer, order.ID, &PaymentProofRequest{}, nil)
	s.Equal(apperror.KindValidation, apperror.KindOf(err))

	_, err = s.svc.AttachPaymentProof(s.ctx, s.other, order.ID, &PaymentProofRequest{TransactionID: "TX-9"}, nil)
	s.Equal(apperror.KindNotFound, apperror.KindOf(err))

	// Only the owner attaches proof, admins included
	_, err = s.svc.AttachPaymentProof(s.ctx, s.admin, order.ID, &PaymentProofRequest{TransactionID: "TX-9"}, nil)
	s.Equal(apperror.KindNotFound, apperror.KindOf(err))

	updated, err := s.svc.AttachPaymentProof(s.ctx, s.customer, order.ID, &PaymentProofRequest{TransactionID: "TX-9"}, nil)
	s.Require().NoError(err)
	s.Equal(models.PaymentStatusProofSubmitted, updated.PaymentStatus)
	s.Equal("TX-9", updated.TransactionID)
	s.Equal(2, updated.Version)

	screenshot := fileHeader(s.T(), "receipt.png", pngBytes(s.T(), 20, 20))
	updated, err = s.svc.AttachPaymentProof(s.ctx, s.customer, order.ID, &PaymentProofRequest{}, screenshot)
	s.Require().NoError(err)
	s.Equal("TX-9", updated.TransactionID)
	s.NotEmpty(updated.PaymentScreenshot)

	history, err := s.svc.GetHistory(s.ctx, s.customer, order.ID)
	s.Require().NoError(err)
	s.Len(history, 3)
	s.Equal(models.OrderStatusPending, history[2].ToStatus)
	s.Equal(models.PaymentStatusProofSubmitted, history[2].Payment)
}

func (s *OrderServiceSuite) TestAttachPaymentProofRejectsCODAndReviewedOrders() {
	cod, err := s.svc.CreateOrder(s.ctx, s.customer, s.codRequest(s.item(s.rice, 1)))
	s.Require().NoError(err)
	_, err = s.svc.AttachPaymentProof(s.ctx, s.customer, cod.ID, &PaymentProofRequest{TransactionID: "TX-1"}, nil)
	s.Equal(apperror.KindValidation, apperror.KindOf(err))

	verified := s.verifiedTransfer(1)
	_, err = s.svc.AttachPaymentProof(s.ctx, s.customer, verified.ID, &PaymentProofRequest{TransactionID: "TX-2"}, nil)
	s.Equal(apperror.KindOrderNotEditable, apperror.KindOf(err))
}

func (s *OrderServiceSuite) TestConfirmPaymentAcceptNeedsProof() {
	order, err := s.svc.CreateOrder(s.ctx, s.customer, s.transferRequest("", s.item(s.rice, 1)))
	s.Require().NoError(err)

	_, err = s.svc.ConfirmPayment(s.ctx, s.admin, order.ID, &ConfirmPaymentRequest{Decision: PaymentDecisionAccept})
	s.Equal(apperror.KindValidation, apperror.KindOf(err))

	_, err = s.svc.ConfirmPayment(s.ctx, s.admin, order.ID, &ConfirmPaymentRequest{Decision: "maybe"})
	s.Equal(apperror.KindValidation, apperror.KindOf(err))

	_, err = s.svc.AttachPaymentProof(s.ctx, s.customer, order.ID, &PaymentProofRequest{TransactionID: "TX-5"}, nil)
	s.Require().NoError(err)

	verified, err := s.svc.ConfirmPayment(s.ctx, s.admin, order.ID, &ConfirmPaymentRequest{Decision: PaymentDecisionAccept, Note: "matched statement"})
	s.Require().NoError(err)
	s.Equal(models.PaymentStatusVerified, verified.PaymentStatus)
	s.Equal(models.OrderStatusPending, verified.Status)
	s.Equal(s.t0, *verified.PaymentVerifiedAt)
	s.Equal(s.admin.ID, *verified.PaymentVerifiedBy)
	s.Equal("matched statement", verified.PaymentNote)

	// A second review is refused
	_, err = s.svc.ConfirmPayment(s.ctx, s.admin, order.ID, &ConfirmPaymentRequest{Decision: PaymentDecisionReject})
	s.Equal(apperror.KindOrderNotEditable, apperror.KindOf(err))
}

func (s *OrderServiceSuite) TestRejectedPaymentCanBeResubmitted() {
	order, err := s.svc.CreateOrder(s.ctx, s.customer, s.transferRequest("TX-WRONG", s.item(s.rice, 1)))
	s.Require().NoError(err)

	rejected, err := s.svc.ConfirmPayment(s.ctx, s.admin, order.ID, &ConfirmPaymentRequest{Decision: PaymentDecisionReject, Note: "amount mismatch"})
	s.Require().NoError(err)
	s.Equal(models.PaymentStatusRejected, rejected.PaymentStatus)
	s.Equal(models.OrderStatusPending, rejected.Status)

	_, err = s.svc.UpdateStatus(s.ctx, s.admin, order.ID, &UpdateStatusRequest{Status: models.OrderStatusProcessing})
	s.True(errors.Is(err, apperror.ErrPaymentNotVerified))

	// The rejected proof cannot be accepted as is
	_, err = s.svc.ConfirmPayment(s.ctx, s.admin, order.ID, &ConfirmPaymentRequest{Decision: PaymentDecisionAccept})
	s.Equal(apperror.KindValidation, apperror.KindOf(err))

	resubmitted, err := s.svc.AttachPaymentProof(s.ctx, s.customer, order.ID, &PaymentProofRequest{TransactionID: "TX-RIGHT"}, nil)
	s.Require().NoError(err)
	s.Equal(models.PaymentStatusProofSubmitted, resubmitted.PaymentStatus)

	_, err = s.svc.ConfirmPayment(s.ctx, s.admin, order.ID, &ConfirmPaymentRequest{Decision: PaymentDecisionAccept})
	s.Require().NoError(err)
	s.move(order.ID, models.OrderStatusProcessing)

	s.Equal([]string{"placed", "payment", "payment", "status"}, s.notifier.kinds())
}

func (s *OrderServiceSuite) TestRejectAndCancel() {
	order, err := s.svc.CreateOrder(s.ctx, s.customer, s.transferRequest("TX-FAKE", s.item(s.rice, 1)))
	s.Require().NoError(err)

	canceled, err := s.svc.ConfirmPayment(s.ctx, s.admin, order.ID, &ConfirmPaymentRequest{
		Decision:    PaymentDecisionReject,
		Note:        "no such transfer",
		CancelOrder: true,
	})
	s.Require().NoError(err)
	s.Equal(models.OrderStatusCanceled, canceled.Status)
	s.Equal(models.PaymentStatusRejected, canceled.PaymentStatus)
	s.Equal("payment rejected: no such transfer", canceled.CancelReason)
	s.Empty(s.store.Refunds(order.ID))
	s.Equal([]string{"placed", "payment", "status"}, s.notifier.kinds())
}

func (s *OrderServiceSuite) TestGetPaymentInfo() {
	order := s.verifiedTransfer(1)

	info, err := s.svc.GetPaymentInfo(s.ctx, s.customer, order.ID)
	s.Require().NoError(err)
	s.Equal(models.PaymentStatusVerified, info.PaymentStatus)
	s.Nil(info.PaymentVerifiedBy)
	s.False(info.CanSubmitProof)
	s.Require().NotNil(info.CompanyAccount)
	s.Equal(s.account.ID, info.CompanyAccount.ID)
	s.True(info.RefundedAmount.IsZero())

	info, err = s.svc.GetPaymentInfo(s.ctx, s.admin, order.ID)
	s.Require().NoError(err)
	s.Equal(s.admin.ID, *info.PaymentVerifiedBy)

	_, err = s.svc.GetPaymentInfo(s.ctx, s.other, order.ID)
	s.Equal(apperror.KindNotFound, apperror.KindOf(err))

	pending, err := s.svc.CreateOrder(s.ctx, s.customer, s.transferRequest("", s.item(s.rice, 1)))
	s.Require().NoError(err)
	info, err = s.svc.GetPaymentInfo(s.ctx, s.customer, pending.ID)
	s.Require().NoError(err)
	s.True(info.CanSubmitProof)
}
