// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess       = "success"
	KeyInternalError = "error.internal"
	KeyConflict      = "error.conflict"
	KeyRateLimited   = "error.rate_limited"
	KeyNotFound      = "error.not_found"

	// Idempotency
	KeyIdempotencyInProgress = "idempotency.in_progress"
	KeyIdempotencyMismatch   = "idempotency.key_reused"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthAccountSuspended   = "auth.account_suspended"
	KeyAdminAccessDenied      = "admin.access_denied"

	// Users
	KeyUserProfileUpdated  = "user.profile_updated"
	KeyUserPasswordChanged = "user.password_changed"
	KeyUserWrongPassword   = "user.wrong_password"

	// Products
	KeyProductCreated     = "product.created"
	KeyProductUpdated     = "product.updated"
	KeyProductNotFound    = "product.not_found"
	KeyProductUnavailable = "product.unavailable"
	KeyStockAdded         = "stock.added"

	// Orders
	KeyOrderCreated           = "order.created"
	KeyOrderNotFound          = "order.not_found"
	KeyOrderStatusUpdated     = "order.status_updated"
	KeyOrderCanceled          = "order.canceled"
	KeyOrderReturned          = "order.returned"
	KeyOrderInvalidTransition = "order.invalid_transition"
	KeyOrderNotEditable       = "order.not_editable"
	KeyOrderReturnWindow      = "order.return_window_closed"

	// Payments
	KeyPaymentNotVerified    = "payment.not_verified"
	KeyPaymentProofAttached  = "payment.proof_attached"
	KeyPaymentProofRequired  = "payment.proof_required"
	KeyPaymentConfirmed      = "payment.confirmed"
	KeyPaymentRejected       = "payment.rejected"
	KeyCompanyAccountCreated = "company_account.created"
	KeyCompanyAccountUpdated = "company_account.updated"
	KeyCompanyAccountDeleted = "company_account.deleted"
	KeyCompanyAccountInUse   = "company_account.in_use"
	KeyPaymentMethodCreated  = "payment_method.created"
	KeyPaymentMethodUpdated  = "payment_method.updated"
	KeyPaymentMethodDeleted  = "payment_method.deleted"
	KeyRefundCompleted       = "refund.completed"

	// Uploads
	KeyUploadSuccess = "upload.success"
	KeyUploadFailed  = "upload.failed"
	KeyUploadDeleted = "upload.deleted"
	KeyUploadMissing = "upload.missing_file"

	// Validation
	KeyValidationInvalid = "validation.invalid"
)
