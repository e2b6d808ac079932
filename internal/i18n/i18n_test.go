// internal/i18n/i18n_test.go
package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedCatalogsLoad(t *testing.T) {
	require.NoError(t, Initialize())
	assert.Equal(t, []string{"en", "my"}, GetSupportedLanguages())
}

func TestTranslateWithFallback(t *testing.T) {
	assert.Equal(t, "Order not found", T("en", KeyOrderNotFound))
	assert.NotEqual(t, "Order not found", T("my", KeyOrderNotFound))
	// unknown language falls back to English
	assert.Equal(t, "Order not found", T("fr", KeyOrderNotFound))
	// unknown key returns the key
	assert.Equal(t, "nope.missing", T("en", "nope.missing"))
}

func TestTranslateFormatsArgs(t *testing.T) {
	assert.Equal(t, "Order cannot move from SHIPPED to PENDING", T("en", KeyOrderInvalidTransition, "SHIPPED", "PENDING"))
}

func TestEveryKeyHasEnglishText(t *testing.T) {
	keys := []string{
		KeyAuthRequired, KeyAdminAccessDenied, KeyProductNotFound, KeyProductUnavailable,
		KeyOrderCreated, KeyOrderInvalidTransition, KeyOrderNotEditable, KeyPaymentNotVerified,
		KeyPaymentProofRequired, KeyCompanyAccountInUse, KeyUploadFailed, KeyValidationInvalid,
		KeyInternalError, KeyConflict, KeyRefundCompleted, KeyRateLimited,
	}
	for _, key := range keys {
		assert.True(t, Has(key), key)
	}
}
