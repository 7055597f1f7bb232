package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/keymeter/pkg/billing"
	"github.com/dmitrymomot/keymeter/pkg/keys"
	"github.com/dmitrymomot/keymeter/pkg/quota"
	"github.com/dmitrymomot/keymeter/pkg/usage"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		status int
		code   string
	}{
		{&quota.ExceededError{Used: 25, Limit: 25}, http.StatusTooManyRequests, "too_many_requests"},
		{quota.ErrUnknownKey, http.StatusNotFound, "not_found"},
		{fmt.Errorf("lookup: %w", keys.ErrNotFound), http.StatusNotFound, "not_found"},
		{quota.ErrInactive, http.StatusForbidden, "forbidden"},
		{keys.ErrBlankKey, http.StatusBadRequest, "bad_request"},
		{errors.Join(quota.ErrMissingKey, keys.ErrBlankKey), http.StatusBadRequest, "bad_request"},
		{billing.ErrBlankKey, http.StatusBadRequest, "bad_request"},
		{usage.ErrInvalidDay, http.StatusBadRequest, "bad_request"},
		{billing.ErrMissingAPIKey, http.StatusInternalServerError, "billing_unconfigured"},
		{billing.ErrWebhookSecretMissing, http.StatusInternalServerError, "billing_unconfigured"},
		{errors.Join(billing.ErrInvalidSignature, errors.New("no valid signature")), http.StatusBadRequest, "invalid_signature"},
		{billing.ErrInvalidPayload, http.StatusBadRequest, "invalid_payload"},
		{errors.Join(billing.ErrProvider, errors.New("card_declined")), http.StatusInternalServerError, "payment_provider_error"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			t.Parallel()
			got, ok := classify(tt.err)
			assert.True(t, ok)
			assert.Equal(t, tt.status, got.Code)
			assert.Equal(t, tt.code, got.Key)
			assert.NotEmpty(t, got.Message)
		})
	}

	_, ok := classify(errors.New("disk full"))
	assert.False(t, ok)
}
