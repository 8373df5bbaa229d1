package gateway

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockGateway_CreateCustomer(t *testing.T) {
	ctx := context.Background()
	g := NewMockGateway(nil)

	t.Run("creates a customer", func(t *testing.T) {
		cust, err := g.CreateCustomer(ctx, &CreateCustomerRequest{
			UserID: "user-001",
			Email:  "member@example.com",
			Name:   "Alex Doe",
		})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(cust.CustomerID, "cus_mock_"), "CustomerID = %v", cust.CustomerID)
		assert.Equal(t, "member@example.com", cust.Email)
	})

	t.Run("email is required", func(t *testing.T) {
		_, err := g.CreateCustomer(ctx, &CreateCustomerRequest{UserID: "user-001"})
		assert.Error(t, err)
	})

	t.Run("nil request", func(t *testing.T) {
		_, err := g.CreateCustomer(ctx, nil)
		assert.Error(t, err)
	})
}

func TestMockGateway_PaymentIntentLifecycle(t *testing.T) {
	ctx := context.Background()
	g := NewMockGateway(nil)

	intent, err := g.CreatePaymentIntent(ctx, &PaymentIntentRequest{
		Amount:     25000,
		Currency:   "gbp",
		CustomerID: "cus_mock_abc",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(intent.IntentID, "pi_mock_"), "IntentID = %v", intent.IntentID)
	assert.True(t, strings.HasPrefix(intent.ClientSecret, intent.IntentID+"_secret_"), "ClientSecret = %v", intent.ClientSecret)
	assert.Equal(t, "requires_payment_method", intent.Status)
	assert.Equal(t, int64(25000), intent.Amount)
	assert.Equal(t, "gbp", intent.Currency)

	// Fetch returns the stored state
	got, err := g.GetPaymentIntent(ctx, intent.IntentID)
	require.NoError(t, err)
	assert.Equal(t, "requires_payment_method", got.Status)

	// Tests drive intents to a terminal state
	require.NoError(t, g.SetIntentStatus(intent.IntentID, "succeeded", ""))
	got, err = g.GetPaymentIntent(ctx, intent.IntentID)
	require.NoError(t, err)
	assert.Equal(t, "succeeded", got.Status)

	require.NoError(t, g.SetIntentStatus(intent.IntentID, "failed", "card_declined"))
	got, err = g.GetPaymentIntent(ctx, intent.IntentID)
	require.NoError(t, err)
	assert.Equal(t, "card_declined", got.FailureReason)
}

func TestMockGateway_GetPaymentIntent_Missing(t *testing.T) {
	ctx := context.Background()
	g := NewMockGateway(nil)

	_, err := g.GetPaymentIntent(ctx, "pi_ghost")
	assert.Error(t, err)
	_, err = g.GetPaymentIntent(ctx, "")
	assert.Error(t, err)
	assert.Error(t, g.SetIntentStatus("pi_ghost", "succeeded", ""))
}

func TestMockGateway_Name(t *testing.T) {
	assert.Equal(t, "mock", NewMockGateway(nil).Name())
}
