package payments

import (
	"context"
	"testing"

	"github.com/Ved-panchal/fcarena-2.0/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSign_KnownVector(t *testing.T) {
	// echo -n "order_1|pay_1" | openssl dgst -sha256 -hmac "secret"
	assert.Equal(t, "52115a0d3400de9e86aade1f1b6eba9e8974604f4e267a9e9a16633a4c8dd2cb", Sign([]byte("secret"), "order_1", "pay_1"))
	assert.NotEqual(t, Sign([]byte("secret"), "order_1", "pay_1"), Sign([]byte("secret"), "order_2", "pay_1"))
}

func TestSignatureVerifier(t *testing.T) {
	_, err := NewSignatureVerifier("")
	require.Error(t, err)

	v, err := NewSignatureVerifier("secret")
	require.NoError(t, err)

	valid := models.PaymentResult{
		PaymentID: "pay_1",
		OrderID:   "order_1",
		Signature: Sign([]byte("secret"), "order_1", "pay_1"),
	}

	tests := []struct {
		name   string
		result models.PaymentResult
		want   bool
	}{
		{name: "valid", result: valid, want: true},
		{name: "wrong order", result: models.PaymentResult{PaymentID: "pay_1", OrderID: "order_2", Signature: valid.Signature}},
		{name: "tampered signature", result: models.PaymentResult{PaymentID: "pay_1", OrderID: "order_1", Signature: "ff" + valid.Signature[2:]}},
		{name: "missing fields", result: models.PaymentResult{OrderID: "order_1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := v.VerifyPayment(context.Background(), tt.result)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}
