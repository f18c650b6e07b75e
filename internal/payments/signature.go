package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/Ved-panchal/fcarena-2.0/shared/models"
)

// SignatureVerifier checks completion signatures locally with the provider
// key secret instead of calling the payment backend. The provider signs
// "<order_id>|<payment_id>" with HMAC-SHA256.
type SignatureVerifier struct {
	secret []byte
}

// NewSignatureVerifier returns a verifier for the given key secret
func NewSignatureVerifier(secret string) (*SignatureVerifier, error) {
	if secret == "" {
		return nil, errors.New("payments: key secret is required")
	}
	return &SignatureVerifier{secret: []byte(secret)}, nil
}

// VerifyPayment reports whether the signature matches the order and payment ids
func (v *SignatureVerifier) VerifyPayment(_ context.Context, result models.PaymentResult) (bool, error) {
	if result.OrderID == "" || result.PaymentID == "" || result.Signature == "" {
		return false, nil
	}
	expected := Sign(v.secret, result.OrderID, result.PaymentID)
	return hmac.Equal([]byte(expected), []byte(result.Signature)), nil
}

// Sign computes the hex signature the provider attaches to a completed payment
func Sign(secret []byte, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
