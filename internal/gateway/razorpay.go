package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spytro26/gantabya-sub000/internal/models"
)

const razorpayBaseURL = "https://api.razorpay.com/v1"

// RazorpayGateway creates orders over Razorpay's REST API and verifies
// payments synchronously from the checkout callback signature.
type RazorpayGateway struct {
	keyID   string
	secret  string
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

// NewRazorpayGateway creates a new RazorpayGateway
func NewRazorpayGateway(keyID, secret string, logger *logrus.Logger) *RazorpayGateway {
	return &RazorpayGateway{
		keyID:   keyID,
		secret:  secret,
		baseURL: razorpayBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

// Name implements PaymentGateway
func (g *RazorpayGateway) Name() string { return "razorpay" }

type razorpayOrderRequest struct {
	Amount   int64  `json:"amount"` // paise
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type razorpayOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreateOrder registers an order with Razorpay. Razorpay amounts are in the
// smallest currency unit, so the major-unit amount is scaled by 100.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (string, error) {
	body, err := json.Marshal(razorpayOrderRequest{
		Amount:   int64(math.Round(amount * 100)),
		Currency: currency,
		Receipt:  receipt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.secret)

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.WithError(err).Error("Razorpay order creation failed")
		return "", models.ErrGatewayUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.WithField("status", resp.StatusCode).Error("Razorpay order creation rejected")
		return "", models.ErrGatewayUnavailable
	}

	var order razorpayOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return "", fmt.Errorf("failed to decode order response: %w", err)
	}
	return order.ID, nil
}

// Verify checks the checkout signature: HMAC-SHA256 over "orderID|paymentID"
// keyed with the shared secret. The comparison is constant-time. A bad
// signature is a definitive failure, never pending.
func (g *RazorpayGateway) Verify(_ context.Context, input VerificationInput) (VerificationResult, error) {
	if input.OrderID == "" || input.PaymentID == "" || input.Signature == "" {
		return VerificationResult{}, nil
	}

	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write([]byte(input.OrderID + "|" + input.PaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	verified := hmac.Equal([]byte(expected), []byte(input.Signature))
	return VerificationResult{Verified: verified}, nil
}
