package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spytro26/gantabya-sub000/internal/models"
)

// KhaltiGateway drives Khalti's ePayment API. Khalti has no client-side
// signature; verification is a server-to-server status lookup, so an
// unreachable gateway leaves the payment pending rather than failed.
type KhaltiGateway struct {
	secretKey string
	baseURL   string
	client    *http.Client
	logger    *logrus.Logger
}

// NewKhaltiGateway creates a new KhaltiGateway
func NewKhaltiGateway(secretKey, baseURL string, logger *logrus.Logger) *KhaltiGateway {
	return &KhaltiGateway{
		secretKey: secretKey,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 15 * time.Second},
		logger:    logger,
	}
}

// Name implements PaymentGateway
func (g *KhaltiGateway) Name() string { return "khalti" }

type khaltiInitiateRequest struct {
	Amount        int64  `json:"amount"` // paisa
	PurchaseOrder string `json:"purchase_order_id"`
	PurchaseName  string `json:"purchase_order_name"`
	ReturnURL     string `json:"return_url"`
	WebsiteURL    string `json:"website_url"`
}

type khaltiInitiateResponse struct {
	Pidx string `json:"pidx"`
}

type khaltiLookupResponse struct {
	Pidx   string `json:"pidx"`
	Status string `json:"status"`
}

// CreateOrder initiates a Khalti payment and returns the pidx reference.
func (g *KhaltiGateway) CreateOrder(ctx context.Context, amount float64, _ string, receipt string) (string, error) {
	body, err := json.Marshal(khaltiInitiateRequest{
		Amount:        int64(math.Round(amount * 100)),
		PurchaseOrder: receipt,
		PurchaseName:  "Bus ticket " + receipt,
		ReturnURL:     "https://gantabya.example/payments/return",
		WebsiteURL:    "https://gantabya.example",
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode initiate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/epayment/initiate/", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build initiate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+g.secretKey)

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.WithError(err).Error("Khalti initiate failed")
		return "", models.ErrGatewayUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.WithField("status", resp.StatusCode).Error("Khalti initiate rejected")
		return "", models.ErrGatewayUnavailable
	}

	var initiated khaltiInitiateResponse
	if err := json.NewDecoder(resp.Body).Decode(&initiated); err != nil {
		return "", fmt.Errorf("failed to decode initiate response: %w", err)
	}
	return initiated.Pidx, nil
}

// Verify polls the lookup endpoint for the payment's status. "Completed" is
// the only verified outcome; transient transport errors and in-flight
// statuses come back as pending so the caller can retry later instead of
// marking the attempt failed.
func (g *KhaltiGateway) Verify(ctx context.Context, input VerificationInput) (VerificationResult, error) {
	body, err := json.Marshal(map[string]string{"pidx": input.OrderID})
	if err != nil {
		return VerificationResult{}, fmt.Errorf("failed to encode lookup request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/epayment/lookup/", bytes.NewReader(body))
	if err != nil {
		return VerificationResult{}, fmt.Errorf("failed to build lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+g.secretKey)

	resp, err := g.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			g.logger.WithField("pidx", input.OrderID).Warn("Khalti lookup timed out, payment still unknown")
			return VerificationResult{Pending: true}, nil
		}
		g.logger.WithError(err).Error("Khalti lookup failed")
		return VerificationResult{Pending: true}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.WithFields(logrus.Fields{
			"pidx":   input.OrderID,
			"status": resp.StatusCode,
		}).Error("Khalti lookup rejected")
		return VerificationResult{Pending: true}, nil
	}

	var lookup khaltiLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lookup); err != nil {
		return VerificationResult{}, fmt.Errorf("failed to decode lookup response: %w", err)
	}

	switch lookup.Status {
	case "Completed":
		return VerificationResult{Verified: true}, nil
	case "Pending", "Initiated":
		return VerificationResult{Pending: true}, nil
	default:
		// Expired, User canceled, Refunded
		return VerificationResult{}, nil
	}
}
