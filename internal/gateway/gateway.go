package gateway

import (
	"context"
)

// VerificationInput carries whatever the client handed back after checkout.
// Synchronous gateways use the signature fields; asynchronous gateways only
// need the order reference and poll for status themselves.
type VerificationInput struct {
	OrderID   string
	PaymentID string
	Signature string
}

// VerificationResult is the gateway's answer about one payment attempt.
type VerificationResult struct {
	// Verified is true only when the gateway positively confirmed the charge.
	Verified bool
	// Pending is true when the gateway could not yet say either way, for
	// example a status poll that timed out. Pending results must not be
	// treated as failures.
	Pending bool
}

// PaymentGateway abstracts a payment provider. Implementations must be safe
// for concurrent use.
type PaymentGateway interface {
	// Name identifies the provider in logs and stored payment rows.
	Name() string

	// CreateOrder registers a payable order with the provider and returns
	// the provider's order reference. Amount is in the charged currency's
	// major unit.
	CreateOrder(ctx context.Context, amount float64, currency, receipt string) (string, error)

	// Verify decides whether the charge behind input went through.
	Verify(ctx context.Context, input VerificationInput) (VerificationResult, error)
}
