package gateway

import (
	"context"
	"fmt"

	"github.com/rippinkwards/allersafe/pkg/allersafe"
)

// CreateCheckoutRequest starts a hosted checkout for a subscription
// package. OriginURL is the client origin the payment provider
// redirects back to.
type CreateCheckoutRequest struct {
	PackageID string `json:"package_id"`
	OriginURL string `json:"origin_url"`
}

// CreateCheckoutResult carries the hosted checkout URL to redirect to
type CreateCheckoutResult struct {
	CheckoutURL string `json:"checkout_url"`
}

// CreateCheckout creates a hosted checkout session. The caller is
// expected to redirect the whole page to the returned URL.
func (c *Client) CreateCheckout(ctx context.Context, req CreateCheckoutRequest) (*CreateCheckoutResult, error) {
	var out CreateCheckoutResult
	if err := c.post(ctx, "/api/payments/create-checkout", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PaymentStatus fetches one snapshot of a checkout session's payment
// state. Consumed exclusively by the checkout reconciler.
func (c *Client) PaymentStatus(ctx context.Context, sessionID string) (*allersafe.PaymentStatusSnapshot, error) {
	var out allersafe.PaymentStatusSnapshot
	if err := c.get(ctx, fmt.Sprintf("/api/payments/status/%s", sessionID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
