package gateway

import (
	"context"

	"github.com/rippinkwards/allersafe/pkg/allersafe"
)

// AdminStats returns the platform-wide aggregate snapshot
func (c *Client) AdminStats(ctx context.Context) (*allersafe.AdminStats, error) {
	var out allersafe.AdminStats
	if err := c.get(ctx, "/api/admin/stats", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminRestaurants lists all restaurants on the platform
func (c *Client) AdminRestaurants(ctx context.Context) ([]allersafe.Restaurant, error) {
	var out []allersafe.Restaurant
	if err := c.get(ctx, "/api/admin/restaurants", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminFamilies lists all families on the platform
func (c *Client) AdminFamilies(ctx context.Context) ([]allersafe.Family, error) {
	var out []allersafe.Family
	if err := c.get(ctx, "/api/admin/families", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminSubscriptions lists all subscriptions
func (c *Client) AdminSubscriptions(ctx context.Context) ([]allersafe.SubscriptionRecord, error) {
	var out []allersafe.SubscriptionRecord
	if err := c.get(ctx, "/api/admin/subscriptions", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminSMSLogs lists recent SMS deliveries
func (c *Client) AdminSMSLogs(ctx context.Context) ([]allersafe.MessageLog, error) {
	var out []allersafe.MessageLog
	if err := c.get(ctx, "/api/admin/sms-logs", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminEmailLogs lists recent email deliveries
func (c *Client) AdminEmailLogs(ctx context.Context) ([]allersafe.MessageLog, error) {
	var out []allersafe.MessageLog
	if err := c.get(ctx, "/api/admin/email-logs", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminPaymentTransactions lists the payment ledger
func (c *Client) AdminPaymentTransactions(ctx context.Context) ([]allersafe.PaymentTransaction, error) {
	var out []allersafe.PaymentTransaction
	if err := c.get(ctx, "/api/admin/payment-transactions", &out); err != nil {
		return nil, err
	}
	return out, nil
}
