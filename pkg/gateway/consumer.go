package gateway

import (
	"context"
	"fmt"

	"github.com/rippinkwards/allersafe/pkg/allersafe"
)

// ScanMenuRequest submits an arbitrary restaurant URL for scanning
type ScanMenuRequest struct {
	URL            string `json:"url"`
	RestaurantName string `json:"restaurant_name,omitempty"`
}

// SaveMenuRequest favorites a prior scan under a user-chosen name
type SaveMenuRequest struct {
	ScanID   string `json:"scan_id"`
	MenuName string `json:"menu_name"`
	Notes    string `json:"notes"`
}

// SupportRequest asks the platform to pursue an official partnership
// with a scanned restaurant. PremiumRequester tells the backend to
// prioritize the outreach.
type SupportRequest struct {
	RestaurantName   string `json:"restaurant_name"`
	RestaurantURL    string `json:"restaurant_url"`
	Reason           string `json:"reason"`
	PremiumRequester bool   `json:"premium_requester"`
}

// ScanMenu scans an arbitrary restaurant menu URL for allergens
func (c *Client) ScanMenu(ctx context.Context, req ScanMenuRequest) (*allersafe.ScanResult, error) {
	var out allersafe.ScanResult
	if err := c.post(ctx, "/api/consumer/scan-menu", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AnalyzeSafety categorizes a prior scan's items against an allergy
// list. The body is the bare allergy array, matching the backend
// contract.
func (c *Client) AnalyzeSafety(ctx context.Context, scanID string, allergies []string) (*allersafe.SafetyAnalysis, error) {
	var out allersafe.SafetyAnalysis
	if err := c.post(ctx, fmt.Sprintf("/api/consumer/analyze-safety/%s", scanID), allergies, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveMenu favorites a scan for later retrieval
func (c *Client) SaveMenu(ctx context.Context, req SaveMenuRequest) error {
	return c.post(ctx, "/api/consumer/save-menu", req, nil)
}

// RequestRestaurantSupport asks the platform to pursue official
// allergen data from the scanned restaurant
func (c *Client) RequestRestaurantSupport(ctx context.Context, req SupportRequest) error {
	return c.post(ctx, "/api/consumer/request-restaurant-support", req, nil)
}

// ScanHistory returns the most recent scans, newest first
func (c *Client) ScanHistory(ctx context.Context, limit int) ([]allersafe.ScanRecord, error) {
	var out []allersafe.ScanRecord
	if err := c.get(ctx, fmt.Sprintf("/api/consumer/scan-history?limit=%d", limit), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SavedMenus returns the favorited menus
func (c *Client) SavedMenus(ctx context.Context) ([]allersafe.SavedMenu, error) {
	var out []allersafe.SavedMenu
	if err := c.get(ctx, "/api/consumer/saved-menus", &out); err != nil {
		return nil, err
	}
	return out, nil
}
