package gateway

import (
	"context"
	"fmt"

	"github.com/rippinkwards/allersafe/pkg/allersafe"
)

// CreateRestaurantRequest is the owner-side restaurant creation payload
type CreateRestaurantRequest struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Phone       string `json:"phone,omitempty"`
	Description string `json:"description,omitempty"`
}

// ScrapeMenuRequest imports menu items from an external URL as drafts
type ScrapeMenuRequest struct {
	URL string `json:"url"`
}

// ScrapeMenuResult is the draft import outcome
type ScrapeMenuResult struct {
	ItemsImported int                  `json:"items_imported"`
	Items         []allersafe.MenuItem `json:"items"`
}

// MyRestaurant returns the restaurant owned by the current principal
func (c *Client) MyRestaurant(ctx context.Context) (*allersafe.Restaurant, error) {
	var out allersafe.Restaurant
	if err := c.get(ctx, "/api/restaurants/my", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRestaurant registers a restaurant for the current principal
func (c *Client) CreateRestaurant(ctx context.Context, req CreateRestaurantRequest) (*allersafe.Restaurant, error) {
	var out allersafe.Restaurant
	if err := c.post(ctx, "/api/restaurants", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MenuItems lists the restaurant's menu items, drafts included
func (c *Client) MenuItems(ctx context.Context, restaurantID string) ([]allersafe.MenuItem, error) {
	var out []allersafe.MenuItem
	if err := c.get(ctx, fmt.Sprintf("/api/restaurants/%s/menu-items", restaurantID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ScrapeMenu imports menu items from the given URL as drafts
func (c *Client) ScrapeMenu(ctx context.Context, restaurantID, url string) (*ScrapeMenuResult, error) {
	var out ScrapeMenuResult
	if err := c.post(ctx, fmt.Sprintf("/api/restaurants/%s/scrape-menu", restaurantID), ScrapeMenuRequest{URL: url}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PublishMenu publishes all draft menu items
func (c *Client) PublishMenu(ctx context.Context, restaurantID string) error {
	return c.post(ctx, fmt.Sprintf("/api/restaurants/%s/publish-menu", restaurantID), nil, nil)
}

// QRCode returns the partner QR code for the restaurant's menu
func (c *Client) QRCode(ctx context.Context, restaurantID string) (*allersafe.QRCode, error) {
	var out allersafe.QRCode
	if err := c.get(ctx, fmt.Sprintf("/api/restaurants/%s/qr-code", restaurantID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PartnerMenu is a published partner menu resolved from a QR scan
type PartnerMenu struct {
	Restaurant allersafe.Restaurant `json:"restaurant"`
	MenuItems  []allersafe.MenuItem `json:"menu_items"`
}

// PublicMenu returns the published menu for a partner restaurant.
// Unauthenticated; used by the partner QR scanner.
func (c *Client) PublicMenu(ctx context.Context, restaurantID string) (*PartnerMenu, error) {
	var out PartnerMenu
	if err := c.get(ctx, fmt.Sprintf("/api/menu/%s", restaurantID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckPartnerMenuSafety checks a published partner menu against an
// allergy list. Unauthenticated.
func (c *Client) CheckPartnerMenuSafety(ctx context.Context, restaurantID string, allergies []string) (*allersafe.SafetyAnalysis, error) {
	var out allersafe.SafetyAnalysis
	if err := c.post(ctx, fmt.Sprintf("/api/menu/%s/check-safety", restaurantID), allergies, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
