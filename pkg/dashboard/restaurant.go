// Package dashboard composes the session, capability policy, gateway,
// workflow, and checkout reconciler into the three role-specific
// surfaces of the platform. Dashboards hold no business rules of their
// own; they sequence calls and enforce capabilities locally before any
// network traffic.
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/rippinkwards/allersafe/pkg/allersafe"
	"github.com/rippinkwards/allersafe/pkg/checkout"
	"github.com/rippinkwards/allersafe/pkg/gateway"
)

const packageRestaurantMonthly = "restaurant_monthly"

// RestaurantGateway is the slice of the backend gateway the restaurant
// dashboard needs. *gateway.Client implements it.
type RestaurantGateway interface {
	MyRestaurant(ctx context.Context) (*allersafe.Restaurant, error)
	CreateRestaurant(ctx context.Context, req gateway.CreateRestaurantRequest) (*allersafe.Restaurant, error)
	MenuItems(ctx context.Context, restaurantID string) ([]allersafe.MenuItem, error)
	ScrapeMenu(ctx context.Context, restaurantID, url string) (*gateway.ScrapeMenuResult, error)
	PublishMenu(ctx context.Context, restaurantID string) error
	QRCode(ctx context.Context, restaurantID string) (*allersafe.QRCode, error)
	CreateCheckout(ctx context.Context, req gateway.CreateCheckoutRequest) (*gateway.CreateCheckoutResult, error)
}

// RestaurantConfig holds restaurant dashboard configuration
type RestaurantConfig struct {
	// Gateway issues the network calls (required)
	Gateway RestaurantGateway

	// Policy gates the owner-side capabilities (required)
	Policy *allersafe.Policy

	// Principal returns the current session snapshot (required)
	Principal func() *allersafe.Principal

	// Reconciler settles post-checkout payment state (optional; without
	// it HandleCheckoutReturn is a no-op)
	Reconciler *checkout.Reconciler

	// Logger is used for structured logging (default: NoopLogger)
	Logger allersafe.Logger
}

// RestaurantDashboard is the owner-side surface: restaurant profile,
// menu import and publishing, partner QR codes, and subscription
// checkout.
type RestaurantDashboard struct {
	gw         RestaurantGateway
	policy     *allersafe.Policy
	principal  func() *allersafe.Principal
	reconciler *checkout.Reconciler
	logger     allersafe.Logger

	mu         sync.Mutex
	restaurant *allersafe.Restaurant
}

// NewRestaurantDashboard creates the owner-side dashboard
func NewRestaurantDashboard(cfg RestaurantConfig) (*RestaurantDashboard, error) {
	if cfg.Gateway == nil {
		return nil, &allersafe.ValidationError{Field: "gateway", Reason: "gateway is required"}
	}
	if cfg.Policy == nil {
		return nil, &allersafe.ValidationError{Field: "policy", Reason: "capability policy is required"}
	}
	if cfg.Principal == nil {
		return nil, &allersafe.ValidationError{Field: "principal", Reason: "principal source is required"}
	}
	if cfg.Logger == nil {
		cfg.Logger = &allersafe.NoopLogger{}
	}
	return &RestaurantDashboard{
		gw:         cfg.Gateway,
		policy:     cfg.Policy,
		principal:  cfg.Principal,
		reconciler: cfg.Reconciler,
		logger:     cfg.Logger,
	}, nil
}

// Load fetches the owned restaurant. A missing restaurant is not an
// error; the dashboard then offers creation instead.
func (d *RestaurantDashboard) Load(ctx context.Context) (*allersafe.Restaurant, error) {
	r, err := d.gw.MyRestaurant(ctx)
	if err != nil {
		var be *allersafe.BackendError
		if errors.As(err, &be) && be.StatusCode == http.StatusNotFound {
			d.mu.Lock()
			d.restaurant = nil
			d.mu.Unlock()
			return nil, nil
		}
		return nil, err
	}
	d.mu.Lock()
	d.restaurant = r
	d.mu.Unlock()
	return r, nil
}

// Create registers the restaurant profile for the current principal
func (d *RestaurantDashboard) Create(ctx context.Context, req gateway.CreateRestaurantRequest) (*allersafe.Restaurant, error) {
	r, err := d.gw.CreateRestaurant(ctx, req)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.restaurant = r
	d.mu.Unlock()
	return r, nil
}

// Restaurant returns the loaded restaurant snapshot, or nil
func (d *RestaurantDashboard) Restaurant() *allersafe.Restaurant {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.restaurant
}

// MenuItems lists the restaurant's menu items, drafts included
func (d *RestaurantDashboard) MenuItems(ctx context.Context) ([]allersafe.MenuItem, error) {
	id, err := d.restaurantID()
	if err != nil {
		return nil, err
	}
	return d.gw.MenuItems(ctx, id)
}

// ImportMenu scrapes menu items from an external URL as drafts
func (d *RestaurantDashboard) ImportMenu(ctx context.Context, url string) (*gateway.ScrapeMenuResult, error) {
	if url == "" {
		return nil, allersafe.ErrEmptyURL
	}
	id, err := d.restaurantID()
	if err != nil {
		return nil, err
	}
	if err := d.policy.Require(d.principal(), allersafe.CapabilityManageMenu); err != nil {
		return nil, err
	}
	return d.gw.ScrapeMenu(ctx, id, url)
}

// PublishMenu publishes all draft menu items
func (d *RestaurantDashboard) PublishMenu(ctx context.Context) error {
	id, err := d.restaurantID()
	if err != nil {
		return err
	}
	if err := d.policy.Require(d.principal(), allersafe.CapabilityManageMenu); err != nil {
		return err
	}
	return d.gw.PublishMenu(ctx, id)
}

// GenerateQRCode returns the partner QR code for the published menu
func (d *RestaurantDashboard) GenerateQRCode(ctx context.Context) (*allersafe.QRCode, error) {
	id, err := d.restaurantID()
	if err != nil {
		return nil, err
	}
	if err := d.policy.Require(d.principal(), allersafe.CapabilityGenerateQR); err != nil {
		return nil, err
	}
	return d.gw.QRCode(ctx, id)
}

// Subscribe starts a hosted checkout for the restaurant plan and
// returns the URL to redirect the whole page to
func (d *RestaurantDashboard) Subscribe(ctx context.Context, originURL string) (string, error) {
	res, err := d.gw.CreateCheckout(ctx, gateway.CreateCheckoutRequest{
		PackageID: packageRestaurantMonthly,
		OriginURL: originURL,
	})
	if err != nil {
		return "", err
	}
	return res.CheckoutURL, nil
}

// HandleCheckoutReturn inspects the URL the payment provider redirected
// back to and, when it carries a successful checkout, launches the
// reconciler in the background. onResult receives the terminal outcome.
func (d *RestaurantDashboard) HandleCheckoutReturn(ctx context.Context, returnURL string, onResult func(checkout.Result)) bool {
	session, ok := checkout.FromReturnURL(returnURL)
	if !ok || d.reconciler == nil {
		return false
	}
	d.logger.Info("reconciling checkout return",
		allersafe.Field{Key: "session_id", Value: session.SessionID},
	)
	d.reconciler.Begin(ctx, session.SessionID, onResult)
	return true
}

func (d *RestaurantDashboard) restaurantID() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.restaurant == nil {
		return "", &allersafe.ValidationError{Field: "restaurant", Reason: "no restaurant loaded"}
	}
	return d.restaurant.ID, nil
}
