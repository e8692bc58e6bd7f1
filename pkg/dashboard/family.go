package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rippinkwards/allersafe/pkg/allersafe"
	"github.com/rippinkwards/allersafe/pkg/checkout"
	"github.com/rippinkwards/allersafe/pkg/gateway"
	"github.com/rippinkwards/allersafe/pkg/workflow"
)

const (
	packageFamilyMonthly = "family_monthly"
	defaultHistoryLimit  = 20
	alertAddressUnknown  = "Unknown location"
)

// FamilyGateway is the slice of the backend gateway the family
// dashboard needs. *gateway.Client implements it.
type FamilyGateway interface {
	MyFamily(ctx context.Context) (*allersafe.Family, error)
	CreateFamily(ctx context.Context, req gateway.CreateFamilyRequest) (*allersafe.Family, error)
	SetEmergencyContact(ctx context.Context, familyID string, contact allersafe.EmergencyContact) error
	SendEmergencyAlert(ctx context.Context, familyID, memberID string, req gateway.EmergencyAlertRequest) error
	ScanHistory(ctx context.Context, limit int) ([]allersafe.ScanRecord, error)
	SavedMenus(ctx context.Context) ([]allersafe.SavedMenu, error)
	CreateCheckout(ctx context.Context, req gateway.CreateCheckoutRequest) (*gateway.CreateCheckoutResult, error)
}

// FamilyConfig holds family dashboard configuration
type FamilyConfig struct {
	// Gateway issues the network calls (required)
	Gateway FamilyGateway

	// Policy gates the premium capabilities (required)
	Policy *allersafe.Policy

	// Principal returns the current session snapshot (required)
	Principal func() *allersafe.Principal

	// Workflow drives the scan-and-analyze session (required)
	Workflow *workflow.Controller

	// Reconciler settles post-checkout payment state (optional)
	Reconciler *checkout.Reconciler

	// Logger is used for structured logging (default: NoopLogger)
	Logger allersafe.Logger

	// Metrics tracks dashboard operations (default: NoopMetrics)
	Metrics allersafe.Metrics
}

// FamilyDashboard is the consumer-side surface: family profile and
// members, the menu-safety workflow, emergency alerts, scan history,
// saved favorites, and subscription checkout.
type FamilyDashboard struct {
	gw         FamilyGateway
	policy     *allersafe.Policy
	principal  func() *allersafe.Principal
	workflow   *workflow.Controller
	reconciler *checkout.Reconciler
	logger     allersafe.Logger
	metrics    allersafe.Metrics

	mu     sync.Mutex
	family *allersafe.Family
}

// NewFamilyDashboard creates the consumer-side dashboard
func NewFamilyDashboard(cfg FamilyConfig) (*FamilyDashboard, error) {
	if cfg.Gateway == nil {
		return nil, &allersafe.ValidationError{Field: "gateway", Reason: "gateway is required"}
	}
	if cfg.Policy == nil {
		return nil, &allersafe.ValidationError{Field: "policy", Reason: "capability policy is required"}
	}
	if cfg.Principal == nil {
		return nil, &allersafe.ValidationError{Field: "principal", Reason: "principal source is required"}
	}
	if cfg.Workflow == nil {
		return nil, &allersafe.ValidationError{Field: "workflow", Reason: "workflow controller is required"}
	}
	if cfg.Logger == nil {
		cfg.Logger = &allersafe.NoopLogger{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &allersafe.NoopMetrics{}
	}
	return &FamilyDashboard{
		gw:         cfg.Gateway,
		policy:     cfg.Policy,
		principal:  cfg.Principal,
		workflow:   cfg.Workflow,
		reconciler: cfg.Reconciler,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}, nil
}

// Workflow exposes the scan-and-analyze controller
func (d *FamilyDashboard) Workflow() *workflow.Controller {
	return d.workflow
}

// Load fetches the owned family profile. A missing family is not an
// error; the dashboard then offers creation instead.
func (d *FamilyDashboard) Load(ctx context.Context) (*allersafe.Family, error) {
	f, err := d.gw.MyFamily(ctx)
	if err != nil {
		var be *allersafe.BackendError
		if errors.As(err, &be) && be.StatusCode == http.StatusNotFound {
			d.mu.Lock()
			d.family = nil
			d.mu.Unlock()
			return nil, nil
		}
		return nil, err
	}
	d.mu.Lock()
	d.family = f
	d.mu.Unlock()
	return f, nil
}

// Create registers the family profile with its members
func (d *FamilyDashboard) Create(ctx context.Context, req gateway.CreateFamilyRequest) (*allersafe.Family, error) {
	f, err := d.gw.CreateFamily(ctx, req)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.family = f
	d.mu.Unlock()
	return f, nil
}

// Family returns the loaded family snapshot, or nil
func (d *FamilyDashboard) Family() *allersafe.Family {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.family
}

// SetEmergencyContact replaces the family's SMS alert recipient
func (d *FamilyDashboard) SetEmergencyContact(ctx context.Context, contact allersafe.EmergencyContact) error {
	id, err := d.familyID()
	if err != nil {
		return err
	}
	if err := d.gw.SetEmergencyContact(ctx, id, contact); err != nil {
		return err
	}
	d.mu.Lock()
	if d.family != nil {
		c := contact
		d.family.EmergencyContact = &c
	}
	d.mu.Unlock()
	return nil
}

// SendEmergencyAlert dispatches an SMS alert for a member. Premium
// only: without the capability the call is rejected locally with the
// upgrade prompt and nothing is sent. A nil location is reported as
// unresolved rather than omitted.
func (d *FamilyDashboard) SendEmergencyAlert(ctx context.Context, memberID string, loc *allersafe.Location) error {
	if memberID == "" {
		return allersafe.ErrNoMemberSelected
	}
	id, err := d.familyID()
	if err != nil {
		return err
	}
	if err := d.policy.Require(d.principal(), allersafe.CapabilityEmergencyAlert); err != nil {
		d.metrics.RecordPolicyDenied(string(allersafe.CapabilityEmergencyAlert))
		return err
	}

	req := gateway.EmergencyAlertRequest{LocationAddress: alertAddressUnknown}
	if loc != nil {
		lat, lng := loc.Lat, loc.Lng
		req.LocationLat = &lat
		req.LocationLng = &lng
		req.LocationAddress = fmt.Sprintf("Lat: %.6f, Lng: %.6f", lat, lng)
	}
	if err := d.gw.SendEmergencyAlert(ctx, id, memberID, req); err != nil {
		return err
	}
	d.logger.Info("emergency alert sent",
		allersafe.Field{Key: "member_id", Value: memberID},
	)
	return nil
}

// ScanHistory returns the most recent scans, newest first. limit <= 0
// falls back to the default page size.
func (d *FamilyDashboard) ScanHistory(ctx context.Context, limit int) ([]allersafe.ScanRecord, error) {
	if err := d.policy.Require(d.principal(), allersafe.CapabilityViewScanHistory); err != nil {
		d.metrics.RecordPolicyDenied(string(allersafe.CapabilityViewScanHistory))
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return d.gw.ScanHistory(ctx, limit)
}

// SavedMenus returns the favorited menus. Premium only; refused locally
// with the upgrade prompt otherwise.
func (d *FamilyDashboard) SavedMenus(ctx context.Context) ([]allersafe.SavedMenu, error) {
	if err := d.policy.Require(d.principal(), allersafe.CapabilityViewSavedMenus); err != nil {
		d.metrics.RecordPolicyDenied(string(allersafe.CapabilityViewSavedMenus))
		return nil, err
	}
	return d.gw.SavedMenus(ctx)
}

// Subscribe starts a hosted checkout for the family plan and returns
// the URL to redirect the whole page to
func (d *FamilyDashboard) Subscribe(ctx context.Context, originURL string) (string, error) {
	res, err := d.gw.CreateCheckout(ctx, gateway.CreateCheckoutRequest{
		PackageID: packageFamilyMonthly,
		OriginURL: originURL,
	})
	if err != nil {
		return "", err
	}
	return res.CheckoutURL, nil
}

// HandleCheckoutReturn inspects the URL the payment provider redirected
// back to and, when it carries a successful checkout, launches the
// reconciler in the background
func (d *FamilyDashboard) HandleCheckoutReturn(ctx context.Context, returnURL string, onResult func(checkout.Result)) bool {
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

func (d *FamilyDashboard) familyID() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.family == nil {
		return "", &allersafe.ValidationError{Field: "family", Reason: "no family loaded"}
	}
	return d.family.ID, nil
}
