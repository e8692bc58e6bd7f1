// Package workflow orchestrates the menu-safety analysis session:
// scan an arbitrary menu URL, select a family member, request a safety
// categorization, and fan out the capability-gated side effects. One
// controller owns one scanning session's state; dashboards only read
// from it.
package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rippinkwards/allersafe/pkg/allersafe"
	"github.com/rippinkwards/allersafe/pkg/gateway"
)

// partnershipReason is the fixed reason attached to support requests
const partnershipReason = "Consumer requested restaurant partnership for official allergen data"

// State is the workflow position of the current scanning session
type State string

const (
	// StateIdle means no scan is held
	StateIdle State = "idle"
	// StateScanning means a scan request is in flight
	StateScanning State = "scanning"
	// StateScanned means an unverified item list is held
	StateScanned State = "scanned"
	// StateAnalyzing means a safety analysis request is in flight
	StateAnalyzing State = "analyzing_safety"
	// StateAnalyzed means a bucketed safety analysis is held
	StateAnalyzed State = "analyzed"
	// StateError means the last request failed; the failure is
	// retained until the next transition
	StateError State = "error"
)

var (
	// ErrSuperseded is returned to a caller whose in-flight request
	// was overtaken by a newer submission; the stale response is
	// discarded without touching state
	ErrSuperseded = errors.New("request superseded by a newer submission")

	// ErrNotAnalyzed is returned when a side effect is invoked before
	// a safety analysis has completed
	ErrNotAnalyzed = errors.New("no completed safety analysis")
)

// Gateway is the slice of the backend gateway the workflow needs.
// *gateway.Client implements it.
type Gateway interface {
	ScanMenu(ctx context.Context, req gateway.ScanMenuRequest) (*allersafe.ScanResult, error)
	AnalyzeSafety(ctx context.Context, scanID string, allergies []string) (*allersafe.SafetyAnalysis, error)
	SaveMenu(ctx context.Context, req gateway.SaveMenuRequest) error
	RequestRestaurantSupport(ctx context.Context, req gateway.SupportRequest) error
}

// Config holds workflow controller configuration
type Config struct {
	// Gateway issues the network calls (required)
	Gateway Gateway

	// Policy gates the premium side effects (required)
	Policy *allersafe.Policy

	// Principal returns the current session snapshot (required);
	// typically (*allersafe.Session).Current
	Principal func() *allersafe.Principal

	// Logger is used for structured logging (default: NoopLogger)
	Logger allersafe.Logger

	// Metrics tracks workflow operations (default: NoopMetrics)
	Metrics allersafe.Metrics
}

// Controller is the state machine over a single in-flight scan session.
// Transitions are serialized; a new submission invalidates any response
// still in flight (last-writer-wins on request initiation).
type Controller struct {
	gw        Gateway
	policy    *allersafe.Policy
	principal func() *allersafe.Principal
	logger    allersafe.Logger
	metrics   allersafe.Metrics

	mu         sync.Mutex
	state      State
	generation uint64
	scan       *allersafe.ScanResult
	member     *allersafe.FamilyMember
	analysis   *allersafe.SafetyAnalysis
	lastErr    error
}

// NewController creates a workflow controller in the Idle state
func NewController(cfg Config) (*Controller, error) {
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
	if cfg.Metrics == nil {
		cfg.Metrics = &allersafe.NoopMetrics{}
	}
	return &Controller{
		gw:        cfg.Gateway,
		policy:    cfg.Policy,
		principal: cfg.Principal,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		state:     StateIdle,
	}, nil
}

// SubmitURL scans a menu URL, discarding any prior scan and analysis.
// An empty URL fails locally before any network call and leaves the
// state untouched.
func (c *Controller) SubmitURL(ctx context.Context, url, restaurantName string) (*allersafe.ScanResult, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, allersafe.ErrEmptyURL
	}

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.state = StateScanning
	c.scan = nil
	c.member = nil
	c.analysis = nil
	c.lastErr = nil
	c.mu.Unlock()

	result, err := c.gw.ScanMenu(ctx, gateway.ScanMenuRequest{
		URL:            url,
		RestaurantName: strings.TrimSpace(restaurantName),
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		// A newer submission owns the state machine now.
		return nil, ErrSuperseded
	}
	if err != nil {
		c.state = StateError
		c.lastErr = err
		c.metrics.RecordScan(false)
		return nil, err
	}

	c.state = StateScanned
	c.scan = result
	c.metrics.RecordScan(true)
	c.logger.Info("menu scanned",
		allersafe.Field{Key: "scan_id", Value: result.ScanID},
		allersafe.Field{Key: "items", Value: result.TotalItemsFound},
	)
	return result, nil
}

// SelectMember requests a safety analysis of the held scan against the
// member's allergy set. Selecting a different member from Analyzed
// re-enters the analysis directly, reusing the scan.
func (c *Controller) SelectMember(ctx context.Context, member allersafe.FamilyMember) (*allersafe.SafetyAnalysis, error) {
	c.mu.Lock()
	if c.scan == nil || (c.state != StateScanned && c.state != StateAnalyzed) {
		c.mu.Unlock()
		return nil, allersafe.ErrNoScanResult
	}
	c.generation++
	gen := c.generation
	scanID := c.scan.ScanID
	total := c.scan.TotalItemsFound
	c.state = StateAnalyzing
	c.member = &member
	c.analysis = nil
	c.mu.Unlock()

	analysis, err := c.gw.AnalyzeSafety(ctx, scanID, member.Allergies)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return nil, ErrSuperseded
	}
	if err != nil {
		c.state = StateError
		c.lastErr = err
		c.metrics.RecordAnalysis(false)
		return nil, err
	}
	if err := validateBuckets(analysis, total); err != nil {
		c.state = StateError
		c.lastErr = err
		c.metrics.RecordAnalysis(false)
		c.logger.Error("rejected inconsistent safety analysis",
			allersafe.Field{Key: "scan_id", Value: scanID},
			allersafe.Field{Key: "error", Value: err.Error()},
		)
		return nil, err
	}

	c.state = StateAnalyzed
	c.analysis = analysis
	c.metrics.RecordAnalysis(true)
	return analysis, nil
}

// SaveToFavorites favorites the analyzed scan. Premium only: without
// the capability the call is rejected locally, no network request is
// issued, and the error carries the upgrade prompt.
func (c *Controller) SaveToFavorites(ctx context.Context, menuName, notes string) error {
	c.mu.Lock()
	if c.state != StateAnalyzed || c.scan == nil {
		c.mu.Unlock()
		return ErrNotAnalyzed
	}
	scanID := c.scan.ScanID
	c.mu.Unlock()

	if err := c.policy.Require(c.principal(), allersafe.CapabilitySaveMenu); err != nil {
		c.metrics.RecordPolicyDenied(string(allersafe.CapabilitySaveMenu))
		return err
	}

	return c.gw.SaveMenu(ctx, gateway.SaveMenuRequest{
		ScanID:   scanID,
		MenuName: menuName,
		Notes:    notes,
	})
}

// RequestPartnershipSupport asks the platform to pursue official
// allergen data from the analyzed restaurant. Available on every tier;
// the backend is told whether the requester is premium so it can
// prioritize the outreach.
func (c *Controller) RequestPartnershipSupport(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateAnalyzed || c.scan == nil {
		c.mu.Unlock()
		return ErrNotAnalyzed
	}
	name := c.scan.RestaurantName
	url := c.scan.URL
	c.mu.Unlock()

	premium := c.policy.Allows(c.principal(), allersafe.CapabilityPrioritySupport)
	return c.gw.RequestRestaurantSupport(ctx, gateway.SupportRequest{
		RestaurantName:   name,
		RestaurantURL:    url,
		Reason:           partnershipReason,
		PremiumRequester: premium,
	})
}

// Reset returns to Idle, discarding all held results and suppressing
// any response still in flight
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.state = StateIdle
	c.scan = nil
	c.member = nil
	c.analysis = nil
	c.lastErr = nil
}

// State returns the current workflow state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Scan returns the held scan result, or nil
func (c *Controller) Scan() *allersafe.ScanResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scan
}

// Member returns the selected family member, or nil
func (c *Controller) Member() *allersafe.FamilyMember {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.member
}

// Analysis returns the held safety analysis, or nil
func (c *Controller) Analysis() *allersafe.SafetyAnalysis {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.analysis
}

// Err returns the failure retained by the Error state, or nil
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// validateBuckets enforces that every scanned item landed in exactly
// one bucket and the advertised counts agree with the bucket sizes
func validateBuckets(a *allersafe.SafetyAnalysis, totalItems int) error {
	if a.SafeCount != len(a.SafeItems) ||
		a.UnsafeCount != len(a.UnsafeItems) ||
		a.UncertainCount != len(a.UncertainItems) {
		return allersafe.ErrInconsistentAnalysis
	}
	if a.SafeCount+a.UnsafeCount+a.UncertainCount != totalItems {
		return allersafe.ErrInconsistentAnalysis
	}
	return nil
}
