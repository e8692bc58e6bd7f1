package dashboard

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rippinkwards/allersafe/pkg/allersafe"
)

// AdminGateway is the slice of the backend gateway the admin dashboard
// needs. *gateway.Client implements it.
type AdminGateway interface {
	AdminStats(ctx context.Context) (*allersafe.AdminStats, error)
	AdminRestaurants(ctx context.Context) ([]allersafe.Restaurant, error)
	AdminFamilies(ctx context.Context) ([]allersafe.Family, error)
	AdminSubscriptions(ctx context.Context) ([]allersafe.SubscriptionRecord, error)
	AdminSMSLogs(ctx context.Context) ([]allersafe.MessageLog, error)
	AdminEmailLogs(ctx context.Context) ([]allersafe.MessageLog, error)
	AdminPaymentTransactions(ctx context.Context) ([]allersafe.PaymentTransaction, error)
}

// AdminConfig holds admin dashboard configuration
type AdminConfig struct {
	// Gateway issues the network calls (required)
	Gateway AdminGateway

	// Policy gates access to the aggregates (required)
	Policy *allersafe.Policy

	// Principal returns the current session snapshot (required)
	Principal func() *allersafe.Principal

	// Logger is used for structured logging (default: NoopLogger)
	Logger allersafe.Logger
}

// Overview is the combined platform snapshot shown on the admin
// dashboard. Sections whose fetch failed are nil; Partial reports
// whether anything is missing.
type Overview struct {
	Stats         *allersafe.AdminStats
	Restaurants   []allersafe.Restaurant
	Families      []allersafe.Family
	Subscriptions []allersafe.SubscriptionRecord
	SMSLogs       []allersafe.MessageLog
	EmailLogs     []allersafe.MessageLog
	Transactions  []allersafe.PaymentTransaction
	Partial       bool
}

// AdminDashboard is the read-only operator surface over the platform
// aggregates
type AdminDashboard struct {
	gw        AdminGateway
	policy    *allersafe.Policy
	principal func() *allersafe.Principal
	logger    allersafe.Logger
}

// NewAdminDashboard creates the operator dashboard
func NewAdminDashboard(cfg AdminConfig) (*AdminDashboard, error) {
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
	return &AdminDashboard{
		gw:        cfg.Gateway,
		policy:    cfg.Policy,
		principal: cfg.Principal,
		logger:    cfg.Logger,
	}, nil
}

// Overview fetches all admin sections concurrently. A failed section is
// logged and left nil rather than failing the whole snapshot; the
// snapshot is an error only when every section failed.
func (d *AdminDashboard) Overview(ctx context.Context) (*Overview, error) {
	if err := d.policy.Require(d.principal(), allersafe.CapabilityPlatformAdmin); err != nil {
		return nil, err
	}

	var (
		out      Overview
		failMu   sync.Mutex
		firstErr error
		failures int
	)
	g, gctx := errgroup.WithContext(ctx)

	fetch := func(section string, fn func(context.Context) error) func() error {
		return func() error {
			if err := fn(gctx); err != nil {
				d.logger.Warn("admin section fetch failed",
					allersafe.Field{Key: "section", Value: section},
					allersafe.Field{Key: "error", Value: err.Error()},
				)
				failMu.Lock()
				failures++
				if firstErr == nil {
					firstErr = err
				}
				failMu.Unlock()
			}
			return nil
		}
	}

	g.Go(fetch("stats", func(ctx context.Context) error {
		stats, err := d.gw.AdminStats(ctx)
		if err == nil {
			out.Stats = stats
		}
		return err
	}))
	g.Go(fetch("restaurants", func(ctx context.Context) error {
		restaurants, err := d.gw.AdminRestaurants(ctx)
		if err == nil {
			out.Restaurants = restaurants
		}
		return err
	}))
	g.Go(fetch("families", func(ctx context.Context) error {
		families, err := d.gw.AdminFamilies(ctx)
		if err == nil {
			out.Families = families
		}
		return err
	}))
	g.Go(fetch("subscriptions", func(ctx context.Context) error {
		subs, err := d.gw.AdminSubscriptions(ctx)
		if err == nil {
			out.Subscriptions = subs
		}
		return err
	}))
	g.Go(fetch("sms_logs", func(ctx context.Context) error {
		logs, err := d.gw.AdminSMSLogs(ctx)
		if err == nil {
			out.SMSLogs = logs
		}
		return err
	}))
	g.Go(fetch("email_logs", func(ctx context.Context) error {
		logs, err := d.gw.AdminEmailLogs(ctx)
		if err == nil {
			out.EmailLogs = logs
		}
		return err
	}))
	g.Go(fetch("transactions", func(ctx context.Context) error {
		txs, err := d.gw.AdminPaymentTransactions(ctx)
		if err == nil {
			out.Transactions = txs
		}
		return err
	}))

	// Workers never return errors, so Wait only synchronizes.
	_ = g.Wait()

	const sections = 7
	if failures == sections {
		return nil, firstErr
	}
	out.Partial = failures > 0
	return &out, nil
}
