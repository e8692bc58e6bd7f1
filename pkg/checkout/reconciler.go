// Package checkout reconciles an external payment redirect with the
// backend's eventually-consistent subscription state. After the hosted
// checkout returns the user to the client, the reconciler polls the
// payment-status endpoint with a bounded attempt budget and emits
// exactly one terminal outcome. Both the restaurant and family
// dashboards use the same reconciler, parameterized only by a refresh
// callback.
package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/rippinkwards/allersafe/pkg/allersafe"
)

const (
	defaultInterval    = 2 * time.Second
	defaultMaxAttempts = 5

	paymentStatusPaid    = "paid"
	sessionStatusExpired = "expired"
)

// Outcome is the terminal signal of one reconciliation
type Outcome string

const (
	// OutcomeActivated means the payment settled and the principal was
	// refreshed
	OutcomeActivated Outcome = "activated"
	// OutcomeSessionExpired means the checkout session expired before
	// payment; no retry
	OutcomeSessionExpired Outcome = "session_expired"
	// OutcomeTimedOut means the attempt budget was exhausted; the user
	// should check billing manually
	OutcomeTimedOut Outcome = "timed_out"
	// OutcomeCanceled means the surrounding context was canceled
	// (navigation away, unmount)
	OutcomeCanceled Outcome = "canceled"
)

// Result is the single terminal result of a reconciliation
type Result struct {
	Outcome  Outcome
	Attempts int
}

// StatusClient is the slice of the backend gateway the reconciler
// needs. *gateway.Client implements it.
type StatusClient interface {
	PaymentStatus(ctx context.Context, sessionID string) (*allersafe.PaymentStatusSnapshot, error)
}

// URLCleaner strips the checkout query parameters from the visible
// address so a reload does not re-trigger reconciliation. The
// reconciler is the only component allowed to mutate the visible
// address after checkout, and does so exactly once, only on confirmed
// success.
type URLCleaner interface {
	StripCheckoutParams()
}

// Config holds reconciler configuration
type Config struct {
	// Status fetches payment-status snapshots (required)
	Status StatusClient

	// Refresh replaces the principal snapshot after a confirmed
	// payment (required); typically (*allersafe.Session).Refresh
	Refresh func(ctx context.Context) error

	// Cleaner strips the return-URL query parameters on success
	// (optional)
	Cleaner URLCleaner

	// Interval between poll attempts (default: 2s)
	Interval time.Duration

	// MaxAttempts bounds the polling loop (default: 5)
	MaxAttempts int

	// Logger is used for structured logging (default: NoopLogger)
	Logger allersafe.Logger

	// Metrics tracks reconciliation outcomes (default: NoopMetrics)
	Metrics allersafe.Metrics
}

// Reconciler polls payment status until a terminal outcome
type Reconciler struct {
	status      StatusClient
	refresh     func(ctx context.Context) error
	cleaner     URLCleaner
	interval    time.Duration
	maxAttempts int
	logger      allersafe.Logger
	metrics     allersafe.Metrics

	// sleep is replaced in tests to avoid real timers
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a checkout reconciler
func New(cfg Config) (*Reconciler, error) {
	if cfg.Status == nil {
		return nil, &allersafe.ValidationError{Field: "status", Reason: "status client is required"}
	}
	if cfg.Refresh == nil {
		return nil, &allersafe.ValidationError{Field: "refresh", Reason: "refresh callback is required"}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Logger == nil {
		cfg.Logger = &allersafe.NoopLogger{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &allersafe.NoopMetrics{}
	}
	return &Reconciler{
		status:      cfg.Status,
		refresh:     cfg.Refresh,
		cleaner:     cfg.Cleaner,
		interval:    cfg.Interval,
		maxAttempts: cfg.MaxAttempts,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
		sleep:       sleepCtx,
	}, nil
}

// Reconcile polls the payment-status endpoint until the session is
// paid, expired, the attempt budget is exhausted, or ctx is canceled.
// It returns exactly one terminal result; polling never continues past
// it. Invoking Reconcile twice with the same session identifier races
// harmlessly, since both converge on the same backend truth.
func (r *Reconciler) Reconcile(ctx context.Context, sessionID string) (Result, error) {
	if sessionID == "" {
		return Result{}, &allersafe.ValidationError{Field: "session_id", Reason: "session identifier is required"}
	}

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		snapshot, err := r.status.PaymentStatus(ctx, sessionID)
		switch {
		case err == nil && snapshot.PaymentStatus == paymentStatusPaid:
			if refreshErr := r.refresh(ctx); refreshErr != nil {
				// Payment is confirmed; a failed refresh resolves on
				// the next principal fetch.
				r.logger.Warn("principal refresh failed after payment",
					allersafe.Field{Key: "session_id", Value: sessionID},
					allersafe.Field{Key: "error", Value: refreshErr.Error()},
				)
			}
			if r.cleaner != nil {
				r.cleaner.StripCheckoutParams()
			}
			r.logger.Info("subscription activated",
				allersafe.Field{Key: "session_id", Value: sessionID},
				allersafe.Field{Key: "attempts", Value: attempt},
			)
			return r.finish(OutcomeActivated, attempt), nil

		case err == nil && snapshot.Status == sessionStatusExpired:
			r.logger.Info("checkout session expired",
				allersafe.Field{Key: "session_id", Value: sessionID},
			)
			return r.finish(OutcomeSessionExpired, attempt), nil

		case err != nil:
			// Transient failures consume an attempt like any other
			// non-terminal status.
			r.logger.Debug("payment status check failed",
				allersafe.Field{Key: "session_id", Value: sessionID},
				allersafe.Field{Key: "attempt", Value: attempt},
				allersafe.Field{Key: "error", Value: err.Error()},
			)
		}

		if attempt == r.maxAttempts {
			break
		}
		if err := r.sleep(ctx, r.interval); err != nil {
			return r.finish(OutcomeCanceled, attempt), ctx.Err()
		}
	}

	r.logger.Warn("payment status check timed out",
		allersafe.Field{Key: "session_id", Value: sessionID},
		allersafe.Field{Key: "attempts", Value: r.maxAttempts},
	)
	return r.finish(OutcomeTimedOut, r.maxAttempts), nil
}

// Begin launches a reconciliation in the background and delivers the
// terminal result to onResult at most once. It matches the mount-time
// fire-and-forget usage of the dashboards.
func (r *Reconciler) Begin(ctx context.Context, sessionID string, onResult func(Result)) {
	var once sync.Once
	go func() {
		result, err := r.Reconcile(ctx, sessionID)
		if err != nil && result.Outcome == "" {
			return
		}
		if onResult != nil {
			once.Do(func() { onResult(result) })
		}
	}()
}

func (r *Reconciler) finish(outcome Outcome, attempts int) Result {
	r.metrics.RecordReconciliation(string(outcome), attempts)
	return Result{Outcome: outcome, Attempts: attempts}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
