// Package http provides HTTP middleware for capability enforcement
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rippinkwards/allersafe/pkg/allersafe"
)

// PrincipalExtractor extracts the authenticated principal from an HTTP
// request. Return nil if the user is not authenticated.
type PrincipalExtractor func(r *http.Request) *allersafe.Principal

// CapabilityExtractor extracts the capability required by an HTTP request.
// For example: "save_menu", "emergency_alert", "platform_admin".
type CapabilityExtractor func(r *http.Request) allersafe.Capability

// Config holds middleware configuration
type Config struct {
	// Policy is the capability policy instance (required)
	Policy *allersafe.Policy

	// GetPrincipal extracts the principal from request (required)
	GetPrincipal PrincipalExtractor

	// GetCapability extracts the required capability from request (required)
	GetCapability CapabilityExtractor

	// OnDenied is called when the policy refuses the capability.
	// If nil, returns 403 Forbidden with the upgrade prompt.
	OnDenied func(w http.ResponseWriter, r *http.Request, err *allersafe.PolicyDeniedError)

	// OnUnauthorized is called when no principal is present.
	// If nil, returns 401 Unauthorized.
	OnUnauthorized func(w http.ResponseWriter, r *http.Request)
}

// Middleware creates an HTTP middleware that enforces the capability
// policy before the handler runs
func Middleware(config Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := config.GetPrincipal(r)
			if principal == nil {
				if config.OnUnauthorized != nil {
					config.OnUnauthorized(w, r)
				} else {
					writeJSONError(w, http.StatusUnauthorized, "Not authenticated")
				}
				return
			}

			capability := config.GetCapability(r)
			if err := config.Policy.Require(principal, capability); err != nil {
				var denied *allersafe.PolicyDeniedError
				if !errors.As(err, &denied) {
					denied = &allersafe.PolicyDeniedError{Capability: capability}
				}
				if config.OnDenied != nil {
					config.OnDenied(w, r, denied)
				} else {
					writeJSONError(w, http.StatusForbidden, denied.Error())
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// HandlerFunc creates an HTTP middleware that enforces the capability
// policy (HandlerFunc version)
func HandlerFunc(config Config) func(http.HandlerFunc) http.HandlerFunc {
	middleware := Middleware(config)
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			middleware(next).ServeHTTP(w, r)
		}
	}
}

// Common extractors for convenience

// FixedCapability returns a CapabilityExtractor that always returns the
// same capability
func FixedCapability(c allersafe.Capability) CapabilityExtractor {
	return func(r *http.Request) allersafe.Capability {
		return c
	}
}

// ContextKey is a type for context keys
type ContextKey string

const (
	// PrincipalKey is the context key for the principal
	PrincipalKey ContextKey = "allersafe:principal"
)

// FromContext returns a PrincipalExtractor that reads the principal from
// the request context
func FromContext(key ContextKey) PrincipalExtractor {
	return func(r *http.Request) *allersafe.Principal {
		if p, ok := r.Context().Value(key).(*allersafe.Principal); ok {
			return p
		}
		return nil
	}
}

// FromSession returns a PrincipalExtractor bound to a session store,
// for single-identity integrations
func FromSession(session *allersafe.Session) PrincipalExtractor {
	return func(r *http.Request) *allersafe.Principal {
		return session.Current()
	}
}

// WithPrincipal adds the principal to a request context
func WithPrincipal(ctx context.Context, p *allersafe.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

func writeJSONError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
