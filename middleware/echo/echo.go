// Package echo provides Echo middleware for capability enforcement
package echo

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rippinkwards/allersafe/pkg/allersafe"
)

// PrincipalExtractor extracts the authenticated principal from an Echo
// context. Return nil if the user is not authenticated.
type PrincipalExtractor func(c echo.Context) *allersafe.Principal

// CapabilityExtractor extracts the capability required by an Echo context.
// For example: "save_menu", "emergency_alert", "platform_admin".
type CapabilityExtractor func(c echo.Context) allersafe.Capability

// Config holds middleware configuration
type Config struct {
	// Policy is the capability policy instance (required)
	Policy *allersafe.Policy

	// GetPrincipal extracts the principal from context (required)
	GetPrincipal PrincipalExtractor

	// GetCapability extracts the required capability from context (required)
	GetCapability CapabilityExtractor

	// DeniedStatusCode is the HTTP status code to return when the
	// policy refuses the capability
	// Default: 403 (Forbidden)
	DeniedStatusCode int

	// OnDenied is called when the policy refuses the capability
	// If nil, uses default response: DeniedStatusCode JSON with the upgrade prompt
	OnDenied func(c echo.Context, err *allersafe.PolicyDeniedError) error

	// OnUnauthorized is called when no principal is present
	// If nil, returns 401 Unauthorized
	OnUnauthorized func(c echo.Context) error
}

// Middleware creates an Echo middleware that enforces the capability
// policy before the handler runs
func Middleware(cfg Config) echo.MiddlewareFunc {
	// Validate required configuration at startup (fail fast)
	if cfg.Policy == nil {
		panic("allersafe/echo: Config.Policy is required")
	}
	if cfg.GetPrincipal == nil {
		panic("allersafe/echo: Config.GetPrincipal is required")
	}
	if cfg.GetCapability == nil {
		panic("allersafe/echo: Config.GetCapability is required")
	}

	if cfg.DeniedStatusCode == 0 {
		cfg.DeniedStatusCode = http.StatusForbidden
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal := cfg.GetPrincipal(c)
			if principal == nil {
				if cfg.OnUnauthorized != nil {
					return cfg.OnUnauthorized(c)
				}
				return c.JSON(http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
			}

			capability := cfg.GetCapability(c)
			if err := cfg.Policy.Require(principal, capability); err != nil {
				var denied *allersafe.PolicyDeniedError
				if !errors.As(err, &denied) {
					denied = &allersafe.PolicyDeniedError{Capability: capability}
				}
				if cfg.OnDenied != nil {
					return cfg.OnDenied(c, denied)
				}
				return c.JSON(cfg.DeniedStatusCode, map[string]string{
					"detail":     denied.Error(),
					"capability": string(denied.Capability),
				})
			}

			return next(c)
		}
	}
}

// Convenience extractors

// FromContext returns a PrincipalExtractor that gets the principal from
// Echo context values, as set by auth middleware via c.Set
func FromContext(key string) PrincipalExtractor {
	return func(c echo.Context) *allersafe.Principal {
		if p, ok := c.Get(key).(*allersafe.Principal); ok {
			return p
		}
		return nil
	}
}

// FromSession returns a PrincipalExtractor bound to a session store,
// for single-identity integrations
func FromSession(session *allersafe.Session) PrincipalExtractor {
	return func(echo.Context) *allersafe.Principal {
		return session.Current()
	}
}

// FixedCapability returns a CapabilityExtractor that always returns a
// fixed capability
func FixedCapability(capability allersafe.Capability) CapabilityExtractor {
	return func(echo.Context) allersafe.Capability {
		return capability
	}
}

// FromRoute returns a CapabilityExtractor that resolves the capability
// from the route path via the given mapping
func FromRoute(routes map[string]allersafe.Capability) CapabilityExtractor {
	return func(c echo.Context) allersafe.Capability {
		return routes[c.Path()]
	}
}
