// Package gin provides Gin middleware for capability enforcement
package gin

import (
	"errors"
	"net/http"

	gongin "github.com/gin-gonic/gin"

	"github.com/rippinkwards/allersafe/pkg/allersafe"
)

// PrincipalExtractor extracts the authenticated principal from a Gin
// context. Return nil if the user is not authenticated.
type PrincipalExtractor func(c *gongin.Context) *allersafe.Principal

// CapabilityExtractor extracts the capability required by a Gin context.
// For example: "save_menu", "emergency_alert", "platform_admin".
type CapabilityExtractor func(c *gongin.Context) allersafe.Capability

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
	OnDenied func(c *gongin.Context, err *allersafe.PolicyDeniedError)

	// OnUnauthorized is called when no principal is present
	// If nil, returns 401 Unauthorized
	OnUnauthorized func(c *gongin.Context)
}

// Middleware creates a Gin middleware that enforces the capability
// policy before the handler runs
func Middleware(cfg Config) gongin.HandlerFunc {
	// Validate required configuration at startup (fail fast)
	if cfg.Policy == nil {
		panic("allersafe/gin: Config.Policy is required")
	}
	if cfg.GetPrincipal == nil {
		panic("allersafe/gin: Config.GetPrincipal is required")
	}
	if cfg.GetCapability == nil {
		panic("allersafe/gin: Config.GetCapability is required")
	}

	if cfg.DeniedStatusCode == 0 {
		cfg.DeniedStatusCode = http.StatusForbidden
	}

	return func(c *gongin.Context) {
		principal := cfg.GetPrincipal(c)
		if principal == nil {
			if cfg.OnUnauthorized != nil {
				cfg.OnUnauthorized(c)
			} else {
				c.JSON(http.StatusUnauthorized, gongin.H{"detail": "Not authenticated"})
			}
			c.Abort()
			return
		}

		capability := cfg.GetCapability(c)
		if err := cfg.Policy.Require(principal, capability); err != nil {
			var denied *allersafe.PolicyDeniedError
			if !errors.As(err, &denied) {
				denied = &allersafe.PolicyDeniedError{Capability: capability}
			}
			if cfg.OnDenied != nil {
				cfg.OnDenied(c, denied)
			} else {
				c.JSON(cfg.DeniedStatusCode, gongin.H{
					"detail":     denied.Error(),
					"capability": string(denied.Capability),
				})
			}
			c.Abort()
			return
		}

		c.Next()
	}
}

// Convenience extractors

// FromContext returns a PrincipalExtractor that gets the principal from
// Gin context values. This is the recommended approach for integrating
// with auth middleware that sets the principal via c.Set.
//
// Example:
//
//	// In your auth middleware:
//	c.Set("Principal", principal)
//
//	// In capability middleware config:
//	GetPrincipal: gin.FromContext("Principal")
func FromContext(key string) PrincipalExtractor {
	return func(c *gongin.Context) *allersafe.Principal {
		if val, exists := c.Get(key); exists {
			if p, ok := val.(*allersafe.Principal); ok {
				return p
			}
		}
		return nil
	}
}

// FromSession returns a PrincipalExtractor bound to a session store,
// for single-identity integrations
func FromSession(session *allersafe.Session) PrincipalExtractor {
	return func(*gongin.Context) *allersafe.Principal {
		return session.Current()
	}
}

// FixedCapability returns a CapabilityExtractor that always returns a
// fixed capability
func FixedCapability(capability allersafe.Capability) CapabilityExtractor {
	return func(*gongin.Context) allersafe.Capability {
		return capability
	}
}

// FromRoute returns a CapabilityExtractor that resolves the capability
// from the route path via the given mapping
func FromRoute(routes map[string]allersafe.Capability) CapabilityExtractor {
	return func(c *gongin.Context) allersafe.Capability {
		return routes[c.FullPath()]
	}
}
