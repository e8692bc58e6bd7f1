// Package fiber provides Fiber middleware for capability enforcement
package fiber

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/rippinkwards/allersafe/pkg/allersafe"
)

// PrincipalExtractor extracts the authenticated principal from a Fiber
// context. Return nil if the user is not authenticated.
type PrincipalExtractor func(c *fiber.Ctx) *allersafe.Principal

// CapabilityExtractor extracts the capability required by a Fiber context.
// For example: "save_menu", "emergency_alert", "platform_admin".
type CapabilityExtractor func(c *fiber.Ctx) allersafe.Capability

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
	OnDenied func(c *fiber.Ctx, err *allersafe.PolicyDeniedError) error

	// OnUnauthorized is called when no principal is present
	// If nil, returns 401 Unauthorized
	OnUnauthorized func(c *fiber.Ctx) error
}

// Middleware creates a Fiber middleware that enforces the capability
// policy before the handler runs
func Middleware(cfg Config) fiber.Handler {
	// Validate required configuration at startup (fail fast)
	if cfg.Policy == nil {
		panic("allersafe/fiber: Config.Policy is required")
	}
	if cfg.GetPrincipal == nil {
		panic("allersafe/fiber: Config.GetPrincipal is required")
	}
	if cfg.GetCapability == nil {
		panic("allersafe/fiber: Config.GetCapability is required")
	}

	if cfg.DeniedStatusCode == 0 {
		cfg.DeniedStatusCode = fiber.StatusForbidden
	}

	return func(c *fiber.Ctx) error {
		principal := cfg.GetPrincipal(c)
		if principal == nil {
			if cfg.OnUnauthorized != nil {
				return cfg.OnUnauthorized(c)
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "Not authenticated"})
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
			return c.Status(cfg.DeniedStatusCode).JSON(fiber.Map{
				"detail":     denied.Error(),
				"capability": string(denied.Capability),
			})
		}

		return c.Next()
	}
}

// Convenience extractors

// FromLocals returns a PrincipalExtractor that gets the principal from
// Fiber locals, as set by auth middleware via c.Locals
func FromLocals(key string) PrincipalExtractor {
	return func(c *fiber.Ctx) *allersafe.Principal {
		if p, ok := c.Locals(key).(*allersafe.Principal); ok {
			return p
		}
		return nil
	}
}

// FromSession returns a PrincipalExtractor bound to a session store,
// for single-identity integrations
func FromSession(session *allersafe.Session) PrincipalExtractor {
	return func(*fiber.Ctx) *allersafe.Principal {
		return session.Current()
	}
}

// FixedCapability returns a CapabilityExtractor that always returns a
// fixed capability
func FixedCapability(capability allersafe.Capability) CapabilityExtractor {
	return func(*fiber.Ctx) allersafe.Capability {
		return capability
	}
}

// FromRoute returns a CapabilityExtractor that resolves the capability
// from the route path via the given mapping
func FromRoute(routes map[string]allersafe.Capability) CapabilityExtractor {
	return func(c *fiber.Ctx) allersafe.Capability {
		return routes[c.Route().Path]
	}
}
