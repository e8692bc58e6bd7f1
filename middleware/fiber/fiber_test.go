package fiber

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/rippinkwards/allersafe/pkg/allersafe"
)

func newApp(principal *allersafe.Principal, capability allersafe.Capability) *fiber.App {
	app := fiber.New()
	app.Use(Middleware(Config{
		Policy:        allersafe.NewPolicy(),
		GetPrincipal:  func(*fiber.Ctx) *allersafe.Principal { return principal },
		GetCapability: FixedCapability(capability),
	}))
	app.Get("/api/test", func(c *fiber.Ctx) error {
		return c.SendString("success")
	})
	return app
}

func TestMiddleware_Allowed(t *testing.T) {
	principal := &allersafe.Principal{
		Role:               allersafe.RoleFamily,
		SubscriptionStatus: allersafe.StatusActive,
	}
	app := newApp(principal, allersafe.CapabilitySaveMenu)

	req := httptest.NewRequest("GET", "/api/test", http.NoBody)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Test request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}

func TestMiddleware_Denied(t *testing.T) {
	principal := &allersafe.Principal{
		Role:               allersafe.RoleFamily,
		SubscriptionStatus: allersafe.StatusTrial,
	}
	app := newApp(principal, allersafe.CapabilitySaveMenu)

	req := httptest.NewRequest("GET", "/api/test", http.NoBody)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Test request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("Expected 403, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Premium") {
		t.Errorf("Expected upgrade prompt in body, got %q", string(body))
	}
}

func TestMiddleware_Unauthorized(t *testing.T) {
	app := newApp(nil, allersafe.CapabilitySaveMenu)

	req := httptest.NewRequest("GET", "/api/test", http.NoBody)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Test request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", resp.StatusCode)
	}
}

func TestMiddleware_FromLocals(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("Principal", &allersafe.Principal{
			Role:               allersafe.RoleRestaurant,
			SubscriptionStatus: allersafe.StatusTrial,
		})
		return c.Next()
	})
	app.Use(Middleware(Config{
		Policy:        allersafe.NewPolicy(),
		GetPrincipal:  FromLocals("Principal"),
		GetCapability: FixedCapability(allersafe.CapabilityManageMenu),
	}))
	app.Get("/api/test", func(c *fiber.Ctx) error {
		return c.SendString("success")
	})

	req := httptest.NewRequest("GET", "/api/test", http.NoBody)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Test request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}
