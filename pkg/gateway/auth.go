package gateway

import (
	"context"

	"github.com/rippinkwards/allersafe/pkg/allersafe"
)

// Login exchanges credentials for a bearer token and principal
func (c *Client) Login(ctx context.Context, creds allersafe.Credentials) (*allersafe.AuthResult, error) {
	var out allersafe.AuthResult
	if err := c.post(ctx, "/api/auth/login", creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and returns the new bearer token and
// principal
func (c *Client) Register(ctx context.Context, reg allersafe.Registration) (*allersafe.AuthResult, error) {
	var out allersafe.AuthResult
	if err := c.post(ctx, "/api/auth/register", reg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the current principal for the attached credential
func (c *Client) Me(ctx context.Context) (*allersafe.Principal, error) {
	var out allersafe.Principal
	if err := c.get(ctx, "/api/auth/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
