package gateway

import (
	"context"
	"fmt"

	"github.com/rippinkwards/allersafe/pkg/allersafe"
)

// CreateFamilyRequest registers a family profile with its members
type CreateFamilyRequest struct {
	Name    string                `json:"name"`
	Members []CreateMemberRequest `json:"members"`
}

// CreateMemberRequest is one member of a family creation payload
type CreateMemberRequest struct {
	Name      string   `json:"name"`
	Allergies []string `json:"allergies"`
}

// EmergencyAlertRequest carries the optional geolocation attached to an
// SMS emergency alert
type EmergencyAlertRequest struct {
	LocationLat     *float64 `json:"location_lat,omitempty"`
	LocationLng     *float64 `json:"location_lng,omitempty"`
	LocationAddress string   `json:"location_address"`
}

// MyFamily returns the family owned by the current principal
func (c *Client) MyFamily(ctx context.Context) (*allersafe.Family, error) {
	var out allersafe.Family
	if err := c.get(ctx, "/api/families/my", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateFamily registers a family profile
func (c *Client) CreateFamily(ctx context.Context, req CreateFamilyRequest) (*allersafe.Family, error) {
	var out allersafe.Family
	if err := c.post(ctx, "/api/families", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetEmergencyContact replaces the family's emergency contact
func (c *Client) SetEmergencyContact(ctx context.Context, familyID string, contact allersafe.EmergencyContact) error {
	return c.post(ctx, fmt.Sprintf("/api/families/%s/emergency-contact", familyID), contact, nil)
}

// SendEmergencyAlert dispatches an SMS emergency alert for a member
func (c *Client) SendEmergencyAlert(ctx context.Context, familyID, memberID string, req EmergencyAlertRequest) error {
	return c.post(ctx, fmt.Sprintf("/api/families/%s/members/%s/emergency-alert", familyID, memberID), req, nil)
}
