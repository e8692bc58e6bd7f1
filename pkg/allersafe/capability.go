package allersafe

// Capability is a named permission derived from role and subscription
// tier. Capabilities are computed, never stored.
type Capability string

const (
	// CapabilityEmergencyAlert allows sending SMS emergency alerts
	CapabilityEmergencyAlert Capability = "emergency_alert"
	// CapabilitySaveMenu allows saving scanned menus to favorites
	CapabilitySaveMenu Capability = "save_menu"
	// CapabilityPrioritySupport marks support requests for priority outreach
	CapabilityPrioritySupport Capability = "priority_support"
	// CapabilityAnalytics allows access to the analytics dashboard
	CapabilityAnalytics Capability = "analytics"
	// CapabilityManageMenu allows restaurant menu CRUD and publishing
	CapabilityManageMenu Capability = "manage_menu"
	// CapabilityGenerateQR allows partner QR code generation
	CapabilityGenerateQR Capability = "generate_qr"
	// CapabilityViewScanHistory allows reading the consumer scan history
	CapabilityViewScanHistory Capability = "view_scan_history"
	// CapabilityViewSavedMenus allows reading the saved favorites list
	CapabilityViewSavedMenus Capability = "view_saved_menus"
	// CapabilityPlatformAdmin allows the read-only admin aggregates
	CapabilityPlatformAdmin Capability = "platform_admin"
)

// CapabilitySet is the set of capabilities enabled for one
// (role, subscription status) pair
type CapabilitySet map[Capability]bool

// Has reports whether the capability is enabled
func (s CapabilitySet) Has(c Capability) bool {
	return s[c]
}

func (s CapabilitySet) clone() CapabilitySet {
	out := make(CapabilitySet, len(s))
	for c, v := range s {
		out[c] = v
	}
	return out
}

// upgradeMessages are the user-facing prompts surfaced when a premium
// capability is refused. Wording follows the product copy.
var upgradeMessages = map[Capability]string{
	CapabilityEmergencyAlert:  "Emergency SMS alerts are a Premium feature. Upgrade to access this functionality.",
	CapabilitySaveMenu:        "Saving favorite menus is a Premium feature. Upgrade to access this functionality.",
	CapabilityPrioritySupport: "Upgrade to Premium for priority restaurant outreach.",
	CapabilityViewSavedMenus:  "Saved menus are a Premium feature. Upgrade to access this functionality.",
	CapabilityAnalytics:       "Analytics are included with an active subscription.",
}

// Policy is the single lookup point mapping (role, subscription status)
// to enabled capabilities. The mapping is total: every combination,
// including unknown ones, yields a defined set. Unknown combinations
// deny everything.
type Policy struct {
	table map[Role]map[SubscriptionStatus]CapabilitySet
}

// NewPolicy creates the default capability policy
func NewPolicy() *Policy {
	familyFree := CapabilitySet{
		CapabilityViewScanHistory: true,
	}
	familyPremium := CapabilitySet{
		CapabilityViewScanHistory: true,
		CapabilityViewSavedMenus:  true,
		CapabilityEmergencyAlert:  true,
		CapabilitySaveMenu:        true,
		CapabilityPrioritySupport: true,
	}
	restaurantBase := CapabilitySet{
		CapabilityManageMenu: true,
		CapabilityGenerateQR: true,
	}
	restaurantPremium := CapabilitySet{
		CapabilityManageMenu: true,
		CapabilityGenerateQR: true,
		CapabilityAnalytics:  true,
	}
	admin := CapabilitySet{
		CapabilityPlatformAdmin: true,
		CapabilityAnalytics:     true,
	}

	return &Policy{
		table: map[Role]map[SubscriptionStatus]CapabilitySet{
			RoleFamily: {
				StatusTrial:   familyFree,
				StatusActive:  familyPremium,
				StatusExpired: familyFree,
			},
			RoleRestaurant: {
				StatusTrial:   restaurantBase,
				StatusActive:  restaurantPremium,
				StatusExpired: restaurantBase,
			},
			RoleAdmin: {
				StatusTrial:   admin,
				StatusActive:  admin,
				StatusExpired: admin,
			},
		},
	}
}

// Capabilities returns the capability set for a role and status.
// Never returns nil; unknown combinations map to the empty set.
func (p *Policy) Capabilities(role Role, status SubscriptionStatus) CapabilitySet {
	byStatus, ok := p.table[role]
	if !ok {
		return CapabilitySet{}
	}
	set, ok := byStatus[status]
	if !ok {
		return CapabilitySet{}
	}
	return set.clone()
}

// Allows reports whether the principal may perform the capability.
// A nil principal is denied everything.
func (p *Policy) Allows(principal *Principal, c Capability) bool {
	if principal == nil {
		return false
	}
	return p.Capabilities(principal.Role, principal.SubscriptionStatus).Has(c)
}

// Require returns a PolicyDeniedError carrying the upgrade prompt when
// the principal lacks the capability, nil otherwise
func (p *Policy) Require(principal *Principal, c Capability) error {
	if p.Allows(principal, c) {
		return nil
	}
	return &PolicyDeniedError{
		Capability: c,
		Message:    upgradeMessages[c],
	}
}
