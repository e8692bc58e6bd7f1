package allersafe

import (
	"context"
	"time"
)

// Role identifies the kind of account a principal holds
type Role string

const (
	// RoleRestaurant represents a restaurant owner account
	RoleRestaurant Role = "restaurant"
	// RoleFamily represents a family/consumer account
	RoleFamily Role = "family"
	// RoleAdmin represents a platform administrator account
	RoleAdmin Role = "admin"
)

// SubscriptionStatus represents the billing state of a principal
type SubscriptionStatus string

const (
	// StatusTrial represents an account that has not subscribed yet
	StatusTrial SubscriptionStatus = "trial"
	// StatusActive represents a paying subscriber
	StatusActive SubscriptionStatus = "active"
	// StatusExpired represents a lapsed subscription
	StatusExpired SubscriptionStatus = "expired"
)

// Subscription holds the billing details attached to an active principal
type Subscription struct {
	PackageName     string    `json:"package_name"`
	NextBillingDate time.Time `json:"next_billing_date"`
}

// Principal is the authenticated user snapshot owned by the Session.
// It is replaced wholesale on login, refresh, and logout - never
// partially mutated.
type Principal struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Email              string             `json:"email"`
	Role               Role               `json:"role"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
	Subscription       *Subscription      `json:"subscription,omitempty"`
}

// IsPremium reports whether the principal has an active subscription
func (p *Principal) IsPremium() bool {
	return p != nil && p.SubscriptionStatus == StatusActive
}

// CheckoutSession is derived once from the query parameters of the
// return URL after an external payment redirect. It is discarded after
// the first successful reconciliation or after retries are exhausted.
type CheckoutSession struct {
	SessionID string
	// ReturnedSuccess is true when the provider flagged the redirect
	// with payment=success
	ReturnedSuccess bool
}

// PaymentStatusSnapshot is a single poll result from the payment-status
// endpoint. It is transient and never persisted.
type PaymentStatusSnapshot struct {
	// PaymentStatus is the provider's settlement state ("paid", "unpaid", ...)
	PaymentStatus string `json:"payment_status"`
	// Status is the checkout-session lifecycle state ("open", "expired", ...)
	Status string `json:"status"`
}

// ScannedItem is one unverified menu item produced by a scan
type ScannedItem struct {
	Name              string   `json:"name"`
	Description       string   `json:"description,omitempty"`
	Price             *float64 `json:"price,omitempty"`
	DetectedAllergens []string `json:"detected_allergens"`
}

// ScanResult is the unverified item list obtained from scanning an
// arbitrary restaurant menu URL. Immutable once received; superseded by
// a new scan.
type ScanResult struct {
	ScanID          string        `json:"scan_id"`
	RestaurantName  string        `json:"restaurant_name"`
	URL             string        `json:"url"`
	TotalItemsFound int           `json:"total_items_found"`
	MenuItems       []ScannedItem `json:"menu_items"`
}

// FamilyMember is one member of a family profile with their allergy set
type FamilyMember struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Allergies []string `json:"allergies"`
}

// EmergencyContact is the SMS recipient for emergency alerts
type EmergencyContact struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

// Family is the consumer-side entity holding members and the emergency
// contact. Read-only from this package's perspective.
type Family struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Members          []FamilyMember    `json:"members"`
	EmergencyContact *EmergencyContact `json:"emergency_contact,omitempty"`
}

// AnalyzedItem is a menu item placed in the safe or uncertain bucket
type AnalyzedItem struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// UnsafeItem is a menu item that matched at least one of the member's
// allergies
type UnsafeItem struct {
	Name              string   `json:"name"`
	Description       string   `json:"description,omitempty"`
	MatchingAllergens []string `json:"matching_allergens"`
}

// SafetyAnalysis is the categorization of one ScanResult against one
// family member's allergy set. Every item of the source scan appears in
// exactly one bucket.
type SafetyAnalysis struct {
	SafeItems      []AnalyzedItem `json:"safe_items"`
	UnsafeItems    []UnsafeItem   `json:"unsafe_items"`
	UncertainItems []AnalyzedItem `json:"uncertain_items"`
	SafeCount      int            `json:"safe_count"`
	UnsafeCount    int            `json:"unsafe_count"`
	UncertainCount int            `json:"uncertain_count"`
	Disclaimer     string         `json:"disclaimer"`
	UpgradeMessage string         `json:"upgrade_message,omitempty"`
}

// Restaurant is the owner-side entity
type Restaurant struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Address             string `json:"address"`
	Phone               string `json:"phone,omitempty"`
	Description         string `json:"description,omitempty"`
	MenuPublished       bool   `json:"menu_published"`
	SubscriptionWarning string `json:"subscription_warning,omitempty"`
}

// MenuItem is a restaurant-owned menu entry with detected allergens
type MenuItem struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description,omitempty"`
	Price             *float64 `json:"price,omitempty"`
	Ingredients       []string `json:"ingredients"`
	AllergensDetected []string `json:"allergens_detected"`
	IsPublished       bool     `json:"is_published"`
}

// QRCode is the partner QR payload returned for a restaurant menu
type QRCode struct {
	// QRCodeImage is a base64-encoded PNG
	QRCodeImage string `json:"qr_code"`
	MenuURL     string `json:"menu_url"`
}

// ScanRecord is one entry in the consumer's scan history
type ScanRecord struct {
	ID              string    `json:"id"`
	RestaurantName  string    `json:"restaurant_name"`
	URL             string    `json:"url"`
	TotalItemsFound int       `json:"total_items_found"`
	ScannedAt       time.Time `json:"scanned_at"`
}

// SavedMenu is a favorited scan, available to premium consumers
type SavedMenu struct {
	ID             string    `json:"id"`
	ScanID         string    `json:"scan_id"`
	MenuName       string    `json:"menu_name"`
	RestaurantName string    `json:"restaurant_name"`
	Notes          string    `json:"notes,omitempty"`
	SavedAt        time.Time `json:"saved_at"`
}

// Location is an optional geolocation attached to an emergency alert
type Location struct {
	Lat float64
	Lng float64
}

// AdminStats is the platform-wide aggregate snapshot
type AdminStats struct {
	TotalRevenue          float64                   `json:"total_revenue"`
	ActiveSubscriptions   int                       `json:"active_subscriptions"`
	EmergencyAlerts30Days int                       `json:"emergency_alerts_30_days"`
	PublishedMenus        int                       `json:"published_menus"`
	TotalRestaurants      int                       `json:"total_restaurants"`
	TotalFamilies         int                       `json:"total_families"`
	TotalMenuItems        int                       `json:"total_menu_items"`
	ActiveUsers           int                       `json:"active_users"`
	TrialUsers            int                       `json:"trial_users"`
	RecentSMSSent         int                       `json:"recent_sms_sent"`
	RecentEmailsSent      int                       `json:"recent_emails_sent"`
	SubscriptionPackages  map[string]PackageSummary `json:"subscription_packages"`
}

// PackageSummary describes one subscription package in the admin stats
type PackageSummary struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Count int     `json:"count"`
}

// PaymentTransaction is one row of the admin payment ledger
type PaymentTransaction struct {
	ID            string    `json:"id"`
	UserEmail     string    `json:"user_email"`
	PackageID     string    `json:"package_id"`
	Amount        float64   `json:"amount"`
	PaymentStatus string    `json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
}

// SubscriptionRecord is one row of the admin subscription listing
type SubscriptionRecord struct {
	ID              string    `json:"id"`
	UserEmail       string    `json:"user_email"`
	PackageName     string    `json:"package_name"`
	Status          string    `json:"status"`
	NextBillingDate time.Time `json:"next_billing_date"`
}

// MessageLog is one row of the admin SMS or email delivery log
type MessageLog struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject,omitempty"`
	Status    string    `json:"status"`
	SentAt    time.Time `json:"sent_at"`
}

// TokenStore persists the bearer credential between sessions.
// Implementations live under storage/.
type TokenStore interface {
	// Load returns the stored credential, or empty string if none
	Load(ctx context.Context) (string, error)

	// Save stores the credential, replacing any previous one
	Save(ctx context.Context, token string) error

	// Clear removes the stored credential
	Clear(ctx context.Context) error
}
