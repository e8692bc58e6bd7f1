package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rippinkwards/allersafe/pkg/allersafe"
	"github.com/rippinkwards/allersafe/pkg/gateway"
	"github.com/rippinkwards/allersafe/pkg/workflow"
)

type fakeFamilyGateway struct {
	family       *allersafe.Family
	myErr        error
	alertCalls   int
	lastAlert    gateway.EmergencyAlertRequest
	historyCalls int
	lastLimit    int
	savedCalls   int
	checkoutURL  string
	lastCheckout gateway.CreateCheckoutRequest
}

func (f *fakeFamilyGateway) MyFamily(ctx context.Context) (*allersafe.Family, error) {
	if f.myErr != nil {
		return nil, f.myErr
	}
	return f.family, nil
}

func (f *fakeFamilyGateway) CreateFamily(ctx context.Context, req gateway.CreateFamilyRequest) (*allersafe.Family, error) {
	members := make([]allersafe.FamilyMember, len(req.Members))
	for i, m := range req.Members {
		members[i] = allersafe.FamilyMember{ID: "m1", Name: m.Name, Allergies: m.Allergies}
	}
	f.family = &allersafe.Family{ID: "f1", Name: req.Name, Members: members}
	return f.family, nil
}

func (f *fakeFamilyGateway) SetEmergencyContact(ctx context.Context, familyID string, contact allersafe.EmergencyContact) error {
	return nil
}

func (f *fakeFamilyGateway) SendEmergencyAlert(ctx context.Context, familyID, memberID string, req gateway.EmergencyAlertRequest) error {
	f.alertCalls++
	f.lastAlert = req
	return nil
}

func (f *fakeFamilyGateway) ScanHistory(ctx context.Context, limit int) ([]allersafe.ScanRecord, error) {
	f.historyCalls++
	f.lastLimit = limit
	return []allersafe.ScanRecord{}, nil
}

func (f *fakeFamilyGateway) SavedMenus(ctx context.Context) ([]allersafe.SavedMenu, error) {
	f.savedCalls++
	return []allersafe.SavedMenu{}, nil
}

func (f *fakeFamilyGateway) CreateCheckout(ctx context.Context, req gateway.CreateCheckoutRequest) (*gateway.CreateCheckoutResult, error) {
	f.lastCheckout = req
	return &gateway.CreateCheckoutResult{CheckoutURL: f.checkoutURL}, nil
}

type nopWorkflowGateway struct{}

func (nopWorkflowGateway) ScanMenu(ctx context.Context, req gateway.ScanMenuRequest) (*allersafe.ScanResult, error) {
	return &allersafe.ScanResult{}, nil
}

func (nopWorkflowGateway) AnalyzeSafety(ctx context.Context, scanID string, allergies []string) (*allersafe.SafetyAnalysis, error) {
	return &allersafe.SafetyAnalysis{}, nil
}

func (nopWorkflowGateway) SaveMenu(ctx context.Context, req gateway.SaveMenuRequest) error {
	return nil
}

func (nopWorkflowGateway) RequestRestaurantSupport(ctx context.Context, req gateway.SupportRequest) error {
	return nil
}

func familyPrincipal(status allersafe.SubscriptionStatus) *allersafe.Principal {
	return &allersafe.Principal{
		ID:                 "u1",
		Role:               allersafe.RoleFamily,
		SubscriptionStatus: status,
	}
}

func newFamilyDashboard(t *testing.T, gw FamilyGateway, principal *allersafe.Principal) *FamilyDashboard {
	t.Helper()
	policy := allersafe.NewPolicy()
	wf, err := workflow.NewController(workflow.Config{
		Gateway:   nopWorkflowGateway{},
		Policy:    policy,
		Principal: func() *allersafe.Principal { return principal },
	})
	require.NoError(t, err)

	d, err := NewFamilyDashboard(FamilyConfig{
		Gateway:   gw,
		Policy:    policy,
		Principal: func() *allersafe.Principal { return principal },
		Workflow:  wf,
	})
	require.NoError(t, err)
	return d
}

func TestFamilyLoadNotFound(t *testing.T) {
	gw := &fakeFamilyGateway{
		myErr: &allersafe.BackendError{StatusCode: 404, Detail: "Family not found"},
	}
	d := newFamilyDashboard(t, gw, familyPrincipal(allersafe.StatusTrial))

	f, err := d.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestFamilyCreate(t *testing.T) {
	gw := &fakeFamilyGateway{}
	d := newFamilyDashboard(t, gw, familyPrincipal(allersafe.StatusTrial))

	f, err := d.Create(context.Background(), gateway.CreateFamilyRequest{
		Name: "Smith",
		Members: []gateway.CreateMemberRequest{
			{Name: "Sam", Allergies: []string{"peanut"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "f1", f.ID)
	require.Len(t, d.Family().Members, 1)
}

func TestFamilyEmergencyAlertPremium(t *testing.T) {
	gw := &fakeFamilyGateway{family: &allersafe.Family{ID: "f1"}}
	d := newFamilyDashboard(t, gw, familyPrincipal(allersafe.StatusActive))

	_, err := d.Load(context.Background())
	require.NoError(t, err)

	err = d.SendEmergencyAlert(context.Background(), "m1", &allersafe.Location{Lat: 59.91, Lng: 10.75})
	require.NoError(t, err)
	assert.Equal(t, 1, gw.alertCalls)
	require.NotNil(t, gw.lastAlert.LocationLat)
	assert.InDelta(t, 59.91, *gw.lastAlert.LocationLat, 0.0001)
	assert.Contains(t, gw.lastAlert.LocationAddress, "Lat:")
}

func TestFamilyEmergencyAlertWithoutLocation(t *testing.T) {
	gw := &fakeFamilyGateway{family: &allersafe.Family{ID: "f1"}}
	d := newFamilyDashboard(t, gw, familyPrincipal(allersafe.StatusActive))

	_, err := d.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, d.SendEmergencyAlert(context.Background(), "m1", nil))
	assert.Nil(t, gw.lastAlert.LocationLat)
	assert.Equal(t, "Unknown location", gw.lastAlert.LocationAddress)
}

func TestFamilyEmergencyAlertDeniedLocally(t *testing.T) {
	gw := &fakeFamilyGateway{family: &allersafe.Family{ID: "f1"}}
	d := newFamilyDashboard(t, gw, familyPrincipal(allersafe.StatusTrial))

	_, err := d.Load(context.Background())
	require.NoError(t, err)

	err = d.SendEmergencyAlert(context.Background(), "m1", nil)
	require.True(t, allersafe.IsPolicyDenied(err))
	assert.Contains(t, err.Error(), "Premium")
	assert.Equal(t, 0, gw.alertCalls)
}

func TestFamilyEmergencyAlertRequiresMember(t *testing.T) {
	gw := &fakeFamilyGateway{family: &allersafe.Family{ID: "f1"}}
	d := newFamilyDashboard(t, gw, familyPrincipal(allersafe.StatusActive))

	_, err := d.Load(context.Background())
	require.NoError(t, err)

	err = d.SendEmergencyAlert(context.Background(), "", nil)
	require.ErrorIs(t, err, allersafe.ErrNoMemberSelected)
	assert.Equal(t, 0, gw.alertCalls)
}

func TestFamilyScanHistoryDefaultLimit(t *testing.T) {
	gw := &fakeFamilyGateway{}
	d := newFamilyDashboard(t, gw, familyPrincipal(allersafe.StatusTrial))

	_, err := d.ScanHistory(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, defaultHistoryLimit, gw.lastLimit)
}

func TestFamilySavedMenusPremiumGate(t *testing.T) {
	gw := &fakeFamilyGateway{}

	trial := newFamilyDashboard(t, gw, familyPrincipal(allersafe.StatusTrial))
	_, err := trial.SavedMenus(context.Background())
	require.True(t, allersafe.IsPolicyDenied(err))
	assert.Equal(t, 0, gw.savedCalls)

	premium := newFamilyDashboard(t, gw, familyPrincipal(allersafe.StatusActive))
	_, err = premium.SavedMenus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, gw.savedCalls)
}

func TestFamilySubscribe(t *testing.T) {
	gw := &fakeFamilyGateway{checkoutURL: "https://pay.example/cs_5"}
	d := newFamilyDashboard(t, gw, familyPrincipal(allersafe.StatusTrial))

	url, err := d.Subscribe(context.Background(), "https://app.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/cs_5", url)
	assert.Equal(t, "family_monthly", gw.lastCheckout.PackageID)
}
