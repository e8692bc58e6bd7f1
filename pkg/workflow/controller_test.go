package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rippinkwards/allersafe/pkg/allersafe"
	"github.com/rippinkwards/allersafe/pkg/gateway"
)

type fakeGateway struct {
	scanResult *allersafe.ScanResult
	scanErr    error
	scanCalls  int
	lastScan   gateway.ScanMenuRequest

	analysis      *allersafe.SafetyAnalysis
	analyzeErr    error
	analyzeCalls  int
	lastScanID    string
	lastAllergies []string

	saveCalls int
	lastSave  gateway.SaveMenuRequest

	supportCalls int
	lastSupport  gateway.SupportRequest
}

func (f *fakeGateway) ScanMenu(ctx context.Context, req gateway.ScanMenuRequest) (*allersafe.ScanResult, error) {
	f.scanCalls++
	f.lastScan = req
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	return f.scanResult, nil
}

func (f *fakeGateway) AnalyzeSafety(ctx context.Context, scanID string, allergies []string) (*allersafe.SafetyAnalysis, error) {
	f.analyzeCalls++
	f.lastScanID = scanID
	f.lastAllergies = allergies
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return f.analysis, nil
}

func (f *fakeGateway) SaveMenu(ctx context.Context, req gateway.SaveMenuRequest) error {
	f.saveCalls++
	f.lastSave = req
	return nil
}

func (f *fakeGateway) RequestRestaurantSupport(ctx context.Context, req gateway.SupportRequest) error {
	f.supportCalls++
	f.lastSupport = req
	return nil
}

func peanutScan() *allersafe.ScanResult {
	return &allersafe.ScanResult{
		ScanID:          "s1",
		RestaurantName:  "Luigi's",
		URL:             "https://luigis.example/menu",
		TotalItemsFound: 3,
		MenuItems: []allersafe.ScannedItem{
			{Name: "Pad Thai", DetectedAllergens: []string{"peanut"}},
			{Name: "Margherita", DetectedAllergens: nil},
			{Name: "Satay Skewers", DetectedAllergens: []string{"peanut", "soy"}},
		},
	}
}

func peanutAnalysis() *allersafe.SafetyAnalysis {
	return &allersafe.SafetyAnalysis{
		SafeItems: []allersafe.AnalyzedItem{{Name: "Margherita"}},
		UnsafeItems: []allersafe.UnsafeItem{
			{Name: "Pad Thai", MatchingAllergens: []string{"peanut"}},
			{Name: "Satay Skewers", MatchingAllergens: []string{"peanut"}},
		},
		UncertainItems: []allersafe.AnalyzedItem{},
		SafeCount:      1,
		UnsafeCount:    2,
		UncertainCount: 0,
		Disclaimer:     "Always confirm allergen information with the restaurant.",
	}
}

func premiumFamily() *allersafe.Principal {
	return &allersafe.Principal{
		ID:                 "u1",
		Role:               allersafe.RoleFamily,
		SubscriptionStatus: allersafe.StatusActive,
	}
}

func trialFamily() *allersafe.Principal {
	return &allersafe.Principal{
		ID:                 "u1",
		Role:               allersafe.RoleFamily,
		SubscriptionStatus: allersafe.StatusTrial,
	}
}

func newTestController(t *testing.T, gw Gateway, principal *allersafe.Principal) *Controller {
	t.Helper()
	c, err := NewController(Config{
		Gateway:   gw,
		Policy:    allersafe.NewPolicy(),
		Principal: func() *allersafe.Principal { return principal },
	})
	require.NoError(t, err)
	return c
}

func TestNewControllerValidation(t *testing.T) {
	_, err := NewController(Config{})
	assert.Error(t, err)

	_, err = NewController(Config{Gateway: &fakeGateway{}})
	assert.Error(t, err)

	_, err = NewController(Config{Gateway: &fakeGateway{}, Policy: allersafe.NewPolicy()})
	assert.Error(t, err)
}

func TestSubmitURLEmptyStaysIdle(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(t, gw, premiumFamily())

	_, err := c.SubmitURL(context.Background(), "   ", "")
	require.ErrorIs(t, err, allersafe.ErrEmptyURL)
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, 0, gw.scanCalls)
}

func TestSubmitURLSuccess(t *testing.T) {
	gw := &fakeGateway{scanResult: peanutScan()}
	c := newTestController(t, gw, premiumFamily())

	result, err := c.SubmitURL(context.Background(), "https://luigis.example/menu", "Luigi's")
	require.NoError(t, err)
	assert.Equal(t, StateScanned, c.State())
	assert.Equal(t, "s1", result.ScanID)
	assert.Equal(t, "https://luigis.example/menu", gw.lastScan.URL)
	assert.Equal(t, "Luigi's", gw.lastScan.RestaurantName)
}

func TestSubmitURLFailureEntersErrorState(t *testing.T) {
	boom := errors.New("scrape failed")
	gw := &fakeGateway{scanErr: boom}
	c := newTestController(t, gw, premiumFamily())

	_, err := c.SubmitURL(context.Background(), "https://luigis.example/menu", "")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StateError, c.State())
	assert.ErrorIs(t, c.Err(), boom)

	// A fresh submission recovers from the error state.
	gw.scanErr = nil
	gw.scanResult = peanutScan()
	_, err = c.SubmitURL(context.Background(), "https://luigis.example/menu", "")
	require.NoError(t, err)
	assert.Equal(t, StateScanned, c.State())
	assert.NoError(t, c.Err())
}

func TestSelectMemberAnalyzes(t *testing.T) {
	gw := &fakeGateway{scanResult: peanutScan(), analysis: peanutAnalysis()}
	c := newTestController(t, gw, premiumFamily())

	_, err := c.SubmitURL(context.Background(), "https://luigis.example/menu", "")
	require.NoError(t, err)

	analysis, err := c.SelectMember(context.Background(), allersafe.FamilyMember{
		ID:        "m1",
		Name:      "Sam",
		Allergies: []string{"peanut"},
	})
	require.NoError(t, err)
	assert.Equal(t, StateAnalyzed, c.State())
	assert.Equal(t, "s1", gw.lastScanID)
	assert.Equal(t, []string{"peanut"}, gw.lastAllergies)
	assert.Equal(t, 1, analysis.SafeCount)
	assert.Equal(t, 2, analysis.UnsafeCount)
	assert.Contains(t, analysis.UnsafeItems[0].MatchingAllergens, "peanut")
}

func TestSelectMemberWithoutScan(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(t, gw, premiumFamily())

	_, err := c.SelectMember(context.Background(), allersafe.FamilyMember{ID: "m1"})
	require.ErrorIs(t, err, allersafe.ErrNoScanResult)
	assert.Equal(t, 0, gw.analyzeCalls)
}

func TestSelectMemberReusesScanFromAnalyzed(t *testing.T) {
	gw := &fakeGateway{scanResult: peanutScan(), analysis: peanutAnalysis()}
	c := newTestController(t, gw, premiumFamily())

	_, err := c.SubmitURL(context.Background(), "https://luigis.example/menu", "")
	require.NoError(t, err)
	_, err = c.SelectMember(context.Background(), allersafe.FamilyMember{ID: "m1", Allergies: []string{"peanut"}})
	require.NoError(t, err)

	// Switching members re-analyzes the same scan without rescanning.
	_, err = c.SelectMember(context.Background(), allersafe.FamilyMember{ID: "m2", Allergies: []string{"gluten"}})
	require.NoError(t, err)
	assert.Equal(t, 1, gw.scanCalls)
	assert.Equal(t, 2, gw.analyzeCalls)
	assert.Equal(t, "s1", gw.lastScanID)
	assert.Equal(t, "m2", c.Member().ID)
}

func TestSelectMemberInconsistentBuckets(t *testing.T) {
	bad := peanutAnalysis()
	bad.UnsafeCount = 1
	gw := &fakeGateway{scanResult: peanutScan(), analysis: bad}
	c := newTestController(t, gw, premiumFamily())

	_, err := c.SubmitURL(context.Background(), "https://luigis.example/menu", "")
	require.NoError(t, err)

	_, err = c.SelectMember(context.Background(), allersafe.FamilyMember{ID: "m1", Allergies: []string{"peanut"}})
	require.ErrorIs(t, err, allersafe.ErrInconsistentAnalysis)
	assert.Equal(t, StateError, c.State())
	assert.Nil(t, c.Analysis())
}

func TestSelectMemberBucketSumMismatch(t *testing.T) {
	short := peanutAnalysis()
	short.UnsafeItems = short.UnsafeItems[:1]
	short.UnsafeCount = 1
	gw := &fakeGateway{scanResult: peanutScan(), analysis: short}
	c := newTestController(t, gw, premiumFamily())

	_, err := c.SubmitURL(context.Background(), "https://luigis.example/menu", "")
	require.NoError(t, err)

	_, err = c.SelectMember(context.Background(), allersafe.FamilyMember{ID: "m1", Allergies: []string{"peanut"}})
	require.ErrorIs(t, err, allersafe.ErrInconsistentAnalysis)
}

func TestSaveToFavoritesPremium(t *testing.T) {
	gw := &fakeGateway{scanResult: peanutScan(), analysis: peanutAnalysis()}
	c := newTestController(t, gw, premiumFamily())

	_, err := c.SubmitURL(context.Background(), "https://luigis.example/menu", "")
	require.NoError(t, err)
	_, err = c.SelectMember(context.Background(), allersafe.FamilyMember{ID: "m1", Allergies: []string{"peanut"}})
	require.NoError(t, err)

	require.NoError(t, c.SaveToFavorites(context.Background(), "Luigi's favorites", "great pizza"))
	assert.Equal(t, 1, gw.saveCalls)
	assert.Equal(t, "s1", gw.lastSave.ScanID)
	assert.Equal(t, "Luigi's favorites", gw.lastSave.MenuName)
}

func TestSaveToFavoritesDeniedWithoutNetworkCall(t *testing.T) {
	gw := &fakeGateway{scanResult: peanutScan(), analysis: peanutAnalysis()}
	c := newTestController(t, gw, trialFamily())

	_, err := c.SubmitURL(context.Background(), "https://luigis.example/menu", "")
	require.NoError(t, err)
	_, err = c.SelectMember(context.Background(), allersafe.FamilyMember{ID: "m1", Allergies: []string{"peanut"}})
	require.NoError(t, err)

	err = c.SaveToFavorites(context.Background(), "name", "")
	var denied *allersafe.PolicyDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, allersafe.CapabilitySaveMenu, denied.Capability)
	assert.Contains(t, denied.Message, "Premium")
	assert.Equal(t, 0, gw.saveCalls)
}

func TestSaveToFavoritesBeforeAnalysis(t *testing.T) {
	gw := &fakeGateway{scanResult: peanutScan()}
	c := newTestController(t, gw, premiumFamily())

	_, err := c.SubmitURL(context.Background(), "https://luigis.example/menu", "")
	require.NoError(t, err)

	err = c.SaveToFavorites(context.Background(), "name", "")
	require.ErrorIs(t, err, ErrNotAnalyzed)
	assert.Equal(t, 0, gw.saveCalls)
}

func TestRequestPartnershipSupport(t *testing.T) {
	gw := &fakeGateway{scanResult: peanutScan(), analysis: peanutAnalysis()}

	tests := []struct {
		name        string
		principal   *allersafe.Principal
		wantPremium bool
	}{
		{"premium requester flagged", premiumFamily(), true},
		{"trial requester allowed", trialFamily(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(t, gw, tt.principal)
			_, err := c.SubmitURL(context.Background(), "https://luigis.example/menu", "")
			require.NoError(t, err)
			_, err = c.SelectMember(context.Background(), allersafe.FamilyMember{ID: "m1", Allergies: []string{"peanut"}})
			require.NoError(t, err)

			require.NoError(t, c.RequestPartnershipSupport(context.Background()))
			assert.Equal(t, "Luigi's", gw.lastSupport.RestaurantName)
			assert.Equal(t, "https://luigis.example/menu", gw.lastSupport.RestaurantURL)
			assert.Equal(t, tt.wantPremium, gw.lastSupport.PremiumRequester)
			assert.NotEmpty(t, gw.lastSupport.Reason)
		})
	}
}

func TestResetDiscardsEverything(t *testing.T) {
	gw := &fakeGateway{scanResult: peanutScan(), analysis: peanutAnalysis()}
	c := newTestController(t, gw, premiumFamily())

	_, err := c.SubmitURL(context.Background(), "https://luigis.example/menu", "")
	require.NoError(t, err)
	_, err = c.SelectMember(context.Background(), allersafe.FamilyMember{ID: "m1", Allergies: []string{"peanut"}})
	require.NoError(t, err)

	c.Reset()
	assert.Equal(t, StateIdle, c.State())
	assert.Nil(t, c.Scan())
	assert.Nil(t, c.Member())
	assert.Nil(t, c.Analysis())
}

type blockingGateway struct {
	fakeGateway
	entered chan struct{}
	release chan struct{}
}

func (b *blockingGateway) ScanMenu(ctx context.Context, req gateway.ScanMenuRequest) (*allersafe.ScanResult, error) {
	close(b.entered)
	<-b.release
	return b.fakeGateway.ScanMenu(ctx, req)
}

func TestStaleScanResponseDiscarded(t *testing.T) {
	gw := &blockingGateway{
		fakeGateway: fakeGateway{scanResult: peanutScan()},
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	c := newTestController(t, gw, premiumFamily())

	errc := make(chan error, 1)
	go func() {
		_, err := c.SubmitURL(context.Background(), "https://old.example/menu", "")
		errc <- err
	}()

	// Supersede the in-flight scan once it is on the wire, then let it
	// complete.
	<-gw.entered
	c.Reset()
	close(gw.release)

	require.ErrorIs(t, <-errc, ErrSuperseded)
	assert.Equal(t, StateIdle, c.State())
	assert.Nil(t, c.Scan())
}
