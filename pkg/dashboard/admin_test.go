package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rippinkwards/allersafe/pkg/allersafe"
)

type fakeAdminGateway struct {
	stats    *allersafe.AdminStats
	statsErr error
	failAll  bool
}

var errSectionDown = errors.New("section unavailable")

func (f *fakeAdminGateway) AdminStats(ctx context.Context) (*allersafe.AdminStats, error) {
	if f.failAll || f.statsErr != nil {
		return nil, errSectionDown
	}
	return f.stats, nil
}

func (f *fakeAdminGateway) AdminRestaurants(ctx context.Context) ([]allersafe.Restaurant, error) {
	if f.failAll {
		return nil, errSectionDown
	}
	return []allersafe.Restaurant{{ID: "r1"}}, nil
}

func (f *fakeAdminGateway) AdminFamilies(ctx context.Context) ([]allersafe.Family, error) {
	if f.failAll {
		return nil, errSectionDown
	}
	return []allersafe.Family{{ID: "f1"}}, nil
}

func (f *fakeAdminGateway) AdminSubscriptions(ctx context.Context) ([]allersafe.SubscriptionRecord, error) {
	if f.failAll {
		return nil, errSectionDown
	}
	return []allersafe.SubscriptionRecord{{ID: "s1"}}, nil
}

func (f *fakeAdminGateway) AdminSMSLogs(ctx context.Context) ([]allersafe.MessageLog, error) {
	if f.failAll {
		return nil, errSectionDown
	}
	return []allersafe.MessageLog{{ID: "sms1"}}, nil
}

func (f *fakeAdminGateway) AdminEmailLogs(ctx context.Context) ([]allersafe.MessageLog, error) {
	if f.failAll {
		return nil, errSectionDown
	}
	return []allersafe.MessageLog{{ID: "em1"}}, nil
}

func (f *fakeAdminGateway) AdminPaymentTransactions(ctx context.Context) ([]allersafe.PaymentTransaction, error) {
	if f.failAll {
		return nil, errSectionDown
	}
	return []allersafe.PaymentTransaction{{ID: "tx1"}}, nil
}

func adminPrincipal() *allersafe.Principal {
	return &allersafe.Principal{ID: "a1", Role: allersafe.RoleAdmin, SubscriptionStatus: allersafe.StatusActive}
}

func newAdminDashboard(t *testing.T, gw AdminGateway, principal *allersafe.Principal) *AdminDashboard {
	t.Helper()
	d, err := NewAdminDashboard(AdminConfig{
		Gateway:   gw,
		Policy:    allersafe.NewPolicy(),
		Principal: func() *allersafe.Principal { return principal },
	})
	require.NoError(t, err)
	return d
}

func TestAdminOverview(t *testing.T) {
	gw := &fakeAdminGateway{
		stats: &allersafe.AdminStats{TotalRestaurants: 3, TotalFamilies: 7},
	}
	d := newAdminDashboard(t, gw, adminPrincipal())

	overview, err := d.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, overview.Partial)
	assert.Equal(t, 3, overview.Stats.TotalRestaurants)
	assert.Len(t, overview.Restaurants, 1)
	assert.Len(t, overview.Families, 1)
	assert.Len(t, overview.Subscriptions, 1)
	assert.Len(t, overview.SMSLogs, 1)
	assert.Len(t, overview.EmailLogs, 1)
	assert.Len(t, overview.Transactions, 1)
}

func TestAdminOverviewPartialFailure(t *testing.T) {
	gw := &fakeAdminGateway{statsErr: errSectionDown}
	d := newAdminDashboard(t, gw, adminPrincipal())

	overview, err := d.Overview(context.Background())
	require.NoError(t, err)
	assert.True(t, overview.Partial)
	assert.Nil(t, overview.Stats)
	assert.Len(t, overview.Restaurants, 1)
}

func TestAdminOverviewAllSectionsFailed(t *testing.T) {
	gw := &fakeAdminGateway{failAll: true}
	d := newAdminDashboard(t, gw, adminPrincipal())

	_, err := d.Overview(context.Background())
	require.ErrorIs(t, err, errSectionDown)
}

func TestAdminOverviewRequiresPlatformAdmin(t *testing.T) {
	gw := &fakeAdminGateway{}
	d := newAdminDashboard(t, gw, familyPrincipal(allersafe.StatusActive))

	_, err := d.Overview(context.Background())
	require.True(t, allersafe.IsPolicyDenied(err))
}
