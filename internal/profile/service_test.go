package profile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/danupratama/backend-kasir/internal/cache"
	"github.com/danupratama/backend-kasir/internal/common"
	"github.com/danupratama/backend-kasir/internal/erp"
	"github.com/danupratama/backend-kasir/internal/pricing"
	"github.com/danupratama/backend-kasir/internal/profile"
)

type countingERP struct {
	erp.Mock
	profileCalls int
	rulesCalls   int
	fail         bool
}

func (c *countingERP) Profile(ctx context.Context) (erp.Profile, error) {
	if c.fail {
		return erp.Profile{}, errors.New("erp down")
	}
	c.profileCalls++
	return c.Mock.Profile(ctx)
}

func (c *countingERP) TaxRules(ctx context.Context) ([]erp.TaxRuleDoc, error) {
	if c.fail {
		return nil, errors.New("erp down")
	}
	c.rulesCalls++
	return []erp.TaxRuleDoc{
		{ID: "VAT-11", Rate: 11, Default: true},
		{ID: "VAT-11-INC", Rate: 11, Inclusive: true},
	}, nil
}

func newService(t *testing.T) (*profile.Service, *countingERP) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	backend := &countingERP{}
	return &profile.Service{
		ERP:   backend,
		Cache: cache.New(client, 5 * time.Minute),
	}, backend
}

func TestProfileIsCached(t *testing.T) {
	svc, backend := newService(t)
	ctx := context.Background()

	p, err := svc.Profile(ctx)
	require.NoError(t, err)
	require.True(t, p.AllowWriteOff)
	_, err = svc.Profile(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, backend.profileCalls)

	require.NoError(t, svc.Refresh(ctx))
	_, err = svc.Profile(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, backend.profileCalls)
}

func TestFailClosedWithoutCache(t *testing.T) {
	svc, backend := newService(t)
	backend.fail = true

	_, err := svc.Profile(context.Background())
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, common.CodeERPUnavailable, appErr.Code)
}

func TestTaxRuleConversion(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	rule, err := svc.TaxRule(ctx, "VAT-11-INC")
	require.NoError(t, err)
	require.NotNil(t, rule)
	require.Equal(t, int64(1100), rule.RateBps)
	require.True(t, rule.Inclusive)

	missing, err := svc.TaxRule(ctx, "VAT-99")
	require.NoError(t, err)
	require.Nil(t, missing)

	def, err := svc.DefaultTaxRule(ctx)
	require.NoError(t, err)
	require.NotNil(t, def)
	require.Equal(t, "VAT-11", def.ID)
}

func TestWriteOffLimitInCents(t *testing.T) {
	svc, _ := newService(t)
	limit, allowed, err := svc.WriteOff(context.Background())
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, pricing.Money(100), limit)
}
