package app

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/webquote/internal/catalog"
	"github.com/noah-isme/webquote/internal/config"
	"github.com/noah-isme/webquote/internal/health"
	"github.com/noah-isme/webquote/internal/promo"
	"github.com/noah-isme/webquote/internal/ratelimit"
	"github.com/noah-isme/webquote/internal/selection"
)

func TestNewEngineUsesConfiguredDeposit(t *testing.T) {
	engine := NewEngine(&config.Config{DepositPercent: 30, PromoDiscountPercent: 10})
	sel := selection.New(catalog.SinglePage)
	sel.BundleID = "business-starter"
	sel.PaymentOption = selection.PaymentMonthly

	q := engine.Compute(sel)
	require.EqualValues(t, 600, q.Totals.OneTimeDevelopmentCost)
	require.Equal(t, 30, q.Plan.DepositPercent)
	require.EqualValues(t, 180, q.Plan.StarterFee)
}

func TestNewEngineCustomCodes(t *testing.T) {
	digest := promo.Digest("spring", "pepper")
	engine := NewEngine(&config.Config{PromoPepper: "pepper", PromoDiscountPercent: 15, PromoDigests: []string{digest}})
	require.True(t, engine.Promo.Valid("SPRING"))
	require.False(t, engine.Promo.Valid("2026"))
	require.Equal(t, 15, engine.Promo.Percent())

	builtin := NewEngine(&config.Config{PromoDiscountPercent: 10})
	require.True(t, builtin.Promo.Valid("2026"))
}

func TestHealthProbes(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	ctx := context.Background()
	rdb, err := NewRedis(ctx, "redis://"+mr.Addr(), false, zerolog.Nop())
	require.NoError(t, err)
	d := &Dependencies{Redis: rdb, Logger: zerolog.Nop()}
	t.Cleanup(d.Close)

	require.ErrorIs(t, d.PingDB(ctx), health.ErrDisabled)
	require.NoError(t, d.PingRedis(ctx))
	require.Nil(t, d.Leads())

	rep, ok := health.Handler{Probes: d.Probes(time.Second, time.Second)}.Run(ctx)
	require.True(t, ok)
	require.Equal(t, map[string]string{"redis": "ok", "postgres": "disabled"}, rep.Checks)

	mr.Close()
	rep, ok = health.Handler{Probes: d.Probes(200*time.Millisecond, time.Second)}.Run(ctx)
	require.False(t, ok)
	require.Equal(t, "degraded", rep.Status)
}

func TestNewRedisFailsWhenUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()
	_, err = NewRedis(context.Background(), "redis://"+addr, false, zerolog.Nop())
	require.Error(t, err)

	_, err = NewRedis(context.Background(), "::not a url", false, zerolog.Nop())
	require.Error(t, err)
}

func TestLimiterStoreBacksFixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := NewRedis(context.Background(), "redis://"+mr.Addr(), false, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	store, err := NewLimiterStore(rdb)
	require.NoError(t, err)
	lim := ratelimit.Fixed{Store: store}
	rule := ratelimit.Rule{Window: time.Minute, Max: 2}

	for i := 0; i < 2; i++ {
		d, err := lim.Allow(context.Background(), "email:203.0.113.9", rule)
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}
	d, err := lim.Allow(context.Background(), "email:203.0.113.9", rule)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Zero(t, d.Remaining)
	require.NotEmpty(t, mr.Keys())
}

func TestTaskClientRejectsBadURL(t *testing.T) {
	d := &Dependencies{Config: &config.Config{RedisURL: "http://nope"}}
	_, err := d.TaskClient()
	require.Error(t, err)
}
