package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/webquote/internal/bundle"
	"github.com/noah-isme/webquote/internal/catalog"
	"github.com/noah-isme/webquote/internal/selection"
	"github.com/noah-isme/webquote/internal/session"
)

func newStore(t *testing.T, ttl time.Duration) (*session.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return session.NewStore(client, ttl), mr
}

func bundledSelection(t *testing.T) selection.Selection {
	t.Helper()
	resolver := bundle.Default()
	b, ok := resolver.Resolve("business-professional", catalog.SinglePage)
	require.True(t, ok)
	sel := selection.New(catalog.SinglePage)
	sel.ApplyBundle(b, resolver.Inclusions(b))
	sel.Add(catalog.Section, "gallery")
	sel.PromoCode = "2026"
	return sel
}

func TestPutGetPreservesOrigins(t *testing.T) {
	store, mr := newStore(t, time.Hour)
	ctx := context.Background()
	id := session.NewID()

	sel := bundledSelection(t)
	require.NoError(t, store.Put(ctx, id, sel))
	require.Equal(t, time.Hour, mr.TTL("session:"+id))

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "business-professional", got.BundleID)
	require.Equal(t, "2026", got.PromoCode)

	origin, ok := got.OriginOf(catalog.Section, "hero")
	require.True(t, ok)
	require.Equal(t, selection.FromBundle, origin)
	origin, ok = got.OriginOf(catalog.Section, "gallery")
	require.True(t, ok)
	require.Equal(t, selection.FromUser, origin)
	require.Equal(t, selection.FromBundle, got.Hosting.Origin)
}

func TestGetMissing(t *testing.T) {
	store, _ := newStore(t, 0)
	_, err := store.Get(context.Background(), session.NewID())
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestCorruptSnapshotYieldsEmptySelection(t *testing.T) {
	store, mr := newStore(t, 0)
	id := session.NewID()
	require.NoError(t, mr.Set("session:"+id, "{not json"))

	got, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	require.Empty(t, got.BundleID)
	require.Empty(t, got.Items)
	require.Equal(t, catalog.SinglePage, got.Mode)
}

func TestUnknownVersionTreatedAsCorrupt(t *testing.T) {
	store, mr := newStore(t, 0)
	id := session.NewID()
	require.NoError(t, mr.Set("session:"+id, `{"version":99,"selection":{"bundleId":"x"}}`))

	got, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	require.Empty(t, got.BundleID)
}

func TestUpdateMutatesStoredSelection(t *testing.T) {
	store, _ := newStore(t, 0)
	ctx := context.Background()
	id := session.NewID()
	require.NoError(t, store.Put(ctx, id, selection.New(catalog.SinglePage)))

	sel, err := store.Update(ctx, id, func(s *selection.Selection) error {
		s.Add(catalog.Addon, "analytics")
		return nil
	})
	require.NoError(t, err)
	require.True(t, sel.Has(catalog.Addon, "analytics"))

	sel, err = store.Update(ctx, id, func(s *selection.Selection) error {
		s.Add(catalog.Addon, "live-chat")
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"analytics", "live-chat"}, sel.IDs(catalog.Addon))
}

func TestUpdateMissingSessionIsNotFound(t *testing.T) {
	store, mr := newStore(t, 0)
	ctx := context.Background()
	id := session.NewID()

	called := false
	_, err := store.Update(ctx, id, func(s *selection.Selection) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, session.ErrNotFound)
	require.False(t, called)
	require.False(t, mr.Exists("session:"+id))
}

func TestUpdateErrorLeavesSnapshot(t *testing.T) {
	store, _ := newStore(t, 0)
	ctx := context.Background()
	id := session.NewID()
	require.NoError(t, store.Put(ctx, id, bundledSelection(t)))

	boom := errors.New("boom")
	_, err := store.Update(ctx, id, func(s *selection.Selection) error {
		s.ClearBundle()
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "business-professional", got.BundleID)
}

func TestDelete(t *testing.T) {
	store, _ := newStore(t, 0)
	ctx := context.Background()
	id := session.NewID()
	require.NoError(t, store.Put(ctx, id, selection.New(catalog.MultiPage)))
	require.NoError(t, store.Delete(ctx, id))
	require.NoError(t, store.Delete(ctx, id))
	_, err := store.Get(ctx, id)
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestParseID(t *testing.T) {
	id := session.NewID()
	got, err := session.ParseID("  " + id + " ")
	require.NoError(t, err)
	require.Equal(t, id, got)

	_, err = session.ParseID("../etc")
	require.ErrorIs(t, err, session.ErrInvalidID)
}
