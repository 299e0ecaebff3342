// Package session keeps wizard selections in Redis between requests. Only the
// selection is stored; totals are recomputed from it on every read.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/webquote/internal/catalog"
	"github.com/noah-isme/webquote/internal/lock"
	"github.com/noah-isme/webquote/internal/obs"
	"github.com/noah-isme/webquote/internal/selection"
)

// DefaultTTL bounds how long an idle wizard session survives.
const DefaultTTL = 30 * 24 * time.Hour

const snapshotVersion = 1

var (
	// ErrNotFound is returned when no snapshot exists for the id.
	ErrNotFound = errors.New("session: not found")
	// ErrInvalidID is returned for ids that are not UUIDs.
	ErrInvalidID = errors.New("session: invalid id")
)

type snapshot struct {
	Version   int                 `json:"version"`
	Selection selection.Selection `json:"selection"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// Store persists selection snapshots as JSON with a sliding TTL.
type Store struct {
	client redis.Cmdable
	ttl    time.Duration
	locker lock.Locker
	now    func() time.Time
}

// NewStore constructs a store. A non-positive ttl uses DefaultTTL.
func NewStore(client redis.Cmdable, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		client: client,
		ttl:    ttl,
		locker: lock.Locker{R: client, Prefix: "webquote:lock:", Wait: 3 * time.Second},
		now:    time.Now,
	}
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// ParseID validates and canonicalizes a session id.
func ParseID(raw string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", ErrInvalidID
	}
	return id.String(), nil
}

func key(id string) string {
	return "session:" + id
}

// Get loads a selection. A snapshot that cannot be decoded yields an empty
// selection rather than an error, matching a wizard that starts over.
func (s *Store) Get(ctx context.Context, id string) (selection.Selection, error) {
	data, err := s.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		obs.Inc(obs.SessionOpsTotal, "get", "miss")
		return selection.Selection{}, ErrNotFound
	}
	if err != nil {
		obs.Inc(obs.SessionOpsTotal, "get", "error")
		return selection.Selection{}, fmt.Errorf("session: get %s: %w", id, err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil || snap.Version != snapshotVersion {
		obs.Inc(obs.SessionOpsTotal, "get", "corrupt")
		return selection.New(catalog.SinglePage), nil
	}
	obs.Inc(obs.SessionOpsTotal, "get", "ok")
	return normalized(snap.Selection), nil
}

// Put stores a selection and refreshes its TTL.
func (s *Store) Put(ctx context.Context, id string, sel selection.Selection) error {
	data, err := json.Marshal(snapshot{Version: snapshotVersion, Selection: sel, UpdatedAt: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	if err := s.client.Set(ctx, key(id), data, s.ttl).Err(); err != nil {
		obs.Inc(obs.SessionOpsTotal, "put", "error")
		return fmt.Errorf("session: put %s: %w", id, err)
	}
	obs.Inc(obs.SessionOpsTotal, "put", "ok")
	return nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, key(id)).Err(); err != nil {
		obs.Inc(obs.SessionOpsTotal, "delete", "error")
		return fmt.Errorf("session: delete %s: %w", id, err)
	}
	obs.Inc(obs.SessionOpsTotal, "delete", "ok")
	return nil
}

// Update applies fn to the stored selection under a per-session lock and saves
// the result. A missing or expired session yields ErrNotFound and fn is not called.
func (s *Store) Update(ctx context.Context, id string, fn func(*selection.Selection) error) (selection.Selection, error) {
	var out selection.Selection
	err := s.locker.Do(ctx, key(id), func(ctx context.Context) error {
		sel, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(&sel); err != nil {
			return err
		}
		if err := s.Put(ctx, id, sel); err != nil {
			return err
		}
		out = sel
		return nil
	})
	return out, err
}

func normalized(sel selection.Selection) selection.Selection {
	if sel.Mode == "" {
		sel.Mode = catalog.SinglePage
	}
	if sel.Items == nil {
		sel.Items = map[catalog.Category][]selection.Entry{}
	}
	return sel
}
