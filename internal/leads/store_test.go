package leads_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/webquote/internal/catalog"
	"github.com/noah-isme/webquote/internal/events"
	"github.com/noah-isme/webquote/internal/leads"
	"github.com/noah-isme/webquote/internal/selection"
)

type execCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	calls []execCall
	tag   pgconn.CommandTag
	err   error
	row   pgx.Row
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return f.tag, f.err
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return f.row
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

func TestInsertNormalizesEmail(t *testing.T) {
	db := &fakeDB{tag: pgconn.NewCommandTag("INSERT 0 1")}
	store := leads.NewStore(db)

	err := store.Insert(context.Background(), leads.Lead{ID: "id-1", Name: "Ada", Email: " Ada@Example.COM "})
	require.NoError(t, err)
	require.Len(t, db.calls, 1)
	require.Contains(t, db.calls[0].sql, "ON CONFLICT (id) DO NOTHING")
	require.Equal(t, "ada@example.com", db.calls[0].args[3])
	require.Equal(t, json.RawMessage("{}"), db.calls[0].args[7])
}

func TestInsertWrapsErrors(t *testing.T) {
	boom := errors.New("conn reset")
	store := leads.NewStore(&fakeDB{err: boom})
	err := store.Insert(context.Background(), leads.Lead{ID: "id-1"})
	require.ErrorIs(t, err, boom)
}

func TestMarkEmailedUnknownLead(t *testing.T) {
	store := leads.NewStore(&fakeDB{tag: pgconn.NewCommandTag("UPDATE 0")})
	err := store.MarkEmailed(context.Background(), "missing", time.Now())
	require.ErrorIs(t, err, leads.ErrNotFound)

	store = leads.NewStore(&fakeDB{tag: pgconn.NewCommandTag("UPDATE 1")})
	require.NoError(t, store.MarkEmailed(context.Background(), "id", time.Now()))
}

func TestGetMissing(t *testing.T) {
	store := leads.NewStore(&fakeDB{row: errRow{err: pgx.ErrNoRows}})
	_, err := store.Get(context.Background(), "missing")
	require.ErrorIs(t, err, leads.ErrNotFound)
}

func TestRecorderStoresEventAsLead(t *testing.T) {
	db := &fakeDB{tag: pgconn.NewCommandTag("INSERT 0 1")}
	bus := events.NewBus()
	bus.Subscribe(events.TopicQuoteRequested, leads.Recorder{Store: leads.NewStore(db)})

	sel := selection.New(catalog.SinglePage)
	sel.Add(catalog.Section, "hero")
	ev, err := bus.Emit(context.Background(), events.TopicQuoteRequested, "sess-1", events.QuoteRequested{
		Name:                     "Ada",
		Email:                    "ada@example.com",
		BundleID:                 "business-starter",
		Selection:                sel,
		OneTimeDevelopmentCost:   700,
		TotalMonthlyCost:         29,
		DiscountedFirstYearTotal: 1048,
	})
	require.NoError(t, err)
	require.Len(t, db.calls, 1)

	args := db.calls[0].args
	require.Equal(t, ev.ID, args[0])
	require.Equal(t, "sess-1", args[1])
	require.Equal(t, "business-starter", args[6])
	require.EqualValues(t, 700, args[8])
	require.EqualValues(t, 29, args[9])
	require.EqualValues(t, 1048, args[10])

	var stored selection.Selection
	require.NoError(t, json.Unmarshal(args[7].(json.RawMessage), &stored))
	require.True(t, stored.Has(catalog.Section, "hero"))
}

func TestMigrationURL(t *testing.T) {
	require.Equal(t, "pgx5://u:p@db:5432/webquote", leads.MigrationURL("postgres://u:p@db:5432/webquote"))
	require.Equal(t, "pgx5://db/webquote", leads.MigrationURL("postgresql://db/webquote"))
	require.Equal(t, "pgx5://db/x", leads.MigrationURL("pgx5://db/x"))
}
