// Package leads records quote requests in Postgres so sales can follow up.
package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noah-isme/webquote/internal/events"
)

// ErrNotFound is returned when a lead id is unknown.
var ErrNotFound = errors.New("leads: not found")

// DBTX is the subset of pgx used by the store; *pgxpool.Pool and pgx.Tx satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Lead is one emailed quote request.
type Lead struct {
	ID             string          `json:"id"`
	SessionID      string          `json:"sessionId,omitempty"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Company        string          `json:"company,omitempty"`
	Message        string          `json:"message,omitempty"`
	BundleID       string          `json:"bundleId,omitempty"`
	Selection      json.RawMessage `json:"selection"`
	OneTimeCost    int64           `json:"oneTimeCost"`
	MonthlyCost    int64           `json:"monthlyCost"`
	FirstYearTotal int64           `json:"firstYearTotal"`
	EmailedAt      *time.Time      `json:"emailedAt,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Store reads and writes quote_requests.
type Store struct {
	db DBTX
}

// NewStore wraps a pgx connection or pool.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

const insertLead = `INSERT INTO quote_requests
    (id, session_id, name, email, company, message, bundle_id, selection, one_time_cost, monthly_cost, first_year_total, created_at)
VALUES ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10, $11, $12)
ON CONFLICT (id) DO NOTHING`

// Insert records a lead. Re-inserting the same id is a no-op, so replayed
// events never duplicate rows.
func (s *Store) Insert(ctx context.Context, l Lead) error {
	selection := l.Selection
	if len(selection) == 0 {
		selection = json.RawMessage("{}")
	}
	created := l.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.db.Exec(ctx, insertLead,
		l.ID, l.SessionID, l.Name, strings.ToLower(strings.TrimSpace(l.Email)), l.Company, l.Message, l.BundleID,
		selection, l.OneTimeCost, l.MonthlyCost, l.FirstYearTotal, created,
	)
	if err != nil {
		return fmt.Errorf("leads: insert %s: %w", l.ID, err)
	}
	return nil
}

const markEmailed = `UPDATE quote_requests SET emailed_at = $2 WHERE id = $1`

// MarkEmailed stamps the time the quote email left the worker.
func (s *Store) MarkEmailed(ctx context.Context, id string, at time.Time) error {
	tag, err := s.db.Exec(ctx, markEmailed, id, at.UTC())
	if err != nil {
		return fmt.Errorf("leads: mark emailed %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const selectLead = `SELECT id::text, COALESCE(session_id, ''), name, email, COALESCE(company, ''), COALESCE(message, ''),
    COALESCE(bundle_id, ''), selection, one_time_cost, monthly_cost, first_year_total, emailed_at, created_at
FROM quote_requests WHERE id = $1`

// Get loads one lead.
func (s *Store) Get(ctx context.Context, id string) (Lead, error) {
	var l Lead
	err := s.db.QueryRow(ctx, selectLead, id).Scan(
		&l.ID, &l.SessionID, &l.Name, &l.Email, &l.Company, &l.Message,
		&l.BundleID, &l.Selection, &l.OneTimeCost, &l.MonthlyCost, &l.FirstYearTotal, &l.EmailedAt, &l.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, fmt.Errorf("leads: get %s: %w", id, err)
	}
	return l, nil
}

// Recorder stores a lead for every quote.requested event, keyed by event id.
type Recorder struct {
	Store *Store
}

// Handle implements events.Handler.
func (r Recorder) Handle(ctx context.Context, ev events.Event) error {
	if r.Store == nil {
		return nil
	}
	var req events.QuoteRequested
	if err := ev.Decode(&req); err != nil {
		return err
	}
	sel, err := json.Marshal(req.Selection)
	if err != nil {
		return fmt.Errorf("leads: encode selection: %w", err)
	}
	return r.Store.Insert(ctx, Lead{
		ID:             ev.ID,
		SessionID:      ev.AggregateID,
		Name:           req.Name,
		Email:          req.Email,
		Company:        req.Company,
		Message:        req.Message,
		BundleID:       req.BundleID,
		Selection:      sel,
		OneTimeCost:    req.OneTimeDevelopmentCost,
		MonthlyCost:    req.TotalMonthlyCost,
		FirstYearTotal: req.DiscountedFirstYearTotal,
		CreatedAt:      ev.OccurredAt,
	})
}
