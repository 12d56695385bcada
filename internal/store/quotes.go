package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/cotizador/internal/pricing"
)

var ErrQuoteNotFound = errors.New("quote_not_found")

const timeLayout = "2006-01-02T15:04:05.000000Z"

// Totals is the roll-up stored next to every breakdown snapshot.
type Totals struct {
	Subtotal  float64 `json:"subtotal"`
	TaxRate   float64 `json:"tax_rate"`
	TaxAmount float64 `json:"tax_amount"`
	Total     float64 `json:"total"`
}

func TotalsOf(b pricing.QuoteBreakdown) Totals {
	return Totals{Subtotal: b.Subtotal, TaxRate: b.TaxRate, TaxAmount: b.TaxAmount, Total: b.Total}
}

// NewQuote is a calculated quote ready to be persisted.
type NewQuote struct {
	Category  string
	Title     string
	Notes     string
	Currency  string
	Request   json.RawMessage
	Breakdown pricing.QuoteBreakdown
}

// Quote is a persisted snapshot. It is never recalculated on read.
type Quote struct {
	ID        string                 `json:"id"`
	CreatedAt time.Time              `json:"created_at"`
	Category  string                 `json:"category"`
	Title     string                 `json:"title"`
	Notes     string                 `json:"notes"`
	Currency  string                 `json:"currency"`
	Request   json.RawMessage        `json:"request"`
	Breakdown pricing.QuoteBreakdown `json:"breakdown"`
	Totals    Totals                 `json:"totals"`
}

// QuoteSummary is one row of the quotes listing.
type QuoteSummary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Category  string    `json:"category"`
	Title     string    `json:"title"`
	Currency  string    `json:"currency"`
	Total     float64   `json:"total"`
}

type QuoteRepository struct {
	db  *sql.DB
	now func() time.Time
	ids func() string
}

func NewQuoteRepository(db *sql.DB) *QuoteRepository {
	return &QuoteRepository{
		db:  db,
		now: time.Now,
		ids: func() string { return uuid.NewString() },
	}
}

// Create assigns an id and stores the request together with the breakdown
// and totals snapshots.
func (r *QuoteRepository) Create(ctx context.Context, in NewQuote) (Quote, error) {
	request := in.Request
	if len(request) == 0 {
		request = json.RawMessage(`{}`)
	}
	if !json.Valid(request) {
		return Quote{}, errors.New("quote request is not valid JSON")
	}

	breakdownJSON, err := json.Marshal(in.Breakdown)
	if err != nil {
		return Quote{}, fmt.Errorf("encode breakdown: %w", err)
	}
	totals := TotalsOf(in.Breakdown)
	totalsJSON, err := json.Marshal(totals)
	if err != nil {
		return Quote{}, fmt.Errorf("encode totals: %w", err)
	}

	q := Quote{
		ID:        r.ids(),
		CreatedAt: r.now().UTC().Truncate(time.Microsecond),
		Category:  in.Category,
		Title:     in.Title,
		Notes:     in.Notes,
		Currency:  in.Currency,
		Request:   request,
		Breakdown: in.Breakdown,
		Totals:    totals,
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO quotes (id, category, title, notes, currency, request_json, breakdown_json, totals_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, q.ID, q.Category, q.Title, q.Notes, q.Currency, string(request), string(breakdownJSON), string(totalsJSON),
		q.CreatedAt.Format(timeLayout))
	if err != nil {
		return Quote{}, fmt.Errorf("insert quote: %w", err)
	}
	return q, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// List returns quotes newest first. A non-empty query filters on title and notes.
func (r *QuoteRepository) List(ctx context.Context, query string) ([]QuoteSummary, error) {
	search := "%" + likeEscaper.Replace(query) + "%"
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at, category, title, currency, totals_json
		FROM quotes
		WHERE (? = '' OR title LIKE ? ESCAPE '\' OR notes LIKE ? ESCAPE '\')
		ORDER BY created_at DESC, rowid DESC
	`, query, search, search)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]QuoteSummary, 0)
	for rows.Next() {
		var (
			item       QuoteSummary
			createdAt  string
			totalsJSON string
		)
		if err := rows.Scan(&item.ID, &createdAt, &item.Category, &item.Title, &item.Currency, &totalsJSON); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		item.CreatedAt = parseTime(createdAt)
		item.Total = extractTotalFromJSON(totalsJSON)
		quotes = append(quotes, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}
	return quotes, nil
}

// Get returns the stored snapshot of one quote.
func (r *QuoteRepository) Get(ctx context.Context, id string) (Quote, error) {
	var (
		q                                     Quote
		createdAt, request, breakdown, totals string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, created_at, category, title, notes, currency, request_json, breakdown_json, totals_json
		FROM quotes
		WHERE id = ?
	`, id).Scan(&q.ID, &createdAt, &q.Category, &q.Title, &q.Notes, &q.Currency, &request, &breakdown, &totals)
	if errors.Is(err, sql.ErrNoRows) {
		return Quote{}, ErrQuoteNotFound
	}
	if err != nil {
		return Quote{}, fmt.Errorf("query quote %s: %w", id, err)
	}

	q.CreatedAt = parseTime(createdAt)
	q.Request = json.RawMessage(request)
	if err := json.Unmarshal([]byte(breakdown), &q.Breakdown); err != nil {
		return Quote{}, fmt.Errorf("decode breakdown of quote %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(totals), &q.Totals); err != nil {
		return Quote{}, fmt.Errorf("decode totals of quote %s: %w", id, err)
	}
	return q, nil
}

func extractTotalFromJSON(totalsJSON string) float64 {
	var values map[string]float64
	if err := json.Unmarshal([]byte(totalsJSON), &values); err != nil {
		return 0
	}
	return values["total"]
}

func parseTime(raw string) time.Time {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
