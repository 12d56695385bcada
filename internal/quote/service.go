package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Simplici0/cotizador/internal/pricing"
	"github.com/Simplici0/cotizador/internal/store"
)

// Repository persists calculated quotes.
type Repository interface {
	Create(ctx context.Context, in store.NewQuote) (store.Quote, error)
	List(ctx context.Context, query string) ([]store.QuoteSummary, error)
	Get(ctx context.Context, id string) (store.Quote, error)
}

// Recorder receives calculation and persistence events.
type Recorder interface {
	ObserveQuote(category string, started time.Time, err error)
	QuoteSaved(category string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveQuote(string, time.Time, error) {}
func (nopRecorder) QuoteSaved(string)                     {}

// Result is the outcome of one calculation. Glass is set for glass quotes only.
type Result struct {
	Breakdown pricing.QuoteBreakdown `json:"breakdown"`
	Glass     *pricing.GlassQuote    `json:"glass,omitempty"`
}

type Service struct {
	engine   *pricing.Engine
	repo     Repository
	rec      Recorder
	log      *zap.Logger
	currency string
}

func NewService(engine *pricing.Engine, repo Repository, rec Recorder, log *zap.Logger, currency string) *Service {
	if rec == nil {
		rec = nopRecorder{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		engine:   engine,
		repo:     repo,
		rec:      rec,
		log:      log.Named("quote"),
		currency: currency,
	}
}

func (s *Service) Currency() string { return s.currency }

// Categories lists every quotable category, glass first.
func (s *Service) Categories() []string {
	return append([]string{CategoryGlass}, s.engine.Categories()...)
}

// Calculate prices req without persisting it.
func (s *Service) Calculate(ctx context.Context, req Request) (res Result, err error) {
	category := strings.ToLower(strings.TrimSpace(req.Category))
	started := time.Now()
	defer func() {
		s.rec.ObserveQuote(metricCategory(category, s.engine), started, err)
		if err != nil {
			s.log.Debug("quote calculation failed", zap.String("category", category), zap.Error(err))
		}
	}()

	if category == CategoryGlass {
		gr, err := req.GlassRequest()
		if err != nil {
			return Result{}, err
		}
		b, g, err := s.engine.GlassBreakdown(ctx, gr)
		if err != nil {
			return Result{}, err
		}
		return Result{Breakdown: b, Glass: &g}, nil
	}

	f, ok := s.engine.Formula(category)
	if !ok {
		return Result{}, &pricing.ValidationError{Field: "category", Reason: fmt.Sprintf("%q no es una categoría válida", req.Category)}
	}
	sel, err := req.Selection(f)
	if err != nil {
		return Result{}, err
	}
	b, err := s.engine.QuoteCategory(ctx, category, sel)
	if err != nil {
		return Result{}, err
	}
	return Result{Breakdown: b}, nil
}

// Save calculates req and stores the resulting snapshot.
func (s *Service) Save(ctx context.Context, req Request) (store.Quote, error) {
	res, err := s.Calculate(ctx, req)
	if err != nil {
		return store.Quote{}, err
	}

	raw, err := json.Marshal(req.Values)
	if err != nil {
		return store.Quote{}, fmt.Errorf("encode quote request: %w", err)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = s.defaultTitle(res.Breakdown.Category)
	}
	q, err := s.repo.Create(ctx, store.NewQuote{
		Category:  res.Breakdown.Category,
		Title:     title,
		Notes:     strings.TrimSpace(req.Notes),
		Currency:  s.currency,
		Request:   raw,
		Breakdown: res.Breakdown,
	})
	if err != nil {
		return store.Quote{}, fmt.Errorf("save quote: %w", err)
	}

	s.rec.QuoteSaved(q.Category)
	s.log.Info("quote saved",
		zap.String("id", q.ID),
		zap.String("category", q.Category),
		zap.Float64("total", q.Totals.Total),
	)
	return q, nil
}

func (s *Service) List(ctx context.Context, query string) ([]store.QuoteSummary, error) {
	return s.repo.List(ctx, strings.TrimSpace(query))
}

func (s *Service) Get(ctx context.Context, id string) (store.Quote, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) defaultTitle(category string) string {
	if f, ok := s.engine.Formula(category); ok {
		return f.Label
	}
	return "Vidrio"
}

// metricCategory keeps unknown categories out of metric labels.
func metricCategory(category string, engine *pricing.Engine) string {
	if category == CategoryGlass {
		return category
	}
	if _, ok := engine.Formula(category); ok {
		return category
	}
	return "unknown"
}
