package pricing

import (
	"go.uber.org/zap"

	"github.com/Simplici0/cotizador/internal/refdata"
)

// Observer receives diagnostics raised while pricing. Implementations must be
// safe for concurrent use.
type Observer interface {
	CatalogMultipleMatches(provider string, count int)
}

type nopObserver struct{}

func (nopObserver) CatalogMultipleMatches(string, int) {}

// Options configures an Engine.
type Options struct {
	// StrictCatalog raises a MultipleMatches diagnostic when a catalog lookup
	// has more than one candidate.
	StrictCatalog bool
	Processes     ProcessCodes
	Formulas      map[string]Formula
	Observer      Observer
	TaxRate       float64
}

// Engine prices quotes against a reference-data snapshot. It holds no
// per-calculation state and is safe for concurrent use.
type Engine struct {
	ref      refdata.Reader
	log      *zap.Logger
	strict   bool
	procs    ProcessCodes
	formulas map[string]Formula
	observer Observer
	taxRate  float64
}

// NewEngine returns an Engine reading reference data from ref. Zero-valued
// options fall back to the default process codes, the built-in category
// formulas and VATRate.
func NewEngine(ref refdata.Reader, log *zap.Logger, opts Options) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Processes.EdgeFinishing == "" {
		opts.Processes = DefaultProcessCodes()
	}
	if opts.Formulas == nil {
		opts.Formulas = DefaultFormulas()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.TaxRate == 0 {
		opts.TaxRate = VATRate
	}
	return &Engine{
		ref:      ref,
		log:      log.Named("pricing"),
		strict:   opts.StrictCatalog,
		procs:    opts.Processes,
		formulas: opts.Formulas,
		observer: opts.Observer,
		taxRate:  opts.TaxRate,
	}
}

// TaxRate is the rate applied to breakdowns built by this engine.
func (e *Engine) TaxRate() float64 { return e.taxRate }
