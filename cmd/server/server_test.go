package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Simplici0/cotizador/internal/config"
	"github.com/Simplici0/cotizador/internal/db"
	"github.com/Simplici0/cotizador/internal/metrics"
	"github.com/Simplici0/cotizador/internal/migrations"
	"github.com/Simplici0/cotizador/internal/pricing"
	"github.com/Simplici0/cotizador/internal/quote"
	"github.com/Simplici0/cotizador/internal/seed"
	"github.com/Simplici0/cotizador/internal/store"
	"github.com/Simplici0/cotizador/internal/tables"
)

func newTestServer(t *testing.T) *server {
	t.Helper()

	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "server-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, migrations.Up(ctx, database, zap.NewNop()))

	tbl, err := tables.Load("")
	require.NoError(t, err)
	_, err = seed.Run(ctx, database, seed.Demo(tbl.Coefficients))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	engine := pricing.NewEngine(store.NewReader(database), zap.NewNop(), pricing.Options{Processes: tbl.Processes, Observer: m})
	svc := quote.NewService(engine, store.NewQuoteRepository(database), m, zap.NewNop(), "EUR")
	return &server{svc: svc, db: database, log: zap.NewNop(), gatherer: reg}
}

func glassForm() url.Values {
	form := url.Values{}
	form.Set("category", "glass")
	form.Set("width_mm", "1000")
	form.Set("height_mm", "1500")
	form.Set("quantity", "2")
	form.Set("provider", "Vidrios Norte")
	form.Set("family", "Templado")
	form.Set("thickness", "8")
	form.Set("color", "Incoloro")
	form.Set("type", "incoloro")
	return form
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestParseQuoteFormValues_Success(t *testing.T) {
	form := glassForm()
	form.Set("title", " Mampara ")
	form.Set("holes", "1")

	req := httptest.NewRequest(http.MethodPost, "/quotes/calc", nil)
	req.Form = form

	values, err := parseQuoteFormValues(req)
	require.NoError(t, err)
	assert.Equal(t, "glass", values.Category)
	assert.Equal(t, "Mampara", values.Title)
	assert.Equal(t, "1", values.Values["holes"])
	assert.NotContains(t, values.Values, "category")
	assert.NotContains(t, values.Values, "title")
}

func TestParseQuoteFormValues_MissingCategory(t *testing.T) {
	form := glassForm()
	form.Del("category")

	req := httptest.NewRequest(http.MethodPost, "/quotes/calc", nil)
	req.Form = form

	_, err := parseQuoteFormValues(req)
	var ve *pricing.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "category", ve.Field)
}

func TestDecodeJSONRequestFlattensScalars(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/quotes/calc", strings.NewReader(
		`{"category":"railing","values":{"linear_meters":5.5,"anchor":"lateral","installation":true,"height_mm":null}}`))

	got, err := decodeJSONRequest(req)

	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"linear_meters": "5.5",
		"anchor":        "lateral",
		"installation":  "true",
		"height_mm":     "",
	}, got.Values)

	req = httptest.NewRequest(http.MethodPost, "/quotes/calc", strings.NewReader(`{"category":"railing","values":{"anchor":["a"]}}`))
	_, err = decodeJSONRequest(req)
	assert.ErrorIs(t, err, pricing.ErrValidation)
}

func TestQuoteCalcGlassForm(t *testing.T) {
	h := newTestServer(t).routes()

	rr := postForm(t, h, "/quotes/calc", glassForm())

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var res quote.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, 68.85, res.Breakdown.Subtotal)
	assert.Equal(t, 83.31, res.Breakdown.Total)
	require.NotNil(t, res.Glass)
	assert.Equal(t, "VN-TMP-8-INC", res.Glass.Entry.ID)
}

func TestQuoteCalcRailingJSON(t *testing.T) {
	h := newTestServer(t).routes()

	rr := postJSON(t, h, "/quotes/calc", `{"category":"railing","values":{"linear_meters":5.5,"anchor":"lateral","installation":"1"}}`)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var res quote.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, 825.0, res.Breakdown.Subtotal)
	assert.Equal(t, 173.25, res.Breakdown.TaxAmount)
	assert.Equal(t, 998.25, res.Breakdown.Total)
}

func TestQuoteCalcErrorMapping(t *testing.T) {
	h := newTestServer(t).routes()

	cases := []struct {
		name   string
		mutate func(url.Values)
		status int
		code   string
		field  string
	}{
		{
			name:   "validation",
			mutate: func(f url.Values) { f.Set("width_mm", "abc") },
			status: http.StatusBadRequest, code: "validation_error", field: "width_mm",
		},
		{
			name: "holes on laminated",
			mutate: func(f url.Values) {
				f.Set("family", "Laminado")
				f.Set("thickness", "4+4")
				f.Set("holes", "1")
				f.Set("holes_count", "1")
				f.Set("hole_diameter_mm", "8")
			},
			status: http.StatusBadRequest, code: "validation_error", field: "holes",
		},
		{
			name:   "catalog miss",
			mutate: func(f url.Values) { f.Set("thickness", "19") },
			status: http.StatusNotFound, code: "not_found",
		},
		{
			name: "hole too large",
			mutate: func(f url.Values) {
				f.Set("holes", "1")
				f.Set("holes_count", "1")
				f.Set("hole_diameter_mm", "80")
			},
			status: http.StatusUnprocessableEntity, code: "pricing_unavailable",
		},
		{
			name:   "nan width",
			mutate: func(f url.Values) { f.Set("width_mm", "NaN") },
			status: http.StatusBadRequest, code: "validation_error", field: "width_mm",
		},
		{
			name:   "infinite height",
			mutate: func(f url.Values) { f.Set("height_mm", "Inf") },
			status: http.StatusBadRequest, code: "validation_error", field: "height_mm",
		},
		{
			name: "overflowing area",
			mutate: func(f url.Values) {
				f.Set("width_mm", "1e200")
				f.Set("height_mm", "1e200")
			},
			status: http.StatusBadRequest, code: "validation_error", field: "dimensions",
		},
		{
			name: "railing nan height",
			mutate: func(f url.Values) {
				f.Set("category", "railing")
				f.Set("linear_meters", "5.5")
				f.Set("anchor", "lateral")
				f.Set("height_mm", "NaN")
			},
			status: http.StatusBadRequest, code: "validation_error", field: "height_mm",
		},
		{
			name:   "unknown category",
			mutate: func(f url.Values) { f.Set("category", "pergola") },
			status: http.StatusBadRequest, code: "validation_error", field: "category",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form := glassForm()
			tc.mutate(form)

			rr := postForm(t, h, "/quotes/calc", form)

			require.Equal(t, tc.status, rr.Code, rr.Body.String())
			var resp errorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tc.code, resp.Error)
			assert.Equal(t, tc.field, resp.Field)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestClassifyDependencyAndUnknownErrors(t *testing.T) {
	status, resp := classifyError(&pricing.DependencyError{Lookup: "catalog", Err: context.DeadlineExceeded})
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "dependency_error", resp.Error)

	status, _ = classifyError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestCreateListAndReadQuotes(t *testing.T) {
	h := newTestServer(t).routes()

	form := glassForm()
	form.Set("title", "Mampara baño")
	form.Set("notes", "cliente Ruiz")
	rr := postForm(t, h, "/quotes", form)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created store.Quote
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "/quotes/"+created.ID, rr.Header().Get("Location"))

	rr = postJSON(t, h, "/quotes", `{"category":"railing","title":"Terraza","values":{"linear_meters":"5.5","anchor":"lateral","installation":"1"}}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/quotes?q=Ruiz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list quotesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Quotes, 1)
	assert.Equal(t, "Mampara baño", list.Quotes[0].Title)
	assert.Equal(t, 83.31, list.Quotes[0].Total)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/quotes", nil))
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list.Quotes, 2)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/quotes/"+created.ID, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var detail store.Quote
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &detail))
	assert.Equal(t, created.Breakdown, detail.Breakdown)
	assert.Equal(t, "EUR", detail.Currency)
}

func TestHandleQuoteTextReturnsPlainText(t *testing.T) {
	srv := newTestServer(t)
	q, err := srv.svc.Save(context.Background(), quote.Request{
		Category: "railing",
		Title:    "Terraza",
		Values:   map[string]string{"linear_meters": "5.5", "anchor": "lateral", "installation": "1"},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/quotes/"+q.ID+"/text", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", q.ID)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	srv.handleQuoteText(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
	for _, expected := range []string{"Total: 998.25 EUR", "Detalle:", "Datos de la solicitud:", "anchor: lateral"} {
		assert.Contains(t, rr.Body.String(), expected)
	}
}

func TestQuoteNotFound(t *testing.T) {
	h := newTestServer(t).routes()

	for _, path := range []string{"/quotes/missing", "/quotes/missing/text"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rr.Code, path)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestServer(t).routes()
	postForm(t, h, "/quotes/calc", glassForm())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `quotes_calculated_total{category="glass",outcome="ok"} 1`)
}

func TestCategoriesEndpoint(t *testing.T) {
	h := newTestServer(t).routes()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/categories", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"categories":["glass","canopy","railing","retractable_stair","stair"],"currency":"EUR"}`, rr.Body.String())
}

func TestLoadReferenceDataSyncsTablesFileWithoutDemoSeed(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "reference.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, migrations.Up(ctx, database, zap.NewNop()))

	_, err = loadReferenceData(ctx, config.Config{SeedOnStart: true}, database, zap.NewNop())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tables.yml")
	require.NoError(t, os.WriteFile(path, []byte(`pricing:
  coefficients:
    railing:
      anchor:
        - { id: lateral, label: "Anclaje lateral", value: 100 }
`), 0o600))

	tbl, err := loadReferenceData(ctx, config.Config{TablesPath: path, SeedOnStart: false}, database, zap.NewNop())
	require.NoError(t, err)

	engine := pricing.NewEngine(store.NewReader(database), zap.NewNop(), pricing.Options{Processes: tbl.Processes})
	b, err := engine.QuoteCategory(ctx, pricing.CategoryRailing, pricing.Selection{
		Dimensions: map[string]float64{"linear_meters": 2},
		Options:    map[string]string{"anchor": "lateral"},
	})
	require.NoError(t, err)
	require.Len(t, b.Items, 1)
	assert.Equal(t, 100.0, b.Items[0].UnitPrice)
	assert.Equal(t, 200.0, b.Subtotal)
}

func TestLoadReferenceDataWithoutSeedSkipsDemoCatalog(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "reference.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, migrations.Up(ctx, database, zap.NewNop()))

	_, err = loadReferenceData(ctx, config.Config{}, database, zap.NewNop())
	require.NoError(t, err)

	var catalog, coefficients int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM catalog_entries`).Scan(&catalog))
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM coefficients`).Scan(&coefficients))
	assert.Zero(t, catalog)
	assert.Positive(t, coefficients)
}
