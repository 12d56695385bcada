package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Simplici0/cotizador/internal/pricing"
	"github.com/Simplici0/cotizador/internal/quote"
	"github.com/Simplici0/cotizador/internal/store"
)

const maxBodyBytes = 1 << 20

type server struct {
	svc      *quote.Service
	db       *sql.DB
	log      *zap.Logger
	gatherer prometheus.Gatherer
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type quotesResponse struct {
	Query  string               `json:"query"`
	Quotes []store.QuoteSummary `json:"quotes"`
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/categories", s.handleCategories)
	r.Route("/quotes", func(r chi.Router) {
		r.Post("/calc", s.handleQuoteCalc)
		r.Post("/", s.handleQuoteCreate)
		r.Get("/", s.handleQuotesList)
		r.Get("/{id}", s.handleQuoteDetail)
		r.Get("/{id}/text", s.handleQuoteText)
	})
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.log.Error("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": s.svc.Categories(),
		"currency":   s.svc.Currency(),
	})
}

func (s *server) handleQuoteCalc(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	req, err := parseQuoteRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.svc.Calculate(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleQuoteCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	req, err := parseQuoteRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	q, err := s.svc.Save(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/quotes/"+q.ID)
	writeJSON(w, http.StatusCreated, q)
}

func (s *server) handleQuotesList(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	quotes, err := s.svc.List(r.Context(), query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quotesResponse{Query: query, Quotes: quotes})
}

func (s *server) handleQuoteDetail(w http.ResponseWriter, r *http.Request) {
	q, err := s.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *server) handleQuoteText(w http.ResponseWriter, r *http.Request) {
	q, err := s.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(quote.RenderText(q)))
}

// parseQuoteRequest accepts either a JSON body or form values. Form fields
// other than category, title and notes become the flat record.
func parseQuoteRequest(r *http.Request) (quote.Request, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		return decodeJSONRequest(r)
	}
	return parseQuoteFormValues(r)
}

func parseQuoteFormValues(r *http.Request) (quote.Request, error) {
	if err := r.ParseForm(); err != nil {
		return quote.Request{}, &pricing.ValidationError{Field: "form", Reason: "no se pudo leer el formulario"}
	}

	req := quote.Request{
		Category: strings.TrimSpace(r.Form.Get("category")),
		Title:    strings.TrimSpace(r.Form.Get("title")),
		Notes:    strings.TrimSpace(r.Form.Get("notes")),
		Values:   make(map[string]string, len(r.Form)),
	}
	for key := range r.Form {
		switch key {
		case "category", "title", "notes":
			continue
		}
		req.Values[key] = strings.TrimSpace(r.Form.Get(key))
	}
	if req.Category == "" {
		return req, &pricing.ValidationError{Field: "category", Reason: "es requerido"}
	}
	return req, nil
}

type jsonQuoteRequest struct {
	Category string         `json:"category"`
	Title    string         `json:"title"`
	Notes    string         `json:"notes"`
	Values   map[string]any `json:"values"`
}

func decodeJSONRequest(r *http.Request) (quote.Request, error) {
	var body jsonQuoteRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return quote.Request{}, &pricing.ValidationError{Field: "body", Reason: "no es un JSON válido"}
	}

	req := quote.Request{
		Category: strings.TrimSpace(body.Category),
		Title:    strings.TrimSpace(body.Title),
		Notes:    strings.TrimSpace(body.Notes),
		Values:   make(map[string]string, len(body.Values)),
	}
	for key, v := range body.Values {
		str, err := flatValue(v)
		if err != nil {
			return req, &pricing.ValidationError{Field: key, Reason: err.Error()}
		}
		req.Values[key] = str
	}
	if req.Category == "" {
		return req, &pricing.ValidationError{Field: "category", Reason: "es requerido"}
	}
	return req, nil
}

// flatValue renders a scalar JSON value the way it would arrive from a form.
func flatValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", errors.New("debe ser un valor simple")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := classifyError(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}
	writeJSON(w, status, resp)
}

func classifyError(err error) (int, errorResponse) {
	var (
		ve *pricing.ValidationError
		nf *pricing.NotFoundError
		pu *pricing.PricingUnavailableError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, errorResponse{Error: "validation_error", Message: ve.Error(), Field: ve.Field}
	case errors.As(err, &nf):
		return http.StatusNotFound, errorResponse{Error: "not_found", Message: nf.Error()}
	case errors.Is(err, store.ErrQuoteNotFound):
		return http.StatusNotFound, errorResponse{Error: "not_found", Message: "cotización no encontrada"}
	case errors.As(err, &pu):
		return http.StatusUnprocessableEntity, errorResponse{Error: "pricing_unavailable", Message: pu.Error()}
	case errors.Is(err, pricing.ErrDependency):
		return http.StatusServiceUnavailable, errorResponse{Error: "dependency_error", Message: "datos de referencia no disponibles"}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal_error", Message: "error interno"}
	}
}
