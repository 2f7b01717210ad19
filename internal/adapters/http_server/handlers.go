package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/app"
	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/domain"
)

type Handlers struct {
	Q *app.QueryService
	A *app.AnalysisService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/businesses", h.listBusinesses)
	s.mux.Get("/v1/businesses/{id}/reviews", h.listReviews)
	s.mux.Get("/v1/businesses/{id}/metrics", h.getMetrics)
	s.mux.Get("/v1/businesses/{id}/trends", h.getTrends)
	s.mux.Post("/v1/businesses/{id}/analysis", h.runAnalysis)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSONWithETag(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func businessID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handlers) listBusinesses(w http.ResponseWriter, r *http.Request) {
	bs, err := h.Q.ListBusinesses(r.Context())
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "failed to list businesses")
		return
	}
	writeJSONWithETag(w, r, bs)
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := businessID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}

	limit := 50
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		limit = l
	}

	// Newest first; aligns with the DB index on (business_id, published_at, id)
	page := domain.PageQuery{Limit: limit, Cursor: nil, Sort: "-published_at"}
	out, err := h.Q.ListReviews(r.Context(), id, page)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "reviews not found")
		return
	}
	writeJSONWithETag(w, r, out)
}

// months parses the ?months= window; 0 (full history) when absent.
func months(r *http.Request) (int, bool) {
	ms := r.URL.Query().Get("months")
	if ms == "" {
		return 0, true
	}
	m, err := strconv.Atoi(ms)
	if err != nil || m < 0 || m > 120 {
		return 0, false
	}
	return m, true
}

func (h *Handlers) getMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := businessID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	m, ok := months(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid months", "months must be an integer between 0 and 120")
		return
	}
	out, err := h.Q.Metrics(r.Context(), id, m)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "failed to compute metrics")
		return
	}
	writeJSONWithETag(w, r, out)
}

func (h *Handlers) getTrends(w http.ResponseWriter, r *http.Request) {
	id, ok := businessID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	m, ok := months(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid months", "months must be an integer between 0 and 120")
		return
	}
	out, err := h.Q.Trends(r.Context(), id, m)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "failed to compute trends")
		return
	}
	writeJSONWithETag(w, r, out)
}

func (h *Handlers) runAnalysis(w http.ResponseWriter, r *http.Request) {
	id, ok := businessID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}

	// An empty body means "use the configured defaults".
	var opts app.AnalysisOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "body must be JSON with provider/model/fullAnalysis")
		return
	}

	res, err := h.A.Analyze(r.Context(), id, opts)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "business not found")
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "analysis failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.Error().Err(err).Msg("failed to write analysis response")
	}
}
