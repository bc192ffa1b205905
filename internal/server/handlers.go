package server

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/verte-zerg/typedrill/internal/model"
	"github.com/verte-zerg/typedrill/internal/stats"
	"github.com/verte-zerg/typedrill/internal/store"
)

type docHandler struct {
	store Store
}

type createDocRequest struct {
	Title   any `json:"title"`
	Content any `json:"content"`
}

// List handles GET /api/docs
func (h *docHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.ListDocuments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// Create handles POST /api/docs
func (h *docHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDocRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	content, ok := req.Content.(string)
	if !ok || strings.TrimSpace(content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	title, _ := req.Title.(string)

	doc, err := h.store.CreateDocument(r.Context(), title, content)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// Get handles GET /api/docs/{id}
func (h *docHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Document(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Delete handles DELETE /api/docs/{id}
func (h *docHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.store.DeleteDocument(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type scoreRequest struct {
	Target     any `json:"target"`
	Typed      any `json:"typed"`
	DurationMs any `json:"durationMs"`
}

// maxDurationMs keeps the millisecond to Duration conversion inside int64.
const maxDurationMs = float64(math.MaxInt64 / int64(time.Millisecond))

// scoreDuration reads durationMs. Anything but a positive number counts as zero.
func scoreDuration(v any) time.Duration {
	ms, ok := v.(float64)
	if !ok || math.IsNaN(ms) || ms <= 0 {
		return 0
	}
	ms = math.Min(ms, maxDurationMs)
	return time.Duration(ms) * time.Millisecond
}

// scoreHandler handles POST /api/score
func scoreHandler(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	target, ok1 := req.Target.(string)
	typed, ok2 := req.Typed.(string)
	if !ok1 || !ok2 {
		writeError(w, http.StatusBadRequest, "target and typed required")
		return
	}
	writeJSON(w, http.StatusOK, stats.Score(target, typed, scoreDuration(req.DurationMs)))
}

type historyHandler struct {
	store Store
}

// List handles GET /api/history?doc=&since=&last=
func (h *historyHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.HistoryFilter{DocID: q.Get("doc")}
	if v := q.Get("last"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "last must be a non-negative integer")
			return
		}
		filter.Last = n
	}
	if v := q.Get("since"); v != "" {
		since, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be YYYY-MM-DD")
			return
		}
		filter.Since = &since
	}
	report, err := stats.BuildReport(r.Context(), h.store, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report.Records)
}
