// Package api serves the enriched pull-request list over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roivaz/azdo-pr-dashboard/internal/db"
	"github.com/roivaz/azdo-pr-dashboard/internal/enrichment"
	"github.com/roivaz/azdo-pr-dashboard/internal/logging"
	"github.com/roivaz/azdo-pr-dashboard/internal/markdown"
	"github.com/roivaz/azdo-pr-dashboard/internal/mcp/tools"
	"github.com/roivaz/azdo-pr-dashboard/internal/poller"
)

// Snapshots is the part of the poller the handlers use.
type Snapshots interface {
	Latest() (poller.Snapshot, bool)
	LastError() error
	Refresh(ctx context.Context) (poller.Snapshot, error)
	Subscribe() (<-chan poller.Snapshot, func())
}

type Option func(*Handler)

// WithMCP mounts an MCP transport at path.
func WithMCP(path string, h http.Handler) Option {
	return func(s *Handler) {
		s.mcpPath = path
		s.mcpHandler = h
	}
}

// WithGatherer serves /metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Handler) { s.gatherer = g }
}

type Handler struct {
	snapshots  Snapshots
	history    tools.HistoryService
	log        logging.Logger
	gatherer   prometheus.Gatherer
	mcpPath    string
	mcpHandler http.Handler
}

func NewHandler(snapshots Snapshots, history tools.HistoryService, log logging.Logger, opts ...Option) *Handler {
	h := &Handler{
		snapshots: snapshots,
		history:   history,
		log:       log.WithName("api"),
		gatherer:  prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(Recovery(h.log))
	router.Use(Logging(h.log))

	router.Get("/healthz", h.handleHealth)
	router.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	router.Route("/api", func(r chi.Router) {
		r.Get("/pullrequests", h.handleList)
		r.Get("/pullrequests/{id}", h.handleGet)
		r.Get("/pullrequests/{id}/history", h.handleHistory)
		r.Post("/refresh", h.handleRefresh)
		r.Get("/events", h.handleEvents)
	})

	if h.mcpHandler != nil {
		router.Handle(h.mcpPath, h.mcpHandler)
	}

	return router
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "starting"}
	if snap, ok := h.snapshots.Latest(); ok {
		resp.Status = "ok"
		taken := snap.TakenAt
		resp.LastRefresh = &taken
	}
	if err := h.snapshots.LastError(); err != nil {
		resp.LastError = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	query, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap, _ := h.snapshots.Latest()
	resp := newListResponse(snap, query.Apply(snap.PullRequests))
	if err := h.snapshots.LastError(); err != nil {
		resp.LastError = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap, _ := h.snapshots.Latest()
	pr, found := enrichment.Find(snap.PullRequests, id)
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("pull request %d is not active", id))
		return
	}
	writeJSON(w, http.StatusOK, detailResponse{
		PullRequest:     pr,
		DescriptionHTML: markdown.Render(pr.Description),
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit := db.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
	}
	entries, err := h.history.PullRequestHistory(r.Context(), id, limit)
	switch {
	case errors.Is(err, tools.ErrHistoryDisabled):
		writeError(w, http.StatusNotImplemented, err.Error())
	case err != nil:
		h.log.Error(err, "load history failed", "pull_request", id)
		writeError(w, http.StatusInternalServerError, "failed to load history")
	default:
		writeJSON(w, http.StatusOK, entries)
	}
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.Refresh(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(snap, snap.PullRequests))
}

func parseQuery(r *http.Request) (enrichment.Query, error) {
	values := r.URL.Query()
	query := enrichment.Query{Repository: strings.TrimSpace(values.Get("repository"))}

	if raw := values.Get("drafts"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			return query, fmt.Errorf("drafts must be a boolean")
		}
		query.ExcludeDrafts = !include
	}

	if raw := values.Get("sort"); raw != "" {
		column, err := enrichment.ParseSortColumn(raw)
		if err != nil {
			return query, err
		}
		query.Sort = column
		switch strings.ToLower(values.Get("order")) {
		case "", "desc":
			query.Descending = true
		case "asc":
		default:
			return query, fmt.Errorf("order must be asc or desc")
		}
	}
	return query, nil
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("id must be a positive integer")
	}
	return id, nil
}
