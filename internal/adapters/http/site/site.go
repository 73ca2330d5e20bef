// Package site serves the HTML dashboard.
package site

import (
	"context"
	"errors"
	"net/http"

	"github.com/a-h/templ"

	service "github.com/okian/pitchdash/internal/app"
	"github.com/okian/pitchdash/internal/domain/model"
	"github.com/okian/pitchdash/internal/domain/zone"
)

// Title heads every page.
const Title = "Baseball Analytics Dashboard"

// Dependencies required by the dashboard page.
type Dependencies interface {
	NewQuery(player, playerType, start, end, pitch string) (service.Query, error)
	Players(pt model.PlayerType) ([]string, string, error)
	Dashboard(ctx context.Context, q service.Query) (service.DashboardView, error)
}

// Register attaches the dashboard page to mux at /.
func Register(_ context.Context, mux *http.ServeMux, deps Dependencies) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/", NewRootHandler(deps).HandleRoot)
}

// RootHandler renders the dashboard for the selection in the query string.
type RootHandler struct {
	deps Dependencies
}

// NewRootHandler creates a new root handler.
func NewRootHandler(deps Dependencies) *RootHandler {
	return &RootHandler{deps: deps}
}

// HandleRoot handles GET / requests. Anything below / is not found.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	page, status := h.page(r)
	templ.Handler(Dashboard(page), templ.WithStatus(status)).ServeHTTP(w, r)
}

func (h *RootHandler) page(r *http.Request) (Page, int) {
	v := r.URL.Query()
	page := Page{Title: Title}

	q, err := h.deps.NewQuery(v.Get("player"), v.Get("type"), v.Get("start"), v.Get("end"), v.Get("pitch"))
	if err != nil {
		page.Err = err.Error()
		// Fall back to the defaults so the form stays usable.
		q, _ = h.deps.NewQuery("", "", "", "", "")
		page.Query = q
		page.Players, _, _ = h.deps.Players(q.Type)
		return page, http.StatusBadRequest
	}
	page.Query = q

	names, _, err := h.deps.Players(q.Type)
	if err != nil {
		page.Err = err.Error()
		return page, statusFor(err)
	}
	page.Players = names

	view, err := h.deps.Dashboard(r.Context(), q)
	if err != nil {
		page.Err = err.Error()
		return page, statusFor(err)
	}
	page.View = &view
	return page, http.StatusOK
}

func statusFor(err error) int {
	var invalid *zone.InvalidRecordError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &invalid), errors.Is(err, service.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnknownPlayer):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
