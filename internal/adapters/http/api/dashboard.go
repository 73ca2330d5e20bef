package api

import (
	"context"
	"net/http"

	service "github.com/okian/pitchdash/internal/app"
	"github.com/okian/pitchdash/internal/domain/types"
	"github.com/okian/pitchdash/internal/domain/zone"
)

// DashboardDependencies defines the interface for dashboard computations.
type DashboardDependencies interface {
	NewQuery(player, playerType, start, end, pitch string) (service.Query, error)
	Dashboard(ctx context.Context, q service.Query) (service.DashboardView, error)
	Heatmap(ctx context.Context, q service.Query) (zone.CountMatrix, error)
}

// DashboardHandler serves the computed dashboard and its heat map.
type DashboardHandler struct {
	deps DashboardDependencies
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(deps DashboardDependencies) *DashboardHandler {
	return &DashboardHandler{deps: deps}
}

// HandleGetDashboard handles GET /api/dashboard requests.
func (h *DashboardHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_dashboard"
	q, ok := h.query(w, r, op)
	if !ok {
		return
	}
	view, err := h.deps.Dashboard(r.Context(), q)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, DashboardResponse(view))
}

// HandleGetHeatmap handles GET /api/heatmap requests.
func (h *DashboardHandler) HandleGetHeatmap(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_heatmap"
	q, ok := h.query(w, r, op)
	if !ok {
		return
	}
	m, err := h.deps.Heatmap(r.Context(), q)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, types.HeatmapResponse{Query: echo(q, 0), Heatmap: types.NewZoneMatrix(m)})
}

func (h *DashboardHandler) query(w http.ResponseWriter, r *http.Request, op string) (service.Query, bool) {
	if !allowMethod(w, r, http.MethodGet) {
		return service.Query{}, false
	}
	v := r.URL.Query()
	q, err := h.deps.NewQuery(v.Get("player"), v.Get("type"), v.Get("start"), v.Get("end"), v.Get("pitch"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return service.Query{}, false
	}
	return q, true
}

// DashboardResponse converts a computed view to its JSON shape.
func DashboardResponse(view service.DashboardView) types.DashboardResponse {
	return types.DashboardResponse{
		Query:      echo(view.Query, view.PlayerID),
		PitchNames: view.PitchNames,
		Summary:    types.NewSummary(view.Summary),
		Heatmap:    types.NewZoneMatrix(view.Heatmap),
		Movement:   types.NewSeries(view.Movement),
		Location:   types.NewSeries(view.Location),
	}
}

func echo(q service.Query, id int) types.Query {
	return types.Query{
		Player:  q.Player,
		MLBAMID: id,
		Type:    string(q.Type),
		Start:   q.Range.StartString(),
		End:     q.Range.EndString(),
		Pitch:   q.Pitch,
	}
}
