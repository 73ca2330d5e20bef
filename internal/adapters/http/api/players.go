package api

import (
	"net/http"

	"github.com/okian/pitchdash/internal/domain/model"
	"github.com/okian/pitchdash/internal/domain/types"
)

// PlayersDependencies defines the interface for roster listing.
type PlayersDependencies interface {
	Players(pt model.PlayerType) ([]string, string, error)
}

// PlayersHandler handles roster requests.
type PlayersHandler struct {
	deps PlayersDependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayersDependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

// HandleGetPlayers handles GET /api/players?type=pitcher|batter requests.
func (h *PlayersHandler) HandleGetPlayers(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_players"
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	pt, err := model.ParsePlayerType(r.URL.Query().Get("type"))
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	names, def, err := h.deps.Players(pt)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, types.PlayersResponse{Type: string(pt), Default: def, Players: names})
}
