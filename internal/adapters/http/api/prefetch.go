package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	service "github.com/okian/pitchdash/internal/app"
	"github.com/okian/pitchdash/internal/domain/types"
)

// PrefetchDependencies defines the interface for background cache fills.
type PrefetchDependencies interface {
	NewQuery(player, playerType, start, end, pitch string) (service.Query, error)
	Prefetch(ctx context.Context, q service.Query) (jobID string, dup bool, err error)
}

// PrefetchHandler handles prefetch requests.
type PrefetchHandler struct {
	deps PrefetchDependencies
}

// NewPrefetchHandler creates a new prefetch handler.
func NewPrefetchHandler(deps PrefetchDependencies) *PrefetchHandler {
	return &PrefetchHandler{deps: deps}
}

// HandlePostPrefetch handles POST /api/prefetch requests.
// New jobs answer 202, jobs already pending answer 200 with duplicate set.
func (h *PrefetchHandler) HandlePostPrefetch(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_prefetch"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req types.PrefetchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Player) == "" {
		writeFailure(w, WrapKind(op, ErrBadRequest, errors.New("missing player")))
		return
	}

	q, err := h.deps.NewQuery(req.Player, req.Type, req.Start, req.End, "")
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	jobID, dup, err := h.deps.Prefetch(r.Context(), q)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	status := http.StatusAccepted
	if dup {
		status = http.StatusOK
	}
	writeJSON(w, status, types.PrefetchResponse{JobID: jobID, Duplicate: dup})
}
