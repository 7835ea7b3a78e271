// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"

	"github.com/rankstack/highscore/internal/domain/types"
	"github.com/rankstack/highscore/pkg/logger"
)

// PositionHandler handles GET /score/{userId}/position requests.
type PositionHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewPositionHandler creates a new position handler.
func NewPositionHandler(deps Dependencies) *PositionHandler {
	return &PositionHandler{deps: deps, logger: logger.Get().Named("api.position")}
}

// HandleGetPosition handles GET /score/{userId}/position requests. A
// userId that does not parse as a non-negative integer is 404, not
// 422: the failure is in addressing a resource, not in a request
// body. A userId that parses but has never been scored is 200 with an
// empty body, since absence is a valid outcome; it is still kind 2 in
// the error taxonomy and is logged at Info.
func (h *PositionHandler) HandleGetPosition(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("userId")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", ErrNotFound)
		return
	}

	entry, ok := h.deps.Find(r.Context(), types.UserID(id))
	if !ok {
		h.logger.Info(r.Context(), "user not found", logger.Any("userId", id))
		writeEmpty(w, http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
