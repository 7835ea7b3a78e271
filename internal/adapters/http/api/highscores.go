// Package api declares HTTP contracts and route registration helpers.
package api

import "net/http"

// HighscoresHandler handles GET /highscorelist requests.
type HighscoresHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewHighscoresHandler creates a new highscores handler. maxLimit caps
// the number of entries ever returned, regardless of population.
func NewHighscoresHandler(deps Dependencies, maxLimit int) *HighscoresHandler {
	return &HighscoresHandler{deps: deps, maxLimit: maxLimit}
}

type highscoresResponse struct {
	Highscores []Entry `json:"highscores"`
}

// HandleGetHighscores handles GET /highscorelist requests.
func (h *HighscoresHandler) HandleGetHighscores(w http.ResponseWriter, r *http.Request) {
	entries := h.deps.Top(r.Context(), h.maxLimit)
	if entries == nil {
		entries = []Entry{}
	}
	writeJSON(w, http.StatusOK, highscoresResponse{Highscores: entries})
}
