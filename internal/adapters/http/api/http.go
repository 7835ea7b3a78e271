// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rankstack/highscore/internal/domain/types"
)

// Dependencies is the surface the HTTP layer needs from the ranking
// engine. It is satisfied by *cell.Cell; kept as an interface here so
// handlers can be tested against a fake.
type Dependencies interface {
	// Add credits user with earned points.
	Add(ctx context.Context, user types.UserID, earned types.Score) error

	// Find returns the user's current entry, if any.
	Find(ctx context.Context, user types.UserID) (types.Entry, bool)

	// Top returns up to maxUsers leaderboard entries ordered by rank.
	Top(ctx context.Context, maxUsers int) []types.Entry
}

// Entry mirrors the wire shape of a single leaderboard row.
type Entry = types.Entry

// Server wires HTTP routes for the ranking API.
type Server struct {
	scoreHandler      *ScoreHandler
	positionHandler   *PositionHandler
	highscoresHandler *HighscoresHandler
	metricsHandler    *MetricsHandler
}

// NewServer creates a new API server with all handlers. maxHighscores
// caps the length of the /highscorelist response.
func NewServer(deps Dependencies, maxHighscores int) *Server {
	return &Server{
		scoreHandler:      NewScoreHandler(deps),
		positionHandler:   NewPositionHandler(deps),
		highscoresHandler: NewHighscoresHandler(deps, maxHighscores),
		metricsHandler:    NewMetricsHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /score", MetricsMiddleware(s.scoreHandler.HandlePostScore, "score"))
	mux.HandleFunc("GET /score/{userId}/position", MetricsMiddleware(s.positionHandler.HandleGetPosition, "position"))
	mux.HandleFunc("GET /highscorelist", MetricsMiddleware(s.highscoresHandler.HandleGetHighscores, "highscorelist"))
	mux.HandleFunc("GET /metrics", MetricsMiddleware(s.metricsHandler.HandleMetrics, "metrics"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeEmpty(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
