// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/rankstack/highscore/internal/domain/ranking"
	"github.com/rankstack/highscore/internal/domain/types"
	"github.com/rankstack/highscore/pkg/logger"
)

// ScoreHandler handles POST /score requests.
type ScoreHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps Dependencies) *ScoreHandler {
	return &ScoreHandler{deps: deps, logger: logger.Get().Named("api.score")}
}

// HandlePostScore handles POST /score requests. A malformed body is
// kind 1 in the error taxonomy and is logged at Warn before the 422
// response is written; capacity-exceeded (kind 3) is logged where
// it's detected, in the cell package, not repeated here.
func (h *ScoreHandler) HandlePostScore(w http.ResponseWriter, r *http.Request) {
	user, points, err := decodeScoreRequest(r.Body)
	if err != nil {
		badRequest := fmt.Errorf("%w: %w", ErrBadRequest, err)
		h.logger.Warn(r.Context(), "malformed score request", logger.Error(badRequest))
		writeError(w, http.StatusUnprocessableEntity, "invalid_request", badRequest)
		return
	}

	if err := h.deps.Add(r.Context(), user, points); err != nil {
		if errors.Is(err, ranking.ErrCapacityExceeded) {
			writeError(w, http.StatusUnprocessableEntity, "capacity_exceeded", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeEmpty(w, http.StatusOK)
}

// decodeScoreRequest reads a single JSON object of the shape
// {"userId": <u64>, "points": <u64>} from r and returns its fields.
// Every failure path wraps ranking.ErrInvalidInput, since this is the
// boundary that turns wire input into the domain types ranking itself
// trusts and never re-validates.
//
// encoding/json's normal struct decoding cannot reject duplicate
// object keys (the last one silently wins) and treats a JSON null
// against a numeric field as a no-op rather than an error, so both
// checks are done here by walking the token stream by hand. Negative
// numbers and non-integers are rejected by strconv.ParseUint, which
// also gives unsigned 64-bit range checking for free.
func decodeScoreRequest(body io.Reader) (types.UserID, types.Score, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	start, err := dec.Token()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: malformed json: %w", ranking.ErrInvalidInput, err)
	}
	if d, ok := start.(json.Delim); !ok || d != '{' {
		return 0, 0, fmt.Errorf("%w: expected a json object", ranking.ErrInvalidInput)
	}

	seen := make(map[string]bool, 2)
	var userID, points *uint64

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return 0, 0, fmt.Errorf("%w: malformed json: %w", ranking.ErrInvalidInput, err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return 0, 0, fmt.Errorf("%w: expected a string key", ranking.ErrInvalidInput)
		}
		if seen[key] {
			return 0, 0, fmt.Errorf("%w: duplicate key %q", ranking.ErrInvalidInput, key)
		}
		seen[key] = true

		valTok, err := dec.Token()
		if err != nil {
			return 0, 0, fmt.Errorf("%w: malformed json: %w", ranking.ErrInvalidInput, err)
		}

		switch key {
		case "userId":
			v, err := parseWireUint64(valTok, key)
			if err != nil {
				return 0, 0, err
			}
			userID = &v
		case "points":
			v, err := parseWireUint64(valTok, key)
			if err != nil {
				return 0, 0, err
			}
			points = &v
		default:
			return 0, 0, fmt.Errorf("%w: unknown field %q", ranking.ErrInvalidInput, key)
		}
	}

	if _, err := dec.Token(); err != nil { // closing '}'
		return 0, 0, fmt.Errorf("%w: malformed json: %w", ranking.ErrInvalidInput, err)
	}
	if dec.More() {
		return 0, 0, fmt.Errorf("%w: trailing data after json object", ranking.ErrInvalidInput)
	}

	if userID == nil {
		return 0, 0, fmt.Errorf("%w: missing field %q", ranking.ErrInvalidInput, "userId")
	}
	if points == nil {
		return 0, 0, fmt.Errorf("%w: missing field %q", ranking.ErrInvalidInput, "points")
	}
	return types.UserID(*userID), types.Score(*points), nil
}

func parseWireUint64(tok json.Token, field string) (uint64, error) {
	if tok == nil {
		return 0, fmt.Errorf("%w: field %q must not be null", ranking.ErrInvalidInput, field)
	}
	num, ok := tok.(json.Number)
	if !ok {
		return 0, fmt.Errorf("%w: field %q must be an integer", ranking.ErrInvalidInput, field)
	}
	v, err := strconv.ParseUint(num.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: field %q must be a non-negative 64-bit integer: %w", ranking.ErrInvalidInput, field, err)
	}
	return v, nil
}
