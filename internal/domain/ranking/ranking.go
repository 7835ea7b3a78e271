// Package ranking implements the ranking state: an immutable value
// composed of two persistent weighted ordered maps that together
// encode a live leaderboard, plus the three domain operations that
// interrogate and evolve it.
package ranking

import (
	"errors"
	"math"

	"github.com/rankstack/highscore/internal/domain/pom"
	"github.com/rankstack/highscore/internal/domain/types"
)

// Sentinel error kinds. ErrCapacityExceeded is recoverable at the
// caller; a violated invariant elsewhere in this package (a user with a
// score but no matching bucket, for instance) is a programming error
// and panics instead. ErrInvalidInput marks a wire request that never
// makes it into a domain type at all — the HTTP decode boundary in
// internal/adapters/http/api wraps it, since AddScore itself trusts
// its types.UserID/types.Score arguments and does no input validation
// of its own.
var (
	ErrInvalidInput     = errors.New("ranking: invalid input")
	ErrCapacityExceeded = errors.New("ranking: score would overflow")
)

// unit is the sentinel value stored in the inner, per-score map. It
// carries no payload; the inner map is an ordered set of user ids
// wearing a map's clothes.
type unit struct{}

// State is an immutable snapshot of the leaderboard. The zero value is
// the empty ranking.
type State struct {
	scoreToUsers pom.Map[types.Score, pom.Map[types.UserID, unit]]
	userToScore  pom.Map[types.UserID, types.Score]
}

// Empty returns the initial, empty ranking state.
func Empty() State {
	return State{}
}

// AddScore returns a new State in which user has earned additional
// points on top of any prior score. earned must not overflow the
// user's resulting score; ErrCapacityExceeded is returned (and the
// receiver is returned unchanged) if it would.
//
// Adding zero points to a user who is already present is a no-op that
// returns the receiver itself, unevaluated further, so that repeated
// idempotent updates never allocate new tree nodes.
func (s State) AddScore(user types.UserID, earned types.Score) (State, error) {
	prev, hadPrev := s.userToScore.Get(user)
	if hadPrev && earned == 0 {
		return s, nil
	}

	if hadPrev && uint64(earned) > math.MaxUint64-uint64(prev) {
		return s, ErrCapacityExceeded
	}
	newScore := prev + earned

	outer := s.scoreToUsers
	if hadPrev {
		inner, ok := outer.Get(prev)
		if !ok {
			panic("ranking: user->score entry with no matching score->users bucket")
		}
		inner = inner.Remove(user)
		if inner.IsEmpty() {
			outer = outer.Remove(prev)
		} else {
			outer = outer.Put(prev, inner.TotalWeight(), inner)
		}
	}

	inner, _ := outer.Get(newScore)
	inner = inner.Put(user, 1, unit{})
	outer = outer.Put(newScore, inner.TotalWeight(), inner)

	users := s.userToScore.Put(user, 0, newScore)

	return State{scoreToUsers: outer, userToScore: users}, nil
}

// FindUser returns the user's current score and competition position,
// or false if the user has never been scored.
func (s State) FindUser(user types.UserID) (types.Entry, bool) {
	score, ok := s.userToScore.Get(user)
	if !ok {
		return types.Entry{}, false
	}
	rightW, ok := s.scoreToUsers.RightWeight(score)
	if !ok {
		panic("ranking: score->users has no bucket for a known score")
	}
	return types.Entry{
		UserID:   user,
		Score:    score,
		Position: types.Position(rightW + 1),
	}, true
}

// TopN returns up to maxUsers leaderboard entries, sorted by score
// descending and, within a tie, by user id ascending. Tied users share
// the same competition position. maxUsers <= 0 yields nil.
func (s State) TopN(maxUsers int) []types.Entry {
	if maxUsers <= 0 {
		return nil
	}

	out := make([]types.Entry, 0, maxUsers)
	s.scoreToUsers.ForEachReverse(func(score types.Score, tied pom.Map[types.UserID, unit], _, _, higherCount uint64) bool {
		position := types.Position(higherCount + 1)
		tied.ForEach(func(user types.UserID, _ unit, _, _, _ uint64) bool {
			if len(out) >= maxUsers {
				return false
			}
			out = append(out, types.Entry{UserID: user, Score: score, Position: position})
			return true
		})
		return len(out) < maxUsers
	})
	return out
}

// Count returns the number of distinct users ever scored under this
// state. userToScore's own node weights are always 0 (see AddScore
// step 7: the per-user weight lives on the outer map instead), so the
// population is read off scoreToUsers's total weight, the sum of every
// tied-bucket's cardinality.
func (s State) Count() uint64 {
	return s.scoreToUsers.TotalWeight()
}

// CheckInvariants reports whether both underlying maps still satisfy
// the AVL balance and cached-weight invariants, and whether every
// outer bucket's node weight matches its inner map's cardinality. A
// false result indicates a bug in this package or in pom, not a
// runtime condition a caller can recover from.
func (s State) CheckInvariants() bool {
	if !s.scoreToUsers.CheckInvariants() || !s.userToScore.CheckInvariants() {
		return false
	}
	ok := true
	s.scoreToUsers.ForEach(func(score types.Score, inner pom.Map[types.UserID, unit], _, nodeWeight, _ uint64) bool {
		if inner.IsEmpty() {
			ok = false
			return false
		}
		if nodeWeight != inner.TotalWeight() {
			ok = false
			return false
		}
		return true
	})
	return ok
}
