// Package app wires the ranking engine to its adapters.
package app

import (
	"context"

	"github.com/rankstack/highscore/internal/adapters/cell"
	"github.com/rankstack/highscore/internal/domain/types"
)

// Service is the process-wide ranking engine: a single Concurrent
// Ranking Cell reachable from the HTTP boundary. Its lifetime runs
// from construction to process shutdown.
type Service struct {
	cell *cell.Cell
}

// Option configures a Service.
type Option func(*Service)

// WithCell overrides the cell used by the service. Intended for tests
// that need to preload state before serving traffic.
func WithCell(c *cell.Cell) Option {
	return func(s *Service) {
		if c != nil {
			s.cell = c
		}
	}
}

// New builds a Service backed by a freshly initialized, empty cell.
func New(opts ...Option) *Service {
	s := &Service{cell: cell.New()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add credits user with earned points.
func (s *Service) Add(ctx context.Context, user types.UserID, earned types.Score) error {
	return s.cell.Add(ctx, user, earned)
}

// Find returns the user's current entry, if any.
func (s *Service) Find(ctx context.Context, user types.UserID) (types.Entry, bool) {
	return s.cell.Find(ctx, user)
}

// Top returns up to maxUsers leaderboard entries ordered by rank.
func (s *Service) Top(ctx context.Context, maxUsers int) []types.Entry {
	return s.cell.Top(ctx, maxUsers)
}
