// Package cell implements the concurrent ranking cell: a single
// shared reference to the current ranking state, mutated by
// read-modify-write under a mutex. Readers copy the current reference
// under a brief lock and then operate on the immutable snapshot
// without any further synchronization.
package cell

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rankstack/highscore/internal/domain/ranking"
	"github.com/rankstack/highscore/internal/domain/types"
	"github.com/rankstack/highscore/pkg/logger"
	"github.com/rankstack/highscore/pkg/metrics"
)

// Cell owns the current ranking state for the lifetime of the
// process. The zero value is not ready to use; call New.
type Cell struct {
	mu     sync.Mutex
	state  ranking.State
	logger logger.Logger
}

// New returns a Cell initialized to the empty ranking.
func New() *Cell {
	return &Cell{state: ranking.Empty(), logger: logger.Get().Named("cell")}
}

// Add credits user with earned points, replacing the cell's state
// with the result. It is the only mutating operation; it is
// linearizable against every other Add. ctx carries no cancellation
// point today, since a single AVL update never blocks, but is
// accepted for consistency with the rest of the request path, and is
// attached to every log record emitted here.
func (c *Cell) Add(ctx context.Context, user types.UserID, earned types.Score) error {
	start := time.Now()
	next, err := c.addLocked(ctx, user, earned)
	metrics.RecordCellAddLatency(time.Since(start))
	if err == nil {
		metrics.RecordCellSwap()
		metrics.UpdatePopulation(next.Count())
	}
	return err
}

// addLocked performs the compute-then-swap step under the lock. A
// panic out of ranking.State.AddScore means an invariant it relies on
// has been violated elsewhere in this package or in pom; that is a
// programming error, not a runtime condition a caller can act on, so
// it is logged at Fatal and the process exits rather than being
// returned as an error.
func (c *Cell) addLocked(ctx context.Context, user types.UserID, earned types.Score) (next ranking.State, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			c.logger.Fatal(ctx, "ranking invariant violated", logger.Any("panic", r), logger.Any("user", user))
		}
	}()

	next, err = c.state.AddScore(user, earned)
	if err != nil {
		if errors.Is(err, ranking.ErrCapacityExceeded) {
			c.logger.Warn(ctx, "score would overflow", logger.Any("user", user), logger.Any("earned", earned))
		}
		return next, err
	}
	c.state = next
	return next, nil
}

// Find returns the current score and position for user. A panic out
// of ranking.State.FindUser signals the same class of invariant
// violation as addLocked's and is handled the same way: logged at
// Fatal, then the process exits.
func (c *Cell) Find(ctx context.Context, user types.UserID) (entry types.Entry, ok bool) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Fatal(ctx, "ranking invariant violated", logger.Any("panic", r), logger.Any("user", user))
		}
	}()

	snapshot := c.snapshot()
	entry, ok = snapshot.FindUser(user)
	metrics.RecordCellFindLatency(time.Since(start))
	return entry, ok
}

// Top returns up to maxUsers leaderboard entries ordered by rank.
func (c *Cell) Top(_ context.Context, maxUsers int) []types.Entry {
	start := time.Now()
	snapshot := c.snapshot()
	entries := snapshot.TopN(maxUsers)
	metrics.RecordCellTopLatency(time.Since(start))
	return entries
}

// snapshot copies the current state reference under the lock and
// returns it for lock-free reading. ranking.State is an immutable
// value (two pom.Map values, themselves immutable pointers), so this
// copy is O(1) and safe to use after the lock is released.
func (c *Cell) snapshot() ranking.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
