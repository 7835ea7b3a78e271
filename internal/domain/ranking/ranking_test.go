package ranking_test

import (
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/rankstack/highscore/internal/domain/ranking"
	"github.com/rankstack/highscore/internal/domain/types"
)

func mustAdd(t *testing.T, s ranking.State, user types.UserID, points types.Score) ranking.State {
	t.Helper()
	next, err := s.AddScore(user, points)
	if err != nil {
		t.Fatalf("AddScore(%d, %d) failed: %v", user, points, err)
	}
	return next
}

func TestScenario1_MixedScoresAndTies(t *testing.T) {
	s := ranking.Empty()
	s = mustAdd(t, s, 555, 70)
	s = mustAdd(t, s, 777, 80)
	s = mustAdd(t, s, 555, 90)
	s = mustAdd(t, s, 888, 80)
	s = mustAdd(t, s, 333, 20)

	want := []types.Entry{
		{UserID: 555, Score: 160, Position: 1},
		{UserID: 777, Score: 80, Position: 2},
		{UserID: 888, Score: 80, Position: 2},
		{UserID: 333, Score: 20, Position: 4},
	}
	got := s.TopN(1000)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("TopN(1000) = %+v, want %+v", got, want)
	}

	entry, ok := s.FindUser(777)
	if !ok || entry != (types.Entry{UserID: 777, Score: 80, Position: 2}) {
		t.Fatalf("FindUser(777) = %+v, %v, want (777,80,2), true", entry, ok)
	}

	if _, ok := s.FindUser(9999); ok {
		t.Fatalf("FindUser(9999) should be absent")
	}
}

func TestScenario2_ThreeWayTie(t *testing.T) {
	s := ranking.Empty()
	s = mustAdd(t, s, 1, 50)
	s = mustAdd(t, s, 2, 50)
	s = mustAdd(t, s, 3, 50)

	want := []types.Entry{
		{UserID: 1, Score: 50, Position: 1},
		{UserID: 2, Score: 50, Position: 1},
		{UserID: 3, Score: 50, Position: 1},
	}
	if got := s.TopN(10); !reflect.DeepEqual(got, want) {
		t.Fatalf("TopN(10) = %+v, want %+v", got, want)
	}
}

func TestScenario3_ZeroScoreFirstContact(t *testing.T) {
	s := ranking.Empty()
	s = mustAdd(t, s, 10, 0)

	entry, ok := s.FindUser(10)
	if !ok || entry != (types.Entry{UserID: 10, Score: 0, Position: 1}) {
		t.Fatalf("FindUser(10) = %+v, %v, want (10,0,1), true", entry, ok)
	}
	want := []types.Entry{{UserID: 10, Score: 0, Position: 1}}
	if got := s.TopN(10); !reflect.DeepEqual(got, want) {
		t.Fatalf("TopN(10) = %+v, want %+v", got, want)
	}
}

func TestScenario4_IdempotenceOfZero(t *testing.T) {
	s := ranking.Empty()
	after100 := mustAdd(t, s, 1, 100)
	after0, err := after100.AddScore(1, 0)
	if err != nil {
		t.Fatalf("AddScore(1, 0) failed: %v", err)
	}

	if !reflect.DeepEqual(after0, after100) {
		t.Fatalf("adding 0 points to an existing user changed the state")
	}
}

func TestScenario5_TwentyUsersTopFive(t *testing.T) {
	s := ranking.Empty()
	for i := types.UserID(1); i <= 20; i++ {
		s = mustAdd(t, s, i, types.Score(i))
	}

	want := []types.Entry{
		{UserID: 20, Score: 20, Position: 1},
		{UserID: 19, Score: 19, Position: 2},
		{UserID: 18, Score: 18, Position: 3},
		{UserID: 17, Score: 17, Position: 4},
		{UserID: 16, Score: 16, Position: 5},
	}
	if got := s.TopN(5); !reflect.DeepEqual(got, want) {
		t.Fatalf("TopN(5) = %+v, want %+v", got, want)
	}

	entry, ok := s.FindUser(10)
	if !ok || entry != (types.Entry{UserID: 10, Score: 10, Position: 11}) {
		t.Fatalf("FindUser(10) = %+v, %v, want (10,10,11), true", entry, ok)
	}
}

func TestScenario6_ConcurrentWriters(t *testing.T) {
	const (
		numThreads = 8
		numCalls   = 500
		numUsers   = 16
	)

	var mu sync.Mutex
	s := ranking.Empty()
	contributed := make(map[types.UserID]uint64)

	var wg sync.WaitGroup
	for thread := 0; thread < numThreads; thread++ {
		wg.Add(1)
		go func(thread int) {
			defer wg.Done()
			for i := 0; i < numCalls; i++ {
				user := types.UserID((thread*numCalls + i) % numUsers)
				points := types.Score((uint64(thread*numCalls+i) * 271) % 50)

				mu.Lock()
				next, err := s.AddScore(user, points)
				if err != nil {
					mu.Unlock()
					t.Errorf("AddScore failed: %v", err)
					return
				}
				s = next
				contributed[user] += uint64(points)
				mu.Unlock()
			}
		}(thread)
	}
	wg.Wait()

	if !s.CheckInvariants() {
		t.Fatalf("invariants violated after concurrent writers")
	}
	for user, want := range contributed {
		entry, ok := s.FindUser(user)
		if !ok {
			t.Fatalf("user %d missing after concurrent writes", user)
		}
		if uint64(entry.Score) != want {
			t.Fatalf("user %d: score = %d, want %d", user, entry.Score, want)
		}
	}
}

func TestBoundary_EmptyState(t *testing.T) {
	s := ranking.Empty()
	if _, ok := s.FindUser(1); ok {
		t.Fatalf("FindUser on empty state must report absent")
	}
	if got := s.TopN(10); len(got) != 0 {
		t.Fatalf("TopN(10) on empty state = %v, want empty", got)
	}
}

func TestBoundary_TopNZeroAndOverPopulation(t *testing.T) {
	s := ranking.Empty()
	s = mustAdd(t, s, 1, 10)
	s = mustAdd(t, s, 2, 20)

	if got := s.TopN(0); len(got) != 0 {
		t.Fatalf("TopN(0) = %v, want empty", got)
	}
	if got := s.TopN(1000); len(got) != 2 {
		t.Fatalf("TopN(1000) with population 2 returned %d entries, want 2", len(got))
	}
}

func TestAdditivity(t *testing.T) {
	base := ranking.Empty()
	base = mustAdd(t, base, 1, 30)
	base = mustAdd(t, base, 2, 40)

	sequential := mustAdd(t, mustAdd(t, base, 1, 5), 1, 7)
	combined := mustAdd(t, base, 1, 12)

	seqEntry, _ := sequential.FindUser(1)
	combEntry, _ := combined.FindUser(1)
	if seqEntry != combEntry {
		t.Fatalf("additivity violated: sequential=%+v combined=%+v", seqEntry, combEntry)
	}
	if !reflect.DeepEqual(sequential.TopN(10), combined.TopN(10)) {
		t.Fatalf("additivity violated in TopN output")
	}
}

func TestCapacityExceeded(t *testing.T) {
	s := ranking.Empty()
	s = mustAdd(t, s, 1, types.Score(math.MaxUint64))

	_, err := s.AddScore(1, 1)
	if !errors.Is(err, ranking.ErrCapacityExceeded) {
		t.Fatalf("AddScore overflow: err = %v, want ErrCapacityExceeded", err)
	}
}

func TestInvariants_BijectiveConsistency(t *testing.T) {
	s := ranking.Empty()
	s = mustAdd(t, s, 1, 10)
	s = mustAdd(t, s, 2, 10)
	s = mustAdd(t, s, 3, 20)
	s = mustAdd(t, s, 2, 5)

	if !s.CheckInvariants() {
		t.Fatalf("invariants violated")
	}
}
