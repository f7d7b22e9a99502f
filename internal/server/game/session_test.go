package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mixtape/internal/server/core"
)

func TestSessionFullPlaythrough(t *testing.T) {
	sel := NewSelector(rand.NewSource(11))
	pool := testPool(4)

	s := NewSession()
	s.Begin(poolIDs(pool), len(pool))
	assert.Equal(t, core.PhaseInRound, s.Phase())

	rounds := 0
	for !s.AllShown() {
		require.Less(t, rounds, len(pool), "session must terminate after the pool is exhausted")

		before := len(s.RemainingIDs())
		r, err := sel.Select(pool, s.RemainingIDs())
		require.NoError(t, err)
		s.SetRound(r)

		_, err = s.ApplyGuess(r.Subject.Name)
		require.NoError(t, err)
		rounds++

		assert.Equal(t, before-1, len(s.RemainingIDs()), "remaining must shrink by exactly one per guess")
	}

	assert.Equal(t, len(pool), rounds, "rounds shown must equal pool size")
	assert.Empty(t, s.RemainingIDs())
	assert.Equal(t, core.Score{Right: 4, Total: 4}, s.Score())
	assert.Len(t, s.History(), 4)
	assert.Equal(t, core.PhaseAllShown, s.Phase())
}

func TestApplyGuessWithoutPendingRound(t *testing.T) {
	s := NewSession()
	s.Begin([]int64{1, 2, 3}, 3)

	_, err := s.ApplyGuess("Alice")
	assert.ErrorIs(t, err, ErrNoPendingRound)
	assert.Equal(t, core.Score{}, s.Score(), "stale guess must not score")
	assert.Empty(t, s.History())
}

func TestDoubleSubmitScoresOnce(t *testing.T) {
	pool := testPool(3)
	s := NewSession()
	s.Begin(poolIDs(pool), 3)
	s.SetRound(Round{Subject: pool[0], Choices: []string{"Alice", "Bob", "Carol"}})

	_, err := s.ApplyGuess("Alice")
	require.NoError(t, err)

	_, err = s.ApplyGuess("Alice")
	assert.ErrorIs(t, err, ErrNoPendingRound)
	assert.Equal(t, core.Score{Right: 1, Total: 1}, s.Score())
}

func TestPendingRoundSurvivesReload(t *testing.T) {
	pool := testPool(3)
	s := NewSession()
	s.Begin(poolIDs(pool), 3)

	first := s.SetRound(Round{Subject: pool[1], Choices: []string{"Bob", "Alice", "Carol"}})

	// A second draw while one is pending must not replace it.
	again := s.SetRound(Round{Subject: pool[2], Choices: []string{"Carol", "Bob", "Alice"}})
	assert.Equal(t, first, again)

	pending := s.PendingRound()
	require.NotNil(t, pending)
	assert.Equal(t, first.Subject, pending.Subject)
	assert.Equal(t, first.Choices, pending.Choices)
}

func TestBeginIsIdempotent(t *testing.T) {
	s := NewSession()
	s.Begin([]int64{1, 2, 3}, 5)
	s.Begin([]int64{9}, 9)

	assert.ElementsMatch(t, []int64{1, 2, 3}, s.RemainingIDs())
	assert.Equal(t, 5, s.TotalPeople(), "progress denominator is fixed at session start")
}

func TestMarkNameSubmitted(t *testing.T) {
	pool := testPool(3)
	s := NewSession()
	s.Begin(poolIDs(pool), 3)

	assert.False(t, s.MarkNameSubmitted(), "not allowed before the session finishes")

	for _, p := range pool {
		s.SetRound(Round{Subject: p, Choices: []string{"x", "y", p.Name}})
		_, err := s.ApplyGuess(p.Name)
		require.NoError(t, err)
	}
	require.True(t, s.AllShown())

	assert.True(t, s.MarkNameSubmitted(), "first submission claims the guard")
	assert.False(t, s.MarkNameSubmitted(), "second submission must be a no-op")
	assert.Equal(t, core.PhaseNameResolved, s.Phase())
}

func TestReleaseNameGuard(t *testing.T) {
	pool := testPool(3)
	s := NewSession()
	s.Begin(poolIDs(pool), 3)

	for _, p := range pool {
		s.SetRound(Round{Subject: p, Choices: []string{"x", "y", p.Name}})
		_, err := s.ApplyGuess(p.Name)
		require.NoError(t, err)
	}

	require.True(t, s.MarkNameSubmitted())
	s.ReleaseNameGuard()
	assert.True(t, s.MarkNameSubmitted(), "released guard must be claimable again")
}

func TestPruneRemaining(t *testing.T) {
	s := NewSession()
	s.Begin([]int64{1, 2, 3}, 3)

	s.PruneRemaining(map[int64]struct{}{1: {}, 3: {}})
	assert.ElementsMatch(t, []int64{1, 3}, s.RemainingIDs())
	assert.False(t, s.AllShown())

	// Nothing playable left finishes the session
	s.PruneRemaining(map[int64]struct{}{5: {}})
	assert.Empty(t, s.RemainingIDs())
	assert.True(t, s.AllShown())
}

func TestPruneRemainingDiscardsDeadPendingRound(t *testing.T) {
	pool := testPool(4)
	s := NewSession()
	s.Begin(poolIDs(pool), 4)
	s.SetRound(Round{Subject: pool[1], Choices: []string{"Bob", "Alice", "Carol"}})

	alive := map[int64]struct{}{1: {}, 3: {}, 4: {}} // Bob (id 2) removed
	s.PruneRemaining(alive)

	assert.Nil(t, s.PendingRound(), "a round for a removed subject must be redrawn")
	assert.ElementsMatch(t, []int64{1, 3, 4}, s.RemainingIDs())
	assert.False(t, s.AllShown())
}

func TestReset(t *testing.T) {
	pool := testPool(3)
	s := NewSession()
	s.Begin(poolIDs(pool), 3)
	s.SetRound(Round{Subject: pool[0], Choices: []string{"Alice", "Bob", "Carol"}})
	_, err := s.ApplyGuess("Bob")
	require.NoError(t, err)

	s.Reset()

	assert.Equal(t, core.PhaseNotStarted, s.Phase())
	assert.False(t, s.Started())
	assert.Nil(t, s.PendingRound())
	assert.Equal(t, core.Score{}, s.Score())
	assert.Empty(t, s.History())
	assert.Nil(t, s.LastResult())
	assert.Zero(t, s.TotalPeople())
}
