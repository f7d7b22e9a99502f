package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPool(n int) []Participant {
	names := []string{"Alice", "Bob", "Carol", "Dave", "Erin", "Frank"}
	pool := make([]Participant, 0, n)
	for i := 0; i < n; i++ {
		pool = append(pool, Participant{
			ID:     int64(i + 1),
			Name:   names[i],
			Tracks: []string{"t1", "t2", "t3"},
		})
	}
	return pool
}

func poolIDs(pool []Participant) []int64 {
	ids := make([]int64, len(pool))
	for i, p := range pool {
		ids[i] = p.ID
	}
	return ids
}

func TestSelectChoiceSetShape(t *testing.T) {
	sel := NewSelector(rand.NewSource(1))
	pool := testPool(5)
	remaining := poolIDs(pool)

	for i := 0; i < 500; i++ {
		r, err := sel.Select(pool, remaining)
		require.NoError(t, err)

		require.Len(t, r.Choices, 3)

		seen := map[string]bool{}
		subjectCount := 0
		for _, name := range r.Choices {
			assert.False(t, seen[name], "duplicate choice %q", name)
			seen[name] = true
			if name == r.Subject.Name {
				subjectCount++
			}
		}
		assert.Equal(t, 1, subjectCount, "subject must appear exactly once")
	}
}

func TestSelectSubjectPositionUniform(t *testing.T) {
	sel := NewSelector(rand.NewSource(42))
	pool := testPool(4)
	remaining := poolIDs(pool)

	const trials = 3000
	var positions [3]int
	for i := 0; i < trials; i++ {
		r, err := sel.Select(pool, remaining)
		require.NoError(t, err)
		for pos, name := range r.Choices {
			if name == r.Subject.Name {
				positions[pos]++
			}
		}
	}

	// Each position should land near trials/3; a 20% band is far looser
	// than the binomial spread at this sample size.
	for pos, count := range positions {
		assert.InDelta(t, trials/3, count, trials/5, "position %d", pos)
	}
}

func TestSelectSubjectDrawnFromRemainingOnly(t *testing.T) {
	sel := NewSelector(rand.NewSource(7))
	pool := testPool(5)

	for i := 0; i < 100; i++ {
		r, err := sel.Select(pool, []int64{3})
		require.NoError(t, err)
		assert.Equal(t, int64(3), r.Subject.ID)
		assert.Contains(t, r.Choices, r.Subject.Name)
	}
}

func TestSelectErrors(t *testing.T) {
	sel := NewSelector(rand.NewSource(1))

	tests := []struct {
		name      string
		pool      []Participant
		remaining []int64
		wantErr   error
	}{
		{
			name:      "pool below fairness floor",
			pool:      testPool(2),
			remaining: []int64{1, 2},
			wantErr:   ErrNeedMorePlayers,
		},
		{
			name:      "empty remaining",
			pool:      testPool(4),
			remaining: nil,
		},
		{
			name:      "remaining id outside pool",
			pool:      testPool(3),
			remaining: []int64{99},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sel.Select(tt.pool, tt.remaining)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
