package service

import (
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mixtape/internal/server/core"
	"mixtape/internal/server/game"
	"mixtape/internal/server/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	store, err := storage.NewStore(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, store.InitDB())
	t.Cleanup(func() { store.Close() })

	return New(store, game.NewSelector(rand.NewSource(1)))
}

func addPlayers(t *testing.T, svc *Service, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, svc.AddOrUpdateParticipant(name, name+"-t1", name+"-t2", name+"-t3"))
	}
}

// playThrough answers every round until the session finishes, returning
// the number of rounds played.
func playThrough(t *testing.T, svc *Service, token string) int {
	t.Helper()

	rounds := 0
	for {
		resp, err := svc.StartOrContinueRound(token)
		require.NoError(t, err)
		if resp.State == core.RoundStateFinished {
			return rounds
		}
		require.Equal(t, core.RoundStateRound, resp.State)

		_, err = svc.SubmitGuess(token, resp.Choices[0])
		require.NoError(t, err)
		rounds++
		require.LessOrEqual(t, rounds, 100, "session failed to terminate")
	}
}

func TestAddOrUpdateParticipantValidation(t *testing.T) {
	svc := newTestService(t)

	assert.ErrorIs(t, svc.AddOrUpdateParticipant("", "a", "b", "c"), ErrValidation)
	assert.ErrorIs(t, svc.AddOrUpdateParticipant("Alice", "a", " ", "c"), ErrValidation)
	assert.NoError(t, svc.AddOrUpdateParticipant("Alice", "a", "b", "c"))
}

func TestAddParticipantExtractsTrackLinks(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, svc.AddOrUpdateParticipant("Alice",
		"https://open.spotify.com/track/AAA?si=x",
		"https://open.spotify.com/track/BBB/whatever",
		"CCC",
	))

	participants, err := svc.Participants()
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, []string{"AAA", "BBB", "CCC"}, participants[0].Tracks)
}

func TestRoundStates(t *testing.T) {
	svc := newTestService(t)
	token := svc.NewToken()

	resp, err := svc.StartOrContinueRound(token)
	require.NoError(t, err)
	assert.Equal(t, core.RoundStateEmptyPool, resp.State)

	addPlayers(t, svc, "Alice", "Bob")
	resp, err = svc.StartOrContinueRound(token)
	require.NoError(t, err)
	assert.Equal(t, core.RoundStateNeedMorePlayers, resp.State)
	assert.Equal(t, 2, resp.PlayerCount)

	addPlayers(t, svc, "Carol")
	resp, err = svc.StartOrContinueRound(token)
	require.NoError(t, err)
	assert.Equal(t, core.RoundStateRound, resp.State)
	assert.Len(t, resp.Choices, 3)
	assert.Len(t, resp.TrackIDs, 3)
	require.NotNil(t, resp.Progress)
	assert.Equal(t, 3, resp.Progress.TotalPeople)
	assert.Equal(t, core.Score{}, resp.Progress.Score)
}

func TestRoundIsStableAcrossReloads(t *testing.T) {
	svc := newTestService(t)
	addPlayers(t, svc, "Alice", "Bob", "Carol", "Dave")
	token := svc.NewToken()

	first, err := svc.StartOrContinueRound(token)
	require.NoError(t, err)
	second, err := svc.StartOrContinueRound(token)
	require.NoError(t, err)

	assert.Equal(t, first.TrackIDs, second.TrackIDs, "reload must not redraw the round")
	assert.Equal(t, first.Choices, second.Choices)
}

func TestSubmitGuessStale(t *testing.T) {
	svc := newTestService(t)
	addPlayers(t, svc, "Alice", "Bob", "Carol")
	token := svc.NewToken()

	_, err := svc.SubmitGuess(token, "Alice")
	assert.ErrorIs(t, err, game.ErrNoPendingRound)
}

func TestFullGameFlow(t *testing.T) {
	svc := newTestService(t)
	submitted := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return submitted }

	addPlayers(t, svc, "Alice", "Bob", "Carol")
	token := svc.NewToken()

	rounds := playThrough(t, svc, token)
	assert.Equal(t, 3, rounds, "every participant is shown exactly once")

	// Every subject was guessed at exactly once
	participants, err := svc.Participants()
	require.NoError(t, err)
	for _, p := range participants {
		rec, err := svc.store.StatsFor(p.ID)
		require.NoError(t, err)
		require.NotNil(t, rec, "participant %s missing stats", p.Name)
		assert.Equal(t, 1, rec.TotalGuesses)
	}

	summary, err := svc.FinishedSummary(token)
	require.NoError(t, err)
	assert.True(t, summary.ShowNameModal)
	assert.Equal(t, core.PhaseAllShown.String(), summary.Phase)
	assert.Len(t, summary.History, 3)
	assert.Equal(t, 3, summary.Score.Total)
	require.NotNil(t, summary.LastResult)

	require.NoError(t, svc.SubmitName(token, "player one"))

	entries, err := svc.Leaderboard(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "player one", entries[0].Name)
	assert.Equal(t, summary.Score.Total, entries[0].Total)
	assert.Equal(t, percent(summary.Score), entries[0].Percent)

	// Second submission and a late skip are both no-ops
	require.NoError(t, svc.SubmitName(token, "player one again"))
	require.NoError(t, svc.SkipName(token))
	entries, err = svc.Leaderboard(0)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "one leaderboard entry per session, ever")

	summary, err = svc.FinishedSummary(token)
	require.NoError(t, err)
	assert.False(t, summary.ShowNameModal)
	assert.Equal(t, core.PhaseNameResolved.String(), summary.Phase)
}

func TestSubmitNameRetryAfterStorageFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixtape.db")
	store, err := storage.NewStore(path, false)
	require.NoError(t, err)
	require.NoError(t, store.InitDB())

	svc := New(store, game.NewSelector(rand.NewSource(1)))
	addPlayers(t, svc, "Alice", "Bob", "Carol")
	token := svc.NewToken()
	playThrough(t, svc, token)

	// The leaderboard write fails while storage is down
	require.NoError(t, store.Close())
	require.Error(t, svc.SubmitName(token, "player one"))

	// The failed write must not consume the one-entry guard; once storage
	// is back a retry writes the entry.
	reopened, err := storage.NewStore(path, false)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })
	svc.store = reopened

	require.NoError(t, svc.SubmitName(token, "player one"))
	entries, err := svc.Leaderboard(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "player one", entries[0].Name)
}

func TestRemovedParticipantMidSession(t *testing.T) {
	svc := newTestService(t)
	names := []string{"Alice", "Bob", "Carol", "Dave"}
	addPlayers(t, svc, names...)
	token := svc.NewToken()

	first, err := svc.StartOrContinueRound(token)
	require.NoError(t, err)
	require.Equal(t, core.RoundStateRound, first.State)
	guess, err := svc.SubmitGuess(token, first.Choices[0])
	require.NoError(t, err)

	// Remove someone still in the remaining set
	removed := ""
	for _, name := range names {
		if name != guess.Correct {
			removed = name
			break
		}
	}
	n, err := svc.store.DeleteParticipant(removed)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	rounds := playThrough(t, svc, token)
	assert.Equal(t, 2, rounds, "removed participant is skipped, not served as a dead round")
}

func TestSkipNameWritesNoEntry(t *testing.T) {
	svc := newTestService(t)
	addPlayers(t, svc, "Alice", "Bob", "Carol")
	token := svc.NewToken()
	playThrough(t, svc, token)

	require.NoError(t, svc.SkipName(token))

	entries, err := svc.Leaderboard(0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// The name prompt is resolved; a later submit must not write either
	require.NoError(t, svc.SubmitName(token, "too late"))
	entries, err = svc.Leaderboard(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSubmitNameGating(t *testing.T) {
	svc := newTestService(t)
	addPlayers(t, svc, "Alice", "Bob", "Carol")
	token := svc.NewToken()

	assert.ErrorIs(t, svc.SubmitName(token, "eager"), ErrNotFinished)
	assert.ErrorIs(t, svc.SkipName(token), ErrNotFinished)

	playThrough(t, svc, token)
	assert.ErrorIs(t, svc.SubmitName(token, "   "), ErrEmptyName)
}

func TestResetSession(t *testing.T) {
	svc := newTestService(t)
	addPlayers(t, svc, "Alice", "Bob", "Carol")
	token := svc.NewToken()
	playThrough(t, svc, token)

	svc.ResetSession(token)

	resp, err := svc.StartOrContinueRound(token)
	require.NoError(t, err)
	assert.Equal(t, core.RoundStateRound, resp.State, "reset session plays again from scratch")
	require.NotNil(t, resp.Progress)
	assert.Equal(t, core.Score{}, resp.Progress.Score)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 66, percent(core.Score{Right: 2, Total: 3}))
	assert.Equal(t, 0, percent(core.Score{}))
	assert.Equal(t, 100, percent(core.Score{Right: 5, Total: 5}))
}

func TestCleanupIdleSessions(t *testing.T) {
	svc := newTestService(t)
	addPlayers(t, svc, "Alice", "Bob", "Carol")

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return current }

	stale := svc.NewToken()
	_, err := svc.StartOrContinueRound(stale)
	require.NoError(t, err)

	current = current.Add(SessionTTL + time.Hour)
	fresh := svc.NewToken()
	_, err = svc.StartOrContinueRound(fresh)
	require.NoError(t, err)

	svc.cleanupIdleSessions()
	assert.Equal(t, 1, svc.SessionCount(), "idle session dropped, fresh one kept")
}
