package game

import (
	"errors"
	"sync"

	"mixtape/internal/server/core"
)

// ErrNoPendingRound indicates a guess arrived with no round awaiting one,
// e.g. a replayed form submission. Callers redirect back to round-start
// instead of scoring.
var ErrNoPendingRound = errors.New("no round pending")

// Outcome records one scored guess.
type Outcome struct {
	Chosen  string
	Correct string
	IsRight bool
	Tracks  []string
}

// Session tracks one player's progression through the participant pool.
// It is shared across requests bearing the same token, so every method
// takes the session mutex.
type Session struct {
	mu            sync.Mutex
	started       bool
	remaining     map[int64]struct{}
	allShown      bool
	current       *Round
	score         core.Score
	history       []Outcome
	lastResult    *Outcome
	totalPeople   int
	nameSubmitted bool
}

func NewSession() *Session {
	return &Session{}
}

// Begin initializes the remaining set from the eligible pool. Only the
// first call takes effect, so a session keeps its original pool and
// progress denominator even when participants are added mid-game.
func (s *Session) Begin(ids []int64, totalPeople int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true
	s.remaining = make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		s.remaining[id] = struct{}{}
	}
	s.totalPeople = totalPeople
}

// Phase reports the session's position in the game lifecycle.
func (s *Session) Phase() core.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case !s.started:
		return core.PhaseNotStarted
	case !s.allShown:
		return core.PhaseInRound
	case s.nameSubmitted:
		return core.PhaseNameResolved
	default:
		return core.PhaseAllShown
	}
}

// PendingRound returns a copy of the round awaiting a guess, or nil. A
// page reload between "round shown" and "guess submitted" must see the
// same subject and choices, so callers check this before drawing.
func (s *Session) PendingRound() *Round {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}
	r := *s.current
	return &r
}

// SetRound stores a freshly drawn round. If a round is already pending it
// wins and the new draw is discarded, so concurrent round requests for one
// token cannot fork the session.
func (s *Session) SetRound(r Round) Round {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return *s.current
	}
	s.current = &r
	return r
}

// ApplyGuess consumes the pending round and scores the guess. The round is
// cleared before anything else mutates so a double-submitted guess hits
// ErrNoPendingRound instead of scoring twice.
func (s *Session) ApplyGuess(chosen string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return Outcome{}, ErrNoPendingRound
	}
	r := *s.current
	s.current = nil

	out := Outcome{
		Chosen:  chosen,
		Correct: r.Subject.Name,
		IsRight: chosen == r.Subject.Name,
		Tracks:  r.Subject.Tracks,
	}

	s.score.Total++
	if out.IsRight {
		s.score.Right++
	}
	s.history = append(s.history, out)
	s.lastResult = &out

	delete(s.remaining, r.Subject.ID)
	if len(s.remaining) == 0 {
		s.allShown = true
	}

	return out, nil
}

// MarkNameSubmitted flips the leaderboard guard. It returns true only on
// the first call after the session finishes; callers must not write a
// leaderboard entry otherwise.
func (s *Session) MarkNameSubmitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.allShown || s.nameSubmitted {
		return false
	}
	s.nameSubmitted = true
	return true
}

// ReleaseNameGuard reopens the leaderboard guard. Called when the entry
// write fails after the guard was claimed, so a retry can claim it again
// instead of silently no-opping.
func (s *Session) ReleaseNameGuard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nameSubmitted = false
}

// PruneRemaining drops remaining ids absent from the current pool, e.g. a
// participant removed mid-session. A pending round whose subject was
// pruned is discarded so the next fetch redraws; the session finishes when
// nothing playable is left.
func (s *Session) PruneRemaining(pool map[int64]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	for id := range s.remaining {
		if _, ok := pool[id]; !ok {
			delete(s.remaining, id)
		}
	}
	if s.current != nil {
		if _, ok := pool[s.current.Subject.ID]; !ok {
			s.current = nil
		}
	}
	if len(s.remaining) == 0 {
		s.allShown = true
	}
}

// Reset clears all game state, returning the session to PhaseNotStarted.
// Leaderboard entries and participant stats are untouched.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.started = false
	s.remaining = nil
	s.allShown = false
	s.current = nil
	s.score = core.Score{}
	s.history = nil
	s.lastResult = nil
	s.totalPeople = 0
	s.nameSubmitted = false
}

func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func (s *Session) AllShown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allShown
}

func (s *Session) NameSubmitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nameSubmitted
}

func (s *Session) Score() core.Score {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

func (s *Session) TotalPeople() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalPeople
}

// RemainingIDs returns the ids not yet shown this session.
func (s *Session) RemainingIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.remaining))
	for id := range s.remaining {
		ids = append(ids, id)
	}
	return ids
}

// History returns a copy of the scored rounds in play order.
func (s *Session) History() []Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Outcome, len(s.history))
	copy(out, s.history)
	return out
}

// LastResult returns a copy of the most recent outcome, or nil.
func (s *Session) LastResult() *Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastResult == nil {
		return nil
	}
	out := *s.lastResult
	return &out
}
