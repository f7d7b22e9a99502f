package service

import (
	"fmt"
	"strings"

	"mixtape/internal/server/core"
	"mixtape/internal/server/game"
	"mixtape/internal/server/storage"
)

// StartOrContinueRound returns the round a session should be looking at.
// While a round is pending (e.g. the page was reloaded before a guess) the
// same subject and choices come back; a new round is drawn only when no
// round is pending and participants remain.
func (s *Service) StartOrContinueRound(token string) (core.RoundResponse, error) {
	pool, err := s.store.EligibleParticipants()
	if err != nil {
		return core.RoundResponse{}, fmt.Errorf("failed to load participants: %w", err)
	}

	if len(pool) == 0 {
		return core.RoundResponse{State: core.RoundStateEmptyPool}, nil
	}
	if len(pool) < game.MinPoolSize {
		return core.RoundResponse{
			State:       core.RoundStateNeedMorePlayers,
			PlayerCount: len(pool),
		}, nil
	}

	sess := s.session(token)
	if sess.AllShown() {
		return core.RoundResponse{State: core.RoundStateFinished}, nil
	}

	if !sess.Started() {
		// The progress denominator counts everyone, eligible or not, and
		// is snapshotted so the percentage stays stable mid-session.
		total, err := s.store.CountParticipants()
		if err != nil {
			return core.RoundResponse{}, fmt.Errorf("failed to count participants: %w", err)
		}
		ids := make([]int64, len(pool))
		for i, p := range pool {
			ids[i] = p.ID
		}
		sess.Begin(ids, total)
	}

	// Participants can be removed while a session is underway (admin CLI);
	// their ids must not linger in the remaining set and wedge the draw.
	alive := make(map[int64]struct{}, len(pool))
	for _, p := range pool {
		alive[p.ID] = struct{}{}
	}
	sess.PruneRemaining(alive)
	if sess.AllShown() {
		return core.RoundResponse{State: core.RoundStateFinished}, nil
	}

	round := sess.PendingRound()
	if round == nil {
		drawn, err := s.selector.Select(toGameParticipants(pool), sess.RemainingIDs())
		if err != nil {
			return core.RoundResponse{}, fmt.Errorf("failed to select round: %w", err)
		}
		kept := sess.SetRound(drawn)
		round = &kept
	}

	return core.RoundResponse{
		State:    core.RoundStateRound,
		TrackIDs: round.Subject.Tracks,
		Choices:  round.Choices,
		Progress: s.progress(sess),
	}, nil
}

// SubmitGuess scores the pending round. With no round pending the guess is
// stale (replay, double-click) and game.ErrNoPendingRound comes back with
// nothing scored.
func (s *Service) SubmitGuess(token, chosen string) (core.GuessResponse, error) {
	sess := s.session(token)

	round := sess.PendingRound()
	if round == nil {
		return core.GuessResponse{}, game.ErrNoPendingRound
	}

	// The stats ledger update precedes the session mutation and is not
	// conditioned on the session completing.
	isRight := chosen == round.Subject.Name
	if err := s.store.RecordGuess(round.Subject.ID, isRight); err != nil {
		return core.GuessResponse{}, fmt.Errorf("failed to record guess stats: %w", err)
	}

	out, err := sess.ApplyGuess(chosen)
	if err != nil {
		return core.GuessResponse{}, err
	}

	return core.GuessResponse{
		Chosen:   out.Chosen,
		Correct:  out.Correct,
		IsRight:  out.IsRight,
		Score:    sess.Score(),
		Finished: sess.AllShown(),
	}, nil
}

// FinishedSummary builds the end-of-game report: the session's score and
// history plus the global shared-track analysis, leaderboard top and
// chameleon award.
func (s *Service) FinishedSummary(token string) (core.FinishedResponse, error) {
	sess := s.session(token)

	resp := core.FinishedResponse{
		Phase:         sess.Phase().String(),
		Score:         sess.Score(),
		History:       toHistoryEntries(sess.History()),
		ShowNameModal: sess.AllShown() && !sess.NameSubmitted(),
	}
	if last := sess.LastResult(); last != nil {
		entry := toHistoryEntry(*last)
		resp.LastResult = &entry
	}

	shared, err := s.store.SharedTracks()
	if err != nil {
		return core.FinishedResponse{}, fmt.Errorf("failed to analyze shared tracks: %w", err)
	}
	resp.SharedTracks = make([]core.SharedTrack, 0, len(shared))
	for _, st := range shared {
		resp.SharedTracks = append(resp.SharedTracks, core.SharedTrack{
			TrackID: st.TrackID,
			Owners:  st.Owners,
		})
	}

	top, err := s.store.TopEntries(leaderboardTopCount)
	if err != nil {
		return core.FinishedResponse{}, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	resp.Leaderboard = toLeaderboardEntries(top)

	cham, err := s.store.BestChameleon()
	if err != nil {
		return core.FinishedResponse{}, fmt.Errorf("failed to find chameleon: %w", err)
	}
	if cham != nil {
		resp.Chameleon = &core.ChameleonInfo{
			Name:           cham.Name,
			CorrectGuesses: cham.CorrectGuesses,
			TotalGuesses:   cham.TotalGuesses,
			SuccessRate:    cham.SuccessRate,
		}
	}

	return resp, nil
}

// SubmitName records the player's score on the leaderboard, at most once
// per session.
func (s *Service) SubmitName(token, playerName string) error {
	playerName = strings.TrimSpace(playerName)
	sess := s.session(token)

	if !sess.AllShown() {
		return ErrNotFinished
	}
	if playerName == "" {
		return ErrEmptyName
	}

	// The guard is claimed before the write so a double submission can
	// never produce two entries.
	if !sess.MarkNameSubmitted() {
		return nil
	}

	score := sess.Score()
	rec := storage.LeaderboardRecord{
		Name:      playerName,
		Right:     score.Right,
		Total:     score.Total,
		Percent:   percent(score),
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.InsertEntry(rec); err != nil {
		// A failed write must not consume the guard, or every retry would
		// return nil with no entry ever written.
		sess.ReleaseNameGuard()
		return fmt.Errorf("failed to save leaderboard entry: %w", err)
	}
	return nil
}

// SkipName resolves the name prompt without a leaderboard entry
func (s *Service) SkipName(token string) error {
	sess := s.session(token)
	if !sess.AllShown() {
		return ErrNotFinished
	}
	sess.MarkNameSubmitted()
	return nil
}

// ResetSession clears a session's game state. The token and any identity
// around it survive; leaderboard and stats are untouched.
func (s *Service) ResetSession(token string) {
	if sess, ok := s.lookup(token); ok {
		sess.Reset()
	}
}

func (s *Service) progress(sess *game.Session) *core.Progress {
	score := sess.Score()
	total := sess.TotalPeople()
	pct := 0
	if total > 0 {
		pct = score.Total * 100 / total
	}
	return &core.Progress{Score: score, TotalPeople: total, Percent: pct}
}

// percent floors right*100/total; an empty score yields 0, never a
// division fault.
func percent(score core.Score) int {
	if score.Total == 0 {
		return 0
	}
	return score.Right * 100 / score.Total
}

func toGameParticipants(pool []storage.Participant) []game.Participant {
	out := make([]game.Participant, 0, len(pool))
	for _, p := range pool {
		out = append(out, game.Participant{ID: p.ID, Name: p.Name, Tracks: p.Tracks})
	}
	return out
}

func toHistoryEntry(o game.Outcome) core.HistoryEntry {
	return core.HistoryEntry{
		Chosen:  o.Chosen,
		Correct: o.Correct,
		IsRight: o.IsRight,
		Tracks:  o.Tracks,
	}
}

func toHistoryEntries(outcomes []game.Outcome) []core.HistoryEntry {
	out := make([]core.HistoryEntry, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, toHistoryEntry(o))
	}
	return out
}
