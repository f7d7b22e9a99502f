package storage

import (
	"database/sql"
	"errors"
)

// chameleonMinGuesses is the attempts floor below which a participant
// cannot win the chameleon award.
const chameleonMinGuesses = 3

// Chameleon describes the most-often-misguessed participant
type Chameleon struct {
	Name           string
	CorrectGuesses int
	TotalGuesses   int
	SuccessRate    float64
}

// RecordGuess increments the subject's guess counters. The single upsert
// statement keeps the read-modify-write atomic under concurrent guesses
// from different sessions on the same subject.
func (s *Store) RecordGuess(participantID int64, correct bool) error {
	inc := 0
	if correct {
		inc = 1
	}
	_, err := s.db.Exec(`INSERT INTO participant_stats (participant_id, correct_guesses, total_guesses)
		VALUES (?, ?, 1)
		ON CONFLICT(participant_id) DO UPDATE SET
			correct_guesses = correct_guesses + excluded.correct_guesses,
			total_guesses = total_guesses + 1`,
		participantID, inc)
	return err
}

// StatsFor returns the guess counters for a participant, or nil if no
// guess has been recorded yet.
func (s *Store) StatsFor(participantID int64) (*StatsRecord, error) {
	var rec StatsRecord
	err := s.db.QueryRow(`SELECT participant_id, correct_guesses, total_guesses
		FROM participant_stats WHERE participant_id = ?`, participantID).
		Scan(&rec.ParticipantID, &rec.CorrectGuesses, &rec.TotalGuesses)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// BestChameleon returns the participant least often guessed correctly
// among those with at least chameleonMinGuesses attempts, ties broken by
// the higher attempt count. Returns nil when nobody qualifies.
func (s *Store) BestChameleon() (*Chameleon, error) {
	var c Chameleon
	err := s.db.QueryRow(`SELECT p.name, ps.correct_guesses, ps.total_guesses,
			ROUND(ps.correct_guesses * 100.0 / ps.total_guesses, 1) AS success_rate
		FROM participant_stats ps
		JOIN participants p ON ps.participant_id = p.id
		WHERE ps.total_guesses >= ?
		ORDER BY success_rate ASC, ps.total_guesses DESC
		LIMIT 1`, chameleonMinGuesses).
		Scan(&c.Name, &c.CorrectGuesses, &c.TotalGuesses, &c.SuccessRate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
