package storage

import (
	"database/sql"
	"fmt"
	"sort"
)

// Participant pairs a participant row with its ranked tracks
type Participant struct {
	ID     int64
	Name   string
	Tracks []string
}

// SharedTrack is a track submitted by two or more participants
type SharedTrack struct {
	TrackID string
	Owners  []string
}

// UpsertParticipant inserts the participant if absent and atomically
// replaces their track triple, so a partial triple is never visible.
// Returns the participant's id.
func (s *Store) UpsertParticipant(name string, trackIDs []string) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT OR IGNORE INTO participants (name) VALUES (?)`, name); err != nil {
		return 0, fmt.Errorf("failed to insert participant: %w", err)
	}

	var id int64
	if err := tx.QueryRow(`SELECT id FROM participants WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to look up participant: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM tracks WHERE participant_id = ?`, id); err != nil {
		return 0, fmt.Errorf("failed to clear old tracks: %w", err)
	}

	for i, trackID := range trackIDs {
		if _, err := tx.Exec(
			`INSERT INTO tracks (participant_id, track_id, pos) VALUES (?, ?, ?)`,
			id, trackID, i+1,
		); err != nil {
			return 0, fmt.Errorf("failed to insert track %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return id, nil
}

// DeleteParticipant removes a participant by name; track and stats rows
// follow via ON DELETE CASCADE. Returns the number of participants removed.
func (s *Store) DeleteParticipant(name string) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM participants WHERE name = ?`, name)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// CountParticipants returns the total participant count, eligible or not
func (s *Store) CountParticipants() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM participants`).Scan(&count)
	return count, err
}

// ListParticipants returns all participants with their tracks, ordered by name
func (s *Store) ListParticipants() ([]Participant, error) {
	query := `SELECT p.id, p.name, t.track_id
		FROM participants p
		LEFT JOIN tracks t ON t.participant_id = p.id
		ORDER BY p.name, t.pos`

	return s.queryParticipants(query)
}

// EligibleParticipants returns participants with at least three tracks,
// the only ones valid as round subjects or distractors.
func (s *Store) EligibleParticipants() ([]Participant, error) {
	query := `SELECT p.id, p.name, t.track_id
		FROM participants p
		JOIN tracks t ON t.participant_id = p.id
		WHERE (SELECT COUNT(1) FROM tracks t2 WHERE t2.participant_id = p.id) >= 3
		ORDER BY p.name, t.pos`

	return s.queryParticipants(query)
}

func (s *Store) queryParticipants(query string) ([]Participant, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []Participant
	for rows.Next() {
		var (
			id      int64
			name    string
			trackID sql.NullString
		)
		if err := rows.Scan(&id, &name, &trackID); err != nil {
			return nil, err
		}

		if len(participants) == 0 || participants[len(participants)-1].ID != id {
			participants = append(participants, Participant{ID: id, Name: name})
		}
		if trackID.Valid {
			last := &participants[len(participants)-1]
			last.Tracks = append(last.Tracks, trackID.String)
		}
	}

	return participants, rows.Err()
}

// SharedTracks groups track ids submitted by multiple participants,
// ordered by owner count descending. A pure reporting query over global
// data, independent of any session.
func (s *Store) SharedTracks() ([]SharedTrack, error) {
	rows, err := s.db.Query(`SELECT t.track_id, p.name
		FROM tracks t
		JOIN participants p ON t.participant_id = p.id
		ORDER BY t.track_id, p.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owners := make(map[string][]string)
	for rows.Next() {
		var trackID, name string
		if err := rows.Scan(&trackID, &name); err != nil {
			return nil, err
		}
		// A participant submitting the same track twice still counts once
		if list := owners[trackID]; len(list) == 0 || list[len(list)-1] != name {
			owners[trackID] = append(list, name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var shared []SharedTrack
	for trackID, names := range owners {
		if len(names) >= 2 {
			shared = append(shared, SharedTrack{TrackID: trackID, Owners: names})
		}
	}
	sort.Slice(shared, func(i, j int) bool {
		if len(shared[i].Owners) != len(shared[j].Owners) {
			return len(shared[i].Owners) > len(shared[j].Owners)
		}
		return shared[i].TrackID < shared[j].TrackID
	})

	return shared, nil
}
