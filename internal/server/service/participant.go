package service

import (
	"fmt"
	"strings"

	"mixtape/internal/server/core"
	"mixtape/internal/server/storage"
)

// AddOrUpdateParticipant creates a participant or replaces their track
// triple. Track fields accept pasted Spotify links or bare track ids.
func (s *Service) AddOrUpdateParticipant(name, track1, track2, track3 string) error {
	name = strings.TrimSpace(name)
	tracks := []string{
		strings.TrimSpace(track1),
		strings.TrimSpace(track2),
		strings.TrimSpace(track3),
	}

	if name == "" {
		return ErrValidation
	}
	for _, t := range tracks {
		if t == "" {
			return ErrValidation
		}
	}

	for i := range tracks {
		tracks[i] = ExtractTrackID(tracks[i])
	}

	if _, err := s.store.UpsertParticipant(name, tracks); err != nil {
		return fmt.Errorf("failed to save participant: %w", err)
	}
	return nil
}

// Participants lists all participants with their tracks, ordered by name
func (s *Service) Participants() ([]core.ParticipantResponse, error) {
	records, err := s.store.ListParticipants()
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	out := make([]core.ParticipantResponse, 0, len(records))
	for _, p := range records {
		out = append(out, core.ParticipantResponse{ID: p.ID, Name: p.Name, Tracks: p.Tracks})
	}
	return out, nil
}

// Leaderboard returns entries in display order. A limit of zero or less
// returns all entries.
func (s *Service) Leaderboard(limit int) ([]core.LeaderboardEntry, error) {
	records, err := s.store.TopEntries(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return toLeaderboardEntries(records), nil
}

func toLeaderboardEntries(records []storage.LeaderboardRecord) []core.LeaderboardEntry {
	out := make([]core.LeaderboardEntry, 0, len(records))
	for _, rec := range records {
		out = append(out, core.LeaderboardEntry{
			Name:      rec.Name,
			Right:     rec.Right,
			Total:     rec.Total,
			Percent:   rec.Percent,
			CreatedAt: rec.CreatedAt,
		})
	}
	return out
}
