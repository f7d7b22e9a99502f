package core

import "time"

// Request types

type AddParticipantRequest struct {
	Name   string `json:"name" validate:"required,min=1,max=80"`
	Track1 string `json:"track1" validate:"required,min=1,max=500"`
	Track2 string `json:"track2" validate:"required,min=1,max=500"`
	Track3 string `json:"track3" validate:"required,min=1,max=500"`
}

type GuessRequest struct {
	Choice string `json:"choice" validate:"required,min=1,max=80"`
}

type NameRequest struct {
	Name string `json:"name" validate:"required,min=1,max=80"`
}

// Round states reported by GET /round
const (
	RoundStateRound           = "round"
	RoundStateEmptyPool       = "empty_pool"
	RoundStateNeedMorePlayers = "need_more_players"
	RoundStateFinished        = "finished"
)

// Response types

type Score struct {
	Right int `json:"right"`
	Total int `json:"total"`
}

// Progress reflects how far a session has advanced. Percent is computed
// against the participant count snapshotted at session start, so it stays
// stable even if participants are added mid-session.
type Progress struct {
	Score       Score `json:"score"`
	TotalPeople int   `json:"totalPeople"`
	Percent     int   `json:"percent"`
}

type RoundResponse struct {
	State       string    `json:"state"`
	TrackIDs    []string  `json:"trackIds,omitempty"`
	Choices     []string  `json:"choices,omitempty"`
	Progress    *Progress `json:"progress,omitempty"`
	PlayerCount int       `json:"playerCount,omitempty"` // set for need_more_players
}

type GuessResponse struct {
	Chosen   string `json:"chosen"`
	Correct  string `json:"correct"`
	IsRight  bool   `json:"isRight"`
	Score    Score  `json:"score"`
	Finished bool   `json:"finished"`
}

type HistoryEntry struct {
	Chosen  string   `json:"chosen"`
	Correct string   `json:"correct"`
	IsRight bool     `json:"isRight"`
	Tracks  []string `json:"tracks"`
}

type SharedTrack struct {
	TrackID string   `json:"trackId"`
	Owners  []string `json:"owners"`
}

type LeaderboardEntry struct {
	Name      string    `json:"name"`
	Right     int       `json:"right"`
	Total     int       `json:"total"`
	Percent   int       `json:"percent"`
	CreatedAt time.Time `json:"createdAt"`
}

type ChameleonInfo struct {
	Name           string  `json:"name"`
	CorrectGuesses int     `json:"correctGuesses"`
	TotalGuesses   int     `json:"totalGuesses"`
	SuccessRate    float64 `json:"successRate"` // percent, one decimal
}

type FinishedResponse struct {
	Phase         string             `json:"phase"`
	Score         Score              `json:"score"`
	LastResult    *HistoryEntry      `json:"lastResult,omitempty"`
	History       []HistoryEntry     `json:"history"`
	SharedTracks  []SharedTrack      `json:"sharedTracks"`
	Leaderboard   []LeaderboardEntry `json:"leaderboard"`
	Chameleon     *ChameleonInfo     `json:"chameleon,omitempty"`
	ShowNameModal bool               `json:"showNameModal"`
}

type ParticipantResponse struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Tracks []string `json:"tracks"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
