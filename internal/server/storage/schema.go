package storage

import "time"

// ParticipantRecord represents a row in the participants table
type ParticipantRecord struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// TrackRecord represents one of a participant's three ranked tracks
type TrackRecord struct {
	ID            int64  `db:"id"`
	ParticipantID int64  `db:"participant_id"`
	TrackID       string `db:"track_id"`
	Pos           int    `db:"pos"`
}

// LeaderboardRecord represents a row in the leaderboard table
type LeaderboardRecord struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Right     int       `db:"right"`
	Total     int       `db:"total"`
	Percent   int       `db:"percent"`
	CreatedAt time.Time `db:"created_at"`
}

// StatsRecord tracks how often a participant is guessed correctly
type StatsRecord struct {
	ParticipantID  int64 `db:"participant_id"`
	CorrectGuesses int   `db:"correct_guesses"`
	TotalGuesses   int   `db:"total_guesses"`
}

// Schema defines the SQLite database structure. The leaderboard "right"
// column is quoted everywhere since RIGHT became a keyword with SQLite's
// RIGHT JOIN support.
const Schema = `
CREATE TABLE IF NOT EXISTS participants (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS tracks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	participant_id INTEGER NOT NULL,
	track_id TEXT NOT NULL,
	pos INTEGER NOT NULL,
	FOREIGN KEY (participant_id) REFERENCES participants(id) ON DELETE CASCADE,
	UNIQUE(participant_id, pos)
);

CREATE INDEX IF NOT EXISTS idx_tracks_participant_pos ON tracks(participant_id, pos);
CREATE INDEX IF NOT EXISTS idx_tracks_track_id ON tracks(track_id);

CREATE TABLE IF NOT EXISTS leaderboard (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	"right" INTEGER NOT NULL,
	total INTEGER NOT NULL,
	percent INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_leaderboard_rank ON leaderboard(percent DESC, "right" DESC, created_at ASC);

CREATE TABLE IF NOT EXISTS participant_stats (
	participant_id INTEGER PRIMARY KEY,
	correct_guesses INTEGER NOT NULL DEFAULT 0,
	total_guesses INTEGER NOT NULL DEFAULT 0,
	FOREIGN KEY (participant_id) REFERENCES participants(id) ON DELETE CASCADE
);
`
