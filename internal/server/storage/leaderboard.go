package storage

// InsertEntry appends a leaderboard row. Entries are append-only and never
// mutated or deleted.
func (s *Store) InsertEntry(rec LeaderboardRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO leaderboard (name, "right", total, percent, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.Name, rec.Right, rec.Total, rec.Percent, rec.CreatedAt,
	)
	return err
}

// TopEntries returns leaderboard rows in display order: percent descending,
// then right descending, then earliest submission winning ties. A limit of
// zero or less returns all entries.
func (s *Store) TopEntries(limit int) ([]LeaderboardRecord, error) {
	query := `SELECT id, name, "right", total, percent, created_at
		FROM leaderboard
		ORDER BY percent DESC, "right" DESC, created_at ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LeaderboardRecord
	for rows.Next() {
		var rec LeaderboardRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Right, &rec.Total, &rec.Percent, &rec.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, rec)
	}

	return entries, rows.Err()
}
