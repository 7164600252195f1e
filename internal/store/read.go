package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// Get returns the player record for a steamid, or (nil, nil) when no
// record exists.
func (s *Store) Get(steamid string) (*Player, error) {
	row := s.db.QueryRow(`
		SELECT steamid, attrs, names, kick_count, first_session, last_session
		FROM players
		WHERE steamid = ?
	`, steamid)

	var p Player
	var attrs, names string
	err := row.Scan(&p.SteamID, &attrs, &names, &p.KickCount, &p.FirstSession, &p.LastSession)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read player %s: %w", steamid, err)
	}

	p.Attrs = splitAttrs(attrs)
	p.Names = splitNames(names)
	return &p, nil
}
