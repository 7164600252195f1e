package store

import "fmt"

// Put inserts or replaces the player record. Upsert keeps the original
// created_at and first_session; everything else is overwritten.
func (s *Store) Put(p *Player) error {
	if p.SteamID == "" {
		return fmt.Errorf("write player: empty steamid")
	}

	_, err := s.db.Exec(`
		INSERT INTO players
		(steamid, attrs, names, kick_count, first_session, last_session)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(steamid) DO UPDATE SET
			attrs = excluded.attrs,
			names = excluded.names,
			kick_count = excluded.kick_count,
			last_session = excluded.last_session,
			updated_at = datetime('now')
	`,
		p.SteamID,
		joinAttrs(p.Attrs),
		joinNames(p.Names),
		p.KickCount,
		p.FirstSession,
		p.LastSession,
	)
	if err != nil {
		return fmt.Errorf("write player %s: %w", p.SteamID, err)
	}

	return nil
}
