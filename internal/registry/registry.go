// Package registry provides SQLite-backed persistence for player records:
// the sprite assigned to each registered name and admin flags.
package registry

import (
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/jmdejong/battilde/internal/game"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS players (
	name       TEXT PRIMARY KEY,
	sprite     TEXT NOT NULL,
	is_admin   INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`

// Registry wraps a sql.DB for the player store.
type Registry struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database at the given path and applies
// the schema.
func Open(path string) (*Registry, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open registry")
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "apply registry schema")
	}
	return &Registry{conn: conn}, nil
}

// Close closes the underlying connection.
func (r *Registry) Close() error {
	return r.conn.Close()
}

// PlayerSprite returns the sprite for a name, assigning and persisting one
// on first registration. Implements the websocket hub's SpriteSource.
func (r *Registry) PlayerSprite(name string) (string, error) {
	var sprite string
	err := r.conn.QueryRow(`SELECT sprite FROM players WHERE name = ?`, name).Scan(&sprite)
	if err == nil {
		return sprite, nil
	}
	if err != sql.ErrNoRows {
		return "", errors.Wrap(err, "query player")
	}

	sprite = string(game.SpriteForName(name))
	if _, err := r.conn.Exec(
		`INSERT INTO players (name, sprite) VALUES (?, ?)
		 ON CONFLICT(name) DO NOTHING`, name, sprite); err != nil {
		return "", errors.Wrap(err, "insert player")
	}
	return sprite, nil
}

// SetAdmin flags or unflags a registered player as an admin.
func (r *Registry) SetAdmin(name string, admin bool) error {
	flag := 0
	if admin {
		flag = 1
	}
	res, err := r.conn.Exec(`UPDATE players SET is_admin = ? WHERE name = ?`, flag, name)
	if err != nil {
		return errors.Wrap(err, "update admin flag")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.Errorf("player %s is not registered", name)
	}
	return nil
}

// IsAdmin reports whether a name is flagged as an admin.
func (r *Registry) IsAdmin(name string) (bool, error) {
	var flag int
	err := r.conn.QueryRow(`SELECT is_admin FROM players WHERE name = ?`, name).Scan(&flag)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "query admin flag")
	}
	return flag != 0, nil
}

// Count returns the number of registered players.
func (r *Registry) Count() (int, error) {
	var n int
	if err := r.conn.QueryRow(`SELECT COUNT(*) FROM players`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count players")
	}
	return n, nil
}
