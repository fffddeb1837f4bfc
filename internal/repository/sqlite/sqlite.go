package sqlite

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// schemaVersion is stored in PRAGMA user_version once the schema is applied.
const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS frames (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	boot_id INTEGER NOT NULL,
	frame INTEGER NOT NULL,
	frame_path TEXT NOT NULL DEFAULT '',
	bees INTEGER DEFAULT 0,
	mites INTEGER DEFAULT 0,
	timestamp DATETIME NOT NULL,
	UNIQUE (boot_id, frame)
);

CREATE TABLE IF NOT EXISTS crops (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	frame_id INTEGER NOT NULL,
	bbox_index INTEGER NOT NULL,
	crop_path TEXT NOT NULL DEFAULT '',
	overlay_path TEXT NOT NULL DEFAULT '',
	mites INTEGER DEFAULT 0,
	FOREIGN KEY (frame_id) REFERENCES frames(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_frames_boot_id ON frames(boot_id);
CREATE INDEX IF NOT EXISTS idx_crops_frame_id ON crops(frame_id);
`

// DB is the journal database. Repositories take the embedded lock around
// every statement; writers exclude readers.
type DB struct {
	sync.RWMutex
	conn *sql.DB
}

// New opens the journal at dbPath in WAL mode with foreign keys enforced and
// brings the schema up to date.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", dbPath, err)
	}
	// One connection keeps the foreign key pragma and the lock meaningful.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}
	return db, nil
}

func (db *DB) migrate() error {
	var version int
	if err := db.conn.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return err
	}
	if version >= schemaVersion {
		return nil
	}
	if _, err := db.conn.Exec(schema); err != nil {
		return err
	}
	_, err := db.conn.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion))
	return err
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the connection used by repositories.
func (db *DB) Conn() *sql.DB {
	return db.conn
}
