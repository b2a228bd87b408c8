// Package persistence provides SQLite-based city storage: compressed state
// snapshots, a per-day stats history and free-form metadata.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/talgya/mini-city/internal/engine"
)

// ErrNoSnapshot is returned when a city has never been saved.
var ErrNoSnapshot = errors.New("no snapshot")

// DB wraps a SQLite connection for city persistence.
type DB struct {
	conn *sqlx.DB
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	db := &DB{conn: conn, enc: enc, dec: dec}
	if err := db.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.enc.Close()
	db.dec.Close()
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		grid_size INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		city_id TEXT NOT NULL,
		total_ticks INTEGER NOT NULL,
		population INTEGER NOT NULL,
		money INTEGER NOT NULL,
		state BLOB NOT NULL,
		saved_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stats_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		city_id TEXT NOT NULL,
		total_ticks INTEGER NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		day INTEGER NOT NULL,
		population INTEGER NOT NULL,
		jobs INTEGER NOT NULL,
		money INTEGER NOT NULL,
		happiness REAL NOT NULL,
		demand_r REAL NOT NULL,
		demand_c REAL NOT NULL,
		demand_i REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS city_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_city ON snapshots(city_id, total_ticks);
	CREATE INDEX IF NOT EXISTS idx_stats_city ON stats_history(city_id, total_ticks);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// City is a row of the cities table.
type City struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	GridSize  int    `db:"grid_size" json:"grid_size"`
	Seed      int64  `db:"seed" json:"seed"`
	CreatedAt int64  `db:"created_at" json:"created_at"`
}

// StatsRow is one daily sample of a city's headline numbers.
type StatsRow struct {
	TotalTicks uint64  `db:"total_ticks" json:"total_ticks"`
	Year       int     `db:"year" json:"year"`
	Month      int     `db:"month" json:"month"`
	Day        int     `db:"day" json:"day"`
	Population int     `db:"population" json:"population"`
	Jobs       int     `db:"jobs" json:"jobs"`
	Money      int     `db:"money" json:"money"`
	Happiness  float64 `db:"happiness" json:"happiness"`
	DemandR    float64 `db:"demand_r" json:"demand_r"`
	DemandC    float64 `db:"demand_c" json:"demand_c"`
	DemandI    float64 `db:"demand_i" json:"demand_i"`
}

// SaveCity registers a city if it is not already known.
func (db *DB) SaveCity(s *engine.State) error {
	_, err := db.conn.Exec(
		"INSERT OR IGNORE INTO cities (id, name, grid_size, seed, created_at) VALUES (?, ?, ?, ?, ?)",
		s.ID, s.Name, s.GridSize, s.Seed, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert city %s: %w", s.ID, err)
	}
	return nil
}

// Cities lists every saved city, newest first.
func (db *DB) Cities() ([]City, error) {
	var cities []City
	err := db.conn.Select(&cities,
		"SELECT id, name, grid_size, seed, created_at FROM cities ORDER BY created_at DESC, id")
	return cities, err
}

// SaveSnapshot writes the full state as zstd-compressed JSON.
func (db *DB) SaveSnapshot(s *engine.State) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	blob := db.enc.EncodeAll(raw, nil)

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT OR IGNORE INTO cities (id, name, grid_size, seed, created_at) VALUES (?, ?, ?, ?, ?)",
		s.ID, s.Name, s.GridSize, s.Seed, time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("insert city %s: %w", s.ID, err)
	}
	if _, err := tx.Exec(
		"INSERT INTO snapshots (city_id, total_ticks, population, money, state, saved_at) VALUES (?, ?, ?, ?, ?, ?)",
		s.ID, s.Calendar.TotalTicks, s.Stats.Population, s.Stats.Money, blob, time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Info("city saved",
		"city", s.Name,
		"tick", s.Calendar.TotalTicks,
		"size", humanize.Bytes(uint64(len(blob))),
		"raw", humanize.Bytes(uint64(len(raw))),
	)
	return nil
}

// LoadLatest returns the most recent snapshot of a city. An empty cityID
// picks the most recently saved city.
func (db *DB) LoadLatest(cityID string) (*engine.State, error) {
	var blob []byte
	var err error
	if cityID == "" {
		err = db.conn.Get(&blob, "SELECT state FROM snapshots ORDER BY id DESC LIMIT 1")
	} else {
		err = db.conn.Get(&blob,
			"SELECT state FROM snapshots WHERE city_id = ? ORDER BY total_ticks DESC, id DESC LIMIT 1", cityID)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("select snapshot: %w", err)
	}

	raw, err := db.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	var s engine.State
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	if s.Grid == nil || s.Grid.Size() != s.GridSize {
		return nil, fmt.Errorf("snapshot of %s: grid size mismatch", s.ID)
	}
	return &s, nil
}

// PruneSnapshots keeps only the newest keep snapshots of a city and
// returns how many were removed.
func (db *DB) PruneSnapshots(cityID string, keep int) (int64, error) {
	res, err := db.conn.Exec(`DELETE FROM snapshots WHERE city_id = ? AND id NOT IN
		(SELECT id FROM snapshots WHERE city_id = ? ORDER BY id DESC LIMIT ?)`,
		cityID, cityID, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return res.RowsAffected()
}

// SaveStats appends a stats history row for the state.
func (db *DB) SaveStats(s *engine.State) error {
	c := s.Calendar
	_, err := db.conn.Exec(`INSERT INTO stats_history
		(city_id, total_ticks, year, month, day, population, jobs, money, happiness, demand_r, demand_c, demand_i)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, c.TotalTicks, c.Year, c.Month, c.Day,
		s.Stats.Population, s.Stats.Jobs, s.Stats.Money, s.Stats.Happiness,
		s.Stats.Demand.Residential, s.Stats.Demand.Commercial, s.Stats.Demand.Industrial,
	)
	if err != nil {
		return fmt.Errorf("insert stats: %w", err)
	}
	return nil
}

// StatsHistory returns up to limit rows for a city, newest first.
func (db *DB) StatsHistory(cityID string, limit int) ([]StatsRow, error) {
	var rows []StatsRow
	err := db.conn.Select(&rows, `SELECT total_ticks, year, month, day, population, jobs, money,
		happiness, demand_r, demand_c, demand_i
		FROM stats_history WHERE city_id = ? ORDER BY total_ticks DESC, id DESC LIMIT ?`,
		cityID, limit)
	return rows, err
}

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO city_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM city_meta WHERE key = ?", key)
	return value, err
}
