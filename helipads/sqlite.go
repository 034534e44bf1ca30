package helipads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/smartpad/landing/backend/internal/timeutil"
)

// SQLiteStore keeps helipads in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and ensures the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := createSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func createSQLiteSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS helipads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		elevation_ft REAL NOT NULL DEFAULT 0,
		obstacles TEXT NOT NULL DEFAULT '{}',
		description TEXT NOT NULL DEFAULT '',
		surveyed_on TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_helipads_position ON helipads(latitude, longitude);
	`
	_, err := db.Exec(schema)
	return err
}

const selectSQLiteHelipad = `SELECT id, name, latitude, longitude, elevation_ft, obstacles, description, surveyed_on, created_at FROM helipads`

func (s *SQLiteStore) List(ctx context.Context) ([]Helipad, error) {
	rows, err := s.db.QueryContext(ctx, selectSQLiteHelipad+` ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list helipads: %w", err)
	}
	defer rows.Close()

	var pads []Helipad
	for rows.Next() {
		h, err := scanSQLite(rows)
		if err != nil {
			return nil, err
		}
		pads = append(pads, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list helipads: %w", err)
	}
	return pads, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (Helipad, error) {
	h, err := scanSQLite(s.db.QueryRowContext(ctx, selectSQLiteHelipad+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Helipad{}, ErrNotFound
	}
	return h, err
}

func (s *SQLiteStore) Create(ctx context.Context, h Helipad) (Helipad, error) {
	obstacles, err := encodeObstacles(h.Obstacles)
	if err != nil {
		return Helipad{}, err
	}

	var surveyed sql.NullString
	if h.SurveyedOn != nil {
		surveyed = sql.NullString{String: timeutil.FormatOptionalDate(h.SurveyedOn), Valid: true}
	}
	h.CreatedAt = time.Now().UTC().Truncate(time.Second)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO helipads (name, latitude, longitude, elevation_ft, obstacles, description, surveyed_on, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		h.Name, h.Latitude, h.Longitude, h.ElevationFt, string(obstacles), h.Description, surveyed, h.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return Helipad{}, fmt.Errorf("create helipad: %w", err)
	}
	if h.ID, err = res.LastInsertId(); err != nil {
		return Helipad{}, fmt.Errorf("create helipad: %w", err)
	}
	return h, nil
}

func (s *SQLiteStore) Nearest(ctx context.Context, lat, lon, maxNM float64) (Match, error) {
	pads, err := s.List(ctx)
	if err != nil {
		return Match{}, err
	}
	m, ok := nearest(pads, lat, lon, maxNM)
	if !ok {
		return Match{}, ErrNotFound
	}
	return m, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLite(row scanner) (Helipad, error) {
	var h Helipad
	var obstacles, createdAt string
	var surveyed sql.NullString
	if err := row.Scan(&h.ID, &h.Name, &h.Latitude, &h.Longitude, &h.ElevationFt, &obstacles, &h.Description, &surveyed, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Helipad{}, err
		}
		return Helipad{}, fmt.Errorf("scan helipad: %w", err)
	}

	table, err := decodeObstacles([]byte(obstacles))
	if err != nil {
		return Helipad{}, fmt.Errorf("helipad %d: %w", h.ID, err)
	}
	h.Obstacles = table

	if surveyed.Valid {
		if h.SurveyedOn, err = timeutil.ParseOptionalDate(surveyed.String); err != nil {
			return Helipad{}, fmt.Errorf("helipad %d surveyed_on: %w", h.ID, err)
		}
	}
	if h.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Helipad{}, fmt.Errorf("helipad %d created_at: %w", h.ID, err)
	}
	return h, nil
}
