package helipads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartpad/landing/backend/landing"
)

// PostgresStore keeps helipads in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// OpenPostgres opens a connection pool to databaseURL and checks it.
func OpenPostgres(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// NewPostgresStore creates a store on pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

// EnsureSchema creates the helipads table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS helipads (
            id SERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            latitude DOUBLE PRECISION NOT NULL,
            longitude DOUBLE PRECISION NOT NULL,
            elevation_ft DOUBLE PRECISION NOT NULL DEFAULT 0,
            obstacles JSONB NOT NULL DEFAULT '{}'::jsonb,
            description TEXT NOT NULL DEFAULT '',
            surveyed_on DATE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_helipads_position ON helipads (latitude, longitude)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure helipads schema: %w", err)
		}
	}
	return nil
}

const selectHelipad = `SELECT id, name, latitude, longitude, elevation_ft, obstacles, description, surveyed_on, created_at FROM helipads`

func (s *PostgresStore) List(ctx context.Context) ([]Helipad, error) {
	rows, err := s.db.Query(ctx, selectHelipad+` ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list helipads: %w", err)
	}
	defer rows.Close()

	var pads []Helipad
	for rows.Next() {
		h, err := scanPostgres(rows)
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

func (s *PostgresStore) Get(ctx context.Context, id int64) (Helipad, error) {
	h, err := scanPostgres(s.db.QueryRow(ctx, selectHelipad+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Helipad{}, ErrNotFound
	}
	return h, err
}

func (s *PostgresStore) Create(ctx context.Context, h Helipad) (Helipad, error) {
	obstacles, err := encodeObstacles(h.Obstacles)
	if err != nil {
		return Helipad{}, err
	}

	row := s.db.QueryRow(ctx,
		`INSERT INTO helipads (name, latitude, longitude, elevation_ft, obstacles, description, surveyed_on)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING id, created_at`,
		h.Name, h.Latitude, h.Longitude, h.ElevationFt, obstacles, h.Description, h.SurveyedOn,
	)
	if err := row.Scan(&h.ID, &h.CreatedAt); err != nil {
		return Helipad{}, fmt.Errorf("create helipad: %w", err)
	}
	return h, nil
}

// Nearest scans every helipad; registries are small enough that a spatial
// index is not worth carrying.
func (s *PostgresStore) Nearest(ctx context.Context, lat, lon, maxNM float64) (Match, error) {
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

func scanPostgres(row pgx.Row) (Helipad, error) {
	var h Helipad
	var obstacles []byte
	if err := row.Scan(&h.ID, &h.Name, &h.Latitude, &h.Longitude, &h.ElevationFt, &obstacles, &h.Description, &h.SurveyedOn, &h.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Helipad{}, err
		}
		return Helipad{}, fmt.Errorf("scan helipad: %w", err)
	}
	table, err := decodeObstacles(obstacles)
	if err != nil {
		return Helipad{}, fmt.Errorf("helipad %d: %w", h.ID, err)
	}
	h.Obstacles = table
	return h, nil
}

func encodeObstacles(t landing.ObstacleTable) ([]byte, error) {
	if t == nil {
		t = landing.ObstacleTable{}
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode obstacles: %w", err)
	}
	return raw, nil
}

func decodeObstacles(raw []byte) (landing.ObstacleTable, error) {
	if len(raw) == 0 {
		return landing.ObstacleTable{}, nil
	}
	var m map[string]float64
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode obstacles: %w", err)
	}
	return landing.ParseObstacleTable(m)
}
