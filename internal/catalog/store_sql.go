package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLStore persists catalog bundles in a catalog_bundles table, one JSON
// payload per version. Works against sqlite (offline) and postgres (online)
// through database/sql.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// PutBundle stores (or replaces) a bundle under its version label.
func (s *SQLStore) PutBundle(ctx context.Context, b *Bundle) error {
	if b.Version == "" {
		return errors.New("bundle version required")
	}
	payload, err := json.Marshal(b)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO catalog_bundles (version, year, payload_json, created_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (version) DO UPDATE SET year=EXCLUDED.year, payload_json=EXCLUDED.payload_json`,
		b.Version, b.Year, string(payload), time.Now().Unix())
	return err
}

// LatestBundle returns the most recently stored bundle.
func (s *SQLStore) LatestBundle(ctx context.Context) (*Bundle, error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload_json FROM catalog_bundles ORDER BY created_at DESC, version DESC LIMIT 1`)
	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("no catalog bundle stored")
		}
		return nil, err
	}
	var b Bundle
	if err := json.Unmarshal([]byte(payload), &b); err != nil {
		return nil, fmt.Errorf("bundle payload: %w", err)
	}
	return &b, nil
}

// LoadLatest builds a snapshot from the most recent stored bundle.
func (s *SQLStore) LoadLatest(ctx context.Context) (*Snapshot, error) {
	b, err := s.LatestBundle(ctx)
	if err != nil {
		return nil, &LoadError{Version: "db", Err: err}
	}
	return Build(b)
}
