package storage

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"icndb/internal"
	"icndb/internal/util"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS geocodes (
  address TEXT PRIMARY KEY,
  latitude REAL NOT NULL,
  longitude REAL NOT NULL,
  service TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// UpsertGeocode records a successful lookup. Failed lookups are never
// cached so a transient outage does not poison later runs.
func (d *DB) UpsertGeocode(address string, latitude, longitude float64, service string) error {
	_, err := d.conn.Exec(`
INSERT INTO geocodes (address, latitude, longitude, service) VALUES (?, ?, ?, ?)
ON CONFLICT(address) DO UPDATE SET
  latitude=excluded.latitude,
  longitude=excluded.longitude,
  service=excluded.service,
  updatedAt=CURRENT_TIMESTAMP
`, address, latitude, longitude, service)
	return err
}

func (d *DB) GetGeocode(address string) (*internal.GeocodeResult, error) {
	var latitude, longitude float64
	var service string
	err := d.conn.QueryRow(`
SELECT latitude, longitude, service FROM geocodes WHERE address = ?
`, address).Scan(&latitude, &longitude, &service)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &internal.GeocodeResult{
		FormattedAddress: address,
		Latitude:         util.FloatPtr(latitude),
		Longitude:        util.FloatPtr(longitude),
		Service:          util.StringPtr(service),
		Status:           internal.GeocodeSuccess,
	}, nil
}

func (d *DB) CountGeocodes() (int, error) {
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM geocodes`).Scan(&n)
	return n, err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
