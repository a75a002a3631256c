// Package recorder provides a pass-through process that appends device
// samples to a SQLite database, one row per device per role per tick.
// Recorded history is diagnostic data, not runtime state: the control loop
// never reads it back.
package recorder

import (
	"context"
	"database/sql"
	"sync"

	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"github.com/johnwbyrd/aifand/clock"
	"github.com/johnwbyrd/aifand/errors"
	"github.com/johnwbyrd/aifand/process"
)

// Config holds configuration for the sample recorder
type Config struct {
	Path string `yaml:"path"`
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Path == "" {
		return errors.WrapConfig(errors.ErrMissingConfig, "Config", "Validate", "path is required")
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS samples (
	tick_time  INTEGER NOT NULL,
	role       TEXT    NOT NULL,
	device     TEXT    NOT NULL,
	kind       TEXT    NOT NULL,
	value      REAL    NOT NULL,
	quality    TEXT    NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS samples_by_device ON samples (device, tick_time);
`

// Recorder appends every observed device to the samples table. The database
// is opened lazily on first use; storage trouble is operational and never
// disturbs the control loop.
type Recorder struct {
	process.Base
	path string

	mu sync.Mutex
	db *sql.DB
}

// New creates a sample recorder.
func New(name string, interval int64, cfg Config, opts ...process.Option) (*Recorder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Recorder{
		Base: process.NewBase(name, process.RoleNone, interval, opts...),
		path: cfg.Path,
	}
	r.Bind(r)
	return r, nil
}

// Think writes one row per device in the current input. The input flows
// through untouched via the pass-through export.
func (r *Recorder) Think(ctx context.Context) error {
	db, err := r.open()
	if err != nil {
		return errors.WrapOperational(err, "Recorder", "Think", "open database")
	}

	now := clock.Now(ctx)
	in := r.Input()

	tx, err := db.Begin()
	if err != nil {
		return errors.WrapOperational(err, "Recorder", "Think", "begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.Prepare(
		`INSERT INTO samples (tick_time, role, device, kind, value, quality, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.WrapOperational(err, "Recorder", "Think", "prepare insert")
	}
	defer stmt.Close()

	for _, roleName := range in.Roles() {
		state, _ := in.Role(roleName)
		for _, name := range state.Names() {
			d, _ := state.Device(name)
			if _, err := stmt.Exec(now, roleName, name, d.Kind().String(),
				d.Value(), d.Quality().String(), d.Timestamp()); err != nil {
				return errors.WrapOperational(err, "Recorder", "Think", "insert sample")
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.WrapOperational(err, "Recorder", "Think", "commit")
	}
	return nil
}

func (r *Recorder) open() (*sql.DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db != nil {
		return r.db, nil
	}
	db, err := sql.Open("sqlite", r.path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	r.db = db
	return db, nil
}

// Close releases the database handle.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}
