// Package record persists observed input strokes to SQLite and replays
// recorded sessions as synthetic input.
package record

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/t4euyoon/interceptor"
	"github.com/t4euyoon/interceptor/interception"
)

const schema = `
CREATE TABLE IF NOT EXISTS strokes (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	offset_ms INTEGER NOT NULL,
	device    INTEGER NOT NULL,
	kind      TEXT    NOT NULL CHECK (kind IN ('key', 'mouse')),
	code      INTEGER NOT NULL DEFAULT 0,
	flags     INTEGER NOT NULL DEFAULT 0,
	buttons   INTEGER NOT NULL DEFAULT 0,
	data      INTEGER NOT NULL DEFAULT 0,
	x         INTEGER NOT NULL DEFAULT 0,
	y         INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS strokes_offset ON strokes (offset_ms);
`

// Recorder writes every observed stroke to a SQLite database with a
// monotonic millisecond offset from the first stroke.
//
// Thread-safety: the listener runs on the dispatch goroutine; Close may be
// called from anywhere.
type Recorder struct {
	db *sql.DB

	mu    sync.Mutex
	start time.Time

	closeOnce sync.Once
	closeErr  error

	// now is a test seam.
	now func() time.Time
}

// Open creates or opens a recording database, migrating the schema.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open recording db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate recording db: %w", err)
	}
	return &Recorder{db: db, now: time.Now}, nil
}

// Listener returns a non-suppressing event listener that persists each
// observed stroke. Offsets start at zero with the first stroke seen.
func (r *Recorder) Listener() interception.Listener {
	return func(ev *interception.EventInfo) bool {
		if err := r.record(ev.Device, ev.Stroke); err != nil {
			slog.Warn("[record] persist failed", "device", ev.Device.String(), "error", err)
		}
		return false
	}
}

func (r *Recorder) record(device interceptor.Device, s interceptor.Stroke) error {
	r.mu.Lock()
	if r.start.IsZero() {
		r.start = r.now()
	}
	offset := r.now().Sub(r.start).Milliseconds()
	r.mu.Unlock()

	switch stroke := s.(type) {
	case interceptor.KeyStroke:
		_, err := r.db.Exec(
			`INSERT INTO strokes (offset_ms, device, kind, code, flags) VALUES (?, ?, 'key', ?, ?)`,
			offset, device.ID, uint32(stroke.Code), uint16(stroke.State))
		return err
	case interceptor.MouseStroke:
		_, err := r.db.Exec(
			`INSERT INTO strokes (offset_ms, device, kind, flags, buttons, data, x, y) VALUES (?, ?, 'mouse', ?, ?, ?, ?, ?)`,
			offset, device.ID, uint16(stroke.Flags), uint16(stroke.Buttons), stroke.Data, stroke.X, stroke.Y)
		return err
	}
	return fmt.Errorf("unsupported stroke type %T", s)
}

// Count reports how many strokes the database holds.
func (r *Recorder) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM strokes`).Scan(&n)
	return n, err
}

// Close closes the database. Idempotent; later calls return the first
// result. The listener becomes a logged no-op after Close.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.db.Close()
	})
	return r.closeErr
}
