package record

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/t4euyoon/interceptor"
)

// Sender emits replayed strokes. *interception.Context satisfies it.
type Sender interface {
	Send(device interceptor.Device, s interceptor.Stroke) error
}

// Replayer streams a recorded session back out as synthetic input,
// preserving the recorded inter-stroke delays.
type Replayer struct {
	db *sql.DB

	// Speed scales playback: 1 is real time, 2 is double speed, 0 or
	// negative means no delays at all.
	Speed float64

	// sleep is a test seam; when set it replaces the cancellable timer
	// pause.
	sleep func(time.Duration)
}

// OpenReplay opens a recording database for playback.
func OpenReplay(path string) (*Replayer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open recording db: %w", err)
	}
	return &Replayer{db: db, Speed: 1}, nil
}

// Close releases the database handle.
func (rp *Replayer) Close() error { return rp.db.Close() }

type row struct {
	offset  int64
	device  int
	kind    string
	code    uint32
	flags   uint16
	buttons uint16
	data    int16
	x, y    int32
}

// Replay sends every recorded stroke in order through the sender, sleeping
// the recorded gaps scaled by Speed. Cancelling the context stops playback
// between strokes; the stroke in flight still completes.
func (rp *Replayer) Replay(ctx context.Context, sender Sender) error {
	rows, err := rp.db.QueryContext(ctx,
		`SELECT offset_ms, device, kind, code, flags, buttons, data, x, y FROM strokes ORDER BY offset_ms, id`)
	if err != nil {
		return fmt.Errorf("query strokes: %w", err)
	}
	defer rows.Close()

	var prev int64
	first := true
	count := 0
	for rows.Next() {
		var rec row
		if err := rows.Scan(&rec.offset, &rec.device, &rec.kind,
			&rec.code, &rec.flags, &rec.buttons, &rec.data, &rec.x, &rec.y); err != nil {
			return fmt.Errorf("scan stroke: %w", err)
		}

		if !first {
			if err := rp.pause(ctx, rec.offset-prev); err != nil {
				return err
			}
		}
		first = false
		prev = rec.offset

		if err := ctx.Err(); err != nil {
			return err
		}
		device := interceptor.Device{ID: rec.device}
		if err := sender.Send(device, rec.stroke()); err != nil {
			return fmt.Errorf("replay stroke to %s: %w", device, err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate strokes: %w", err)
	}
	slog.Debug("[record] replay finished", "strokes", count)
	return nil
}

func (r row) stroke() interceptor.Stroke {
	if r.kind == "key" {
		return interceptor.KeyStroke{
			Code:        interceptor.KeyCode(r.code),
			State:       interceptor.KeyState(r.flags),
			Information: interceptor.InjectedInformation,
		}
	}
	return interceptor.MouseStroke{
		Flags:       interceptor.MouseFlag(r.flags),
		Buttons:     interceptor.MouseState(r.buttons),
		Data:        r.data,
		X:           r.x,
		Y:           r.y,
		Information: interceptor.InjectedInformation,
	}
}

func (rp *Replayer) pause(ctx context.Context, gapMS int64) error {
	if gapMS <= 0 || rp.Speed <= 0 {
		return nil
	}
	gap := time.Duration(float64(gapMS) / rp.Speed * float64(time.Millisecond))
	if rp.sleep != nil {
		rp.sleep(gap)
		return ctx.Err()
	}
	timer := time.NewTimer(gap)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
