package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"waystones.ai/internal/sim/waystone/teleport"
)

// JSONLZstdWriter appends JSON lines to hourly zstd files under baseDir.
type JSONLZstdWriter struct {
	baseDir string
	prefix  string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	dir := filepath.Dir(w.pathForHour(hour))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err1
}

func (w *JSONLZstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// TeleportLogEntry is one line of the teleport audit log.
type TeleportLogEntry struct {
	Time      string  `json:"time"`
	Player    string  `json:"player"`
	Waystone  string  `json:"waystone"`
	From      string  `json:"from,omitempty"`
	Mode      string  `json:"mode"`
	Outcome   string  `json:"outcome"`
	Cost      int     `json:"cost"`
	OriginDim string  `json:"origin_dim"`
	Origin    [3]int  `json:"origin"`
	Landing   *[3]int `json:"landing,omitempty"`
	Facing    string  `json:"facing,omitempty"`
}

// EntryFromRecord flattens an orchestrator record for the log.
func EntryFromRecord(r teleport.Record, at time.Time) TeleportLogEntry {
	e := TeleportLogEntry{
		Time:      at.UTC().Format(time.RFC3339Nano),
		Player:    r.Player.String(),
		Waystone:  r.Waystone.String(),
		Mode:      r.Mode.String(),
		Outcome:   r.Outcome.String(),
		Cost:      r.Cost,
		OriginDim: r.OriginDim,
		Origin:    [3]int{r.Origin.X, r.Origin.Y, r.Origin.Z},
	}
	if r.From != uuid.Nil {
		e.From = r.From.String()
	}
	if r.Landing != nil {
		e.Landing = &[3]int{r.Landing.Pos.X, r.Landing.Pos.Y, r.Landing.Pos.Z}
		e.Facing = r.Landing.Facing.String()
	}
	return e
}

// TeleportLogger writes one compressed JSONL entry per teleport attempt.
// Write errors go to the optional OnError hook; the game loop never blocks on them.
type TeleportLogger struct {
	w       *JSONLZstdWriter
	now     func() time.Time
	OnError func(error)
}

func NewTeleportLogger(dataDir string) *TeleportLogger {
	return &TeleportLogger{
		w:   NewJSONLZstdWriter(filepath.Join(dataDir, "teleports"), "teleports"),
		now: time.Now,
	}
}

func (l *TeleportLogger) RecordTeleport(r teleport.Record) {
	if err := l.w.Write(EntryFromRecord(r, l.now())); err != nil && l.OnError != nil {
		l.OnError(err)
	}
}

func (l *TeleportLogger) Close() error { return l.w.Close() }
