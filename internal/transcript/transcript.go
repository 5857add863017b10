// Package transcript provides asynchronous NDJSON logging of debate
// utterances, one file per user.
package transcript

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/offerarena/offerarena/internal/config"
)

// Event is one logged utterance.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
}

// Logger writes events to per-user NDJSON files through a bounded queue.
// Record never blocks: when the queue is full the event is dropped and
// counted. A disabled logger is a no-op.
type Logger struct {
	enabled bool
	dir     string

	queue    chan Event
	stop     chan struct{}
	finished chan struct{}
	dropped  atomic.Int64
}

// New creates a transcript logger. When cfg.Enabled is false the returned
// logger discards everything.
func New(cfg config.TranscriptConfig) (*Logger, error) {
	if !cfg.Enabled {
		return &Logger{}, nil
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}

	l := &Logger{
		enabled:  true,
		dir:      cfg.Dir,
		queue:    make(chan Event, cfg.QueueSize),
		stop:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	go l.worker()
	return l, nil
}

// Record enqueues one utterance. Implements the orchestrator's Recorder.
func (l *Logger) Record(userID, speaker, text string) {
	if !l.enabled {
		return
	}
	ev := Event{
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		Speaker:   speaker,
		Text:      text,
	}
	select {
	case l.queue <- ev:
	default:
		l.dropped.Add(1)
	}
}

// Dropped returns how many events were discarded because the queue was full.
func (l *Logger) Dropped() int64 {
	return l.dropped.Load()
}

// Close drains the queue and stops the worker.
func (l *Logger) Close() error {
	if !l.enabled {
		return nil
	}
	close(l.stop)
	<-l.finished
	return nil
}

func (l *Logger) worker() {
	defer close(l.finished)
	for {
		select {
		case ev := <-l.queue:
			l.write(ev)
		case <-l.stop:
			for {
				select {
				case ev := <-l.queue:
					l.write(ev)
				default:
					return
				}
			}
		}
	}
}

func (l *Logger) write(ev Event) {
	path := filepath.Join(l.dir, sanitizeFilename(ev.UserID)+".ndjson")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Warn("transcript open failed", "path", path, "error", err)
		return
	}
	defer f.Close()

	line, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("transcript marshal failed", "error", err)
		return
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		slog.Warn("transcript write failed", "path", path, "error", err)
	}
}

func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_", ":", "_")
	out := replacer.Replace(name)
	if out == "" {
		return "unknown"
	}
	return out
}
