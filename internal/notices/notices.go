// Package notices is the feed of user-facing notifications produced by the
// stores. The presentation layer drains it and renders toasts.
package notices

import (
	"log/slog"
	"sync"
	"time"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Notice struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type Notifier interface {
	Notify(level Level, msg string)
}

const DefaultCapacity = 50

// Queue keeps the most recent notices, the oldest are dropped once full.
type Queue struct {
	log      *slog.Logger
	mu       sync.Mutex
	items    []Notice
	capacity int
	now      func() time.Time
}

func NewQueue(log *slog.Logger, capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		log:      log,
		capacity: capacity,
		items:    make([]Notice, 0, capacity),
		now:      time.Now,
	}
}

func (q *Queue) Notify(level Level, msg string) {
	q.log.Debug("notice", "level", level, "message", msg)
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == q.capacity {
		copy(q.items, q.items[1:])
		q.items = q.items[:len(q.items)-1]
	}
	q.items = append(q.items, Notice{Level: level, Message: msg, At: q.now()})
}

// Drain returns the pending notices in arrival order and empties the queue.
func (q *Queue) Drain() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Notice, len(q.items))
	copy(out, q.items)
	q.items = q.items[:0]
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Discard drops every notice.
type Discard struct{}

func (Discard) Notify(Level, string) {}
