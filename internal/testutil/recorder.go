package testutil

import (
	"sync"

	"taskdesk/internal/notify"
)

// Notification is one recorded notification.
type Notification struct {
	Level notify.Level
	Msg   string
}

// Recorder is a notify.Notifier that records every notification.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// Notify implements notify.Notifier.
func (r *Recorder) Notify(level notify.Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Level: level, Msg: msg})
}

// All returns the recorded notifications in order.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

// Count returns how many notifications of the given level were recorded.
func (r *Recorder) Count(level notify.Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, it := range r.items {
		if it.Level == level {
			n++
		}
	}
	return n
}
