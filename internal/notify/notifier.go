// Package notify holds the transient user-facing status message: at
// most one visible at a time, superseded immediately by a newer one,
// auto-dismissed after a fixed visible duration.
package notify

import (
	"sync"
	"time"
)

// Severity classifies a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// Message is one visible notification.
type Message struct {
	Severity Severity
	Text     string
	At       time.Time
}

// Notifier keeps the single currently-visible message.
type Notifier struct {
	mu      sync.Mutex
	ttl     time.Duration
	current *Message
	gen     uint64
	onShow  func(Message)
}

// New creates a Notifier with the given visible duration. onShow, if
// non-nil, is called for every pushed message (the CLI renders there).
func New(ttl time.Duration, onShow func(Message)) *Notifier {
	if ttl <= 0 {
		ttl = 3 * time.Second
	}
	return &Notifier{ttl: ttl, onShow: onShow}
}

// Push replaces any visible message and schedules its dismissal. The
// generation counter keeps a superseded message's timer from clearing
// its successor.
func (n *Notifier) Push(sev Severity, text string) {
	n.mu.Lock()
	n.gen++
	gen := n.gen
	msg := Message{Severity: sev, Text: text, At: time.Now()}
	n.current = &msg
	show := n.onShow
	n.mu.Unlock()

	if show != nil {
		show(msg)
	}
	time.AfterFunc(n.ttl, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if n.gen == gen {
			n.current = nil
		}
	})
}

// Current returns the visible message, if any.
func (n *Notifier) Current() (Message, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Message{}, false
	}
	return *n.current, true
}
