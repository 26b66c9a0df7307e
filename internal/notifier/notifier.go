// Package notifier delivers user-visible notices, such as a failed load, to
// whichever front end is listening.
package notifier

import (
	"sync"
	"time"
)

// Level grades a notice.
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "info"
}

// Notice is one message for the user.
type Notice struct {
	Level   Level
	Message string
	Time    time.Time
}

// listenerBuffer is how many undelivered notices a listener may hold.
const listenerBuffer = 8

// Notifier broadcasts notices to all subscribed listeners.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan Notice]struct{}
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan Notice]struct{}),
	}
}

// Subscribe returns a channel that receives every subsequent notice.
// The caller must call Unsubscribe when done.
func (n *Notifier) Subscribe() chan Notice {
	ch := make(chan Notice, listenerBuffer)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan Notice) {
	n.mu.Lock()
	_, ok := n.listeners[ch]
	delete(n.listeners, ch)
	n.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Broadcast sends a notice to all listeners.
// Non-blocking: a listener whose buffer is full misses the notice.
func (n *Notifier) Broadcast(notice Notice) {
	if notice.Time.IsZero() {
		notice.Time = time.Now()
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- notice:
		default:
		}
	}
}

// Error broadcasts an error notice with the given message.
func (n *Notifier) Error(msg string) {
	n.Broadcast(Notice{Level: LevelError, Message: msg})
}
