// Package notify holds the single transient notification shown to the user.
//
// Only one notification is active at a time. Showing a new one overwrites
// the previous message; dismissing hides it but keeps the last message and
// kind so a fading banner can still render them.
package notify

import (
	"sync"
	"sync/atomic"
)

// Kind classifies a notification.
type Kind string

// Notification kinds.
const (
	KindError   Kind = "error"
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
)

// Notification is the banner state.
type Notification struct {
	Message string `json:"message"`
	Kind    Kind   `json:"kind"`
	Visible bool   `json:"visible"`
}

// Listener is called synchronously with every new notification state.
type Listener func(Notification)

// Center owns the active notification.
type Center struct {
	mu        sync.RWMutex
	current   Notification
	listeners map[int64]Listener
	nextID    atomic.Int64
}

// NewCenter creates a center with a hidden error notification,
// the initial banner state.
func NewCenter() *Center {
	return &Center{
		current:   Notification{Kind: KindError},
		listeners: make(map[int64]Listener),
	}
}

// Show replaces the active notification and makes it visible.
func (c *Center) Show(message string, kind Kind) Notification {
	return c.set(Notification{Message: message, Kind: kind, Visible: true})
}

// Error shows an error notification.
func (c *Center) Error(message string) Notification {
	return c.Show(message, KindError)
}

// Success shows a success notification.
func (c *Center) Success(message string) Notification {
	return c.Show(message, KindSuccess)
}

// Info shows an info notification.
func (c *Center) Info(message string) Notification {
	return c.Show(message, KindInfo)
}

// Dismiss hides the active notification.
func (c *Center) Dismiss() Notification {
	c.mu.RLock()
	n := c.current
	c.mu.RUnlock()

	n.Visible = false
	return c.set(n)
}

// Current returns the active notification.
func (c *Center) Current() Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Subscribe registers a listener and returns a function that removes it.
func (c *Center) Subscribe(l Listener) (unsubscribe func()) {
	id := c.nextID.Add(1)

	c.mu.Lock()
	c.listeners[id] = l
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Center) set(n Notification) Notification {
	c.mu.Lock()
	c.current = n
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	// Listeners run outside the lock so they may read Current.
	for _, l := range listeners {
		l(n)
	}
	return n
}
