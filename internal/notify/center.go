package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bdevroede/courtplan/internal/msgcat"
	"github.com/bdevroede/courtplan/internal/obslog"
)

// Saver persists the whole inbox wholesale.
type Saver interface {
	SaveNotifications(ctx context.Context, items []Notification) error
}

// Sink receives every stored notification, e.g. a live push feed.
type Sink interface {
	Deliver(n Notification)
}

// Center owns the notification inbox for all players.
type Center struct {
	mu    sync.RWMutex
	items []Notification
	cat   *msgcat.Catalog
	saver Saver
	sinks []Sink
}

func NewCenter(cat *msgcat.Catalog, saver Saver) *Center {
	return &Center{cat: cat, saver: saver}
}

// AddSink registers a delivery sink. Call before the first Push.
func (c *Center) AddSink(s Sink) {
	if s != nil {
		c.sinks = append(c.sinks, s)
	}
}

// Restore replaces the inbox from persisted state without writing back.
func (c *Center) Restore(items []Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]Notification(nil), items...)
}

// Adopt replaces the inbox from a peer instance. No persist, no delivery.
func (c *Center) Adopt(items []Notification) {
	c.Restore(items)
}

// Push stores an unread notification for player and delivers it to sinks.
func (c *Center) Push(player string, ev Event) Notification {
	return c.push(player, ev, false)
}

// PushRead stores an already-read acknowledgement. It lands in the inbox for
// history but never bumps the unread count.
func (c *Center) PushRead(player string, ev Event) Notification {
	return c.push(player, ev, true)
}

func (c *Center) push(player string, ev Event, read bool) Notification {
	n := Notification{
		ID:        uuid.NewString(),
		Player:    player,
		Kind:      ev.Kind(),
		Text:      c.render(ev),
		Read:      read,
		CreatedAt: time.Now().UTC(),
		Event:     ev,
	}

	c.mu.Lock()
	c.items = append(c.items, n)
	snap := append([]Notification(nil), c.items...)
	c.mu.Unlock()

	c.save(snap)
	for _, s := range c.sinks {
		s.Deliver(n)
	}
	return n
}

func (c *Center) render(ev Event) string {
	if c.cat == nil {
		return ev.Kind()
	}
	return c.cat.RenderOr("notify."+ev.Kind(), ev, ev.Kind())
}

// For returns player's notifications, newest first.
func (c *Center) For(player string) []Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Notification
	for i := len(c.items) - 1; i >= 0; i-- {
		if c.items[i].Player == player {
			out = append(out, c.items[i])
		}
	}
	return out
}

// Unread counts player's unread notifications.
func (c *Center) Unread(player string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, it := range c.items {
		if it.Player == player && !it.Read {
			n++
		}
	}
	return n
}

// MarkAllRead flips every unread notification of player and reports how many.
func (c *Center) MarkAllRead(player string) int {
	c.mu.Lock()
	marked := 0
	for i := range c.items {
		if c.items[i].Player == player && !c.items[i].Read {
			c.items[i].Read = true
			marked++
		}
	}
	var snap []Notification
	if marked > 0 {
		snap = append([]Notification(nil), c.items...)
	}
	c.mu.Unlock()

	if marked > 0 {
		c.save(snap)
	}
	return marked
}

// All returns a snapshot of the full inbox.
func (c *Center) All() []Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Notification(nil), c.items...)
}

func (c *Center) save(snap []Notification) {
	if c.saver == nil {
		return
	}
	if err := c.saver.SaveNotifications(context.Background(), snap); err != nil {
		obslog.L().Error("notifications_persist_error", zap.Error(err))
	}
}
