package push

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/bdevroede/courtplan/internal/notify"
	"github.com/bdevroede/courtplan/internal/obslog"
)

// Message is one push frame. Type is "notification" for inbox entries and
// "change" when another instance rewrote a collection.
type Message struct {
	Type         string               `json:"type"`
	Collection   string               `json:"collection,omitempty"`
	Notification *notify.Notification `json:"notification,omitempty"`
}

type subscriber struct {
	player string // empty subscribes to everything
	ch     chan Message
}

// Feed pushes live updates to connected browsers over websocket. It doubles
// as a notify.Sink so every stored notification reaches its player instantly.
type Feed struct {
	mu   sync.RWMutex
	subs map[*subscriber]struct{}
	srv  *http.Server
}

func NewFeed() *Feed {
	f := &Feed{subs: make(map[*subscriber]struct{})}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", f.handleWS)
	f.srv = &http.Server{Handler: mux}
	return f
}

func (f *Feed) ListenAndServe(addr string) error {
	f.srv.Addr = addr
	obslog.L().Info("push_listen", zap.String("addr", addr))
	return f.srv.ListenAndServe()
}

func (f *Feed) Shutdown(ctx context.Context) error {
	return f.srv.Shutdown(ctx)
}

// Deliver implements notify.Sink. The frame goes to the player's own
// connections and to unfiltered ones.
func (f *Feed) Deliver(n notify.Notification) {
	f.broadcast(Message{Type: "notification", Notification: &n}, n.Player)
}

// BroadcastChange tells every client a collection changed and a reload is due.
func (f *Feed) BroadcastChange(collection string) {
	f.broadcast(Message{Type: "change", Collection: collection}, "")
}

func (f *Feed) broadcast(msg Message, player string) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for sub := range f.subs {
		if player != "" && sub.player != "" && sub.player != player {
			continue
		}
		select {
		case sub.ch <- msg:
		default:
			// Slow client; it resyncs over the API on its next poll.
		}
	}
}

func (f *Feed) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		obslog.L().Warn("push_accept_error", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	sub := &subscriber{
		player: r.URL.Query().Get("player"),
		ch:     make(chan Message, 16),
	}
	f.mu.Lock()
	f.subs[sub] = struct{}{}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		delete(f.subs, sub)
		f.mu.Unlock()
	}()

	obslog.L().Info("push_subscribe", zap.String("player", sub.player))
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-sub.ch:
			wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(wctx, conn, msg)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// Subscribers reports the number of connected clients.
func (f *Feed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}
