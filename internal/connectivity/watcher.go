// Package connectivity turns the authority's websocket endpoint into a
// boolean reachability signal. Consumers subscribe; nobody polls.
package connectivity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const redialDelay = 3 * time.Second

// Watcher keeps one websocket dialed against the authority. An open
// connection means reachable; a failed dial or a read error flips the
// signal off until the next successful redial.
type Watcher struct {
	URL string
	Log *zap.Logger

	mu        sync.RWMutex
	reachable bool
	subs      []chan bool
}

func New(url string, log *zap.Logger) *Watcher {
	return &Watcher{URL: url, Log: log}
}

// Reachable reports the last observed state.
func (w *Watcher) Reachable() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.reachable
}

// Subscribe returns a channel that receives every reachability flip.
// The channel is buffered; a slow consumer drops flips rather than
// blocking the watcher.
func (w *Watcher) Subscribe() <-chan bool {
	ch := make(chan bool, 8)
	w.mu.Lock()
	w.subs = append(w.subs, ch)
	w.mu.Unlock()
	return ch
}

// Run dials and re-dials until the context is canceled.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Log.Info("context canceled, stopping connectivity watcher")
			return
		default:
			if err := w.connectAndListen(ctx); err != nil {
				w.Log.Warn("authority unreachable", zap.Error(err))
			}
			w.set(false)
			select {
			case <-ctx.Done():
				return
			case <-time.After(redialDelay):
			}
		}
	}
}

func (w *Watcher) connectAndListen(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	w.Log.Info("connected to authority WS", zap.String("url", w.URL))
	w.set(true)

	for {
		// Payloads are ignored; the open socket itself is the signal.
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

func (w *Watcher) set(reachable bool) {
	w.mu.Lock()
	changed := w.reachable != reachable
	w.reachable = reachable
	subs := w.subs
	w.mu.Unlock()

	if !changed {
		return
	}
	for _, ch := range subs {
		select {
		case ch <- reachable:
		default:
		}
	}
}
