// File: internal/repository/message/hub.go
package message

import (
	"context"
	"sync"

	"github.com/iyunix/go-sage/internal/domain"
)

// hub fans change notifications out to in-process subscribers. Each
// subscriber owns a one-slot signal channel, so bursts of writes collapse
// into a single reload.
type hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]*subscriber
}

type subscriber struct {
	signal chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[int]*subscriber)}
}

type loadFunc func(ctx context.Context, chatID string) ([]domain.Message, error)

func (h *hub) subscribe(ctx context.Context, chatID string, load loadFunc, onUpdate func([]domain.Message), onError func(error)) UnsubscribeFunc {
	sub := &subscriber{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	sub.signal <- struct{}{} // initial snapshot

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[chatID] == nil {
		h.subs[chatID] = make(map[int]*subscriber)
	}
	h.subs[chatID][id] = sub
	h.mu.Unlock()

	unsubscribe := func() {
		sub.once.Do(func() {
			h.mu.Lock()
			delete(h.subs[chatID], id)
			if len(h.subs[chatID]) == 0 {
				delete(h.subs, chatID)
			}
			h.mu.Unlock()
			close(sub.done)
		})
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				unsubscribe()
				return
			case <-sub.done:
				return
			case <-sub.signal:
				msgs, err := load(ctx, chatID)
				if err != nil {
					if onError != nil && ctx.Err() == nil {
						onError(err)
					}
					continue
				}
				select {
				case <-sub.done:
					return
				default:
				}
				onUpdate(msgs)
			}
		}
	}()

	return unsubscribe
}

func (h *hub) publish(chatID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs[chatID] {
		select {
		case sub.signal <- struct{}{}:
		default:
		}
	}
}
