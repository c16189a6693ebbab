package services

import (
	"sync"

	"go.uber.org/zap"

	"github.com/madins005/KSM-Education-Home-Journal/storage"
)

// Bus fans out "collection K changed" signals inside one process.
// Collections publish right after a successful store write; cross-context
// changes arrive through a bridged storage.Notifier. Callbacks carry no
// payload on purpose: every listener re-derives its state from the store,
// which keeps double delivery (event plus polling) harmless.
type Bus struct {
	log *zap.Logger

	mu   sync.RWMutex
	subs map[string][]func()
}

// NewBus creates an empty bus.
func NewBus(log *zap.Logger) *Bus {
	return &Bus{log: log, subs: make(map[string][]func())}
}

// Subscribe registers fn for changes of key.
func (b *Bus) Subscribe(key string, fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[key] = append(b.subs[key], fn)
}

// Publish delivers the change signal for key to every subscriber,
// synchronously and in registration order.
func (b *Bus) Publish(key string) {
	b.mu.RLock()
	subs := make([]func(), len(b.subs[key]))
	copy(subs, b.subs[key])
	b.mu.RUnlock()

	b.log.Debug("change event", zap.String("key", key), zap.Int("listeners", len(subs)))
	for _, fn := range subs {
		fn()
	}
}

// Bridge republishes the store's native cross-context notifications, if
// the backend has any. The notification never fires for this process's
// own writes, so nothing is delivered twice.
func (b *Bus) Bridge(store storage.Store) {
	notifier, ok := store.(storage.Notifier)
	if !ok {
		b.log.Info("store backend has no change notification, relying on polling fallback")
		return
	}
	notifier.Watch(func(key string) {
		b.Publish(key)
	})
}
