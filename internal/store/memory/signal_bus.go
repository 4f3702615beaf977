package memory

import (
	"context"
	"sync"

	"github.com/mofulabs/mofumarket/internal/domain"
)

// SignalBus is an in-process domain.SignalBus. Publishes never block: a
// subscriber whose buffer is full simply misses the message, the same
// best-effort contract the Redis bus provides.
type SignalBus struct {
	mu   sync.RWMutex
	subs map[string][]chan []byte
}

// NewSignalBus creates an empty SignalBus.
func NewSignalBus() *SignalBus {
	return &SignalBus{subs: make(map[string][]chan []byte)}
}

func (b *SignalBus) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs[channel] {
		select {
		case sub <- payload:
		default:
		}
	}
	return nil
}

func (b *SignalBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	sub := make(chan []byte, 128)

	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], sub)
	b.mu.Unlock()

	out := make(chan []byte, 128)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				b.remove(channel, sub)
				return
			case msg := <-sub:
				select {
				case out <- msg:
				case <-ctx.Done():
					b.remove(channel, sub)
					return
				}
			}
		}
	}()

	return out, nil
}

func (b *SignalBus) remove(channel string, sub chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[channel]
	for i, s := range subs {
		if s == sub {
			b.subs[channel] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}

var _ domain.SignalBus = (*SignalBus)(nil)
