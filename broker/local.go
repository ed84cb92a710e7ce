package broker

import (
	"context"
	"sync"
)

// Local delivers envelopes synchronously inside a single process.
type Local struct {
	mu       sync.RWMutex
	handlers map[int]Handler
	next     int
}

func NewLocal() *Local {
	return &Local{handlers: map[int]Handler{}}
}

func (l *Local) Publish(ctx context.Context, env Envelope) error {
	l.mu.RLock()
	handlers := make([]Handler, 0, len(l.handlers))
	for i := 0; i < l.next; i++ {
		if h, ok := l.handlers[i]; ok {
			handlers = append(handlers, h)
		}
	}
	l.mu.RUnlock()

	for _, h := range handlers {
		h(env)
	}
	return nil
}

func (l *Local) Subscribe(ctx context.Context, h Handler) error {
	l.mu.Lock()
	id := l.next
	l.handlers[id] = h
	l.next++
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		delete(l.handlers, id)
		l.mu.Unlock()
	}()
	return nil
}

func (l *Local) Close() error {
	l.mu.Lock()
	l.handlers = map[int]Handler{}
	l.mu.Unlock()
	return nil
}
