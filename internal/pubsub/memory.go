package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

var _ PubSub = (*Memory)(nil)

// Memory delivers synchronously on the publishing goroutine.
type Memory struct {
	m        sync.RWMutex
	nextID   int
	handlers map[string]map[int]Handler
}

func NewMemory() *Memory {
	return &Memory{handlers: map[string]map[int]Handler{}}
}

func (p *Memory) Publish(c context.Context, topic string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed marshaling payload with error=%w", err)
	}

	p.m.RLock()
	handlers := make([]Handler, 0, len(p.handlers[topic]))
	for _, h := range p.handlers[topic] {
		handlers = append(handlers, h)
	}
	p.m.RUnlock()

	msg := Message{Topic: topic, Payload: b}
	for _, h := range handlers {
		h(c, msg)
	}
	return nil
}

func (p *Memory) Subscribe(_ context.Context, topic string, handler Handler) (Unsubscribe, error) {
	p.m.Lock()
	defer p.m.Unlock()

	id := p.nextID
	p.nextID++
	if p.handlers[topic] == nil {
		p.handlers[topic] = map[int]Handler{}
	}
	p.handlers[topic][id] = handler

	return func() error {
		p.m.Lock()
		defer p.m.Unlock()
		delete(p.handlers[topic], id)
		return nil
	}, nil
}
