package kvstore

import (
	"context"
	"sync"
)

var _ Store = (*Memory)(nil)

type Memory struct {
	m    sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: map[string]string{}}
}

func (s *Memory) Get(_ context.Context, key string) (string, error) {
	s.m.RLock()
	defer s.m.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *Memory) Set(_ context.Context, key string, value string) error {
	s.m.Lock()
	defer s.m.Unlock()
	s.data[key] = value
	return nil
}

func (s *Memory) Remove(_ context.Context, key string) error {
	s.m.Lock()
	defer s.m.Unlock()
	delete(s.data, key)
	return nil
}
