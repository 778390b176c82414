// Package inmemory is a process-local provenance memory for tests and
// single-shot CLI runs where Redis is not configured. Not durable.
package inmemory

import (
	"context"
	"sync"

	"github.com/arash-fz/docent/internal/memory"
)

type Store struct {
	mu        sync.RWMutex
	sources   map[string]memory.SourceInfo
	topics    map[string][]string
	summaries map[string]string
}

func New() *Store {
	return &Store{
		sources:   make(map[string]memory.SourceInfo),
		topics:    make(map[string][]string),
		summaries: make(map[string]string),
	}
}

func (s *Store) HasSource(_ context.Context, url string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sources[url]
	return ok, nil
}

func (s *Store) RegisterSource(_ context.Context, url, sourceType, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sources[url]; !ok {
		s.sources[url] = memory.SourceInfo{Type: sourceType, Title: title}
	}
	return nil
}

func (s *Store) Sources(_ context.Context) (map[string]memory.SourceInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]memory.SourceInfo, len(s.sources))
	for k, v := range s.sources {
		out[k] = v
	}
	return out, nil
}

func (s *Store) AddTopicSource(_ context.Context, topic, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.topics[topic] {
		if existing == url {
			return nil
		}
	}
	s.topics[topic] = append(s.topics[topic], url)
	return nil
}

func (s *Store) TopicSources(_ context.Context, topic string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.topics[topic]...), nil
}

func (s *Store) SaveSummary(_ context.Context, url, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[url] = summary
	return nil
}

func (s *Store) Summary(_ context.Context, url string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.summaries[url]
	return val, ok, nil
}

var _ memory.Memory = (*Store)(nil)
