package llm

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// mockClient replays scripted replies in order and records every request.
type mockClient struct {
	replies  []mockReply
	requests []Request
	mu       sync.Mutex
	closed   bool
}

type mockReply struct {
	err  error
	text string
}

func newMockClient(replies ...mockReply) *mockClient {
	return &mockClient{replies: replies}
}

func reply(text string) mockReply { return mockReply{text: text} }

func failure(err error) mockReply { return mockReply{err: err} }

func (m *mockClient) Generate(_ context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if len(m.replies) == 0 {
		return "", errors.New("mock: no scripted reply left")
	}
	next := m.replies[0]
	m.replies = m.replies[1:]
	return next.text, next.err
}

func (m *mockClient) Close() error {
	m.closed = true
	return nil
}

func (m *mockClient) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *mockClient) lastRequest() Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

// newTestService builds a Service over client with a fresh memory cache and
// a generous rate limit.
func newTestService(t *testing.T, client Client, maxRetries int) *Service {
	t.Helper()
	cache := newMemoryCache(time.Minute)
	svc := newService(client, cache, Config{
		MaxRetries: maxRetries,
		RetryDelay: time.Millisecond,
		RateLimit:  6000,
	}, slog.Default())
	t.Cleanup(func() { _ = cache.Close() })
	return svc
}
