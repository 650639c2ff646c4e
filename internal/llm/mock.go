package llm

import (
	"context"
	"sync"
)

// MockClient permite tests sin llamar a un LLM real.
// Si Replies tiene elementos se devuelven en orden; despues se repite Response.
type MockClient struct {
	Response string
	Err      error
	Replies  []Reply

	mu       sync.Mutex
	Requests []Request
}

func (m *MockClient) Generate(ctx context.Context, req Request) (Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return Reply{}, m.Err
	}
	if len(m.Replies) > 0 {
		r := m.Replies[0]
		m.Replies = m.Replies[1:]
		return r, nil
	}
	return Reply{Text: m.Response}, nil
}

// Calls devuelve cuantas veces se invoco Generate.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
