package mocks

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/SergeiKhy/ulvis-relay/internal/ulvis"
)

// MockUlvisClient implements ulvis.Client with scripted responses
type MockUlvisClient struct {
	mu         sync.Mutex
	WriteFunc  func(ctx context.Context, params ulvis.WriteParams) (*ulvis.WriteResponse, error)
	ReadFunc   func(ctx context.Context, alias string) (*ulvis.ReadResponse, error)
	writeCalls []ulvis.WriteParams
	readCalls  []string
}

func NewMockUlvisClient() *MockUlvisClient {
	return &MockUlvisClient{}
}

func (m *MockUlvisClient) Write(ctx context.Context, params ulvis.WriteParams) (*ulvis.WriteResponse, error) {
	m.mu.Lock()
	m.writeCalls = append(m.writeCalls, params)
	fn := m.WriteFunc
	m.mu.Unlock()

	if fn == nil {
		return WriteOK(""), nil
	}
	return fn(ctx, params)
}

func (m *MockUlvisClient) Read(ctx context.Context, alias string) (*ulvis.ReadResponse, error) {
	m.mu.Lock()
	m.readCalls = append(m.readCalls, alias)
	fn := m.ReadFunc
	m.mu.Unlock()

	if fn == nil {
		return ReadOK(0, 0), nil
	}
	return fn(ctx, alias)
}

func (m *MockUlvisClient) WriteCalls() []ulvis.WriteParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ulvis.WriteParams, len(m.writeCalls))
	copy(out, m.writeCalls)
	return out
}

func (m *MockUlvisClient) ReadCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.readCalls))
	copy(out, m.readCalls)
	return out
}

// WriteOK successful write response; empty url mimics ulvis omitting data.url
func WriteOK(url string) *ulvis.WriteResponse {
	resp := &ulvis.WriteResponse{Success: true}
	resp.Data.URL = url
	return resp
}

// WriteFailed failed write response with the given error object or string
func WriteFailed(rawError string) *ulvis.WriteResponse {
	resp := &ulvis.WriteResponse{}
	_ = json.Unmarshal([]byte(`{"success":0,"error":`+rawError+`}`), resp)
	return resp
}

func ReadOK(hits, last int64) *ulvis.ReadResponse {
	resp := &ulvis.ReadResponse{Success: true}
	resp.Data.Hits = ulvis.Count(hits)
	resp.Data.Last = ulvis.Count(last)
	return resp
}

func ReadNotFound() *ulvis.ReadResponse {
	return &ulvis.ReadResponse{}
}
