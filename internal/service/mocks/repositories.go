package mocks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/SergeiKhy/ulvis-relay/internal/models"
	"github.com/SergeiKhy/ulvis-relay/internal/repository"
)

// MockIssueRepository implements repository.IssueRepository for testing
type MockIssueRepository struct {
	mu       sync.RWMutex
	links    []models.IssuedLink
	nextID   int64
	failures int // сколько первых вызовов Create вернут ошибку
}

func NewMockIssueRepository() *MockIssueRepository {
	return &MockIssueRepository{nextID: 1}
}

var ErrMockWrite = errors.New("mock write failure")

// FailNext makes the next n Create calls fail
func (m *MockIssueRepository) FailNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = n
}

func (m *MockIssueRepository) Create(ctx context.Context, link *models.IssuedLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failures > 0 {
		m.failures--
		return ErrMockWrite
	}

	link.ID = m.nextID
	m.nextID++
	m.links = append(m.links, *link)
	return nil
}

func (m *MockIssueRepository) ListRecent(ctx context.Context, limit int) ([]models.IssuedLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.IssuedLink, len(m.links))
	copy(out, m.links)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockIssueRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.links)
}

// MockStatusCache implements repository.StatusCache for testing
type MockStatusCache struct {
	mu      sync.RWMutex
	reports map[string]*models.LinkReport
	ttls    map[string]time.Duration
}

func NewMockStatusCache() *MockStatusCache {
	return &MockStatusCache{
		reports: make(map[string]*models.LinkReport),
		ttls:    make(map[string]time.Duration),
	}
}

func (m *MockStatusCache) Get(ctx context.Context, alias string) (*models.LinkReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	report, exists := m.reports[alias]
	if !exists {
		return nil, repository.ErrCacheMiss
	}
	return report, nil
}

func (m *MockStatusCache) Set(ctx context.Context, alias string, report *models.LinkReport, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[alias] = report
	m.ttls[alias] = ttl
	return nil
}

func (m *MockStatusCache) TTL(alias string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ttls[alias]
}
