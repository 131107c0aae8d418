package service_test

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SergeiKhy/ulvis-relay/internal/service"
	"github.com/SergeiKhy/ulvis-relay/internal/service/mocks"
	"github.com/SergeiKhy/ulvis-relay/internal/ulvis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// flakyUpstream отклоняет URL, содержащие "bad", и считает одновременные вызовы
type flakyUpstream struct {
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	delay       time.Duration
}

func (f *flakyUpstream) write(ctx context.Context, p ulvis.WriteParams) (*ulvis.WriteResponse, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	time.Sleep(f.delay)

	if strings.Contains(p.URL, "bad") {
		return mocks.WriteFailed(`{"msg":"Invalid URL"}`), nil
	}
	return mocks.WriteOK("https://ulvis.net/" + p.Alias), nil
}

func newBatchService(client ulvis.Client, opts service.BatchOptions) service.LinkService {
	return service.NewLinkService(client, sequentialAliases(), nil, service.LinkServiceOptions{
		MaxAttempts: 4,
		Batch:       opts,
	}, nil, zap.NewNop())
}

func TestParseBatchMode(t *testing.T) {
	mode, err := service.ParseBatchMode("", service.BatchThrottled)
	require.NoError(t, err)
	assert.Equal(t, service.BatchThrottled, mode)

	mode, err = service.ParseBatchMode(" Parallel ", service.BatchThrottled)
	require.NoError(t, err)
	assert.Equal(t, service.BatchParallel, mode)

	mode, err = service.ParseBatchMode("throttled", service.BatchParallel)
	require.NoError(t, err)
	assert.Equal(t, service.BatchThrottled, mode)

	_, err = service.ParseBatchMode("turbo", service.BatchParallel)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

// TestShortenBatch_PreservesOrderAndIsolatesFailures результаты идут в порядке входа,
// ошибка одного элемента не влияет на остальные
func TestShortenBatch_PreservesOrderAndIsolatesFailures(t *testing.T) {
	upstream := &flakyUpstream{delay: 5 * time.Millisecond}
	client := mocks.NewMockUlvisClient()
	client.WriteFunc = upstream.write
	svc := newBatchService(client, service.BatchOptions{Concurrency: 4})

	urls := make([]string, 20)
	for i := range urls {
		urls[i] = fmt.Sprintf("example.com/%d", i)
	}
	urls[3] = "bad.example.com"
	urls[11] = ""

	results := svc.ShortenBatch(context.Background(), urls, service.BatchParallel)
	require.Len(t, results, len(urls))

	for i, res := range results {
		assert.Equal(t, urls[i], res.Original, "result %d out of order", i)

		switch i {
		case 3:
			assert.False(t, res.Success)
			assert.Equal(t, "upstream_rejected", res.ErrorKind)
			assert.Contains(t, res.Error, "Invalid URL")
		case 11:
			assert.False(t, res.Success)
			assert.Equal(t, "invalid_input", res.ErrorKind)
		default:
			assert.True(t, res.Success, "result %d: %s", i, res.Error)
			assert.Equal(t, "https://ulvis.net/"+res.Alias, res.Short)
			assert.Empty(t, res.Error)
		}
	}

	assert.LessOrEqual(t, upstream.maxInFlight.Load(), int32(4))
	// пустой URL до upstream не доходит
	assert.Len(t, client.WriteCalls(), len(urls)-1)
}

func TestShortenBatch_Empty(t *testing.T) {
	svc := newBatchService(mocks.NewMockUlvisClient(), service.BatchOptions{})
	results := svc.ShortenBatch(context.Background(), nil, service.BatchParallel)
	assert.Empty(t, results)
}

func TestShortenBatch_ThrottledIsSequentialAndSpaced(t *testing.T) {
	upstream := &flakyUpstream{}
	client := mocks.NewMockUlvisClient()
	client.WriteFunc = upstream.write
	svc := newBatchService(client, service.BatchOptions{Delay: 20 * time.Millisecond})

	urls := []string{"a.example.com", "bad.example.com", "c.example.com", "d.example.com"}

	start := time.Now()
	results := svc.ShortenBatch(context.Background(), urls, service.BatchThrottled)
	elapsed := time.Since(start)

	require.Len(t, results, 4)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.True(t, results[2].Success)
	assert.True(t, results[3].Success)

	assert.Equal(t, int32(1), upstream.maxInFlight.Load())
	// первый старт сразу, затем три интервала
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
}

// TestShortenBatch_DefaultModeFromOptions пустой режим берётся из настроек сервиса
func TestShortenBatch_DefaultModeFromOptions(t *testing.T) {
	upstream := &flakyUpstream{delay: 5 * time.Millisecond}
	client := mocks.NewMockUlvisClient()
	client.WriteFunc = upstream.write
	svc := newBatchService(client, service.BatchOptions{Mode: service.BatchThrottled, Delay: time.Millisecond})

	results := svc.ShortenBatch(context.Background(), []string{"a.com", "b.com", "c.com"}, "")
	require.Len(t, results, 3)
	assert.Equal(t, int32(1), upstream.maxInFlight.Load())
}

func TestShortenBatch_ThrottledCancelled(t *testing.T) {
	client := mocks.NewMockUlvisClient()
	svc := newBatchService(client, service.BatchOptions{Delay: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := svc.ShortenBatch(ctx, []string{"a.com", "b.com"}, service.BatchThrottled)
	require.Len(t, results, 2)
	for i, res := range results {
		assert.False(t, res.Success)
		assert.Equal(t, "network_error", res.ErrorKind)
		assert.Equal(t, []string{"a.com", "b.com"}[i], res.Original)
	}
	assert.Empty(t, client.WriteCalls())
}
