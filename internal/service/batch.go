package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SergeiKhy/ulvis-relay/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// BatchMode политика выполнения пакета
type BatchMode string

const (
	// BatchParallel все элементы одновременно, не больше Concurrency за раз
	BatchParallel BatchMode = "parallel"
	// BatchThrottled по одному, со стартами не чаще раза в Delay
	BatchThrottled BatchMode = "throttled"
)

const (
	defaultBatchConcurrency = 8
	defaultBatchDelay       = 300 * time.Millisecond
)

// ParseBatchMode разбирает режим из запроса; пустая строка даёт fallback
func ParseBatchMode(raw string, fallback BatchMode) (BatchMode, error) {
	switch BatchMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return fallback, nil
	case BatchParallel:
		return BatchParallel, nil
	case BatchThrottled:
		return BatchThrottled, nil
	default:
		return "", fmt.Errorf("%w: unknown batch mode %q", ErrInvalidInput, raw)
	}
}

type BatchOptions struct {
	Mode        BatchMode
	Concurrency int
	Delay       time.Duration
}

func (o BatchOptions) withDefaults() BatchOptions {
	if o.Mode == "" {
		o.Mode = BatchParallel
	}
	if o.Concurrency <= 0 {
		o.Concurrency = defaultBatchConcurrency
	}
	if o.Delay <= 0 {
		o.Delay = defaultBatchDelay
	}
	return o
}

// ShortenBatch сокращает каждый URL независимо.
// Длина результата всегда равна длине входа, results[i] соответствует urls[i];
// ошибка одного элемента попадает в его результат и не трогает соседей.
func (s *linkService) ShortenBatch(ctx context.Context, urls []string, mode BatchMode) []models.ShortenResult {
	if mode == "" {
		mode = s.opts.Batch.Mode
	}

	results := make([]models.ShortenResult, len(urls))

	s.logger.Info("Batch started",
		zap.Int("count", len(urls)),
		zap.String("mode", string(mode)),
	)

	switch mode {
	case BatchThrottled:
		s.runThrottled(ctx, urls, results)
	default:
		s.runParallel(ctx, urls, results)
	}

	return results
}

func (s *linkService) runParallel(ctx context.Context, urls []string, results []models.ShortenResult) {
	var g errgroup.Group
	g.SetLimit(s.opts.Batch.Concurrency)

	for i, u := range urls {
		g.Go(func() error {
			results[i] = s.shortenItem(ctx, u)
			return nil
		})
	}

	_ = g.Wait()
}

func (s *linkService) runThrottled(ctx context.Context, urls []string, results []models.ShortenResult) {
	limiter := rate.NewLimiter(rate.Every(s.opts.Batch.Delay), 1)

	for i, u := range urls {
		if err := limiter.Wait(ctx); err != nil {
			results[i] = failedResult(u, &UpstreamError{Kind: ErrNetwork, Message: "batch cancelled", Err: err})
			continue
		}
		results[i] = s.shortenItem(ctx, u)
	}
}

func (s *linkService) shortenItem(ctx context.Context, rawURL string) models.ShortenResult {
	link, err := s.Shorten(ctx, rawURL)
	if err != nil {
		return failedResult(rawURL, err)
	}

	return models.ShortenResult{
		Success:  true,
		Original: rawURL,
		Short:    link.ShortURL,
		Alias:    link.Alias,
	}
}

func failedResult(rawURL string, err error) models.ShortenResult {
	return models.ShortenResult{
		Success:    false,
		Original:   rawURL,
		Error:      err.Error(),
		ErrorKind:  KindName(err),
		RawPreview: PreviewOf(err),
	}
}
