package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SergeiKhy/ulvis-relay/internal/models"
	"github.com/SergeiKhy/ulvis-relay/internal/repository"
	"github.com/SergeiKhy/ulvis-relay/internal/ulvis"
	"go.uber.org/zap"
)

const (
	// LastActivityLayout формат времени последнего перехода
	LastActivityLayout = "02 Jan 2006, 3:04:05 PM"
	neverActive        = "never"

	verdictFresh = "User has NOT opened this link."
	verdictUsed  = "User OPENED this link."
)

// LinkInspector проверка состояния выданной ссылки
type LinkInspector interface {
	Inspect(ctx context.Context, input string) (*models.LinkReport, error)
}

type linkInspector struct {
	client   ulvis.Client
	cache    repository.StatusCache
	cacheTTL time.Duration
	location *time.Location
	logger   *zap.Logger
}

// NewLinkInspector создаёт инспектор. cache может быть nil; кэш работает только при ttl > 0.
func NewLinkInspector(client ulvis.Client, cache repository.StatusCache, cacheTTL time.Duration, location *time.Location, logger *zap.Logger) LinkInspector {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cache = nil
	}

	return &linkInspector{
		client:   client,
		cache:    cache,
		cacheTTL: cacheTTL,
		location: location,
		logger:   logger,
	}
}

// ExtractAlias достаёт алиас из голого алиаса, host/alias или полного URL
func ExtractAlias(input string) string {
	s := strings.TrimSpace(input)
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+len("://"):]
	}
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return s
}

// Inspect запрашивает счётчики ulvis и переводит их в FRESH/USED.
// Несуществующая ссылка даёт ErrLinkNotFound.
func (i *linkInspector) Inspect(ctx context.Context, input string) (*models.LinkReport, error) {
	alias := ExtractAlias(input)
	if alias == "" {
		return nil, fmt.Errorf("%w: no alias in %q", ErrInvalidInput, input)
	}

	if report, ok := i.cached(ctx, alias); ok {
		return report, nil
	}

	resp, err := i.client.Read(ctx, alias)
	if err != nil {
		return nil, classifyTransport(err)
	}

	if !resp.Success {
		return nil, fmt.Errorf("%w: %s", ErrLinkNotFound, alias)
	}

	report := i.buildReport(alias, int64(resp.Data.Hits), int64(resp.Data.Last))
	i.store(ctx, report)

	return report, nil
}

func (i *linkInspector) buildReport(alias string, hits, last int64) *models.LinkReport {
	report := &models.LinkReport{
		Alias:   alias,
		Status:  models.StatusFresh,
		Verdict: verdictFresh,
		Evidence: models.Evidence{
			Hits:         hits,
			LastActivity: neverActive,
		},
	}

	if hits > 0 {
		report.Status = models.StatusUsed
		report.Verdict = verdictUsed
	}

	if last > 0 {
		report.Evidence.LastActivityUnix = last
		report.Evidence.LastActivity = time.Unix(last, 0).In(i.location).Format(LastActivityLayout)
	}

	return report
}

func (i *linkInspector) cached(ctx context.Context, alias string) (*models.LinkReport, bool) {
	if i.cache == nil {
		return nil, false
	}

	report, err := i.cache.Get(ctx, alias)
	if err != nil {
		return nil, false
	}
	return report, true
}

func (i *linkInspector) store(ctx context.Context, report *models.LinkReport) {
	if i.cache == nil {
		return
	}

	if err := i.cache.Set(ctx, report.Alias, report, i.cacheTTL); err != nil {
		i.logger.Warn("Failed to cache link status", zap.String("alias", report.Alias), zap.Error(err))
	}
}
