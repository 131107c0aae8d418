package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/SergeiKhy/ulvis-relay/internal/metrics"
	"github.com/SergeiKhy/ulvis-relay/internal/models"
	"github.com/SergeiKhy/ulvis-relay/internal/ulvis"
	"go.uber.org/zap"
)

// Константы сервиса
const (
	DefaultMaxAttempts  = 4
	DefaultShortBaseURL = "https://ulvis.net"
	singleUse           = 1
)

var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// LinkService интерфейс сокращения ссылок через ulvis
type LinkService interface {
	Shorten(ctx context.Context, rawURL string) (*models.ShortLink, error)
	ShortenBatch(ctx context.Context, urls []string, mode BatchMode) []models.ShortenResult
}

// IssueRecorder принимает успешно выданные ссылки (журнал)
type IssueRecorder interface {
	Record(ctx context.Context, link *models.IssuedLink) error
}

type LinkServiceOptions struct {
	ShortBaseURL string // Хост для восстановления ссылки, если ulvis не вернул url
	MaxAttempts  int
	Batch        BatchOptions
}

// linkService реализация сервиса ссылок
type linkService struct {
	client   ulvis.Client
	aliases  AliasGenerator
	recorder IssueRecorder
	opts     LinkServiceOptions
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewLinkService создаёт сервис. recorder может быть nil, если журнал отключён.
func NewLinkService(
	client ulvis.Client,
	aliases AliasGenerator,
	recorder IssueRecorder,
	opts LinkServiceOptions,
	m *metrics.Metrics,
	logger *zap.Logger,
) LinkService {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.ShortBaseURL == "" {
		opts.ShortBaseURL = DefaultShortBaseURL
	}
	opts.ShortBaseURL = strings.TrimRight(opts.ShortBaseURL, "/")
	opts.Batch = opts.Batch.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	return &linkService{
		client:   client,
		aliases:  aliases,
		recorder: recorder,
		opts:     opts,
		metrics:  m,
		logger:   logger,
	}
}

// NormalizeURL обрезает пробелы и добавляет https://, если схемы нет
func NormalizeURL(rawURL string) (string, error) {
	target := strings.TrimSpace(rawURL)
	if target == "" {
		return "", fmt.Errorf("%w: missing url", ErrInvalidInput)
	}
	if !schemePattern.MatchString(target) {
		target = "https://" + target
	}
	return target, nil
}

type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeCollision
	outcomeFatal
)

// attemptOutcome результат одной попытки создать ссылку
type attemptOutcome struct {
	kind outcomeKind
	link *models.ShortLink
	err  error
}

// Shorten создаёт одноразовую приватную ссылку со случайным алиасом.
// Повторяет попытку с новым алиасом только при коллизии, не более MaxAttempts раз.
// OriginalURL результата - ввод клиента как есть, в ulvis уходит нормализованный URL.
func (s *linkService) Shorten(ctx context.Context, rawURL string) (*models.ShortLink, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		s.metrics.IncShortenOutcome(KindName(err))
		return nil, err
	}

	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		// Бюджет запроса (или пакета) исчерпан: новые ссылки в ulvis не создаём
		if err := ctx.Err(); err != nil {
			err = classifyTransport(err)
			s.metrics.IncShortenOutcome(KindName(err))
			return nil, err
		}

		alias := s.aliases()
		out := s.attempt(ctx, target, alias)

		switch out.kind {
		case outcomeSuccess:
			s.metrics.IncShortenOutcome("success")
			s.record(ctx, out.link, target)
			out.link.OriginalURL = rawURL
			return out.link, nil
		case outcomeCollision:
			s.metrics.IncCollision()
			s.logger.Debug("Alias taken, retrying",
				zap.String("alias", alias),
				zap.Int("attempt", attempt),
			)
		default:
			s.metrics.IncShortenOutcome(KindName(out.err))
			return nil, out.err
		}
	}

	err = &UpstreamError{
		Kind:    ErrRetriesExhausted,
		Message: fmt.Sprintf("failed to generate unique alias after %d attempts", s.opts.MaxAttempts),
	}
	s.metrics.IncShortenOutcome(KindName(err))
	return nil, err
}

// attempt одна попытка с заданным алиасом
func (s *linkService) attempt(ctx context.Context, target, alias string) attemptOutcome {
	resp, err := s.client.Write(ctx, ulvis.WriteParams{
		URL:     target,
		Alias:   alias,
		Uses:    singleUse,
		Private: true,
	})
	if err != nil {
		return attemptOutcome{kind: outcomeFatal, err: classifyTransport(err)}
	}

	if resp.Success {
		short := resp.Data.URL
		if short == "" {
			// Успех подтверждён, поэтому ссылку можно собрать из нашего алиаса
			short = s.opts.ShortBaseURL + "/" + alias
		}
		return attemptOutcome{
			kind: outcomeSuccess,
			link: &models.ShortLink{
				OriginalURL: target,
				ShortURL:    short,
				Alias:       alias,
			},
		}
	}

	if resp.Error.IsCollision() {
		return attemptOutcome{kind: outcomeCollision}
	}

	msg := resp.Error.Message()
	if msg == "" {
		msg = "API returned failure"
	}
	return attemptOutcome{
		kind: outcomeFatal,
		err:  &UpstreamError{Kind: ErrUpstreamRejected, Message: msg},
	}
}

// classifyTransport переводит ошибку клиента ulvis в ошибку сервиса
func classifyTransport(err error) error {
	var decodeErr *ulvis.DecodeError
	if errors.As(err, &decodeErr) {
		return &UpstreamError{
			Kind:    ErrUpstreamUnparseable,
			Message: fmt.Sprintf("upstream status %d", decodeErr.StatusCode),
			Preview: decodeErr.Preview,
			Err:     err,
		}
	}

	msg := err.Error()
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(strings.ToLower(msg), "timeout") {
		msg = "request timed out"
	}
	return &UpstreamError{Kind: ErrNetwork, Message: msg, Err: err}
}

// record отправляет ссылку в журнал вместе с URL, ушедшим в ulvis; ошибки журнала на ответ не влияют
func (s *linkService) record(ctx context.Context, link *models.ShortLink, target string) {
	if s.recorder == nil {
		return
	}

	issued := &models.IssuedLink{
		Alias:       link.Alias,
		ShortURL:    link.ShortURL,
		OriginalURL: target,
		CreatedAt:   time.Now(),
	}
	if err := s.recorder.Record(ctx, issued); err != nil {
		s.logger.Debug("Failed to journal issued link (non-blocking)", zap.Error(err))
	}
}
