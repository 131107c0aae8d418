package ulvis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/SergeiKhy/ulvis-relay/internal/metrics"
	"github.com/imroc/req/v3"
)

const (
	writePath = "/API/write/get"
	readPath  = "/API/read/get"
)

// Исходы вызова для метрик
const (
	outcomeOK        = "ok"
	outcomeTransport = "transport_error"
	outcomeInvalid   = "invalid_json"
)

// Client исходящие вызовы к API ulvis.net
type Client interface {
	Write(ctx context.Context, params WriteParams) (*WriteResponse, error)
	Read(ctx context.Context, alias string) (*ReadResponse, error)
}

// WriteParams параметры создания ссылки
type WriteParams struct {
	URL     string
	Alias   string
	Uses    int  // Лимит переходов, 1 = одноразовая
	Private bool // Скрыть ссылку из публичных списков
}

type Options struct {
	BaseURL      string
	Timeout      time.Duration
	UserAgent    string
	PreviewLimit int
	Metrics      *metrics.Metrics
}

// DecodeError ulvis ответил не JSON (обычно HTML-страница блокировки)
type DecodeError struct {
	StatusCode int
	Preview    string
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("ulvis returned invalid JSON (status %d): %v", e.StatusCode, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type client struct {
	http         *req.Client
	previewLimit int
	metrics      *metrics.Metrics
}

// NewClient создаёт клиент с заголовками браузера: без них ulvis отвечает страницей антибота
func NewClient(opts Options) Client {
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.PreviewLimit == 0 {
		opts.PreviewLimit = 200
	}

	httpClient := req.C().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetUserAgent(opts.UserAgent).
		SetCommonHeaders(map[string]string{
			"Accept":           "application/json, text/javascript, */*; q=0.01",
			"Referer":          opts.BaseURL + "/",
			"X-Requested-With": "XMLHttpRequest",
		})

	return &client{
		http:         httpClient,
		previewLimit: opts.PreviewLimit,
		metrics:      opts.Metrics,
	}
}

func (c *client) Write(ctx context.Context, params WriteParams) (*WriteResponse, error) {
	query := map[string]string{
		"url":    params.URL,
		"custom": params.Alias,
		"type":   "json",
	}
	if params.Uses > 0 {
		query["uses"] = strconv.Itoa(params.Uses)
	}
	if params.Private {
		query["private"] = "1"
	}

	var resp WriteResponse
	if err := c.get(ctx, "write", writePath, query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *client) Read(ctx context.Context, alias string) (*ReadResponse, error) {
	query := map[string]string{
		"id":   alias,
		"type": "json",
	}

	var resp ReadResponse
	if err := c.get(ctx, "read", readPath, query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// get выполняет запрос и разбирает тело как JSON независимо от HTTP-статуса:
// ulvis кладёт ошибки в тело, а статус бывает любым
func (c *client) get(ctx context.Context, endpoint, path string, query map[string]string, target any) error {
	start := time.Now()

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(path)
	if err != nil {
		c.metrics.ObserveUpstream(endpoint, outcomeTransport, time.Since(start))
		return fmt.Errorf("ulvis %s request: %w", endpoint, err)
	}

	body, err := resp.ToBytes()
	if err != nil {
		c.metrics.ObserveUpstream(endpoint, outcomeTransport, time.Since(start))
		return fmt.Errorf("ulvis %s read body: %w", endpoint, err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		c.metrics.ObserveUpstream(endpoint, outcomeInvalid, time.Since(start))
		return &DecodeError{
			StatusCode: resp.StatusCode,
			Preview:    Preview(body, c.previewLimit),
			Err:        err,
		}
	}

	c.metrics.ObserveUpstream(endpoint, outcomeOK, time.Since(start))
	return nil
}
