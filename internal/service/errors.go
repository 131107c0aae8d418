package service

import (
	"errors"
	"fmt"
)

// Ошибки сервиса
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUpstreamUnparseable = errors.New("ulvis returned invalid JSON (IP likely blocked)")
	ErrUpstreamRejected    = errors.New("ulvis rejected the request")
	ErrRetriesExhausted    = errors.New("alias retries exhausted")
	ErrNetwork             = errors.New("ulvis request failed")
	ErrLinkNotFound        = errors.New("link not found")
)

// UpstreamError ошибка обращения к ulvis с диагностикой.
// Kind - одна из sentinel-ошибок выше, по ней работает errors.Is.
type UpstreamError struct {
	Kind    error
	Message string
	Preview string // Начало сырого ответа, если он не разобрался
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == e.Kind
}

// KindName короткое имя вида ошибки для JSON-ответов и метрик
func KindName(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrUpstreamUnparseable):
		return "upstream_unparseable"
	case errors.Is(err, ErrUpstreamRejected):
		return "upstream_rejected"
	case errors.Is(err, ErrRetriesExhausted):
		return "retries_exhausted"
	case errors.Is(err, ErrLinkNotFound):
		return "not_found"
	case errors.Is(err, ErrNetwork):
		return "network_error"
	default:
		return "internal_error"
	}
}

// PreviewOf достаёт превью сырого ответа, если оно есть
func PreviewOf(err error) string {
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.Preview
	}
	return ""
}
