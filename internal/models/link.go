package models

import (
	"time"
)

// ShortLink результат успешного сокращения одной ссылки.
// OriginalURL хранит ввод клиента, как и ShortenResult.Original.
type ShortLink struct {
	OriginalURL string `json:"original_url"`
	ShortURL    string `json:"short_url"`
	Alias       string `json:"alias"`
}

// ShortenResult элемент ответа пакетного сокращения.
// Original хранит ввод клиента как есть, без нормализации.
type ShortenResult struct {
	Success    bool   `json:"success"`
	Original   string `json:"original"`
	Short      string `json:"short,omitempty"`
	Alias      string `json:"alias,omitempty"`
	Error      string `json:"error,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty"`
	RawPreview string `json:"raw_preview,omitempty"`
}

// IssuedLink запись журнала выданных ссылок
type IssuedLink struct {
	ID          int64     `json:"id"`
	Alias       string    `json:"alias"`
	ShortURL    string    `json:"short_url"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
}
