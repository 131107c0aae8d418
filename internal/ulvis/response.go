package ulvis

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Flag нормализует поле success. ulvis отдаёт его то числом, то булевым,
// то строкой, поэтому истиной считаются 1, true, "1" и "true" (без учёта регистра).
// Любое другое значение, включая отсутствие поля, даёт false.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	*f = Flag(ParseFlag(string(b)))
	return nil
}

// ParseFlag единственное место, где решается, что считать успехом
func ParseFlag(raw string) bool {
	v := strings.ToLower(strings.Trim(strings.TrimSpace(raw), `"`))
	return v == "1" || v == "true"
}

// Count счётчик, который приходит числом или числовой строкой.
// Пустое, нечисловое, отрицательное или не влезающее в int64 значение читается как 0.
type Count int64

func (c *Count) UnmarshalJSON(b []byte) error {
	*c = Count(parseCount(strings.Trim(strings.TrimSpace(string(b)), `"`)))
	return nil
}

func parseCount(v string) int64 {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return max(n, 0)
	}

	// "3.0", "1e3"
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f >= math.MaxInt64 {
		return 0
	}
	return int64(f)
}

// ErrorDetail поле error: строка или объект вида {"msg": "..."}
type ErrorDetail struct {
	Msg string
	Raw string
}

func (e *ErrorDetail) UnmarshalJSON(b []byte) error {
	e.Raw = string(b)

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		e.Msg = s
		return nil
	}

	var obj struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b, &obj); err == nil {
		e.Msg = obj.Msg
		if e.Msg == "" {
			e.Msg = obj.Message
		}
	}
	return nil
}

// Message текст ошибки; если текста нет, отдаётся сырое значение поля
func (e ErrorDetail) Message() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Raw != "" && e.Raw != "null" {
		return e.Raw
	}
	return ""
}

// IsCollision сообщает, что запрошенный алиас уже занят
func (e ErrorDetail) IsCollision() bool {
	text := strings.ToLower(e.Msg + " " + e.Raw)
	return strings.Contains(text, "taken") || strings.Contains(text, "exists")
}

// WriteResponse ответ /API/write/get
type WriteResponse struct {
	Success Flag        `json:"success"`
	Data    WriteData   `json:"data"`
	Error   ErrorDetail `json:"error"`
}

type WriteData struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

// ulvis иногда отдаёт "data": [] вместо объекта
func (d *WriteData) UnmarshalJSON(b []byte) error {
	if !isObject(b) {
		return nil
	}
	type plain WriteData
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return nil
	}
	*d = WriteData(p)
	return nil
}

// ReadResponse ответ /API/read/get
type ReadResponse struct {
	Success Flag        `json:"success"`
	Data    ReadData    `json:"data"`
	Error   ErrorDetail `json:"error"`
}

type ReadData struct {
	URL  string `json:"url"`
	Hits Count  `json:"hits"`
	Last Count  `json:"last"` // unix-время последнего перехода, 0 если переходов не было
}

func (d *ReadData) UnmarshalJSON(b []byte) error {
	if !isObject(b) {
		return nil
	}
	type plain ReadData
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return nil
	}
	*d = ReadData(p)
	return nil
}

func isObject(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '{'
}

// Preview первые limit символов тела ответа для диагностики
func Preview(body []byte, limit int) string {
	if limit <= 0 || utf8.RuneCount(body) <= limit {
		return string(body)
	}
	runes := []rune(string(body))
	return string(runes[:limit])
}
