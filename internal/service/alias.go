package service

import (
	"fmt"
	"sync"

	"github.com/jaevor/go-nanoid"
)

// AliasAlphabet 26 строчных, 26 заглавных и 10 цифр
const AliasAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultAliasLength 62^4 ≈ 14.8M вариантов на попытку
const DefaultAliasLength = 4

// AliasGenerator возвращает новый случайный алиас при каждом вызове.
// Уникальность не гарантируется: занятый алиас отклоняет ulvis.
// Вызывается из нескольких горутин пакетного режима.
type AliasGenerator func() string

// NewAliasGenerator генератор алиасов длины length с равномерным выбором символа
func NewAliasGenerator(length int) (AliasGenerator, error) {
	if length <= 0 {
		length = DefaultAliasLength
	}

	gen, err := nanoid.CustomASCII(AliasAlphabet, length)
	if err != nil {
		return nil, fmt.Errorf("failed to create alias generator: %w", err)
	}

	var mu sync.Mutex
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		return gen()
	}, nil
}
