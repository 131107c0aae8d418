package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAliasGenerator_LengthAndAlphabet(t *testing.T) {
	gen, err := NewAliasGenerator(DefaultAliasLength)
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		alias := gen()
		require.Len(t, alias, DefaultAliasLength)
		for _, r := range alias {
			assert.True(t, strings.ContainsRune(AliasAlphabet, r), "unexpected char %q in %q", r, alias)
		}
		seen[alias] = struct{}{}
	}

	// 500 выборок из 14.8M: почти все должны различаться
	assert.Greater(t, len(seen), 490)
}

func TestNewAliasGenerator_CustomLength(t *testing.T) {
	gen, err := NewAliasGenerator(7)
	require.NoError(t, err)
	assert.Len(t, gen(), 7)

	gen, err = NewAliasGenerator(0)
	require.NoError(t, err)
	assert.Len(t, gen(), DefaultAliasLength)
}
