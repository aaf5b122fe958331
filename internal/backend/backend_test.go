package backend

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeGenerateParams(t *testing.T) {
	p, err := DecodeGenerateParams(map[string]any{
		"temperature": 0.3,
		"max_tokens":  64,
	})
	require.NoError(t, err)
	require.Equal(t, 0.3, p.Temperature)
	require.Equal(t, 64, p.MaxTokens)
}

func TestDecodeGenerateParams_Empty(t *testing.T) {
	p, err := DecodeGenerateParams(nil)
	require.NoError(t, err)
	require.Zero(t, p)
}

func TestDecodeGenerateParams_BadType(t *testing.T) {
	_, err := DecodeGenerateParams(map[string]any{"max_tokens": "plenty"})
	require.Error(t, err)
}
