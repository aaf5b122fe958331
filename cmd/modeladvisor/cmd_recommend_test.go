package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommendCommand_ExplicitSlice(t *testing.T) {
	out, err := runCommand(t, "recommend", "--category", "computer_vision", "--subcategory", "object_detection")
	require.NoError(t, err)

	assert.Contains(t, out, "NanoDet Plus")
	assert.Contains(t, out, "Lightweight")
	assert.Contains(t, out, "models shown")
}

func TestRecommendCommand_FromText(t *testing.T) {
	out, err := runCommand(t, "recommend", "detect objects in photos")
	require.NoError(t, err)

	assert.Contains(t, out, "computer_vision / object_detection")
	assert.Contains(t, out, "NanoDet Plus")
}

func TestRecommendCommand_AccuracyFilterReportsHidden(t *testing.T) {
	out, err := runCommand(t, "recommend", "--min-accuracy", "80", "--category", "computer_vision", "--subcategory", "object_detection")
	require.NoError(t, err)

	assert.NotContains(t, out, "NanoDet Plus")
	assert.Contains(t, out, "hidden by filters")
}

func TestRecommendCommand_InvalidThreshold(t *testing.T) {
	_, err := runCommand(t, "recommend", "--min-accuracy", "120", "--category", "audio")
	require.Error(t, err)
}

func TestRecommendCommand_RequiresInput(t *testing.T) {
	_, err := runCommand(t, "recommend")
	require.Error(t, err)
}

func TestRecommendCommand_CategoryOnlyUsesFirstSubcategory(t *testing.T) {
	out, err := runCommand(t, "recommend", "--category", "audio")
	require.NoError(t, err)

	assert.Contains(t, out, "audio / speech_recognition")
	assert.Contains(t, out, "Whisper Tiny")
}
