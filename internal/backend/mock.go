package backend

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"time"
)

// MockEmbedder is a deterministic in-memory Embedder for tests. Unless a
// fixed vector is registered for a text, it produces a hashed bag-of-words
// vector, so texts sharing tokens come out cosine-similar. That is enough
// structure for nearest-neighbor tests without a real model.
type MockEmbedder struct {
	Dim     int
	Vectors map[string][]float32
	Err     error
}

// NewMockEmbedder creates a mock embedder with the given dimensionality.
func NewMockEmbedder(dim int) *MockEmbedder {
	return &MockEmbedder{Dim: dim, Vectors: make(map[string][]float32)}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if vec, ok := m.Vectors[text]; ok {
		return vec, nil
	}
	return hashedBagOfWords(text, m.Dim), nil
}

func hashedBagOfWords(text string, dim int) []float32 {
	vec := make([]float32, dim)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[h.Sum32()%uint32(dim)] += 1
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}

// MockGenerator is a scripted Generator for tests. Responses are returned in
// order; a nil entry in Errs means that call succeeds. Delay simulates
// latency and honors context cancellation.
type MockGenerator struct {
	Responses []string
	Errs      []error
	Delay     time.Duration

	mu    sync.Mutex
	calls int
}

func (m *MockGenerator) Generate(ctx context.Context, _ string, _ GenerateParams) (string, error) {
	m.mu.Lock()
	idx := m.calls
	m.calls++
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if idx < len(m.Errs) && m.Errs[idx] != nil {
		return "", m.Errs[idx]
	}
	if idx < len(m.Responses) {
		return m.Responses[idx], nil
	}
	if len(m.Responses) > 0 {
		return m.Responses[idx%len(m.Responses)], nil
	}
	return "", ErrGeneratorUnavailable
}

// Calls returns how many times Generate was invoked.
func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
