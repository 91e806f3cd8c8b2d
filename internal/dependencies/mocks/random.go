package mocks

import (
	"sync"

	"github.com/mcoot/rpsmatch/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing.
// Queued values are consumed in order; once a queue is exhausted it falls
// back to a counter-derived value so room codes stay distinct.
type MockRandom struct {
	mu sync.Mutex

	stringResults []string
	fallback      int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// String returns the next queued result, or a deterministic code drawn from
// the alphabet if none remain
func (r *MockRandom) String(length int, alphabet string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stringResults) > 0 {
		result := r.stringResults[0]
		r.stringResults = r.stringResults[1:]
		return result
	}
	if length <= 0 || len(alphabet) == 0 {
		return ""
	}

	r.fallback++
	n := r.fallback
	result := make([]byte, length)
	for i := length - 1; i >= 0; i-- {
		result[i] = alphabet[n%len(alphabet)]
		n /= len(alphabet)
	}
	return string(result)
}

// QueueString adds values to the String result queue
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stringResults = append(r.stringResults, values...)
}
