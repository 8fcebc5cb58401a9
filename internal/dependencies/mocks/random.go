package mocks

import (
	"sync"

	"github.com/mcoot/beforeafter/internal/dependencies/random"
)

// MockRandom returns queued values so shuffles are deterministic in tests
type MockRandom struct {
	mu sync.Mutex

	// IntnResults is a queue of results to return from Intn
	IntnResults []int
	intnIndex   int

	// IntnCalls records the n passed to every Intn call
	IntnCalls []int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result, or n-1 if none remaining.
// n-1 makes an unqueued Fisher-Yates shuffle the identity permutation.
// Queued values outside [0, n) are clamped.
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.IntnCalls = append(r.IntnCalls, n)

	if n <= 0 {
		return 0
	}
	if r.intnIndex >= len(r.IntnResults) {
		return n - 1
	}
	result := r.IntnResults[r.intnIndex]
	r.intnIndex++
	return min(max(result, 0), n-1)
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.IntnResults = append(r.IntnResults, values...)
}

// Reset clears all queued results and recorded calls
func (r *MockRandom) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.IntnResults = nil
	r.intnIndex = 0
	r.IntnCalls = nil
}
