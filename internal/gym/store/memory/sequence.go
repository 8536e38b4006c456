package memory

import (
	"context"
	"fmt"
	"sync"
)

// Sequence allocates PREFIX-NNNN member identifiers from an in-memory counter.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	next   int64
}

// NewSequence seeds the allocator; the first allocated ID is PREFIX-<base+1>.
func NewSequence(prefix string, base int64) *Sequence {
	return &Sequence{prefix: prefix, next: base + 1}
}

func (s *Sequence) NextMemberID(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("%s-%d", s.prefix, s.next)
	s.next++
	return id, nil
}
