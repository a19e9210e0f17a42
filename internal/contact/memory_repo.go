package contact

import (
	"context"
	"sync"
)

// MemoryRepository keeps messages for the life of the process.
type MemoryRepository struct {
	mu       sync.Mutex
	messages []Message
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Save(_ context.Context, m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
	return nil
}
