package contact

// newestFirst lists what was saved, most recent message first.
func (r *MemoryRepository) newestFirst() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Message, 0, len(r.messages))
	for i := len(r.messages) - 1; i >= 0; i-- {
		out = append(out, r.messages[i])
	}
	return out
}
