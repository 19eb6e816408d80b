package intake

// Batch is the session's ordered set of accepted files, unique by
// (name, byteSize). Exactly one Batch exists per session; it is
// appended to by the Validator and read by the transfer orchestrator.
type Batch struct {
	items []FileCandidate
	index map[identity]struct{}
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{index: make(map[identity]struct{})}
}

// Len reports the number of accepted files.
func (b *Batch) Len() int {
	return len(b.items)
}

// Items returns a snapshot copy in arrival order.
func (b *Batch) Items() []FileCandidate {
	return append([]FileCandidate(nil), b.items...)
}

// Clear resets the batch to empty. This is the only way to remove
// previously accepted files short of a session restart.
func (b *Batch) Clear() {
	b.items = nil
	b.index = make(map[identity]struct{})
}

func (b *Batch) contains(id identity) bool {
	_, ok := b.index[id]
	return ok
}

func (b *Batch) append(c FileCandidate) {
	b.items = append(b.items, c)
	b.index[c.identity()] = struct{}{}
}
