package domain

// Queue is a FIFO of pending entries. Insertion order is play order.
// The entry that is currently playing has already been popped and is not part of the queue.
type Queue struct {
	entries []QueueEntry
}

// NewQueue creates a new empty Queue.
func NewQueue() Queue {
	return Queue{
		entries: make([]QueueEntry, 0),
	}
}

// IsEmpty returns true if the queue has no entries.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Len returns the number of pending entries.
func (q *Queue) Len() int {
	return len(q.entries)
}

// Push appends entries to the tail of the queue.
func (q *Queue) Push(entries ...QueueEntry) {
	q.entries = append(q.entries, entries...)
}

// Pop removes and returns the head of the queue.
// Returns false if the queue is empty.
func (q *Queue) Pop() (QueueEntry, bool) {
	if q.IsEmpty() {
		return QueueEntry{}, false
	}

	head := q.entries[0]
	q.entries[0] = QueueEntry{}
	q.entries = q.entries[1:]
	return head, true
}

// Peek returns the head of the queue without removing it, or nil if the queue is empty.
func (q *Queue) Peek() *QueueEntry {
	if q.IsEmpty() {
		return nil
	}
	head := q.entries[0]
	return &head
}

// List returns a copy of the pending entries in play order.
func (q *Queue) List() []QueueEntry {
	result := make([]QueueEntry, q.Len())
	copy(result, q.entries)
	return result
}

// Clear removes all entries and returns how many were removed.
func (q *Queue) Clear() int {
	n := q.Len()
	q.entries = make([]QueueEntry, 0)
	return n
}

// Shuffle permutes the queue in place using Fisher-Yates.
// intn must return a uniformly distributed integer in [0, n).
func (q *Queue) Shuffle(intn func(n int) int) {
	for i := q.Len() - 1; i > 0; i-- {
		j := intn(i + 1)
		q.entries[i], q.entries[j] = q.entries[j], q.entries[i]
	}
}
