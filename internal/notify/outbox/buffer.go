package outbox

import (
	"sync"

	"samved/internal/notify/models"
)

// RingBuffer is a bounded, thread-safe buffer of intents.
// When full, the oldest intents are dropped to make room for new ones.
type RingBuffer struct {
	mu       sync.Mutex
	intents  []models.Intent
	head     int // next write position
	tail     int // next read position
	count    int
	capacity int

	dropped int64
}

func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 1024
	}
	return &RingBuffer{
		intents:  make([]models.Intent, capacity),
		capacity: capacity,
	}
}

// Enqueue adds an intent and returns the one it evicted, if any.
func (b *RingBuffer) Enqueue(intent models.Intent) (models.Intent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var evicted models.Intent
	dropped := false
	if b.count >= b.capacity {
		evicted = b.intents[b.tail]
		b.intents[b.tail] = models.Intent{}
		b.tail = (b.tail + 1) % b.capacity
		b.count--
		b.dropped++
		dropped = true
	}

	b.intents[b.head] = intent
	b.head = (b.head + 1) % b.capacity
	b.count++
	return evicted, dropped
}

// DequeueBatch removes up to n intents in FIFO order.
func (b *RingBuffer) DequeueBatch(n int) []models.Intent {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 || n <= 0 {
		return nil
	}
	if n > b.count {
		n = b.count
	}

	result := make([]models.Intent, n)
	for i := 0; i < n; i++ {
		result[i] = b.intents[b.tail]
		// drop the reference so one-time passwords do not linger
		b.intents[b.tail] = models.Intent{}
		b.tail = (b.tail + 1) % b.capacity
	}
	b.count -= n
	return result
}

func (b *RingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Dropped returns the total number of evicted intents.
func (b *RingBuffer) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
