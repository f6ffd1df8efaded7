package activityFeed

import (
	"github.com/yieldshift/sidecar/pkg/viewModel"
)

// Buffer is a fixed-capacity ring of events. Once full, each push evicts the oldest entry.
type Buffer struct {
	items []viewModel.ActivityEvent
	head  int
	size  int
}

func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{
		items: make([]viewModel.ActivityEvent, capacity),
		head:  -1,
	}
}

// Push appends events in arrival order; the last one becomes the newest.
func (b *Buffer) Push(events ...viewModel.ActivityEvent) {
	for _, e := range events {
		b.head = (b.head + 1) % len(b.items)
		b.items[b.head] = e
		if b.size < len(b.items) {
			b.size++
		}
	}
}

// Events returns the retained events, newest first.
func (b *Buffer) Events() []viewModel.ActivityEvent {
	out := make([]viewModel.ActivityEvent, 0, b.size)
	for i := 0; i < b.size; i++ {
		idx := (b.head - i + len(b.items)) % len(b.items)
		out = append(out, b.items[idx])
	}
	return out
}

func (b *Buffer) Len() int {
	return b.size
}

func (b *Buffer) Cap() int {
	return len(b.items)
}

func (b *Buffer) Reset() {
	for i := range b.items {
		b.items[i] = viewModel.ActivityEvent{}
	}
	b.head = -1
	b.size = 0
}

// Merge combines two lists sorted newest first into one, keeping at most limit entries.
// On equal timestamps entries from a come first.
func Merge(a, b []viewModel.ActivityEvent, limit int) []viewModel.ActivityEvent {
	n := len(a) + len(b)
	if limit >= 0 && n > limit {
		n = limit
	}
	out := make([]viewModel.ActivityEvent, 0, n)
	i, j := 0, 0
	for len(out) < n {
		switch {
		case j >= len(b) || (i < len(a) && !a[i].Timestamp.Before(b[j].Timestamp)):
			out = append(out, a[i])
			i++
		default:
			out = append(out, b[j])
			j++
		}
	}
	return out
}
