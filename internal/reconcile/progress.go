package reconcile

import (
	"sync"

	"github.com/gitsecureops/access-reconciler/internal/domain"
)

// ChannelSink publishes progress snapshots onto a buffered channel that the
// caller drains. Publishing never blocks: when the channel is full the oldest
// pending snapshot is dropped in favor of the newest one.
type ChannelSink struct {
	mu sync.Mutex
	ch chan domain.BatchProgress
}

// NewChannelSink creates a channel-backed progress sink
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 16
	}
	return &ChannelSink{ch: make(chan domain.BatchProgress, buffer)}
}

// Updates returns the channel snapshots are delivered on
func (s *ChannelSink) Updates() <-chan domain.BatchProgress {
	return s.ch
}

// Publish delivers a snapshot without blocking the pipeline
func (s *ChannelSink) Publish(p domain.BatchProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		select {
		case s.ch <- p:
			return
		default:
			select {
			case <-s.ch:
			default:
			}
		}
	}
}

// Close closes the updates channel. Call only after the run has finished.
func (s *ChannelSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	close(s.ch)
}
