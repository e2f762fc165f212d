// Package eventstream implements the Event Stream external collaborator
// (spec.md §6 item 4): a pull interface providing new observation events
// (tool completions, interrupts, webhook callbacks). Grounded on
// octoreflex/internal/kernel/events.go's non-blocking ring-buffer drain
// with a drop counter, and on the ChannelDecoyEventSink /
// ChannelPartitionSink non-blocking-emit-with-drop-counter idiom shared
// by escalation/camouflage.go and gossip/quorum.go.
package eventstream

import (
	"context"
	"sync/atomic"

	"github.com/azzindani/cogkernel/internal/memory"
	"go.uber.org/zap"
)

// Stream is the Event Stream contract consumed by the OODA Cycle
// Driver's Observe step.
type Stream interface {
	// Pull drains currently-available events without blocking. Must be
	// O(events) in the number of events actually returned.
	Pull(ctx context.Context) []memory.ObservationEvent
	// Push enqueues an event for later delivery. Non-blocking: a full
	// buffer drops the event and increments the drop counter.
	Push(ev memory.ObservationEvent)
	Dropped() uint64
}

// ChannelStream is a Stream backed by a buffered Go channel, the
// userspace analog of the teacher's eBPF ringbuf reader.
type ChannelStream struct {
	ch      chan memory.ObservationEvent
	dropped atomic.Uint64
	log     *zap.Logger
}

// NewChannelStream creates a stream with the given buffer capacity.
func NewChannelStream(capacity int, log *zap.Logger) *ChannelStream {
	if capacity < 1 {
		capacity = 1
	}
	return &ChannelStream{ch: make(chan memory.ObservationEvent, capacity), log: log}
}

// Push enqueues ev; drops and counts on a full buffer rather than
// blocking the producer.
func (s *ChannelStream) Push(ev memory.ObservationEvent) {
	select {
	case s.ch <- ev:
	default:
		s.dropped.Add(1)
		if s.log != nil {
			s.log.Warn("eventstream: buffer full, dropping event", zap.String("source", string(ev.Source)))
		}
	}
}

// Pull drains every event currently buffered without blocking.
func (s *ChannelStream) Pull(ctx context.Context) []memory.ObservationEvent {
	var out []memory.ObservationEvent
	for {
		select {
		case ev := <-s.ch:
			out = append(out, ev)
		case <-ctx.Done():
			return out
		default:
			return out
		}
	}
}

// Dropped returns the cumulative count of events dropped due to a full
// buffer.
func (s *ChannelStream) Dropped() uint64 {
	return s.dropped.Load()
}
