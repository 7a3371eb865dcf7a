package events

import (
	"sync"
	"sync/atomic"
	"time"

	"kudos-backend/internal/logger"
)

// Queue decouples ledger operations from notification fan-out. Publish
// never blocks the caller: when the buffer is full the event is dropped and
// counted, never queued against the ledger path.
type Queue struct {
	ch      chan Event
	dropped atomic.Int64

	mu     sync.RWMutex
	closed bool
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 1024
	}
	return &Queue{ch: make(chan Event, size)}
}

// Publish after Close is a counted drop, not a panic: services holding the
// queue may outlive the process shutdown sequence.
func (q *Queue) Publish(event Event) {
	if event.OccurredOn.IsZero() {
		event.OccurredOn = time.Now().UTC()
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		n := q.dropped.Add(1)
		logger.Warn("Event queue closed, dropping event", "kind", event.Kind, "subject_id", event.SubjectID, "dropped_total", n)
		return
	}
	select {
	case q.ch <- event:
	default:
		n := q.dropped.Add(1)
		logger.Warn("Event queue full, dropping event", "kind", event.Kind, "subject_id", event.SubjectID, "dropped_total", n)
	}
}

// Dropped reports how many events were discarded because the buffer was
// full.
func (q *Queue) Dropped() int64 {
	return q.dropped.Load()
}

// Close stops intake. The dispatcher drains whatever is still buffered.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}

// Dispatcher consumes the queue on its own goroutine and fans each event
// out to every sink in order.
type Dispatcher struct {
	queue *Queue
	sinks []Sink
	done  chan struct{}
}

func NewDispatcher(queue *Queue, sinks ...Sink) *Dispatcher {
	return &Dispatcher{queue: queue, sinks: sinks, done: make(chan struct{})}
}

func (d *Dispatcher) Start() {
	go func() {
		defer close(d.done)
		for event := range d.queue.ch {
			for _, sink := range d.sinks {
				d.deliver(sink, event)
			}
		}
	}()
}

func (d *Dispatcher) deliver(sink Sink, event Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Event sink panicked", "kind", event.Kind, "panic", r)
		}
	}()
	sink.Deliver(event)
}

// Wait blocks until the queue is closed and fully drained.
func (d *Dispatcher) Wait() {
	<-d.done
}
