package llm

import (
	"context"
	"sync"
)

// IterResult is a single item delivered by an EventStream iterator.
type IterResult[T any] struct {
	Value T
	Done  bool
}

// EventStream is an async event stream with a final result.
// T is the event type, R is the final result type. A producer calls Push
// and End; a consumer drains events through Iterator and may read the
// final result from Result.
type EventStream[T any, R any] struct {
	mu            sync.Mutex
	queue         []T
	waiting       []chan<- IterResult[T]
	done          bool
	finalResultCh chan R
	isFinal       func(T) bool
	extractResult func(T) R
}

// NewEventStream creates an EventStream. isFinal reports whether an event
// terminates the stream; extractResult pulls the final result from such an
// event.
func NewEventStream[T any, R any](isFinal func(T) bool, extractResult func(T) R) *EventStream[T, R] {
	return &EventStream[T, R]{
		finalResultCh: make(chan R, 1),
		isFinal:       isFinal,
		extractResult: extractResult,
	}
}

// Push delivers an event to the consumer. Events pushed after the stream
// ended are dropped. A final event marks the stream done and stores the
// final result before being delivered itself.
func (es *EventStream[T, R]) Push(event T) {
	es.mu.Lock()
	defer es.mu.Unlock()

	if es.done {
		return
	}

	if es.isFinal(event) {
		es.done = true
		es.finalResultCh <- es.extractResult(event)
	}

	if len(es.waiting) > 0 {
		waiter := es.waiting[0]
		es.waiting = es.waiting[1:]
		waiter <- IterResult[T]{Value: event}
		return
	}
	es.queue = append(es.queue, event)
}

// End marks the stream done with the given result. It is a no-op when a
// final event already ended the stream. Events pushed before End are still
// drained by the iterator.
func (es *EventStream[T, R]) End(result R) {
	es.mu.Lock()
	defer es.mu.Unlock()

	if es.done {
		return
	}
	es.done = true
	es.finalResultCh <- result

	for _, waiter := range es.waiting {
		select {
		case waiter <- IterResult[T]{Done: true}:
		default:
		}
	}
	es.waiting = nil
}

// Iterator returns a channel yielding events in push order. The channel is
// closed once the stream has ended and queued events are drained, or when
// ctx is cancelled.
func (es *EventStream[T, R]) Iterator(ctx context.Context) <-chan IterResult[T] {
	ch := make(chan IterResult[T])

	go func() {
		defer close(ch)
		for {
			es.mu.Lock()
			if len(es.queue) > 0 {
				event := es.queue[0]
				es.queue = es.queue[1:]
				es.mu.Unlock()
				select {
				case ch <- IterResult[T]{Value: event}:
				case <-ctx.Done():
					return
				}
				continue
			}
			if es.done {
				es.mu.Unlock()
				return
			}
			waiter := make(chan IterResult[T], 1)
			es.waiting = append(es.waiting, waiter)
			es.mu.Unlock()

			select {
			case result := <-waiter:
				if result.Done {
					return
				}
				select {
				case ch <- result:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}

// Result returns a channel delivering the final result once the stream ends.
func (es *EventStream[T, R]) Result() <-chan R {
	return es.finalResultCh
}

// IsDone reports whether the stream has ended.
func (es *EventStream[T, R]) IsDone() bool {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.done
}
