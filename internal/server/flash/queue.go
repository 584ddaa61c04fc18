// Package flash implements one-shot notifications that survive exactly one
// redirect. Messages pushed while handling request N are persisted by a
// Store and loaded into the queue of request N+1, where draining them
// removes them for good.
package flash

import (
	"context"
	"sync"
)

// Kind is the category a message is displayed under.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindNotice  Kind = "notice"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{KindSuccess, KindError, KindNotice}

// Queue holds pending messages for a single request cycle.
type Queue struct {
	mu      sync.Mutex
	msgs    map[Kind][]string
	changed bool
}

func NewQueue() *Queue {
	return &Queue{msgs: map[Kind][]string{}}
}

// newLoadedQueue seeds a queue with messages read from a Store. A non-empty
// seed marks the queue as changed so that the store is rewritten (or
// cleared) when the response is sent.
func newLoadedQueue(seed map[Kind][]string) *Queue {
	q := NewQueue()
	for k, v := range seed {
		if len(v) == 0 {
			continue
		}
		q.msgs[k] = append([]string(nil), v...)
		q.changed = true
	}
	return q
}

func (q *Queue) Push(kind Kind, msg string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.msgs[kind] = append(q.msgs[kind], msg)
	q.changed = true
}

// Drain returns the messages of kind in push order and removes them.
func (q *Queue) Drain(kind Kind) []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.msgs[kind]
	if len(out) == 0 {
		return nil
	}
	delete(q.msgs, kind)
	q.changed = true
	return out
}

// DrainAll drains every kind. Kinds without messages are omitted.
func (q *Queue) DrainAll() map[Kind][]string {
	out := map[Kind][]string{}
	for _, k := range Kinds {
		if m := q.Drain(k); len(m) > 0 {
			out[k] = m
		}
	}
	return out
}

// Peek returns a copy of the messages of kind without consuming them.
func (q *Queue) Peek(kind Kind) []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.msgs[kind]...)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for _, v := range q.msgs {
		n += len(v)
	}
	return n
}

func (q *Queue) snapshot() (map[Kind][]string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make(map[Kind][]string, len(q.msgs))
	for k, v := range q.msgs {
		if len(v) > 0 {
			out[k] = append([]string(nil), v...)
		}
	}
	return out, q.changed
}

type ctxKey string

const queueKey ctxKey = "flashQueue"

// WithQueue returns a copy of ctx carrying q.
func WithQueue(ctx context.Context, q *Queue) context.Context {
	return context.WithValue(ctx, queueKey, q)
}

// FromContext returns the request's queue. Outside the middleware it returns
// a detached queue so callers never need a nil check.
func FromContext(ctx context.Context) *Queue {
	if q, ok := ctx.Value(queueKey).(*Queue); ok && q != nil {
		return q
	}
	return NewQueue()
}
