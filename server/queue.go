// File: server/queue.go
package server

import (
	"sync"

	"github.com/lguibr/pacgo/utils"
)

// SessionCtx is one admitted client waiting for, or owned by, a worker:
// the open pipe fds plus everything the session needs to run.
type SessionCtx struct {
	ID        int
	ReqFD     int // request pipe, read side, non-blocking
	NotifFD   int // notification pipe, write side
	ReqPath   string
	NotifPath string
	LevelsDir string
}

// SessionQueue is a bounded FIFO between the registrar (producer) and
// the worker pool (consumers). The ring holds the items; the two
// buffered channels are counting semaphores for free and used slots, so
// Enqueue blocks when the ring is full and Dequeue when it is empty.
type SessionQueue struct {
	mu    sync.Mutex
	ring  [utils.BufferSize]*SessionCtx
	head  int
	tail  int
	empty chan struct{}
	full  chan struct{}
}

// NewSessionQueue builds an empty queue with all slots free.
func NewSessionQueue() *SessionQueue {
	q := &SessionQueue{
		empty: make(chan struct{}, utils.BufferSize),
		full:  make(chan struct{}, utils.BufferSize),
	}
	for i := 0; i < utils.BufferSize; i++ {
		q.empty <- struct{}{}
	}
	return q
}

// Enqueue adds one admitted session, blocking while the queue is full.
func (q *SessionQueue) Enqueue(ctx *SessionCtx) {
	<-q.empty
	q.mu.Lock()
	q.ring[q.tail] = ctx
	q.tail = (q.tail + 1) % utils.BufferSize
	q.mu.Unlock()
	q.full <- struct{}{}
}

// Dequeue removes the oldest session, blocking while the queue is empty.
func (q *SessionQueue) Dequeue() *SessionCtx {
	<-q.full
	q.mu.Lock()
	ctx := q.ring[q.head]
	q.ring[q.head] = nil
	q.head = (q.head + 1) % utils.BufferSize
	q.mu.Unlock()
	q.empty <- struct{}{}
	return ctx
}
