package iodev

import "github.com/me/ossim/pkg/model"

// InterruptQueue is a FIFO of I/O completion interrupts awaiting the
// scheduler.
type InterruptQueue struct {
	items []model.Interrupt
}

// NewInterruptQueue returns an empty queue.
func NewInterruptQueue() *InterruptQueue {
	return &InterruptQueue{}
}

// Push appends an interrupt.
func (q *InterruptQueue) Push(in model.Interrupt) {
	q.items = append(q.items, in)
}

// Pop removes and returns the oldest interrupt.
func (q *InterruptQueue) Pop() (model.Interrupt, bool) {
	if len(q.items) == 0 {
		return model.Interrupt{}, false
	}
	in := q.items[0]
	q.items[0] = model.Interrupt{}
	q.items = q.items[1:]
	return in, true
}

// Empty reports whether no interrupt is pending.
func (q *InterruptQueue) Empty() bool {
	return len(q.items) == 0
}

// Len returns the number of pending interrupts.
func (q *InterruptQueue) Len() int {
	return len(q.items)
}
