package sim

import "sync/atomic"

// A Conduit is an ordered, unbounded message queue with any number of
// producers and exactly one consumer. Sends never block; the backlog
// grows as needed. Closing the conduit drains the backlog to the
// consumer and then closes the consumer channel, so a closed peer is
// observed as end-of-stream rather than an error.
type Conduit[T any] struct {
	in  chan T
	out chan T

	consumerTaken atomic.Bool
}

// NewConduit creates a conduit and starts its pump.
func NewConduit[T any]() *Conduit[T] {
	c := &Conduit[T]{
		in:  make(chan T),
		out: make(chan T),
	}

	go c.pump()

	return c
}

func (c *Conduit[T]) pump() {
	var backlog []T

	in := c.in
	for in != nil || len(backlog) > 0 {
		var out chan T
		var next T
		if len(backlog) > 0 {
			out = c.out
			next = backlog[0]
		}

		select {
		case v, ok := <-in:
			if !ok {
				in = nil
				break
			}
			backlog = append(backlog, v)
		case out <- next:
			backlog = backlog[1:]
		}
	}

	close(c.out)
}

// Sender returns a producer handle. Senders are cheap value copies; all
// of them feed the same logical queue in send order.
func (c *Conduit[T]) Sender() Sender[T] {
	return Sender[T]{in: c.in}
}

// Receiver returns the consumer handle. Exactly one consumer may exist
// per conduit; taking it twice is a wiring bug and panics.
func (c *Conduit[T]) Receiver() Receiver[T] {
	if !c.consumerTaken.CompareAndSwap(false, true) {
		panic("conduit consumer already taken")
	}

	return Receiver[T]{out: c.out}
}

// Close stops accepting new messages. The backlog is still delivered.
// No Send may run concurrently with or after Close.
func (c *Conduit[T]) Close() {
	close(c.in)
}

// A Sender is a cloneable producer end of a conduit.
type Sender[T any] struct {
	in chan<- T
}

// Send enqueues a message. It never blocks for queue space.
func (s Sender[T]) Send(v T) {
	s.in <- v
}

// Valid reports whether the sender is connected to a conduit.
func (s Sender[T]) Valid() bool {
	return s.in != nil
}

// A Receiver is the exclusively-owned consumer end of a conduit.
type Receiver[T any] struct {
	out <-chan T
}

// Ch exposes the consumer channel so the owner can select over several
// conduits at once.
func (r Receiver[T]) Ch() <-chan T {
	return r.out
}

// Receive blocks for the next message. The second return value is false
// once the conduit is closed and drained.
func (r Receiver[T]) Receive() (T, bool) {
	v, ok := <-r.out
	return v, ok
}

// Valid reports whether the receiver is connected to a conduit.
func (r Receiver[T]) Valid() bool {
	return r.out != nil
}
