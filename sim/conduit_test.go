package sim

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConduitDeliversInSendOrder(t *testing.T) {
	c := NewConduit[int]()
	sender := c.Sender()
	receiver := c.Receiver()

	for i := 0; i < 1000; i++ {
		sender.Send(i)
	}
	c.Close()

	for i := 0; i < 1000; i++ {
		v, ok := receiver.Receive()
		require.True(t, ok)
		require.Equal(t, i, v)
	}

	_, ok := receiver.Receive()
	assert.False(t, ok, "closed conduit must read as end-of-stream")
}

func TestConduitSendNeverBlocksWithoutConsumer(t *testing.T) {
	c := NewConduit[int]()
	sender := c.Sender()

	// No receiver is draining; all sends must still complete.
	for i := 0; i < 10000; i++ {
		sender.Send(i)
	}

	receiver := c.Receiver()
	v, ok := receiver.Receive()
	require.True(t, ok)
	assert.Equal(t, 0, v)
}

func TestConduitManyProducersOneQueue(t *testing.T) {
	c := NewConduit[int]()
	receiver := c.Receiver()

	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		sender := c.Sender()
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				sender.Send(i)
			}
		}()
	}

	go func() {
		wg.Wait()
		c.Close()
	}()

	count := 0
	for range receiver.Ch() {
		count++
	}
	assert.Equal(t, 800, count)
}

func TestConduitSecondReceiverPanics(t *testing.T) {
	c := NewConduit[int]()
	c.Receiver()

	assert.Panics(t, func() {
		c.Receiver()
	})
}

func TestSenderValidity(t *testing.T) {
	var zero Sender[int]
	assert.False(t, zero.Valid())

	c := NewConduit[int]()
	assert.True(t, c.Sender().Valid())
}
