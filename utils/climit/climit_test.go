package climit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func acquire(t *testing.T, cl *ConcurrencyLimit) *Token {
	token, err := cl.Acquire(context.Background())
	require.NoError(t, err)
	return token
}

func TestConcurrencyLimit(t *testing.T) {
	cl := New("test", "test", 2, nil)
	event := make(chan struct{})

	var count atomic.Int32

	var t1, t2, t4, t8 *Token
	go func() {
		t1 = acquire(t, cl)
		count.Add(1)
		event <- struct{}{}
		t2 = acquire(t, cl)
		count.Add(2)
		event <- struct{}{}
		t4 = acquire(t, cl)
		count.Add(4)
		event <- struct{}{}
		t8 = acquire(t, cl)
		count.Add(8)
		event <- struct{}{}
	}()

	<-event
	<-event
	assert.Equal(t, int32(3), count.Load())
	time.Sleep(10 * time.Millisecond)
	select {
	case <-event:
		t.Fatal("unexpected event")
	default:
		// OK
	}

	// Release a token
	assert.Greater(t, t2.Release(), time.Duration(0))
	<-event
	assert.Equal(t, int32(7), count.Load())

	// Release the same again, nothing happens
	assert.Equal(t, time.Duration(0), t2.Release())
	time.Sleep(10 * time.Millisecond)
	select {
	case <-event:
		t.Fatal("unexpected event")
	default:
		// OK
	}
	assert.Equal(t, int32(7), count.Load())

	// Release another for the last increment
	t1.Release()
	<-event
	assert.Equal(t, int32(15), count.Load())

	t4.Release()
	t8.Release()
}

func TestConcurrencyLimit_cancel(t *testing.T) {
	cl := New("test", "cancel", 1, nil)
	token := acquire(t, cl)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := cl.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	token.Release()
	token = acquire(t, cl)
	token.Release()
}
