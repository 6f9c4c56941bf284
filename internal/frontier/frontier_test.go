package frontier

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/dagwalk/internal/node"
)

func TestFrontier_LIFO(t *testing.T) {
	f := New(4)
	a, b, c := node.NewLeaf("a"), node.NewLeaf("b"), node.NewLeaf("c")

	_, ok := f.TryWithdraw()
	assert.False(t, ok, "empty frontier reports no work")

	f.Push(a)
	f.Push(b)
	f.Push(c)
	assert.Equal(t, 3, f.Len())

	for _, want := range []node.Node{c, b, a} {
		got, ok := f.TryWithdraw()
		require.True(t, ok)
		assert.Same(t, want, got)
	}
	_, ok = f.TryWithdraw()
	assert.False(t, ok)

	pushes, withdrawals := f.Stats()
	assert.Equal(t, 3, pushes)
	assert.Equal(t, 3, withdrawals)
}

func TestFrontier_DuplicatesAreKept(t *testing.T) {
	f := New(0)
	shared := node.NewLeaf("shared")
	f.Push(shared)
	f.Push(shared)

	first, ok := f.TryWithdraw()
	require.True(t, ok)
	second, ok := f.TryWithdraw()
	require.True(t, ok)
	assert.Same(t, first, second)
}

func TestFrontier_ConcurrentPushWithdraw(t *testing.T) {
	const producers, perProducer = 8, 500
	f := New(0)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				f.Push(node.NewLeaf("x"))
			}
		}()
	}

	var (
		mu    sync.Mutex
		total int
		done  = make(chan struct{})
	)
	var consumers sync.WaitGroup
	for c := 0; c < 4; c++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for {
				if _, ok := f.TryWithdraw(); ok {
					mu.Lock()
					total++
					mu.Unlock()
					continue
				}
				select {
				case <-done:
					// Drain what is left after producers finished.
					for {
						if _, ok := f.TryWithdraw(); !ok {
							return
						}
						mu.Lock()
						total++
						mu.Unlock()
					}
				default:
				}
			}
		}()
	}

	wg.Wait()
	close(done)
	consumers.Wait()

	assert.Equal(t, producers*perProducer, total, "no entry is lost or duplicated")
	assert.Zero(t, f.Len())
}

func TestFrontier_WithdrawWaitsForInFlightPeer(t *testing.T) {
	f := New(0)
	parent := node.NewLeaf("parent")
	child := node.NewLeaf("child")
	f.Push(parent)

	ctx := context.Background()
	got, ok := f.Withdraw(ctx)
	require.True(t, ok)
	require.Same(t, parent, got)

	result := make(chan node.Node, 1)
	go func() {
		n, ok := f.Withdraw(ctx)
		if !ok {
			result <- nil
			return
		}
		result <- n
		f.Settle()
	}()

	// The second caller must not give up while the first one is in flight.
	select {
	case n := <-result:
		t.Fatalf("Withdraw returned early with %v", n)
	case <-time.After(50 * time.Millisecond):
	}

	f.Push(child)
	f.Settle()

	select {
	case n := <-result:
		assert.Same(t, child, n)
	case <-time.After(2 * time.Second):
		t.Fatal("waiting Withdraw was not woken by Push")
	}
}

func TestFrontier_WithdrawReleasedWhenLastSettles(t *testing.T) {
	f := New(0)
	f.Push(node.NewLeaf("only"))

	ctx := context.Background()
	_, ok := f.Withdraw(ctx)
	require.True(t, ok)

	released := make(chan bool, 1)
	go func() {
		_, ok := f.Withdraw(ctx)
		released <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	f.Settle()

	select {
	case ok := <-released:
		assert.False(t, ok, "no work can arrive once every holder settled")
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not released")
	}
}

func TestFrontier_WithdrawHonoursContext(t *testing.T) {
	f := New(0)
	f.Push(node.NewLeaf("held"))
	_, ok := f.Withdraw(context.Background())
	require.True(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	released := make(chan bool, 1)
	go func() {
		_, ok := f.Withdraw(ctx)
		released <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case ok := <-released:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled waiter was not released")
	}
}

func TestFrontier_SettleWithoutWithdrawPanics(t *testing.T) {
	f := New(0)
	assert.Panics(t, f.Settle)
}
