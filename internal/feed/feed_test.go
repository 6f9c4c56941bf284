package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/dagwalk/internal/ctxlog"
	"github.com/vk/dagwalk/internal/executor"
	"github.com/vk/dagwalk/internal/node"
	"github.com/vk/dagwalk/internal/testutil"
)

type sink struct {
	mu           sync.Mutex
	events       []event
	disconnected bool
}

func (s *sink) emit(name string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event{name, payload})
}

func (s *sink) disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnected = true
}

func TestFeed_Run(t *testing.T) {
	s := &sink{}
	f := newFeed(s.emit, s.disconnect, 0)

	e, err := executor.New(testutil.E2E(),
		executor.WithWorkers(4),
		executor.WithObserver(f),
		executor.WithLogger(ctxlog.Discard()),
	)
	require.NoError(t, err)
	res, err := e.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, f.Close(context.Background()))

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.True(t, s.disconnected)
	require.Len(t, s.events, 2+len(res.Trace))

	first, last := s.events[0], s.events[len(s.events)-1]
	assert.Equal(t, EventRunStart, first.name)
	assert.Equal(t, RunStart{RunID: res.RunID, Root: "0", Workers: 4}, first.payload)
	assert.Equal(t, EventRunEnd, last.name)
	end := last.payload.(RunEnd)
	assert.True(t, end.OK)
	assert.Equal(t, res.Trace, end.Trace)
	assert.Zero(t, end.Dropped)

	var labels []string
	for _, ev := range s.events[1 : len(s.events)-1] {
		require.Equal(t, EventArrival, ev.name)
		a := ev.payload.(Arrival)
		assert.Equal(t, res.RunID, a.RunID)
		if a.Leaf {
			assert.Empty(t, a.From)
		} else {
			assert.NotEmpty(t, a.From)
		}
		labels = append(labels, a.Label)
	}
	testutil.RequireMultiset(t, testutil.E2ECounts, labels)
}

func TestFeed_DropsArrivalsWhenFull(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	s := &sink{}
	f := newFeed(func(name string, payload any) {
		once.Do(func() {
			close(entered)
			<-release
		})
		s.emit(name, payload)
	}, s.disconnect, 1)

	f.OnRunStart(context.Background(), "r", "root", 1)
	<-entered

	for i := 0; i < 3; i++ {
		f.OnArrival(context.Background(), executor.Arrival{RunID: "r", Label: "x", Leaf: true})
	}
	assert.Equal(t, int64(2), f.Dropped())

	close(release)
	f.OnRunEnd(context.Background(), "r", nil, assert.AnError)
	require.NoError(t, f.Close(context.Background()))

	s.mu.Lock()
	defer s.mu.Unlock()
	require.Len(t, s.events, 3)
	end := s.events[2].payload.(RunEnd)
	assert.False(t, end.OK)
	assert.Equal(t, assert.AnError.Error(), end.Error)
	assert.Equal(t, int64(2), end.Dropped)
}

func TestFeed_Close(t *testing.T) {
	s := &sink{}
	f := newFeed(s.emit, s.disconnect, 4)
	require.NoError(t, f.Close(context.Background()))
	assert.ErrorIs(t, f.Close(context.Background()), ErrClosed)

	f.OnArrival(context.Background(), executor.Arrival{Label: "late", From: node.UnExplored})
	assert.Equal(t, int64(1), f.Dropped(), "events after Close are dropped")
}

func TestDial_Errors(t *testing.T) {
	ctx := ctxlog.WithLogger(context.Background(), ctxlog.Discard())

	_, err := Dial(ctx, Config{URL: "not a url"})
	assert.Error(t, err)

	_, err = Dial(ctx, Config{URL: "http://127.0.0.1:1", ConnectTimeout: 2 * time.Second})
	assert.Error(t, err, "nothing listens on port 1")
}
