// Package feed streams traversal events to a socket.io server so a live
// viewer can follow a run as workers reach nodes.
//
// Events are queued without blocking the workers and sent by a single
// goroutine. When the queue is full, arrival events are dropped and counted;
// run_start and run_end are never dropped.
package feed

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/dagwalk/internal/ctxlog"
	"github.com/vk/dagwalk/internal/executor"
)

// Event names emitted by the feed.
const (
	EventRunStart = "run_start"
	EventArrival  = "arrival"
	EventRunEnd   = "run_end"
)

// ErrClosed is returned by Close when the feed was already closed.
var ErrClosed = errors.New("feed: already closed")

// Config describes the socket.io endpoint.
type Config struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	// ConnectTimeout bounds Dial. Zero means 15 seconds.
	ConnectTimeout time.Duration
	// QueueSize is the number of events buffered between workers and the
	// sender. Zero means 1024.
	QueueSize int
}

// RunStart is the payload of EventRunStart.
type RunStart struct {
	RunID   string `json:"run_id"`
	Root    string `json:"root"`
	Workers int    `json:"workers"`
}

// Arrival is the payload of EventArrival.
type Arrival struct {
	RunID  string `json:"run_id"`
	Worker int    `json:"worker"`
	Label  string `json:"label"`
	Leaf   bool   `json:"leaf"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Visit  int    `json:"visit,omitempty"`
	Pushed int    `json:"pushed"`
}

// RunEnd is the payload of EventRunEnd.
type RunEnd struct {
	RunID    string   `json:"run_id"`
	OK       bool     `json:"ok"`
	Error    string   `json:"error,omitempty"`
	Arrivals int      `json:"arrivals"`
	Trace    []string `json:"trace,omitempty"`
	// Dropped is the number of arrival events dropped so far.
	Dropped int64 `json:"dropped"`
}

type event struct {
	name    string
	payload any
}

// Feed is an executor.RunObserver that forwards events to socket.io.
type Feed struct {
	emit       func(name string, payload any)
	disconnect func()

	queue   chan event
	done    chan struct{}
	closeMu sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

var _ executor.RunObserver = (*Feed)(nil)

// Dial connects to the socket.io server and starts the sender goroutine.
func Dial(ctx context.Context, cfg Config) (*Feed, error) {
	logger := ctxlog.FromContext(ctx).With("component", "feed", "url", cfg.URL)
	logger.Info("Connecting live feed...")

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("feed URL %q must include scheme and host", cfg.URL)
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(cfg.Namespace, opts)

	connectChan := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Live feed connected", "sid", io.Id())
		select {
		case connectChan <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connectChan <- err:
		default:
		}
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %v waiting for socket.io connection", timeout)
	}

	return newFeed(
		func(name string, payload any) { io.Emit(name, payload) },
		func() { io.Disconnect() },
		cfg.QueueSize,
	), nil
}

func newFeed(emit func(string, any), disconnect func(), queueSize int) *Feed {
	if queueSize <= 0 {
		queueSize = 1024
	}
	f := &Feed{
		emit:       emit,
		disconnect: disconnect,
		queue:      make(chan event, queueSize),
		done:       make(chan struct{}),
	}
	go f.send()
	return f
}

func (f *Feed) send() {
	defer close(f.done)
	for ev := range f.queue {
		f.emit(ev.name, ev.payload)
	}
}

// enqueue hands ev to the sender. With block false the event is dropped
// when the queue is full.
func (f *Feed) enqueue(ev event, block bool) {
	f.closeMu.RLock()
	defer f.closeMu.RUnlock()
	if f.closed {
		f.dropped.Add(1)
		return
	}
	if block {
		f.queue <- ev
		return
	}
	select {
	case f.queue <- ev:
	default:
		f.dropped.Add(1)
	}
}

// Dropped returns the number of events that were not sent.
func (f *Feed) Dropped() int64 { return f.dropped.Load() }

// OnRunStart implements executor.RunObserver.
func (f *Feed) OnRunStart(_ context.Context, runID, root string, workers int) {
	f.enqueue(event{EventRunStart, RunStart{RunID: runID, Root: root, Workers: workers}}, true)
}

// OnArrival implements executor.Observer.
func (f *Feed) OnArrival(_ context.Context, a executor.Arrival) {
	p := Arrival{
		RunID:  a.RunID,
		Worker: a.Worker,
		Label:  a.Label,
		Leaf:   a.Leaf,
		Visit:  a.Visit,
		Pushed: a.Pushed,
	}
	if !a.Leaf {
		p.From, p.To = a.From.String(), a.To.String()
	}
	f.enqueue(event{EventArrival, p}, false)
}

// OnRunEnd implements executor.RunObserver.
func (f *Feed) OnRunEnd(_ context.Context, runID string, res *executor.Result, err error) {
	p := RunEnd{RunID: runID, OK: err == nil}
	if err != nil {
		p.Error = err.Error()
	}
	if res != nil {
		p.Arrivals = res.Arrivals
		p.Trace = res.Trace
	}
	p.Dropped = f.dropped.Load()
	f.enqueue(event{EventRunEnd, p}, true)
}

// Close flushes queued events and disconnects. It waits for the flush until
// ctx is done.
func (f *Feed) Close(ctx context.Context) error {
	f.closeMu.Lock()
	if f.closed {
		f.closeMu.Unlock()
		return ErrClosed
	}
	f.closed = true
	close(f.queue)
	f.closeMu.Unlock()

	defer f.disconnect()
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("feed: flush interrupted: %w", ctx.Err())
	}
}
