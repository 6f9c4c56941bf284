// Package trace records the labels reached during a traversal.
//
// A trace holds one entry per arrival, not per unique node: a node reached
// through two parents appears twice. Two recording modes are provided:
//
//   - Shared: a single sequence behind one mutex; every append contends.
//   - Local: one unsynchronized buffer per worker, merged after the workers
//     have joined.
//
// Every entry is stamped with a process-wide sequence number so that local
// buffers can be merged into an interleaving that respects each worker's own
// order.
package trace

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// Mode selects how workers record entries.
type Mode int

const (
	// Local gives every worker its own buffer.
	Local Mode = iota
	// Shared makes every worker append to one locked sequence.
	Shared
)

// String returns the flag spelling of the mode.
func (m Mode) String() string {
	switch m {
	case Local:
		return "local"
	case Shared:
		return "shared"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a flag value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "local", "":
		return Local, nil
	case "shared":
		return Shared, nil
	default:
		return 0, fmt.Errorf("unknown recorder mode %q", s)
	}
}

// Merge selects how local buffers are combined.
type Merge int

const (
	// Concat appends worker 0's entries, then worker 1's, and so on.
	Concat Merge = iota
	// BySequence orders entries by their global sequence number.
	BySequence
)

// String returns the flag spelling of the merge policy.
func (m Merge) String() string {
	switch m {
	case Concat:
		return "concat"
	case BySequence:
		return "sequence"
	default:
		return fmt.Sprintf("Merge(%d)", int(m))
	}
}

// ParseMerge converts a flag value into a Merge policy.
func ParseMerge(s string) (Merge, error) {
	switch strings.ToLower(s) {
	case "concat", "":
		return Concat, nil
	case "sequence":
		return BySequence, nil
	default:
		return 0, fmt.Errorf("unknown merge policy %q", s)
	}
}

// Entry is one recorded arrival.
type Entry struct {
	Seq    uint64
	Worker int
	Label  string
}

// Appender is the per-worker handle used to record arrivals.
type Appender interface {
	Append(label string)
}

// Recorder hands out one Appender per worker and assembles the final trace.
type Recorder struct {
	mode   Mode
	seq    atomic.Uint64
	local  []*Buffer
	shared *sharedLog
}

// NewRecorder creates a recorder for the given number of workers.
func NewRecorder(mode Mode, workers int) *Recorder {
	r := &Recorder{mode: mode, local: make([]*Buffer, workers)}
	for i := range r.local {
		r.local[i] = &Buffer{worker: i, seq: &r.seq}
	}
	if mode == Shared {
		r.shared = &sharedLog{}
	}
	return r
}

// Mode returns the recording mode.
func (r *Recorder) Mode() Mode { return r.mode }

// For returns the appender used by worker id. Each appender must be used by
// a single goroutine.
func (r *Recorder) For(worker int) Appender {
	if r.mode == Shared {
		return &sharedAppender{log: r.shared, local: r.local[worker]}
	}
	return r.local[worker]
}

// PerWorker returns each worker's own sub-sequence in arrival order. It must
// only be called after every worker has stopped appending.
func (r *Recorder) PerWorker() [][]string {
	out := make([][]string, len(r.local))
	for i, b := range r.local {
		out[i] = b.Labels()
	}
	return out
}

// Entries returns every recorded entry. In shared mode the order is the
// order in which appends took the lock; in local mode it follows policy.
// It must only be called after every worker has stopped appending.
func (r *Recorder) Entries(policy Merge) []Entry {
	if r.mode == Shared {
		return r.shared.snapshot()
	}

	total := 0
	for _, b := range r.local {
		total += len(b.entries)
	}
	out := make([]Entry, 0, total)
	for _, b := range r.local {
		out = append(out, b.entries...)
	}
	if policy == BySequence {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	}
	return out
}

// Labels returns the merged trace labels.
func (r *Recorder) Labels(policy Merge) []string {
	return Labels(r.Entries(policy))
}

// Buffer is a worker-owned, unsynchronized sequence of entries.
type Buffer struct {
	worker  int
	seq     *atomic.Uint64
	entries []Entry
}

// Append implements Appender.
func (b *Buffer) Append(label string) {
	b.entries = append(b.entries, Entry{
		Seq:    b.seq.Add(1),
		Worker: b.worker,
		Label:  label,
	})
}

// Labels returns the buffered labels in append order.
func (b *Buffer) Labels() []string {
	return Labels(b.entries)
}

// sharedLog is the single contended sequence used in Shared mode.
type sharedLog struct {
	mu      sync.Mutex
	entries []Entry
}

func (l *sharedLog) snapshot() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// sharedAppender appends to the shared log and mirrors the entry in the
// worker's buffer so per-worker sub-sequences stay available.
type sharedAppender struct {
	log   *sharedLog
	local *Buffer
}

func (a *sharedAppender) Append(label string) {
	a.log.mu.Lock()
	e := Entry{Seq: a.local.seq.Add(1), Worker: a.local.worker, Label: label}
	a.log.entries = append(a.log.entries, e)
	a.log.mu.Unlock()
	a.local.entries = append(a.local.entries, e)
}

// Labels extracts the labels of entries in order.
func Labels(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Label
	}
	return out
}

// Counts returns the multiset of labels: label -> number of occurrences.
func Counts(labels []string) map[string]int {
	out := make(map[string]int, len(labels))
	for _, l := range labels {
		out[l]++
	}
	return out
}
