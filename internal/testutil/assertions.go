package testutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/vk/dagwalk/internal/trace"
)

// RequireMultiset fails the test unless labels contains exactly the
// multiplicities in want.
func RequireMultiset(t *testing.T, want map[string]int, labels []string) {
	t.Helper()
	if diff := cmp.Diff(want, trace.Counts(labels)); diff != "" {
		t.Fatalf("label multiset mismatch (-want +got):\n%s", diff)
	}
}

// RequireCovers fails the test if any reachable label is missing from
// labels.
func RequireCovers(t *testing.T, reachable map[string]bool, labels []string) {
	t.Helper()
	got := trace.Counts(labels)
	for label := range reachable {
		require.Positive(t, got[label], "label %q was never reached", label)
	}
}

// RequireTrace fails the test with a diff unless got equals want exactly.
func RequireTrace(t *testing.T, want, got []string) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("trace mismatch (-want +got):\n%s", diff)
	}
}
