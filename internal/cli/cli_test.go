package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/dagwalk/internal/app"
)

func TestParse_Defaults(t *testing.T) {
	cfg, exit, err := Parse([]string{"graphs/"}, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, "graphs/", cfg.GraphPath)
	assert.Equal(t, app.ModeSequential, cfg.Mode)
	assert.Equal(t, "eager", cfg.ExitPolicy)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Positive(t, cfg.WorkerCount)
}

func TestParse_Flags(t *testing.T) {
	cfg, _, err := Parse([]string{
		"-g", "e2e.hcl",
		"-name", "e2e",
		"-mode", "compare",
		"-workers", "8",
		"-recorder", "shared",
		"-exit", "drain",
		"-output", "json",
		"-feed-url", "http://localhost:3000",
	}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "e2e.hcl", cfg.GraphPath)
	assert.Equal(t, "e2e", cfg.GraphName)
	assert.Equal(t, app.ModeCompare, cfg.Mode)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, "shared", cfg.Recorder)
	assert.Equal(t, "drain", cfg.ExitPolicy)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, "http://localhost:3000", cfg.FeedURL)
}

func TestParse_GraphFlagWins(t *testing.T) {
	cfg, _, err := Parse([]string{"-graph", "a.hcl", "-g", "b.hcl", "c.hcl"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "a.hcl", cfg.GraphPath)
}

func TestParse_NoPathPrintsUsage(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, exit, err := Parse(nil, out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_InvalidValues(t *testing.T) {
	cases := map[string][]string{
		"workers": {"-workers", "0", "g.hcl"},
		"mode":    {"-mode", "parallel", "g.hcl"},
		"log":     {"-log-level", "trace", "g.hcl"},
		"flag":    {"-nope"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := Parse(args, &bytes.Buffer{})
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
		})
	}
}
