package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Report is the result of a traversal as printed by the command.
type Report struct {
	Graph      string         `json:"graph"`
	Mode       string         `json:"mode"`
	RunID      string         `json:"run_id,omitempty"`
	Workers    int            `json:"workers,omitempty"`
	Trace      []string       `json:"trace"`
	Sequential []string       `json:"sequential,omitempty"`
	PerWorker  [][]string     `json:"per_worker,omitempty"`
	Counts     map[string]int `json:"counts"`
	Expansions int            `json:"expansions,omitempty"`
}

// Write prints the report in the given format. The text format is the trace
// as one line of space separated labels.
func (r *Report) Write(w io.Writer, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "", "text":
		_, err := fmt.Fprintln(w, strings.Join(r.Trace, " "))
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
