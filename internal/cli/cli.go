package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/vk/dagwalk/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("dagwalk", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
dagwalk - Concurrent traversal of shared-node binary DAGs.

Usage:
  dagwalk [options] [GRAPH_PATH]

Arguments:
  GRAPH_PATH
    Path to a single .hcl/.yaml file or a directory of graph definitions.

Options:
`)
		flagSet.PrintDefaults()
	}

	graphFlag := flagSet.String("graph", "", "Path to the graph definition file or directory.")
	gFlag := flagSet.String("g", "", "Path to the graph definition file or directory (shorthand).")
	nameFlag := flagSet.String("name", "", "Graph to traverse when several are defined.")
	modeFlag := flagSet.String("mode", app.ModeSequential, "Traversal mode. Options: 'sequential', 'concurrent' or 'compare'.")
	workersFlag := flagSet.Int("workers", runtime.NumCPU(), "Number of concurrent workers.")
	recorderFlag := flagSet.String("recorder", "local", "Trace recorder. Options: 'local' (per-worker buffers) or 'shared'.")
	mergeFlag := flagSet.String("merge", "concat", "How per-worker traces are merged. Options: 'concat' or 'sequence'.")
	exitFlag := flagSet.String("exit", "eager", "Worker exit policy. Options: 'eager' or 'drain'.")
	outputFlag := flagSet.String("output", "text", "Result format. Options: 'text' or 'json'.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	feedURLFlag := flagSet.String("feed-url", "", "socket.io server to stream arrival events to. Empty disables the feed.")
	feedNSFlag := flagSet.String("feed-namespace", "/", "socket.io namespace for the live feed.")
	traceExpFlag := flagSet.String("trace-exporter", "none", "OpenTelemetry span exporter. Options: 'none', 'stdout' or 'otlp'.")
	metricExpFlag := flagSet.String("metric-exporter", "none", "OpenTelemetry metric exporter. Options: 'none', 'stdout' or 'prometheus'.")
	otlpFlag := flagSet.String("otlp-endpoint", "", "OTLP gRPC endpoint, required with -trace-exporter=otlp.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *graphFlag != "" {
		path = *graphFlag
	} else if *gFlag != "" {
		path = *gFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Graph path determined.", "path", path)

	if path == "" {
		slog.Debug("No graph path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	config, err := app.NewConfig(app.Config{
		GraphPath:       path,
		GraphName:       *nameFlag,
		Mode:            *modeFlag,
		WorkerCount:     *workersFlag,
		Recorder:        *recorderFlag,
		Merge:           *mergeFlag,
		ExitPolicy:      *exitFlag,
		Output:          *outputFlag,
		LogFormat:       *logFormatFlag,
		LogLevel:        *logLevelFlag,
		HealthcheckPort: *healthPortFlag,
		FeedURL:         *feedURLFlag,
		FeedNamespace:   *feedNSFlag,
		TraceExporter:   *traceExpFlag,
		MetricExporter:  *metricExpFlag,
		OTLPEndpoint:    *otlpFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
