package app

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Traversal modes.
const (
	ModeSequential = "sequential"
	ModeConcurrent = "concurrent"
	ModeCompare    = "compare"
)

// Config holds all the necessary configuration for an App instance to run.
// The flag tag names the command-line flag a field is set from and is used
// in validation messages.
type Config struct {
	GraphPath string `flag:"graph" validate:"required"`
	GraphName string `flag:"name"`

	Mode        string `flag:"mode" validate:"oneof=sequential concurrent compare"`
	WorkerCount int    `flag:"workers" validate:"min=1,max=4096"`
	Recorder    string `flag:"recorder" validate:"oneof=local shared"`
	Merge       string `flag:"merge" validate:"oneof=concat sequence"`
	ExitPolicy  string `flag:"exit" validate:"oneof=eager drain"`
	Output      string `flag:"output" validate:"oneof=text json"`

	LogFormat       string `flag:"log-format" validate:"oneof=text json"`
	LogLevel        string `flag:"log-level" validate:"oneof=debug info warn error"`
	HealthcheckPort int    `flag:"healthcheck-port" validate:"min=0,max=65535"`

	FeedURL       string `flag:"feed-url" validate:"omitempty,url"`
	FeedNamespace string `flag:"feed-namespace"`

	TraceExporter  string `flag:"trace-exporter" validate:"oneof=none stdout otlp"`
	MetricExporter string `flag:"metric-exporter" validate:"oneof=none stdout prometheus"`
	OTLPEndpoint   string `flag:"otlp-endpoint" validate:"required_if=TraceExporter otlp"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("flag"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// NewConfig fills unset fields with their defaults, normalises case and
// validates the result.
func NewConfig(cfg Config) (*Config, error) {
	setDefault(&cfg.Mode, ModeSequential)
	setDefault(&cfg.Recorder, "local")
	setDefault(&cfg.Merge, "concat")
	setDefault(&cfg.ExitPolicy, "eager")
	setDefault(&cfg.Output, "text")
	setDefault(&cfg.LogFormat, "text")
	setDefault(&cfg.LogLevel, "info")
	setDefault(&cfg.TraceExporter, "none")
	setDefault(&cfg.MetricExporter, "none")

	if err := validate.Struct(&cfg); err != nil {
		return nil, describe(err)
	}
	return &cfg, nil
}

func setDefault(field *string, def string) {
	*field = strings.ToLower(strings.TrimSpace(*field))
	if *field == "" {
		*field = def
	}
}

// describe turns validator errors into one readable message per field.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "required_if":
			msgs = append(msgs, fmt.Sprintf("%s is required with %s", fe.Field(), fe.Param()))
		case "oneof":
			opts := strings.Fields(fe.Param())
			msgs = append(msgs, fmt.Sprintf("invalid %s %q: must be one of %s", fe.Field(), fe.Value(), strings.Join(opts, ", ")))
		case "min":
			msgs = append(msgs, fmt.Sprintf("invalid %s %v: must be at least %s", fe.Field(), fe.Value(), fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("invalid %s %v: must be at most %s", fe.Field(), fe.Value(), fe.Param()))
		case "url":
			msgs = append(msgs, fmt.Sprintf("invalid %s %q: must be a URL", fe.Field(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("invalid %s: failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
