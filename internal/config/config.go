package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// SimConfig holds configuration for a simulation run and the API server.
type SimConfig struct {
	InputPath   string        `yaml:"input"`        // Process description path or afs URL
	Delay       time.Duration `yaml:"delay"`        // Real-time pause between ticks
	MaxTicks    int           `yaml:"max_ticks"`    // Abort after this many ticks (0 = unbounded)
	TraceFormat string        `yaml:"trace_format"` // Trace format: text, json
	Summary     bool          `yaml:"summary"`      // Print per-process statistics after the run
	LogLevel    string        `yaml:"log_level"`    // Log level: debug, info, warn, error
	LogFormat   string        `yaml:"log_format"`   // Log format: text, json
	DBPath      string        `yaml:"db"`           // SQLite run archive ("" disables, ":memory:" for testing)
	OtelOutput  string        `yaml:"otel_output"`  // OpenTelemetry span file ("" disables, "-" for stdout)
	Addr        string        `yaml:"addr"`         // API listen address
}

// DefaultSimConfig returns the defaults used when nothing is given.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		InputPath:   "./procList.txt",
		Delay:       50 * time.Millisecond,
		TraceFormat: "text",
		LogLevel:    "warn",
		LogFormat:   "text",
		Addr:        ":8080",
	}
}

// LoadFile overlays the YAML file at path onto cfg. Keys missing from the
// file keep their current value.
func LoadFile(path string, cfg *SimConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// UnmarshalYAML decodes the config, reading delay the same way as the
// positional sleep argument: plain milliseconds or a Go duration.
func (c *SimConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain SimConfig
	if node.Kind != yaml.MappingNode {
		return node.Decode((*plain)(c))
	}
	rest := *node
	rest.Content = make([]*yaml.Node, 0, len(node.Content))
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if key.Value != "delay" {
			rest.Content = append(rest.Content, key, val)
			continue
		}
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: delay must be a number of milliseconds or a duration", val.Line)
		}
		d, err := ParseDelay(val.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", val.Line, err)
		}
		c.Delay = d
	}
	return rest.Decode((*plain)(c))
}

// ParseDelay accepts a plain integer number of milliseconds or a Go duration.
func ParseDelay(s string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("sleep duration must not be negative: %s", s)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid sleep duration %q: want milliseconds or a duration like 10ms", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("sleep duration must not be negative: %s", s)
	}
	return d, nil
}
