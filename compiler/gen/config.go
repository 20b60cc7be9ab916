package gen

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/syssam/stagebuild/compiler/load"
)

// DefaultHeader is the comment emitted at the top of every generated file.
const DefaultHeader = "Code generated by stagebuild. DO NOT EDIT."

// Mode selects how the builder protocol is enforced.
type Mode string

const (
	// ModeStatic emits a builder whose protocol is checked by the compiler:
	// setters and the finalizer are generic functions that only accept
	// builders in the right state.
	ModeStatic Mode = "static"
	// ModeChecked emits a fluent builder with setter methods named after the
	// fields. The protocol is checked at run time by Build, which is weaker
	// than ModeStatic but reads like a conventional builder.
	ModeChecked Mode = "checked"
)

// ParseMode parses the textual form of a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeStatic, ModeChecked:
		return m, nil
	case "":
		return ModeStatic, nil
	default:
		return "", NewConfigError("Mode", s, "unsupported mode; use static or checked")
	}
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	return string(m)
}

// Config holds the global codegen configuration shared by all records.
type Config struct {
	// Package overrides the package clause of generated files. Defaults to
	// the package of the record.
	Package string `yaml:"package,omitempty"`
	// Header is the comment at the top of each generated file.
	Header string `yaml:"header,omitempty"`
	// Mode selects static or checked enforcement.
	Mode Mode `yaml:"mode,omitempty"`
	// RuntimePkg is the import path of the runtime package referenced by
	// generated code.
	RuntimePkg string `yaml:"runtime_package,omitempty"`
	// Workers bounds the number of records generated in parallel.
	Workers int `yaml:"workers,omitempty"`
	// Format runs the rendered source through goimports.
	Format bool `yaml:"format"`
	// Logger receives per-record debug lines and write summaries.
	Logger *slog.Logger `yaml:"-"`
}

func defaultConfig() *Config {
	return &Config{
		Header:     DefaultHeader,
		Mode:       ModeStatic,
		RuntimePkg: load.DefaultRuntimePkg,
		Workers:    runtime.GOMAXPROCS(0),
		Format:     true,
	}
}

// Validate checks the configuration after it was assembled.
func (c *Config) Validate() error {
	var errs []error
	if _, err := ParseMode(string(c.Mode)); err != nil {
		errs = append(errs, err)
	}
	if c.RuntimePkg == "" {
		errs = append(errs, NewConfigError("RuntimePkg", nil, "runtime package cannot be empty"))
	}
	if c.Workers < 0 {
		errs = append(errs, NewConfigError("Workers", c.Workers, "workers cannot be negative"))
	}
	return errors.Join(errs...)
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// LoadConfigFile reads a YAML configuration file on top of the defaults and
// applies the given options after it. Unknown keys are rejected.
//
//	mode: checked
//	workers: 4
//	runtime_package: github.com/syssam/stagebuild
func LoadConfigFile(path string, opts ...Option) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := defaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return c, nil
}
