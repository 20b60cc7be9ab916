package gen

import (
	"errors"
	"log/slog"
	"strings"
)

// Option changes one setting of a Config and reports invalid values.
type Option func(*Config) error

// WithHeader replaces the comment written above the package clause of every
// generated file. An empty header omits it.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithMode sets the enforcement mode of generated builders.
func WithMode(m Mode) Option {
	return func(c *Config) error {
		mode, err := ParseMode(string(m))
		if err != nil {
			return err
		}
		c.Mode = mode
		return nil
	}
}

// WithRuntimePackage sets the import path of the runtime package.
// For example: "github.com/syssam/stagebuild".
func WithRuntimePackage(path string) Option {
	return func(c *Config) error {
		if path == "" || strings.ContainsAny(path, " \t\n\"") {
			return NewConfigError("RuntimePkg", path, "invalid import path")
		}
		c.RuntimePkg = path
		return nil
	}
}

// WithPackage sets the package clause of generated files.
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Package", nil, "package cannot be empty")
		}
		c.Package = pkg
		return nil
	}
}

// WithWorkers sets the number of records generated in parallel.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return NewConfigError("Workers", n, "workers must be positive")
		}
		c.Workers = n
		return nil
	}
}

// WithFormat enables or disables goimports formatting of rendered files.
func WithFormat(format bool) Option {
	return func(c *Config) error {
		c.Format = format
		return nil
	}
}

// WithLogger sets the logger of the generator.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) error {
		if logger == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = logger
		return nil
	}
}

// Apply runs opts in order and stops at the first failing one.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll runs every option, including those after a failure, and returns
// their errors joined.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig returns the defaults with opts applied. By default builders are
// static, import the default runtime package, are formatted, and are
// generated with one worker per CPU.
func NewConfig(opts ...Option) (*Config, error) {
	c := defaultConfig()
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig is like NewConfig but panics on an invalid option.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
