// Package config loads the options controlling a compilation from TOML.
package config

import (
	"bytes"
	"os"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"lc/report"
)

// Options are the options of a compilation.  The TOML keys of the options are
// given by their tags.
type Options struct {
	// LogLevel is the name of the reporter's log level: silent, error, warn or
	// verbose.
	LogLevel string `toml:"log-level"`

	// Workers bounds the number of files processed concurrently.
	Workers int `toml:"workers"`

	// ContinueOnError lets lowering skip statements containing unresolved
	// references instead of abandoning the unit.
	ContinueOnError bool `toml:"continue-on-error"`

	// RetainPartialIR keeps the IR of the files that lowered successfully when
	// lowering of another file fails.
	RetainPartialIR bool `toml:"retain-partial-ir"`

	FoldConstants bool `toml:"fold-constants"`
	VerifyIR      bool `toml:"verify-ir"`
	EmitLLVM      bool `toml:"emit-llvm"`
}

// Default returns the default options.
func Default() *Options {
	return &Options{
		LogLevel:        "verbose",
		Workers:         runtime.NumCPU(),
		RetainPartialIR: true,
		VerifyIR:        true,
	}
}

// ReporterLevel returns the reporter log level selected by the options.
func (o *Options) ReporterLevel() int {
	return report.LogLevelFromName(strings.ToLower(o.LogLevel))
}

// -----------------------------------------------------------------------------

// Load reads the options from the TOML file at path.  Keys missing from the
// file keep their default value.
func Load(path string) (*Options, error) {
	buff, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read config file at `%s`", path)
	}

	opts, err := Parse(buff)
	if err != nil {
		return nil, errors.Wrapf(err, "error loading config file at `%s`", path)
	}

	return opts, nil
}

// Parse parses TOML options.  Unknown keys are rejected.
func Parse(data []byte) (*Options, error) {
	opts := Default()

	if err := toml.NewDecoder(bytes.NewReader(data)).Strict(true).Decode(opts); err != nil {
		return nil, errors.Wrap(err, "error parsing config")
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return opts, nil
}

// Validate checks that the options are consistent.
func (o *Options) Validate() error {
	switch strings.ToLower(o.LogLevel) {
	case "silent", "error", "warn", "warning", "verbose":
	default:
		return errors.Errorf("unknown log level `%s`", o.LogLevel)
	}

	if o.Workers < 1 {
		return errors.Errorf("workers must be at least 1 (got %d)", o.Workers)
	}

	return nil
}
