package compiler

import "github.com/jcorbin/gobfc/internal/codegen"

// EOFPolicy decides what a read leaves in its cell at end of input.
type EOFPolicy = codegen.EOFPolicy

// End of input policies.
const (
	EOFZero      = codegen.EOFZero
	EOFNegative  = codegen.EOFNegative
	EOFUnchanged = codegen.EOFUnchanged
)

// Config holds everything that controls one compilation. Build it with New,
// or pass options straight to Compile.
type Config struct {
	codegen.Config

	// Name names the source in locations; if empty, it is taken from any
	// Name() method of the source reader.
	Name string

	// Logf receives trace messages.
	Logf func(mess string, args ...interface{})
}

// New returns the default configuration, with any options applied.
func New(opts ...Option) Config {
	cfg := Config{Config: codegen.DefaultConfig()}
	cfg.apply(opts...)
	return cfg
}

func (cfg *Config) apply(opts ...Option) {
	for _, opt := range opts {
		if opt != nil {
			opt.apply(cfg)
		}
	}
}

// Option customizes a Config.
type Option interface{ apply(cfg *Config) }

// WithTapeSize sets how many cells the generated program reserves.
func WithTapeSize(n int) Option { return tapeSizeOption(n) }

// WithEOF sets the end of input policy.
func WithEOF(pol EOFPolicy) Option { return eofOption(pol) }

// WithDebug enables source provenance comments in the assembly.
func WithDebug(debug bool) Option { return debugOption(debug) }

// WithDeadLoops enables or disables skipping loops that are never entered.
func WithDeadLoops(enabled bool) Option { return deadLoopsOption(enabled) }

// WithName names the source.
func WithName(name string) Option { return nameOption(name) }

// WithLogf sets a trace logging function.
func WithLogf(logf func(mess string, args ...interface{})) Option { return logfOption(logf) }

// WithConfig replaces the whole configuration, as a base for later options.
func WithConfig(cfg Config) Option { return configOption(cfg) }

type tapeSizeOption int
type eofOption EOFPolicy
type debugOption bool
type deadLoopsOption bool
type nameOption string
type logfOption func(mess string, args ...interface{})
type configOption Config

func (n tapeSizeOption) apply(cfg *Config)        { cfg.TapeSize = int(n) }
func (pol eofOption) apply(cfg *Config)           { cfg.EOF = EOFPolicy(pol) }
func (debug debugOption) apply(cfg *Config)       { cfg.Debug = bool(debug) }
func (enabled deadLoopsOption) apply(cfg *Config) { cfg.DeadLoops = bool(enabled) }
func (name nameOption) apply(cfg *Config)         { cfg.Name = string(name) }
func (logf logfOption) apply(cfg *Config)         { cfg.Logf = logf }
func (c configOption) apply(cfg *Config)          { *cfg = Config(c) }

func (cfg Config) logf(mess string, args ...interface{}) {
	if cfg.Logf != nil {
		cfg.Logf(mess, args...)
	}
}
