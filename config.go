package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/jcorbin/gobfc/internal/codegen"
	"github.com/jcorbin/gobfc/internal/compiler"
)

// options collects every command line setting.
type options struct {
	configFile string
	verbose    bool
	timeout    time.Duration
	dump       bool
	stats      bool

	tapeSize    int
	eof         codegen.EOFPolicy
	debug       bool
	noDeadLoops bool

	output   string
	asmOnly  bool
	noLink   bool
	asPath   string
	ldPath   string
	simSteps int
}

func defaultOptions() options {
	def := codegen.DefaultConfig()
	return options{
		tapeSize: def.TapeSize,
		eof:      def.EOF,
		output:   "a.out",
	}
}

func (o *options) compileFlags(flags *pflag.FlagSet) {
	flags.StringVar(&o.configFile, "config", "", "read options from a YAML file")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "enable trace logging")
	flags.DurationVar(&o.timeout, "timeout", 0, "specify a time limit")
	flags.BoolVar(&o.dump, "dump", false, "print the compacted program tree to stderr")
	flags.BoolVar(&o.stats, "stats", false, "print generation statistics to stderr")
	flags.IntVar(&o.tapeSize, "tape-size", o.tapeSize, "number of tape cells")
	flags.Var(&o.eof, "eof", "what a read stores at end of input: zero, neg, or unchanged")
	flags.BoolVarP(&o.debug, "debug", "g", false, "annotate assembly with source locations, and assemble with -g")
	flags.BoolVar(&o.noDeadLoops, "no-dead-loops", false, "emit loops that can never be entered")
}

func (o *options) buildFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&o.output, "output", "o", o.output, "output file; - writes assembly to stdout under -S")
	flags.BoolVarP(&o.asmOnly, "emit-asm", "S", false, "emit assembly only")
	flags.BoolVarP(&o.noLink, "no-link", "c", false, "assemble, but do not link")
	flags.StringVar(&o.asPath, "as", "", "assembler to run (default as)")
	flags.StringVar(&o.ldPath, "ld", "", "linker to run (default ld)")
}

func (o *options) compilerOptions() []compiler.Option {
	return []compiler.Option{
		compiler.WithTapeSize(o.tapeSize),
		compiler.WithEOF(o.eof),
		compiler.WithDebug(o.debug),
		compiler.WithDeadLoops(!o.noDeadLoops),
	}
}

// fileConfig is the YAML form of options; absent keys leave options alone.
type fileConfig struct {
	TapeSize  *int    `yaml:"tape_size"`
	EOF       *string `yaml:"eof"`
	Debug     *bool   `yaml:"debug"`
	DeadLoops *bool   `yaml:"dead_loops"`
	Output    *string `yaml:"output"`
	Assemble  *bool   `yaml:"assemble"`
	Link      *bool   `yaml:"link"`
	As        *string `yaml:"as"`
	Ld        *string `yaml:"ld"`
}

func loadConfig(name string) (fc fileConfig, err error) {
	f, err := os.Open(name)
	if err != nil {
		return fc, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		return fc, fmt.Errorf("config %v: %w", name, err)
	}
	return fc, nil
}

// applyTo copies every key present in the file into o, except where changed
// reports that the corresponding flag was given explicitly.
func (fc fileConfig) applyTo(o *options, changed func(flag string) bool) error {
	set := func(flag string, present bool) bool { return present && !changed(flag) }
	if set("tape-size", fc.TapeSize != nil) {
		o.tapeSize = *fc.TapeSize
	}
	if set("eof", fc.EOF != nil) {
		if err := o.eof.Set(*fc.EOF); err != nil {
			return fmt.Errorf("config eof: %w", err)
		}
	}
	if set("debug", fc.Debug != nil) {
		o.debug = *fc.Debug
	}
	if set("no-dead-loops", fc.DeadLoops != nil) {
		o.noDeadLoops = !*fc.DeadLoops
	}
	if set("output", fc.Output != nil) {
		o.output = *fc.Output
	}
	if set("emit-asm", fc.Assemble != nil) {
		o.asmOnly = !*fc.Assemble
	}
	if set("no-link", fc.Link != nil) {
		o.noLink = !*fc.Link
	}
	if set("as", fc.As != nil) {
		o.asPath = *fc.As
	}
	if set("ld", fc.Ld != nil) {
		o.ldPath = *fc.Ld
	}
	return nil
}
