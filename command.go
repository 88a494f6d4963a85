package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jcorbin/gobfc/internal/compiler"
	"github.com/jcorbin/gobfc/internal/ir"
)

func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:   "gobfc [flags] sourceFile",
		Short: "Compile a tape language program to x86-64 assembly, and build it",
		Long: `Gobfc compiles a program in the eight operator tape language into x86-64
assembly for Linux. The assembly is assembled with as and linked with ld,
unless -S or -c stop it short. A sourceFile of - reads standard input.`,

		Args:    cobra.ExactArgs(1),
		Version: version,

		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.configure(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.build(cmd.Context(), args[0])
		},
	}
	root.SetVersionTemplate("gobfc version {{.Version}}\n")
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	a.opts.compileFlags(root.PersistentFlags())
	a.opts.buildFlags(root.Flags())

	root.AddCommand(a.simCommand(), &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gobfc version %v\n", version)
		},
	})
	return root
}

// configure applies any config file under the command line flags.
func (a *app) configure(cmd *cobra.Command) error {
	o := &a.opts
	a.log.Verbose = o.verbose
	if o.configFile == "" {
		return nil
	}
	fc, err := loadConfig(o.configFile)
	if err != nil {
		return err
	}
	a.log.Tracef("loaded config from %q", o.configFile)
	return fc.applyTo(o, cmd.Flags().Changed)
}

// withTimeout bounds ctx by any --timeout.
func (a *app) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.opts.timeout > 0 {
		return context.WithTimeout(ctx, a.opts.timeout)
	}
	return context.WithCancel(ctx)
}

// openSource opens the named source, or standard input for "-".
func (a *app) openSource(name string) (io.ReadCloser, []compiler.Option, error) {
	opts := append(a.opts.compilerOptions(), compiler.WithLogf(a.log.Tracef))
	if name == "-" {
		return io.NopCloser(a.stdin), append(opts, compiler.WithName("<stdin>")), nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, err
	}
	return f, opts, nil
}

// compile compiles src to out, reporting any --dump or --stats afterwards.
func (a *app) compile(src io.Reader, out io.Writer, opts []compiler.Option) error {
	res, err := compiler.Compile(src, out, opts...)
	if err != nil {
		return err
	}
	if a.opts.dump {
		if err := ir.Dump(a.stderr, res.Program); err != nil {
			return err
		}
	}
	if a.opts.stats {
		if _, err := fmt.Fprintln(a.stderr, res.Stats.Table()); err != nil {
			return err
		}
	}
	return nil
}
