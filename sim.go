package main

import (
	"bytes"
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jcorbin/gobfc/internal/asmsim"
)

func (a *app) simCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sim [flags] sourceFile",
		Short: "Compile a program and run its assembly on the built-in simulator",
		Long: `Sim compiles a program exactly as a build would, then executes the generated
assembly on a simulator of the instructions the compiler emits. The program
reads standard input and writes standard output. With -v every executed
instruction is traced to stderr.`,

		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.sim(cmd.Context(), args[0])
		},
	}
	cmd.Flags().IntVar(&a.opts.simSteps, "step-limit", 0, "stop after this many instructions; 0 for no limit")
	return cmd
}

func (a *app) sim(ctx context.Context, name string) error {
	src, copts, err := a.openSource(name)
	if err != nil {
		return err
	}
	defer src.Close()

	var asm bytes.Buffer
	if err := a.compile(src, &asm, copts); err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	opts := []asmsim.Option{
		asmsim.WithInput(a.stdin),
		asmsim.WithOutput(a.stdout),
		asmsim.WithStepLimit(a.opts.simSteps),
		asmsim.WithStackSize(uint(a.opts.tapeSize) + 4096),
	}
	if a.opts.verbose {
		opts = append(opts, asmsim.WithLogf(a.log.Tracef))
	}
	m, err := asmsim.Exec(ctx, &asm, opts...)
	if err != nil {
		return err
	}
	a.log.Tracef("ran %v steps", m.Steps())
	if status := m.ExitStatus(); status != 0 {
		return fmt.Errorf("program exited with status %v", status)
	}
	return nil
}
