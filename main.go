package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/tebeka/atexit"

	"github.com/jcorbin/gobfc/internal/logio"
)

const version = "0.0.1"

func main() {
	log := logio.NewLogger(os.Stderr)
	a := newApp(log, os.Stdin, os.Stdout, os.Stderr)
	atexit.Register(a.removePartial)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	log.ErrorIf(a.run(ctx, os.Args[1:]))
	stop()
	atexit.Exit(log.ExitCode())
}

type app struct {
	log    *logio.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	opts options

	mu      sync.Mutex
	partial []string
}

func newApp(log *logio.Logger, stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		log:    log,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		opts:   defaultOptions(),
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	cmd := a.command()
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// markPartial records an output file that must not survive a failed run.
func (a *app) markPartial(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.partial = append(a.partial, name)
}

// keepPartial forgets name, once it has been completely written.
func (a *app) keepPartial(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, p := range a.partial {
		if p == name {
			a.partial = append(a.partial[:i], a.partial[i+1:]...)
			return
		}
	}
}

// removePartial removes every output file not yet completely written.
func (a *app) removePartial() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, name := range a.partial {
		if err := os.Remove(name); err == nil {
			a.log.Tracef("removed partial output %q", name)
		} else if !os.IsNotExist(err) {
			a.log.Printf("WARN", "unable to remove partial output: %v", err)
		}
	}
	a.partial = nil
}
