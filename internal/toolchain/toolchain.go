// Package toolchain runs the system assembler and linker.
package toolchain

import (
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/net/context"
)

// ExitError reports an external tool that could not be started, or that
// exited unsuccessfully.
type ExitError struct {
	Tool string

	// Status is the tool's exit status, or -1 if it never started or was
	// killed by a signal.
	Status int

	Err error
}

func (ee *ExitError) Error() string {
	if ee.Status >= 0 {
		return fmt.Sprintf("%v exited with status %d", ee.Tool, ee.Status)
	}
	return fmt.Sprintf("%v failed: %v", ee.Tool, ee.Err)
}

func (ee *ExitError) Unwrap() error { return ee.Err }

// Assembler runs a GNU compatible assembler on text read from stdin.
type Assembler struct {
	// Path names the assembler binary; defaults to "as".
	Path string

	// Debug asks the assembler to emit debug information.
	Debug bool

	// Args are extra arguments, before the output flag.
	Args []string

	// Stderr receives the assembler's diagnostics.
	Stderr io.Writer

	// Logf receives each command line run.
	Logf func(mess string, args ...interface{})
}

// Command returns the command line that Assemble runs.
func (as Assembler) Command(obj string) []string {
	path := as.Path
	if path == "" {
		path = "as"
	}
	cmd := []string{path, "--64"}
	if as.Debug {
		cmd = append(cmd, "-g")
	}
	cmd = append(cmd, as.Args...)
	return append(cmd, "-o", obj)
}

// Assemble reads assembly from src, writing an object file to obj.
func (as Assembler) Assemble(ctx context.Context, src io.Reader, obj string) error {
	return run(ctx, "as", as.Command(obj), src, as.Stderr, as.Logf)
}

// Linker runs a linker to turn one object file into an executable.
type Linker struct {
	// Path names the linker binary; defaults to "ld".
	Path string

	// Args are extra arguments, before the output flag.
	Args []string

	// Stderr receives the linker's diagnostics.
	Stderr io.Writer

	// Logf receives each command line run.
	Logf func(mess string, args ...interface{})
}

// Command returns the command line that Link runs.
func (ld Linker) Command(obj, exe string) []string {
	path := ld.Path
	if path == "" {
		path = "ld"
	}
	cmd := append([]string{path}, ld.Args...)
	return append(cmd, "-o", exe, obj)
}

// Link links obj into the executable exe.
func (ld Linker) Link(ctx context.Context, obj, exe string) error {
	return run(ctx, "ld", ld.Command(obj, exe), nil, ld.Stderr, ld.Logf)
}

// Build assembles, and unless Link is false links, a stream of assembly
// into Output.
type Build struct {
	Assembler Assembler
	Linker    Linker

	// Link runs the linker after assembling; when false Output is the
	// object file.
	Link bool

	Output string

	// TempDir holds the intermediate object file; defaults to the system
	// temporary directory.
	TempDir string
}

// Consume assembles everything read from src; its signature suits a
// pipeline consumer.
func (b Build) Consume(ctx context.Context, src io.Reader) error {
	if !b.Link {
		return b.Assembler.Assemble(ctx, src, b.Output)
	}

	tmp, err := ioutil.TempFile(b.TempDir, "gobfc-*.o")
	if err != nil {
		return err
	}
	obj := tmp.Name()
	tmp.Close()
	defer os.Remove(obj)

	if err := b.Assembler.Assemble(ctx, src, obj); err != nil {
		return err
	}
	return b.Linker.Link(ctx, obj, b.Output)
}

func run(
	ctx context.Context,
	tool string, argv []string,
	stdin io.Reader, stderr io.Writer,
	logf func(mess string, args ...interface{}),
) error {
	if logf != nil {
		logf("run %v", strings.Join(argv, " "))
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = stdin
	cmd.Stderr = stderr
	err := cmd.Run()
	if err == nil {
		return nil
	}
	var xe *exec.ExitError
	if errors.As(err, &xe) {
		return &ExitError{Tool: tool, Status: xe.ExitCode(), Err: err}
	}
	return &ExitError{Tool: tool, Status: -1, Err: err}
}
