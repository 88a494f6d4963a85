package toolchain_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcorbin/gobfc/internal/compiler"
	"github.com/jcorbin/gobfc/internal/logio"
	"github.com/jcorbin/gobfc/internal/pipeline"
	"github.com/jcorbin/gobfc/internal/toolchain"
)

func Test_Command(t *testing.T) {
	assert.Equal(t,
		[]string{"as", "--64", "-o", "x.o"},
		toolchain.Assembler{}.Command("x.o"))
	assert.Equal(t,
		[]string{"/opt/bin/as", "--64", "-g", "--warn", "-o", "x.o"},
		toolchain.Assembler{Path: "/opt/bin/as", Debug: true, Args: []string{"--warn"}}.Command("x.o"))
	assert.Equal(t,
		[]string{"ld", "-o", "x", "x.o"},
		toolchain.Linker{}.Command("x.o", "x"))
	assert.Equal(t,
		[]string{"ld.gold", "-s", "-o", "x", "x.o"},
		toolchain.Linker{Path: "ld.gold", Args: []string{"-s"}}.Command("x.o", "x"))
}

func Test_ExitError(t *testing.T) {
	inner := errors.New("exec: not found")
	assert.Equal(t, "as exited with status 1",
		(&toolchain.ExitError{Tool: "as", Status: 1, Err: inner}).Error())
	assert.Equal(t, "ld failed: exec: not found",
		(&toolchain.ExitError{Tool: "ld", Status: -1, Err: inner}).Error())
	assert.ErrorIs(t, &toolchain.ExitError{Tool: "ld", Status: -1, Err: inner}, inner)
}

func lookPath(t *testing.T, name string) string {
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("no %v available: %v", name, err)
	}
	return path
}

func Test_Assemble_exitStatus(t *testing.T) {
	as := toolchain.Assembler{Path: lookPath(t, "false")}
	err := as.Assemble(context.Background(), strings.NewReader(""), filepath.Join(t.TempDir(), "x.o"))
	var ee *toolchain.ExitError
	require.True(t, errors.As(err, &ee), "expected ExitError, got %v", err)
	assert.Equal(t, "as", ee.Tool)
	assert.Equal(t, 1, ee.Status)
}

func Test_Assemble_missingTool(t *testing.T) {
	as := toolchain.Assembler{Path: filepath.Join(t.TempDir(), "no-such-as")}
	err := as.Assemble(context.Background(), strings.NewReader(""), "x.o")
	var ee *toolchain.ExitError
	require.True(t, errors.As(err, &ee), "expected ExitError, got %v", err)
	assert.Equal(t, -1, ee.Status)
}

func Test_Build_linkFails(t *testing.T) {
	var logged []string
	logf := func(mess string, args ...interface{}) {
		logged = append(logged, fmt.Sprintf(mess, args...))
	}
	dir := t.TempDir()
	b := toolchain.Build{
		Assembler: toolchain.Assembler{Path: lookPath(t, "true"), Logf: logf},
		Linker:    toolchain.Linker{Path: lookPath(t, "false"), Logf: logf},
		Link:      true,
		Output:    filepath.Join(dir, "a.out"),
		TempDir:   dir,
	}
	err := b.Consume(context.Background(), strings.NewReader("ignored"))
	var ee *toolchain.ExitError
	require.True(t, errors.As(err, &ee), "expected ExitError, got %v", err)
	assert.Equal(t, "ld", ee.Tool)
	assert.Len(t, logged, 2)

	left, err := filepath.Glob(filepath.Join(dir, "gobfc-*.o"))
	require.NoError(t, err)
	assert.Empty(t, left, "temporary object must be removed")
}

func Test_Build_native(t *testing.T) {
	if runtime.GOOS != "linux" || runtime.GOARCH != "amd64" {
		t.Skip("native build needs linux/amd64")
	}
	dir := t.TempDir()
	stderr := &logio.Writer{Logf: t.Logf, Prefix: "tool: "}
	defer stderr.Close()
	b := toolchain.Build{
		Assembler: toolchain.Assembler{Path: lookPath(t, "as"), Stderr: stderr, Logf: t.Logf},
		Linker:    toolchain.Linker{Path: lookPath(t, "ld"), Stderr: stderr, Logf: t.Logf},
		Link:      true,
		Output:    filepath.Join(dir, "echo3"),
	}

	err := pipeline.Run(context.Background(),
		func(ctx context.Context, w io.Writer) error {
			_, err := compiler.Compile(strings.NewReader("+++.,."), w)
			return err
		},
		b.Consume)
	require.NoError(t, err)

	cmd := exec.Command(b.Output)
	cmd.Stdin = strings.NewReader("x")
	var out bytes.Buffer
	cmd.Stdout = &out
	require.NoError(t, cmd.Run())
	assert.Equal(t, []byte{3, 'x'}, out.Bytes())

	_, err = os.Stat(b.Output)
	assert.NoError(t, err)
}
