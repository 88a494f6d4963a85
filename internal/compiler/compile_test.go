package compiler_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jcorbin/gobfc/internal/asmsim"
	"github.com/jcorbin/gobfc/internal/compiler"
	"github.com/jcorbin/gobfc/internal/logio"
	"github.com/jcorbin/gobfc/internal/parse"
)

type scenario struct {
	Name        string              `yaml:"name"`
	Source      string              `yaml:"source"`
	Input       string              `yaml:"input"`
	EOF         *compiler.EOFPolicy `yaml:"eof"`
	DeadLoops   *bool               `yaml:"dead_loops"`
	Output      *string             `yaml:"output"`
	OutputBytes []int               `yaml:"output_bytes"`
	Error       string              `yaml:"error"`
	Contains    []string            `yaml:"contains"`
	Absent      []string            `yaml:"absent"`
	Loops       *int                `yaml:"loops"`
	Vacuous     *int                `yaml:"vacuous"`
}

var scenarioErrors = map[string]error{
	"unmatched_bracket": parse.ErrUnmatchedBracket,
	"empty_input":       compiler.ErrEmptyInput,
}

func loadScenarios(t *testing.T) []scenario {
	f, err := os.Open("testdata/scenarios.yaml")
	require.NoError(t, err)
	defer f.Close()
	var scenarios []scenario
	require.NoError(t, yaml.NewDecoder(f).Decode(&scenarios))
	require.NotEmpty(t, scenarios)
	return scenarios
}

func (sc scenario) options(t *testing.T) []compiler.Option {
	opts := []compiler.Option{
		compiler.WithTapeSize(256),
		compiler.WithLogf(t.Logf),
	}
	if sc.EOF != nil {
		opts = append(opts, compiler.WithEOF(*sc.EOF))
	}
	if sc.DeadLoops != nil {
		opts = append(opts, compiler.WithDeadLoops(*sc.DeadLoops))
	}
	return opts
}

func (sc scenario) expectedOutput() (string, bool) {
	if sc.Output != nil {
		return *sc.Output, true
	}
	if sc.OutputBytes != nil {
		buf := make([]byte, len(sc.OutputBytes))
		for i, b := range sc.OutputBytes {
			buf[i] = byte(b)
		}
		return string(buf), true
	}
	return "", false
}

func (sc scenario) run(t *testing.T) {
	var asm strings.Builder
	res, err := compiler.Compile(strings.NewReader(sc.Source), &asm, sc.options(t)...)

	if sc.Error != "" {
		want, known := scenarioErrors[sc.Error]
		require.True(t, known, "unknown scenario error %q", sc.Error)
		assert.ErrorIs(t, err, want)
		assert.Empty(t, asm.String(), "no output on failure")
		return
	}
	require.NoError(t, err)

	text := asm.String()
	for _, want := range sc.Contains {
		assert.Contains(t, text, want)
	}
	for _, unwanted := range sc.Absent {
		assert.NotContains(t, text, unwanted)
	}
	if sc.Loops != nil {
		assert.Equal(t, *sc.Loops, res.Stats.Loops, "emitted loops")
	}
	if sc.Vacuous != nil {
		assert.Equal(t, *sc.Vacuous, res.Stats.Vacuous, "vacuous loops")
	}

	if want, ok := sc.expectedOutput(); ok {
		out, status := execute(t, text, sc.Input)
		assert.Equal(t, want, out, "expected program output")
		assert.Equal(t, 0, status, "expected exit status")
	}
}

func execute(t *testing.T, asm, input string) (string, int) {
	var out strings.Builder
	trace := &logio.Writer{Logf: t.Logf, Prefix: "sim: "}
	defer trace.Close()
	opts := []asmsim.Option{
		asmsim.WithInput(strings.NewReader(input)),
		asmsim.WithOutput(&out),
		asmsim.WithStepLimit(1 << 20),
	}
	if testing.Verbose() {
		opts = append(opts, asmsim.WithLogf(func(mess string, args ...interface{}) {
			fmt.Fprintf(trace, mess+"\n", args...)
		}))
	}
	m, err := asmsim.Exec(context.Background(), strings.NewReader(asm), opts...)
	require.NoError(t, err, "unexpected simulation error")
	require.True(t, m.Exited(), "program must exit")
	return out.String(), m.ExitStatus()
}

func Test_Scenarios(t *testing.T) {
	for _, sc := range loadScenarios(t) {
		t.Run(sc.Name, sc.run)
	}
}

func Test_Compile_emptyInput(t *testing.T) {
	for _, source := range []string{"", "hello", "no ops here\n\n"} {
		var out strings.Builder
		_, err := compiler.Compile(strings.NewReader(source), &out)
		assert.ErrorIs(t, err, compiler.ErrEmptyInput, "source %q", source)
		assert.Empty(t, out.String())
	}
}

func Test_Compile_lookaheadReplay(t *testing.T) {
	// a comment longer than one lookahead read, so that replay spans reads
	source := strings.Repeat("x", 5000) + "\n  +."
	var out strings.Builder
	res, err := compiler.Compile(
		iotest.OneByteReader(strings.NewReader(source)), &out,
		compiler.WithDebug(true),
		compiler.WithName("prog.b"))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "# prog.b:2:3 +\n")
	assert.Contains(t, out.String(), "# prog.b:2:4 .\n")
	assert.Equal(t, 1, res.Stats.Modifies)
	assert.Equal(t, 1, res.Stats.Writes)
}

type namedReader struct {
	io.Reader
	name string
}

func (nr namedReader) Name() string { return nr.name }

func Test_Compile_sourceName(t *testing.T) {
	_, err := compiler.Compile(namedReader{strings.NewReader("\n+]"), "oops.b"}, io.Discard)
	var be *parse.BracketError
	require.True(t, errors.As(err, &be), "expected bracket error, got %v", err)
	assert.Equal(t, "oops.b:2:2: unmatched ']'", err.Error())
}

func Test_Compile_ioErrors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("read before any operator", func(t *testing.T) {
		_, err := compiler.Compile(iotest.ErrReader(boom), io.Discard)
		var ioe *compiler.IOError
		require.True(t, errors.As(err, &ioe), "expected IOError, got %v", err)
		assert.Equal(t, "read", ioe.Op)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("read after lookahead", func(t *testing.T) {
		r := io.MultiReader(strings.NewReader("+["), iotest.ErrReader(boom))
		_, err := compiler.Compile(r, io.Discard)
		var ioe *compiler.IOError
		require.True(t, errors.As(err, &ioe), "expected IOError, got %v", err)
		assert.Equal(t, "read", ioe.Op)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, parse.ErrUnmatchedBracket)
	})

	t.Run("write", func(t *testing.T) {
		_, err := compiler.Compile(strings.NewReader("+."), failWriter{boom})
		var ioe *compiler.IOError
		require.True(t, errors.As(err, &ioe), "expected IOError, got %v", err)
		assert.Equal(t, "write", ioe.Op)
		assert.ErrorIs(t, err, boom)
	})
}

type failWriter struct{ err error }

func (fw failWriter) Write(p []byte) (int, error) { return 0, fw.err }

func Test_Compile_badConfig(t *testing.T) {
	_, err := compiler.Compile(strings.NewReader("+"), io.Discard, compiler.WithTapeSize(0))
	assert.Error(t, err)
}

func Test_New(t *testing.T) {
	cfg := compiler.New()
	assert.Equal(t, 30000, cfg.TapeSize)
	assert.Equal(t, compiler.EOFZero, cfg.EOF)
	assert.True(t, cfg.DeadLoops)
	assert.False(t, cfg.Debug)

	cfg = compiler.New(
		compiler.WithTapeSize(100),
		compiler.WithEOF(compiler.EOFUnchanged),
		compiler.WithDebug(true),
		compiler.WithDeadLoops(false),
		nil,
	)
	assert.Equal(t, 100, cfg.TapeSize)
	assert.Equal(t, compiler.EOFUnchanged, cfg.EOF)
	assert.True(t, cfg.Debug)
	assert.False(t, cfg.DeadLoops)

	again := compiler.New(compiler.WithConfig(cfg), compiler.WithTapeSize(7))
	assert.Equal(t, 7, again.TapeSize)
	assert.True(t, again.Debug)
}

// Test_DeadLoops_equivalence checks that skipping vacuous loops never
// changes what a program writes.
func Test_DeadLoops_equivalence(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	compared := 0
	for i := 0; i < 300; i++ {
		source := randomProgram(rng, 40)
		input := randomInput(rng, 8)

		var plain, elided strings.Builder
		_, err := compiler.Compile(strings.NewReader(source), &plain,
			compiler.WithTapeSize(256), compiler.WithDeadLoops(false))
		if errors.Is(err, compiler.ErrEmptyInput) {
			continue
		}
		require.NoError(t, err, "source %q", source)
		res, err := compiler.Compile(strings.NewReader(source), &elided,
			compiler.WithTapeSize(256), compiler.WithDeadLoops(true))
		require.NoError(t, err, "source %q", source)

		const limit = 1 << 18
		want, wantErr := simulate(plain.String(), input, limit)
		if wantErr != nil {
			// did not finish in time, so there is nothing to compare
			continue
		}
		got, err := simulate(elided.String(), input, limit)
		require.NoError(t, err, "source %q", source)
		assert.Equal(t, want, got, "output of %q, %v vacuous loops", source, res.Stats.Vacuous)
		compared++
	}
	t.Logf("compared %v programs", compared)
	assert.Greater(t, compared, 20)
}

func simulate(asm, input string, limit int) (string, error) {
	var out strings.Builder
	_, err := asmsim.Exec(context.Background(), strings.NewReader(asm),
		asmsim.WithInput(strings.NewReader(input)),
		asmsim.WithOutput(&out),
		asmsim.WithStepLimit(limit))
	return out.String(), err
}

func randomProgram(rng *rand.Rand, n int) string {
	const ops = "+-<>.,"
	var sb strings.Builder
	depth := 0
	for i := 0; i < n; i++ {
		switch k := rng.Intn(10); {
		case k == 0:
			sb.WriteByte('[')
			depth++
		case k <= 2 && depth > 0:
			sb.WriteByte(']')
			depth--
		default:
			sb.WriteByte(ops[rng.Intn(len(ops))])
		}
	}
	for ; depth > 0; depth-- {
		sb.WriteByte(']')
	}
	return sb.String()
}

func randomInput(rng *rand.Rand, n int) string {
	buf := make([]byte, rng.Intn(n))
	rng.Read(buf)
	return string(buf)
}
