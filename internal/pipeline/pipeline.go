// Package pipeline connects a producer of bytes to a consumer, either
// directly through a file or concurrently through a pipe.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/net/context"
	"golang.org/x/sync/errgroup"
)

// Producer writes a whole stream to w.
type Producer func(ctx context.Context, w io.Writer) error

// Consumer reads a stream from r, normally until io.EOF.
type Consumer func(ctx context.Context, r io.Reader) error

// Run runs produce and consume concurrently, connected by a pipe.
//
// Whichever side fails first closes its end of the pipe with its error, and
// cancels the context given to the other: a consumer that stops reading
// fails the producer's next write, and a failed producer fails the
// consumer's next read. When both fail, the producer's error is returned
// unless it only reports the consumer going away.
func Run(ctx context.Context, produce Producer, consume Consumer) error {
	pr, pw := io.Pipe()
	eg, ctx := errgroup.WithContext(ctx)

	var perr, cerr error
	eg.Go(func() error {
		perr = produce(ctx, pw)
		pw.CloseWithError(perr)
		return perr
	})
	eg.Go(func() error {
		cerr = consume(ctx, pr)
		pr.CloseWithError(cerr)
		return cerr
	})
	eg.Wait()

	switch {
	case perr == nil:
		return cerr
	case cerr == nil:
		return perr
	case errors.Is(perr, cerr), errors.Is(perr, io.ErrClosedPipe):
		return cerr
	}
	return perr
}

// ToFile runs produce writing into the named file, which is created or
// truncated. The file is removed if produce fails.
func ToFile(ctx context.Context, name string, produce Producer) (rerr error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); rerr == nil && cerr != nil {
			rerr = fmt.Errorf("close %v: %w", name, cerr)
		}
		if rerr != nil {
			os.Remove(name)
		}
	}()
	return produce(ctx, f)
}
