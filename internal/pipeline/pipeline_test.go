package pipeline_test

import (
	"context"
	"errors"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcorbin/gobfc/internal/pipeline"
)

func writeLines(n int) pipeline.Producer {
	return func(ctx context.Context, w io.Writer) error {
		for i := 0; i < n; i++ {
			if _, err := io.WriteString(w, "line\n"); err != nil {
				return err
			}
		}
		return nil
	}
}

func Test_Run(t *testing.T) {
	var got strings.Builder
	err := pipeline.Run(context.Background(), writeLines(3), func(ctx context.Context, r io.Reader) error {
		_, err := io.Copy(&got, r)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "line\nline\nline\n", got.String())
}

func Test_Run_consumerFails(t *testing.T) {
	boom := errors.New("consumer boom")
	err := pipeline.Run(context.Background(), writeLines(1<<20), func(ctx context.Context, r io.Reader) error {
		var buf [16]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return err
		}
		return boom
	})
	assert.Equal(t, boom, err, "the consumer's error caused the producer's")
}

func Test_Run_consumerStopsEarly(t *testing.T) {
	err := pipeline.Run(context.Background(), writeLines(1<<20), func(ctx context.Context, r io.Reader) error {
		return nil
	})
	assert.ErrorIs(t, err, io.ErrClosedPipe, "an unread stream is an error")
}

func Test_Run_producerFails(t *testing.T) {
	boom := errors.New("producer boom")
	var consumerErr error
	err := pipeline.Run(context.Background(),
		func(ctx context.Context, w io.Writer) error {
			if _, err := io.WriteString(w, "partial"); err != nil {
				return err
			}
			return boom
		},
		func(ctx context.Context, r io.Reader) error {
			_, consumerErr = ioutil.ReadAll(r)
			return consumerErr
		})
	assert.Equal(t, boom, err)
	assert.Equal(t, boom, consumerErr, "consumer must see the producer's error")
}

func Test_Run_cancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := pipeline.Run(ctx,
		func(ctx context.Context, w io.Writer) error {
			<-ctx.Done()
			return ctx.Err()
		},
		func(ctx context.Context, r io.Reader) error {
			_, err := ioutil.ReadAll(r)
			return err
		})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func Test_ToFile(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "out.s")

	require.NoError(t, pipeline.ToFile(context.Background(), name, writeLines(2)))
	data, err := ioutil.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "line\nline\n", string(data))

	boom := errors.New("boom")
	err = pipeline.ToFile(context.Background(), name, func(ctx context.Context, w io.Writer) error {
		io.WriteString(w, "partial")
		return boom
	})
	assert.Equal(t, boom, err)
	_, err = os.Stat(name)
	assert.True(t, os.IsNotExist(err), "partial output must be removed")

	err = pipeline.ToFile(context.Background(), filepath.Join(dir, "missing", "out.s"), writeLines(1))
	assert.Error(t, err)
}
