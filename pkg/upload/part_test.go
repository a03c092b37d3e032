package upload

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type capturingRemote struct {
	Remote

	body []byte
	size int64
}

func (c *capturingRemote) UploadPart(_ context.Context, _ string, _ uint64, body io.Reader, size int64) error {
	data, err := io.ReadAll(body)
	c.body = data
	c.size = size
	return err
}

func TestSubChunkReader(t *testing.T) {
	data := bytes.Repeat([]byte("abcdefghij"), 25)

	t.Run("notifies once per sub-chunk", func(t *testing.T) {
		progress := make(chan uint64, 10)
		r := &subChunkReader{remaining: data, size: 100, progress: progress}

		out, err := io.ReadAll(r)
		require.NoError(t, err)
		require.Equal(t, data, out)

		close(progress)
		var sizes []uint64
		for n := range progress {
			sizes = append(sizes, n)
		}
		require.Equal(t, []uint64{100, 100, 50}, sizes)
	})

	t.Run("small reads do not repeat notifications", func(t *testing.T) {
		progress := make(chan uint64, 10)
		r := &subChunkReader{remaining: data[:30], size: 20, progress: progress}

		buf := make([]byte, 7)
		var out []byte
		for {
			n, err := r.Read(buf)
			out = append(out, buf[:n]...)
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			require.LessOrEqual(t, n, 7)
		}

		require.Equal(t, data[:30], out)
		require.Len(t, progress, 2)
	})

	t.Run("never blocks on a full channel", func(t *testing.T) {
		progress := make(chan uint64, 1)
		r := &subChunkReader{remaining: data, size: 10, progress: progress}

		out, err := io.ReadAll(r)
		require.NoError(t, err)
		require.Equal(t, data, out)
		require.Equal(t, uint64(10), <-progress)
	})
}

func TestPartUploader(t *testing.T) {
	remote := &capturingRemote{}
	u := &partUploader{remote: remote, subChunkSize: 64}

	data := bytes.Repeat([]byte{1, 2, 3}, 100)
	progress := make(chan uint64, 16)

	require.NoError(t, u.upload(context.Background(), "s", 1, data, progress))
	require.Equal(t, data, remote.body)
	require.Equal(t, int64(len(data)), remote.size)

	var total uint64
	for len(progress) > 0 {
		total += <-progress
	}
	require.Equal(t, uint64(len(data)), total)
}
