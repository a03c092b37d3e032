package upload

import (
	"context"
	"io"
)

// partUploader streams a single part to the remote, reporting sub-chunk sizes
// on a progress channel as the transport pulls them.
type partUploader struct {
	remote       Remote
	subChunkSize int
}

func (u *partUploader) upload(
	ctx context.Context,
	sessionID string,
	partNumber uint64,
	data []byte,
	progress chan<- uint64,
) error {
	body := &subChunkReader{
		remaining: data,
		size:      u.subChunkSize,
		progress:  progress,
	}

	return u.remote.UploadPart(ctx, sessionID, partNumber, body, int64(len(data)))
}

// subChunkReader serves data in fixed size slices. Each time a new slice is
// started its size is sent on progress without blocking.
type subChunkReader struct {
	remaining []byte
	current   []byte
	size      int
	progress  chan<- uint64
}

func (r *subChunkReader) Read(p []byte) (int, error) {
	if len(r.current) == 0 {
		if len(r.remaining) == 0 {
			return 0, io.EOF
		}

		n := min(r.size, len(r.remaining))
		r.current, r.remaining = r.remaining[:n], r.remaining[n:]

		select {
		case r.progress <- uint64(n):
		default:
		}
	}

	n := copy(p, r.current)
	r.current = r.current[n:]

	return n, nil
}
