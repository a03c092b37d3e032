package upload_test

import (
	"bytes"
	"context"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/adpt/pkg/upload"
	"github.com/stretchr/testify/require"
)

type mockRemote struct {
	mu sync.Mutex

	initFunc     func(upload.InitRequest) (string, error)
	partFunc     func(context.Context, uint64, []byte) error
	abortFunc    func(context.Context, string) error
	finalizeFunc func(upload.FinalizeRequest) (*upload.Artifact, error)

	// partDelay holds each part in flight long enough for overlapping uploads to
	// show up in maxInFlight.
	partDelay   time.Duration
	inFlight    atomic.Int32
	maxInFlight atomic.Int32

	inits     []upload.InitRequest
	parts     []uint64
	data      bytes.Buffer
	aborts    []string
	finalizes []upload.FinalizeRequest
}

func (m *mockRemote) InitUpload(_ context.Context, req upload.InitRequest) (string, error) {
	m.mu.Lock()
	m.inits = append(m.inits, req)
	m.mu.Unlock()

	if m.initFunc != nil {
		return m.initFunc(req)
	}
	return "session-1", nil
}

func (m *mockRemote) UploadPart(
	ctx context.Context,
	_ string,
	partNumber uint64,
	body io.Reader,
	size int64,
) error {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)

	for {
		peak := m.maxInFlight.Load()
		if n <= peak || m.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	if m.partDelay > 0 {
		time.Sleep(m.partDelay)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return errors.Errorf("size mismatch: got %d, declared %d", len(data), size)
	}

	m.mu.Lock()
	m.parts = append(m.parts, partNumber)
	m.data.Write(data)
	m.mu.Unlock()

	if m.partFunc != nil {
		return m.partFunc(ctx, partNumber, data)
	}
	return nil
}

func (m *mockRemote) AbortUpload(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	m.aborts = append(m.aborts, sessionID)
	m.mu.Unlock()

	if m.abortFunc != nil {
		return m.abortFunc(ctx, sessionID)
	}
	return nil
}

func (m *mockRemote) FinalizeUpload(_ context.Context, req upload.FinalizeRequest) (*upload.Artifact, error) {
	m.mu.Lock()
	m.finalizes = append(m.finalizes, req)
	m.mu.Unlock()

	if m.finalizeFunc != nil {
		return m.finalizeFunc(req)
	}
	return &upload.Artifact{ID: "dataset-1", Key: req.Key}, nil
}

func writeDataset(t *testing.T, size int) (string, []byte) {
	t.Helper()

	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}

	path := filepath.Join(t.TempDir(), "dataset.jsonl")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path, data
}

func collect(seq iter.Seq2[upload.Event, error]) ([]upload.Event, error) {
	var events []upload.Event
	for event, err := range seq {
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
	return events, nil
}

func startSession(t *testing.T, remote upload.Remote, size int) (*upload.Session, []byte) {
	t.Helper()

	path, data := writeDataset(t, size)
	session, err := upload.New(remote, upload.WithProgressBuffer(1024)).Start(upload.Request{
		Path:    path,
		UseCase: "support",
		Name:    "train",
		Key:     "train",
	})
	require.NoError(t, err)
	return session, data
}

func requireMonotonic(t *testing.T, events []upload.Event, total uint64) {
	t.Helper()

	var last uint64
	for _, event := range events {
		p, ok := event.(upload.Progress)
		if !ok {
			continue
		}

		require.Equal(t, total, p.TotalBytes)
		require.GreaterOrEqual(t, p.BytesUploaded, last)
		require.LessOrEqual(t, p.BytesUploaded, total)
		last = p.BytesUploaded
	}
}

func TestSessionEvents(t *testing.T) {
	remote := &mockRemote{}
	session, data := startSession(t, remote, 12_000_000)

	require.Equal(t, upload.StatePlanning, session.State())
	require.Equal(t, uint64(3), session.Plan().TotalParts)

	events, err := collect(session.Events(context.Background()))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(events), 2)

	require.Equal(t, upload.Progress{BytesUploaded: 0, TotalBytes: 12_000_000}, events[0])
	requireMonotonic(t, events, 12_000_000)

	last := events[len(events)-1]
	require.Equal(t, upload.Complete{Artifact: upload.Artifact{ID: "dataset-1", Key: "train"}}, last)

	beforeLast, ok := events[len(events)-2].(upload.Progress)
	require.True(t, ok)
	require.Equal(t, uint64(12_000_000), beforeLast.BytesUploaded)

	for _, event := range events[:len(events)-1] {
		require.IsType(t, upload.Progress{}, event)
	}

	require.Len(t, remote.inits, 1)
	require.Equal(t, uint64(3), remote.inits[0].TotalParts)
	require.Equal(t, upload.DefaultContentType, remote.inits[0].ContentType)
	require.Equal(t, []uint64{1, 2, 3}, remote.parts)
	require.Equal(t, data, remote.data.Bytes())
	require.Empty(t, remote.aborts)
	require.Equal(t, []upload.FinalizeRequest{{
		UseCase:   "support",
		Name:      "train",
		Key:       "train",
		SessionID: "session-1",
	}}, remote.finalizes)

	require.Equal(t, upload.StateCompleted, session.State())
	require.Equal(t, "session-1", session.ID())
}

func TestSessionEventsOnePartAtATime(t *testing.T) {
	remote := &mockRemote{partDelay: 20 * time.Millisecond}
	session, data := startSession(t, remote, 25_000_000)
	require.Equal(t, uint64(5), session.Plan().TotalParts)

	_, err := collect(session.Events(context.Background()))
	require.NoError(t, err)

	require.Equal(t, int32(1), remote.maxInFlight.Load())
	require.Equal(t, []uint64{1, 2, 3, 4, 5}, remote.parts)
	require.Equal(t, data, remote.data.Bytes())
}

func TestSessionEventsConsumedOnce(t *testing.T) {
	remote := &mockRemote{}
	session, _ := startSession(t, remote, 5_000_000)

	_, err := collect(session.Events(context.Background()))
	require.NoError(t, err)

	events, err := collect(session.Events(context.Background()))
	require.ErrorIs(t, err, upload.ErrSessionConsumed)
	require.Empty(t, events)
	require.Len(t, remote.inits, 1)
}

func TestSessionEventsFailures(t *testing.T) {
	t.Run("init failure does not abort", func(t *testing.T) {
		remote := &mockRemote{
			initFunc: func(upload.InitRequest) (string, error) {
				return "", errors.New("unsupported content type")
			},
		}
		session, _ := startSession(t, remote, 6_000_000)

		events, err := collect(session.Events(context.Background()))
		require.Len(t, events, 1)

		var sessionErr *upload.SessionError
		require.True(t, errors.As(err, &sessionErr))
		require.Equal(t, upload.OpInit, sessionErr.Op)
		require.EqualError(t, err, "failed to initialize chunked upload: unsupported content type")

		require.Empty(t, remote.parts)
		require.Empty(t, remote.aborts)
		require.Empty(t, remote.finalizes)
		require.Equal(t, upload.StateAborted, session.State())
	})

	t.Run("part failure aborts once", func(t *testing.T) {
		remote := &mockRemote{
			partFunc: func(_ context.Context, part uint64, _ []byte) error {
				if part == 2 {
					return &upload.PartError{PartNumber: 2, Status: 500, Body: "boom"}
				}
				return nil
			},
		}
		session, _ := startSession(t, remote, 15_000_000)

		events, err := collect(session.Events(context.Background()))
		require.Error(t, err)
		requireMonotonic(t, events, 15_000_000)

		var partErr *upload.PartError
		require.True(t, errors.As(err, &partErr))
		require.Equal(t, 500, partErr.Status)
		require.Equal(t, "boom", partErr.Body)

		var sessionErr *upload.SessionError
		require.True(t, errors.As(err, &sessionErr))
		require.Equal(t, upload.OpUploadPart, sessionErr.Op)
		require.Equal(t, uint64(2), sessionErr.PartNumber)

		require.Equal(t, []uint64{1, 2}, remote.parts)
		require.Equal(t, []string{"session-1"}, remote.aborts)
		require.Empty(t, remote.finalizes)
		require.Equal(t, upload.StateAborted, session.State())
	})

	t.Run("finalize failure aborts once", func(t *testing.T) {
		remote := &mockRemote{
			finalizeFunc: func(upload.FinalizeRequest) (*upload.Artifact, error) {
				return nil, errors.New("name already taken")
			},
		}
		session, _ := startSession(t, remote, 10_000_000)

		_, err := collect(session.Events(context.Background()))

		var sessionErr *upload.SessionError
		require.True(t, errors.As(err, &sessionErr))
		require.Equal(t, upload.OpFinalize, sessionErr.Op)
		require.Equal(t, "session-1", sessionErr.SessionID)
		require.Equal(t, []string{"session-1"}, remote.aborts)
	})

	t.Run("finalize without dataset aborts", func(t *testing.T) {
		remote := &mockRemote{
			finalizeFunc: func(upload.FinalizeRequest) (*upload.Artifact, error) {
				return nil, nil
			},
		}
		session, _ := startSession(t, remote, 5_000_000)

		events, err := collect(session.Events(context.Background()))
		require.ErrorIs(t, err, upload.ErrNoArtifact)

		var sessionErr *upload.SessionError
		require.True(t, errors.As(err, &sessionErr))
		require.Equal(t, upload.OpFinalize, sessionErr.Op)

		for _, event := range events {
			require.IsType(t, upload.Progress{}, event)
		}
		require.Equal(t, []string{"session-1"}, remote.aborts)
		require.Equal(t, upload.StateAborted, session.State())
	})

	t.Run("abort errors are swallowed", func(t *testing.T) {
		partFailure := &upload.PartError{PartNumber: 1, Status: 400, Body: "bad part"}
		remote := &mockRemote{
			partFunc: func(context.Context, uint64, []byte) error { return partFailure },
			abortFunc: func(context.Context, string) error {
				return errors.New("abort unavailable")
			},
		}
		session, _ := startSession(t, remote, 5_000_000)

		_, err := collect(session.Events(context.Background()))
		require.ErrorIs(t, err, partFailure)
		require.Len(t, remote.aborts, 1)
	})

	t.Run("file removed after planning", func(t *testing.T) {
		remote := &mockRemote{}
		path, _ := writeDataset(t, 5_000_000)

		session, err := upload.New(remote).Start(upload.Request{Path: path})
		require.NoError(t, err)
		require.NoError(t, os.Remove(path))

		_, err = collect(session.Events(context.Background()))
		require.ErrorIs(t, err, os.ErrNotExist)
		require.Empty(t, remote.inits)
		require.Empty(t, remote.aborts)
	})
}

func TestSessionEventsAbandoned(t *testing.T) {
	t.Run("before init", func(t *testing.T) {
		remote := &mockRemote{}
		session, _ := startSession(t, remote, 5_000_000)

		for range session.Events(context.Background()) {
			break
		}

		require.Empty(t, remote.inits)
		require.Empty(t, remote.aborts)
		require.Equal(t, upload.StateAborted, session.State())
	})

	t.Run("after first part progress", func(t *testing.T) {
		remote := &mockRemote{}
		session, _ := startSession(t, remote, 15_000_000)

		for event, err := range session.Events(context.Background()) {
			require.NoError(t, err)
			if p, ok := event.(upload.Progress); ok && p.BytesUploaded > 0 {
				break
			}
		}

		require.Len(t, remote.inits, 1)
		require.Equal(t, []string{"session-1"}, remote.aborts)
		require.Empty(t, remote.finalizes)
		require.LessOrEqual(t, len(remote.parts), 1)
		require.Equal(t, upload.StateAborted, session.State())
	})

	t.Run("context cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var abortCtxErr error
		remote := &mockRemote{
			partFunc: func(ctx context.Context, _ uint64, _ []byte) error {
				cancel()
				return ctx.Err()
			},
			abortFunc: func(ctx context.Context, _ string) error {
				abortCtxErr = ctx.Err()
				return nil
			},
		}
		session, _ := startSession(t, remote, 10_000_000)

		_, err := collect(session.Events(ctx))
		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, []string{"session-1"}, remote.aborts)
		require.NoError(t, abortCtxErr)
		require.Equal(t, []uint64{1}, remote.parts)
	})
}

func TestUploaderStart(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := upload.New(&mockRemote{}).Start(upload.Request{Path: filepath.Join(t.TempDir(), "nope.jsonl")})
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := upload.New(&mockRemote{}).Start(upload.Request{Path: t.TempDir()})
		require.ErrorContains(t, err, "cannot upload a directory")
	})

	t.Run("too small", func(t *testing.T) {
		path, _ := writeDataset(t, 1024)

		_, err := upload.New(&mockRemote{}).Start(upload.Request{Path: path})
		require.ErrorIs(t, err, upload.ErrTooSmall)
	})

	t.Run("keeps explicit content type", func(t *testing.T) {
		remote := &mockRemote{}
		path, _ := writeDataset(t, 5_000_000)

		session, err := upload.New(remote).Start(upload.Request{Path: path, ContentType: "text/csv"})
		require.NoError(t, err)

		_, err = collect(session.Events(context.Background()))
		require.NoError(t, err)
		require.Equal(t, "text/csv", remote.inits[0].ContentType)
	})
}

func TestStateString(t *testing.T) {
	require.Equal(t, "uploading parts", upload.StateUploadingParts.String())
	require.Equal(t, "aborted", upload.StateAborted.String())
	require.Equal(t, "unknown", upload.State(99).String())
}
