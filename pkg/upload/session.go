package upload

import (
	"context"
	"io"
	"iter"
	"os"
	"sync/atomic"

	"github.com/pkg/errors"
)

// State is the lifecycle position of a Session.
type State int32

const (
	StatePlanning State = iota
	StateInitiating
	StateUploadingParts
	StateFinalizing
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StatePlanning:
		return "planning"
	case StateInitiating:
		return "initiating"
	case StateUploadingParts:
		return "uploading parts"
	case StateFinalizing:
		return "finalizing"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

type (
	// Request describes a local file to upload as a dataset.
	Request struct {
		Path    string
		UseCase string
		Name    string
		Key     string

		// ContentType defaults to DefaultContentType when empty.
		ContentType string

		// Metadata is passed through to the remote init call.
		Metadata map[string]any
	}

	// Uploader starts chunked upload sessions against a Remote.
	Uploader struct {
		remote Remote
		opts   options
	}

	// Session is a single planned upload. Its events can be consumed once.
	Session struct {
		uploader *Uploader
		req      Request
		size     uint64
		plan     Plan

		consumed atomic.Bool
		state    atomic.Int32
		id       atomic.Value
	}
)

// New creates an Uploader bound to the given remote.
func New(remote Remote, opts ...Option) *Uploader {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Uploader{remote: remote, opts: o}
}

// Start inspects the file at req.Path and plans its upload. No remote calls are
// made until the session's events are consumed.
func (u *Uploader) Start(req Request) (*Session, error) {
	info, err := os.Stat(req.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get file metadata: %s", req.Path)
	}

	if info.IsDir() {
		return nil, errors.Errorf("cannot upload a directory: %s", req.Path)
	}

	size := uint64(info.Size())
	plan, err := PlanParts(size)
	if err != nil {
		return nil, err
	}

	if req.ContentType == "" {
		req.ContentType = DefaultContentType
	}

	s := &Session{uploader: u, req: req, size: size, plan: plan}
	s.id.Store("")

	return s, nil
}

// Plan returns the part layout of the session.
func (s *Session) Plan() Plan { return s.plan }

// FileSize returns the number of bytes that will be uploaded.
func (s *Session) FileSize() uint64 { return s.size }

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// ID returns the remote session id, or an empty string before init succeeds.
func (s *Session) ID() string { return s.id.Load().(string) }

// Events returns the lazy event sequence of the upload. Nothing happens until
// the sequence is ranged over; ranging over it a second time yields
// ErrSessionConsumed.
//
// The sequence yields Progress events followed by a single Complete, or stops
// at the first error. Errors are always the last element.
func (s *Session) Events(ctx context.Context) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		if !s.consumed.CompareAndSwap(false, true) {
			yield(nil, ErrSessionConsumed)
			return
		}

		s.run(ctx, yield)
	}
}

func (s *Session) run(ctx context.Context, yield func(Event, error) bool) {
	remote := s.uploader.remote
	log := s.uploader.opts.logger

	if !yield(Progress{BytesUploaded: 0, TotalBytes: s.size}, nil) {
		s.setState(StateAborted)
		return
	}

	// Opened before init so a missing file never leaves a remote session behind.
	f, err := os.Open(s.req.Path)
	if err != nil {
		s.setState(StateAborted)
		yield(nil, errors.Wrapf(err, "failed to open file: %s", s.req.Path))
		return
	}
	defer func() { _ = f.Close() }()

	s.setState(StateInitiating)
	log.Debug("Initializing chunked upload",
		"path", s.req.Path,
		"size", s.size,
		"parts", s.plan.TotalParts,
		"chunk_size", s.plan.ChunkSize,
	)

	id, err := remote.InitUpload(ctx, InitRequest{
		TotalParts:  s.plan.TotalParts,
		ContentType: s.req.ContentType,
		Metadata:    s.req.Metadata,
	})
	if err != nil {
		s.setState(StateAborted)
		yield(nil, &SessionError{Op: OpInit, Err: err})
		return
	}

	s.id.Store(id)
	s.setState(StateUploadingParts)

	var uploaded uint64
	for part := uint64(1); part <= s.plan.TotalParts; part++ {
		if err := ctx.Err(); err != nil {
			s.abort(ctx, id)
			yield(nil, &SessionError{Op: OpUploadPart, SessionID: id, PartNumber: part, Err: err})
			return
		}

		buf := make([]byte, s.plan.PartSize(part, s.size))
		if _, err := io.ReadFull(f, buf); err != nil {
			s.abort(ctx, id)
			yield(nil, &ReadError{PartNumber: part, Err: err})
			return
		}

		cont, err := s.uploadPart(ctx, id, part, buf, &uploaded, yield)
		if !cont {
			log.Debug("Upload abandoned by consumer", "session", id, "part", part)
			s.abort(ctx, id)
			return
		}

		if err != nil {
			s.abort(ctx, id)
			yield(nil, err)
			return
		}

		log.Debug("Uploaded part", "session", id, "part", part, "of", s.plan.TotalParts)
	}

	s.setState(StateFinalizing)
	artifact, err := remote.FinalizeUpload(ctx, FinalizeRequest{
		UseCase:   s.req.UseCase,
		Name:      s.req.Name,
		Key:       s.req.Key,
		SessionID: id,
	})
	if err == nil && artifact == nil {
		err = ErrNoArtifact
	}
	if err != nil {
		s.abort(ctx, id)
		yield(nil, &SessionError{Op: OpFinalize, SessionID: id, Err: err})
		return
	}

	s.setState(StateCompleted)
	yield(Complete{Artifact: *artifact}, nil)
}

// uploadPart transfers one part while re-emitting its progress. It returns
// false when the consumer stopped the sequence.
func (s *Session) uploadPart(
	ctx context.Context,
	id string,
	part uint64,
	data []byte,
	uploaded *uint64,
	yield func(Event, error) bool,
) (bool, error) {
	partCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	progress := make(chan uint64, s.uploader.opts.progressBuffer)
	done := make(chan error, 1)

	uploader := &partUploader{remote: s.uploader.remote, subChunkSize: s.uploader.opts.subChunkSize}
	go func() {
		done <- uploader.upload(partCtx, id, part, data, progress)
	}()

	emit := func(n uint64) bool {
		*uploaded = min(*uploaded+n, s.size)
		return yield(Progress{BytesUploaded: *uploaded, TotalBytes: s.size}, nil)
	}

	for {
		select {
		case err := <-done:
			if !drain(progress, emit) {
				return false, nil
			}

			if err != nil {
				return true, &SessionError{Op: OpUploadPart, SessionID: id, PartNumber: part, Err: err}
			}

			return true, nil

		case n := <-progress:
			if !emit(n) {
				cancel()
				<-done
				return false, nil
			}
		}
	}
}

// drain emits notifications still buffered after the transfer finished.
func drain(progress <-chan uint64, emit func(uint64) bool) bool {
	for {
		select {
		case n := <-progress:
			if !emit(n) {
				return false
			}
		default:
			return true
		}
	}
}

// abort makes a single best-effort attempt to cancel the remote session. The
// parent context may already be cancelled, so the call runs detached with its
// own timeout.
func (s *Session) abort(ctx context.Context, id string) {
	s.setState(StateAborted)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.uploader.opts.abortTimeout)
	defer cancel()

	if err := s.uploader.remote.AbortUpload(ctx, id); err != nil {
		s.uploader.opts.logger.Warn("Failed to abort upload session", "session", id, "err", err)
		return
	}

	s.uploader.opts.logger.Debug("Aborted upload session", "session", id)
}

func (s *Session) setState(state State) {
	s.state.Store(int32(state))
}
