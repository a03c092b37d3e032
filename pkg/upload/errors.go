package upload

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

var (
	// ErrTooSmall is returned by PlanParts for files below MinChunkSize.
	ErrTooSmall = errors.New("file too small for chunked upload")

	// ErrTooLarge is returned by PlanParts for files above MaxFileSize.
	ErrTooLarge = errors.New("file too large for chunked upload")

	// ErrSessionConsumed is yielded when a session's events are ranged over more
	// than once.
	ErrSessionConsumed = errors.New("upload session events already consumed")

	// ErrNoArtifact is wrapped in a SessionError when finalizing succeeds without
	// returning the created dataset.
	ErrNoArtifact = errors.New("no dataset returned")
)

// Op identifies the remote step a SessionError occurred in.
type Op string

const (
	OpInit       Op = "init"
	OpUploadPart Op = "upload part"
	OpFinalize   Op = "finalize"
)

type (
	// PlanError reports a file size that cannot be split into valid parts.
	PlanError struct {
		Size uint64
		Err  error
	}

	// SessionError reports a failed remote step of an upload session.
	SessionError struct {
		Op Op

		// SessionID is empty when Op is OpInit.
		SessionID string

		// PartNumber is set when Op is OpUploadPart.
		PartNumber uint64

		Err error
	}

	// PartError is returned by a Remote when the platform rejects a part with a
	// non-success status.
	PartError struct {
		PartNumber uint64
		Status     int
		Body       string
	}

	// ReadError reports a failure reading a part from the local file.
	ReadError struct {
		PartNumber uint64
		Err        error
	}
)

func (e *PlanError) Error() string {
	switch {
	case errors.Is(e.Err, ErrTooSmall):
		return fmt.Sprintf(
			"file size (%d bytes) is too small for chunked upload (minimum %d bytes)",
			e.Size,
			MinChunkSize,
		)
	case errors.Is(e.Err, ErrTooLarge):
		return fmt.Sprintf(
			"file size (%d bytes) exceeds maximum uploadable size (%d bytes = %d parts * %d bytes)",
			e.Size,
			MaxFileSize,
			MaxParts,
			MaxChunkSize,
		)
	default:
		return fmt.Sprintf("cannot plan upload of %d bytes: %v", e.Size, e.Err)
	}
}

func (e *PlanError) Unwrap() error { return e.Err }

func (e *SessionError) Error() string {
	switch e.Op {
	case OpInit:
		return fmt.Sprintf("failed to initialize chunked upload: %v", e.Err)
	case OpUploadPart:
		return fmt.Sprintf("failed to upload part %d: %v", e.PartNumber, e.Err)
	case OpFinalize:
		return fmt.Sprintf("failed to create dataset from upload session %s: %v", e.SessionID, e.Err)
	default:
		return fmt.Sprintf("upload session %s: %s: %v", e.SessionID, e.Op, e.Err)
	}
}

func (e *SessionError) Unwrap() error { return e.Err }

func (e *PartError) Error() string {
	return fmt.Sprintf("part %d rejected: %d %s - %s", e.PartNumber, e.Status, http.StatusText(e.Status), e.Body)
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read part %d: %v", e.PartNumber, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
