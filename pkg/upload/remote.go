package upload

import (
	"context"
	"io"
)

type (
	// InitRequest opens a remote upload session.
	InitRequest struct {
		TotalParts  uint64
		ContentType string
		Metadata    map[string]any
	}

	// FinalizeRequest turns a fully uploaded session into a dataset.
	FinalizeRequest struct {
		UseCase   string
		Name      string
		Key       string
		SessionID string
	}

	// Remote is the platform side of a chunked upload.
	//
	// UploadPart must read body to completion (or until ctx is done) and return a
	// *PartError when the platform responds with a non-success status.
	Remote interface {
		InitUpload(ctx context.Context, req InitRequest) (string, error)
		UploadPart(ctx context.Context, sessionID string, partNumber uint64, body io.Reader, size int64) error
		AbortUpload(ctx context.Context, sessionID string) error
		FinalizeUpload(ctx context.Context, req FinalizeRequest) (*Artifact, error)
	}
)
