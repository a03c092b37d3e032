package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"github.com/pseudomuto/adpt/pkg/platform"
	"github.com/pseudomuto/adpt/pkg/ui"
	"github.com/pseudomuto/adpt/pkg/upload"
	"github.com/urfave/cli/v3"
)

// uploadCmd creates the upload command for creating datasets from local files.
//
// Files larger than upload.MinChunkSize are sent with the chunked upload
// protocol and report progress on stderr. Smaller files are sent in a single
// multipart request.
//
// Interrupting the command while a chunked upload is in flight aborts the
// remote upload session.
//
// Example usage:
//
//	# Upload using the default use case, name and key
//	adpt upload train.jsonl
//
//	# Upload into a specific use case with a custom name
//	adpt upload --usecase support-bot --name "Support tickets" tickets.jsonl
func uploadCmd(p clientParams) *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Usage:     "Upload a dataset",
		ArgsUsage: "<dataset>",
		Description: `Upload a local file as a dataset in a use case.

The dataset name defaults to the file name followed by the current unix time,
and the key defaults to a slug of the name.`,
		Before: requireClient(p.Config),
		Flags: []cli.Flag{
			useCaseFlag(),
			nameFlag("name of the dataset"),
			keyFlag("key of the dataset"),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := requireArg(cmd, "dataset")
			if err != nil {
				return err
			}

			useCase, err := p.Config.UseCase(cmd.String("usecase"))
			if err != nil {
				return err
			}

			info, err := os.Stat(path)
			if err != nil {
				return errors.Wrapf(err, "failed to read dataset %s", path)
			}

			if info.IsDir() {
				return errors.Errorf("cannot upload a directory: %s", path)
			}

			name := cmd.String("name")
			if name == "" {
				name = defaultName(path, time.Now())
			}

			key := cmd.String("key")
			if key == "" {
				key = slug.Make(name)
			}

			var id string
			if uint64(info.Size()) > upload.MinChunkSize {
				id, err = chunkedUpload(ctx, cmd, p.Client, upload.Request{
					Path:    path,
					UseCase: useCase,
					Name:    name,
					Key:     key,
				})
			} else {
				var ds *platform.Dataset
				if ds, err = p.Client.UploadDataset(ctx, useCase, name, key, path); err == nil {
					id = ds.ID
				}
			}

			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.Root().Writer, "Dataset uploaded successfully with ID: %s\n", id)
			return nil
		},
	}
}

func chunkedUpload(ctx context.Context, cmd *cli.Command, client *platform.Client, req upload.Request) (string, error) {
	contentType, err := platform.DatasetContentType(req.Path)
	if err != nil {
		return "", err
	}
	req.ContentType = contentType

	session, err := upload.New(client, upload.WithLogger(slog.Default())).Start(req)
	if err != nil {
		return "", err
	}

	slog.Debug("Starting chunked upload",
		"path", req.Path,
		"size", session.FileSize(),
		"parts", session.Plan().TotalParts,
		"chunk_size", session.Plan().ChunkSize,
	)

	bar := ui.NewUploadProgress(cmd.Root().ErrWriter, session.FileSize(), "Uploading "+filepath.Base(req.Path))

	var artifact upload.Artifact
	for event, err := range session.Events(ctx) {
		if err != nil {
			_ = bar.Abandon()
			return "", err
		}

		switch e := event.(type) {
		case upload.Progress:
			_ = bar.Set(e.BytesUploaded)
		case upload.Complete:
			_ = bar.Finish()
			artifact = e.Artifact
		}
	}

	return artifact.ID, nil
}
