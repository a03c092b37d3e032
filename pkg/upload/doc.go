// Package upload implements chunked dataset uploads to the Adaptive platform.
//
// Large files are not sent in a single request. Instead the file is split into
// parts, a remote upload session is opened, each part is streamed in order,
// and the session is finalized into a dataset once every part has been
// accepted. Any failure after the session exists aborts it remotely so that
// no orphaned sessions are left on the server.
//
// # Planning
//
// PlanParts derives the part count and part size from the file size. Part
// sizes are tiered by file size and bounded by MinChunkSize, MaxChunkSize and
// MaxParts. Planning is pure and happens before any remote call.
//
// # Sessions
//
// An Uploader is bound to a Remote (normally a *platform.Client). Start plans
// the upload for a local file and returns a Session whose Events method yields
// the lifecycle as a lazy sequence:
//
//	session, err := upload.New(client).Start(upload.Request{
//		Path:    "train.jsonl",
//		UseCase: "support-bot",
//		Name:    "train",
//		Key:     "train",
//	})
//	if err != nil {
//		return err
//	}
//
//	for event, err := range session.Events(ctx) {
//		if err != nil {
//			return err
//		}
//
//		switch e := event.(type) {
//		case upload.Progress:
//			fmt.Printf("%.1f%%\n", e.Percent())
//		case upload.Complete:
//			fmt.Println("dataset:", e.Artifact.ID)
//		}
//	}
//
// The sequence always starts with Progress{0, total} and ends with exactly one
// Complete event or a terminal error. It can only be ranged over once.
//
// # Cancellation
//
// Breaking out of the range loop, or cancelling the context, after the remote
// session has been created cancels the in-flight part and aborts the session
// before the iterator returns.
package upload
