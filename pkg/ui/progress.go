package ui

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// UploadProgress is a byte progress bar for uploads.
type UploadProgress struct {
	bar *progressbar.ProgressBar
}

// NewUploadProgress draws a progress bar for total bytes on w.
func NewUploadProgress(w io.Writer, total uint64, description string) *UploadProgress {
	bar := progressbar.NewOptions64(
		int64(total),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionOnCompletion(func() {
			_, _ = io.WriteString(w, "\n")
		}),
	)

	return &UploadProgress{bar: bar}
}

// Set moves the bar to the given number of uploaded bytes.
func (p *UploadProgress) Set(uploaded uint64) error {
	return p.bar.Set64(int64(uploaded))
}

// Finish fills the bar and ends the line.
func (p *UploadProgress) Finish() error {
	return p.bar.Finish()
}

// Abandon stops drawing without filling the bar.
func (p *UploadProgress) Abandon() error {
	return p.bar.Exit()
}
