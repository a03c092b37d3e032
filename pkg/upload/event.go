package upload

type (
	// Event is a single step of an upload session. It is either a Progress or a
	// Complete.
	Event interface {
		isEvent()
	}

	// Progress reports cumulative bytes handed to the transport.
	Progress struct {
		BytesUploaded uint64
		TotalBytes    uint64
	}

	// Complete is the final event of a successful upload.
	Complete struct {
		Artifact Artifact
	}

	// Artifact identifies the dataset created from an upload.
	Artifact struct {
		ID  string
		Key string
	}
)

func (Progress) isEvent() {}
func (Complete) isEvent() {}

// Percent returns the completed fraction in the range [0, 100].
func (p Progress) Percent() float64 {
	if p.TotalBytes == 0 {
		return 100
	}

	return float64(p.BytesUploaded) / float64(p.TotalBytes) * 100
}
