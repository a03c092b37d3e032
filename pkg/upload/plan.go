package upload

// Sizes are decimal: 1 MB is 1,000,000 bytes, not 1 MiB.
const (
	megabyte = 1000 * 1000

	// MinChunkSize is the smallest part the platform accepts, 5 MB (5,000,000
	// bytes). Files below it must use the single-request upload path.
	MinChunkSize uint64 = 5 * megabyte

	// MaxChunkSize is the largest part the platform accepts, 100 MB
	// (100,000,000 bytes).
	MaxChunkSize uint64 = 100 * megabyte

	// MaxParts is the maximum number of parts in a single upload session.
	MaxParts uint64 = 10000

	// MaxFileSize is the largest file that can be uploaded in one session.
	MaxFileSize = MaxChunkSize * MaxParts

	size500MB = 500 * megabyte
	size10GB  = 10 * 1000 * megabyte
	size50GB  = 50 * 1000 * megabyte
)

// Plan describes how a file is split into parts.
type Plan struct {
	// TotalParts is the number of parts the file is uploaded in.
	TotalParts uint64

	// ChunkSize is the size of every part except possibly the last one.
	ChunkSize uint64
}

// PlanParts computes the upload plan for a file of the given size.
//
// The base part size is tiered by file size:
//   - under 500 MB: 5 MB
//   - under 10 GB: 10 MB
//   - under 50 GB: 50 MB
//   - otherwise: 100 MB
//
// When the base size would need more than MaxParts parts, the part size is
// grown to ceil(size / MaxParts). Files that would then need parts larger than
// MaxChunkSize cannot be uploaded.
//
// Returns a *PlanError wrapping ErrTooSmall or ErrTooLarge when the size is out
// of range.
func PlanParts(fileSize uint64) (Plan, error) {
	if fileSize < MinChunkSize {
		return Plan{}, &PlanError{Size: fileSize, Err: ErrTooSmall}
	}

	chunkSize := baseChunkSize(fileSize)
	totalParts := divCeil(fileSize, chunkSize)

	if totalParts > MaxParts {
		chunkSize = divCeil(fileSize, MaxParts)
		if chunkSize > MaxChunkSize {
			return Plan{}, &PlanError{Size: fileSize, Err: ErrTooLarge}
		}

		totalParts = divCeil(fileSize, chunkSize)
	}

	return Plan{TotalParts: totalParts, ChunkSize: chunkSize}, nil
}

// PartSize returns the number of bytes in the given 1-based part of a file of
// fileSize bytes. It returns 0 for part numbers outside the plan.
func (p Plan) PartSize(partNumber, fileSize uint64) uint64 {
	if partNumber == 0 || partNumber > p.TotalParts {
		return 0
	}

	offset := (partNumber - 1) * p.ChunkSize
	if offset >= fileSize {
		return 0
	}

	return min(p.ChunkSize, fileSize-offset)
}

func baseChunkSize(fileSize uint64) uint64 {
	switch {
	case fileSize < size500MB:
		return 5 * megabyte
	case fileSize < size10GB:
		return 10 * megabyte
	case fileSize < size50GB:
		return 50 * megabyte
	default:
		return 100 * megabyte
	}
}

func divCeil(a, b uint64) uint64 {
	q := a / b
	if a%b != 0 {
		q++
	}

	return q
}
