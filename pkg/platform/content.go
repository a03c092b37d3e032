package platform

import (
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

// JSONLContentType is reported for every text dataset.
const JSONLContentType = "application/jsonl"

// DatasetContentType sniffs the content of a dataset file. JSON lines files are
// detected as plain text, so anything in the text family is reported as
// JSONLContentType. Other types are passed through and left to the platform to
// accept or reject.
func DatasetContentType(path string) (string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to detect content type: %s", path)
	}

	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return JSONLContentType, nil
		}
	}

	return mt.String(), nil
}
