package conversion

import (
	"io"
	"os"

	"github.com/amonks/fileconverter/upload"
)

// Source is a file to convert: gate metadata plus a way to read it.
type Source struct {
	Candidate upload.Candidate
	Open      func() (io.ReadCloser, error)
}

// FileSource builds a Source for a file on disk. The file is opened only
// when the upload starts.
func FileSource(path string) (Source, error) {
	candidate, err := upload.CandidateFromPath(path)
	if err != nil {
		return Source{}, err
	}
	return Source{
		Candidate: candidate,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}
