package source

import (
	"bufio"
	"context"
	"os"

	"github.com/okian/athleteprofile/internal/domain/table"
)

// FileSource reads a CSV file from disk on every Load.
type FileSource struct {
	path string
}

// NewFileSource returns a source for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load opens and parses the file.
func (s *FileSource) Load(ctx context.Context) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Source: s.path, Err: err}
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, &LoadError{Source: s.path, Err: err}
	}
	defer func() { _ = f.Close() }()

	t, err := Parse(bufio.NewReader(f))
	if err != nil {
		return nil, withSource(err, s.path)
	}
	return t, nil
}

func (s *FileSource) Name() string { return s.path }
func (s *FileSource) Kind() string { return KindFile }
