package restyutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FilesystemOutput writes each dumped http exchange to its own file in a
// directory, named after the message id.
type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput clears dir of dumps from a previous run and
// recreates it.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.RemoveAll(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.MkdirAll(dir, 0o755)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(id string, contents string) {
	name := filepath.Join(o.directory, fmt.Sprintf("%s.http", id))
	err := os.WriteFile(name, []byte(contents), 0o600)
	if err != nil {
		slog.Warn("failed to write http dump", "id", id, "path", name, "err", err)
	}
}
