package runtime

import (
	"io"
	"os"
	"path/filepath"

	"github.com/taskcluster/slugid-go/slugid"
)

// TemporaryStorage can create temporary folders and files.
type TemporaryStorage interface {
	NewFolder() (TemporaryFolder, error)
	NewFile() (TemporaryFile, error)
	NewFilePath() string
}

// TemporaryFolder is a temporary folder that is backed by the file system.
// Users are nicely asked to stay within the folder they've been issued.
//
// We don't mock the file system as we need to integrate with external tools
// like git and the package manager, so we have to expose real file paths.
type TemporaryFolder interface {
	TemporaryStorage
	Path() string
	Remove() error
}

// TemporaryFile is a temporary file that will be removed when closed.
type TemporaryFile interface {
	io.ReadWriteSeeker
	io.Closer
	Path() string
}

type temporaryFolder struct {
	path string
}

type temporaryFile struct {
	*os.File
	path string
}

// NewTemporaryStorage returns a TemporaryStorage rooted in the given path.
func NewTemporaryStorage(path string) (TemporaryStorage, error) {
	err := os.MkdirAll(path, 0700)
	if err != nil {
		return nil, err
	}
	return &temporaryFolder{path: path}, nil
}

// NewTemporaryTestFolderOrPanic creates a TemporaryFolder as a subfolder of
// the system temp folder, for use in tests only.
func NewTemporaryTestFolderOrPanic() TemporaryFolder {
	path, err := os.MkdirTemp("", "minci-test-")
	if err != nil {
		panic(err)
	}
	return &temporaryFolder{path: path}
}

func (s *temporaryFolder) Path() string {
	return s.path
}

func (s *temporaryFolder) NewFolder() (TemporaryFolder, error) {
	path := filepath.Join(s.path, slugid.Nice())
	err := os.Mkdir(path, 0700)
	if err != nil {
		return nil, err
	}
	return &temporaryFolder{path: path}, nil
}

func (s *temporaryFolder) NewFile() (TemporaryFile, error) {
	path := s.NewFilePath()
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &temporaryFile{file, path}, nil
}

// NewFilePath returns a path where a file may be created, the file itself is
// not created. Useful for handing paths to external processes.
func (s *temporaryFolder) NewFilePath() string {
	return filepath.Join(s.path, slugid.Nice())
}

func (s *temporaryFolder) Remove() error {
	return os.RemoveAll(s.path)
}

func (f *temporaryFile) Path() string {
	return f.path
}

func (f *temporaryFile) Close() error {
	f.File.Close()
	return os.Remove(f.path)
}
