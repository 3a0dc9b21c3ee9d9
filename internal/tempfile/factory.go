// Package tempfile creates uniquely named scratch files for a build and
// removes them again.
package tempfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// Factory hands out fresh empty files under Dir and tracks the ones it has
// not deleted yet. It is safe for concurrent use.
type Factory struct {
	dir    string
	prefix string

	mu    sync.Mutex
	owned map[string]struct{}
}

// NewFactory creates dir if needed and returns a Factory naming files
// "<prefix>-<uuid>".
func NewFactory(dir, prefix string) (*Factory, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}
	return &Factory{dir: dir, prefix: prefix, owned: make(map[string]struct{})}, nil
}

// Dir returns the directory files are created in.
func (f *Factory) Dir() string {
	return f.dir
}

// Create makes a new empty file and returns its path.
func (f *Factory) Create() (string, error) {
	path := filepath.Join(f.dir, fmt.Sprintf("%s-%s", f.prefix, uuid.NewString()))
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	f.mu.Lock()
	f.owned[path] = struct{}{}
	f.mu.Unlock()
	return path, nil
}

// Delete removes a file. Deleting a file that is already gone is not an
// error.
func (f *Factory) Delete(path string) error {
	f.mu.Lock()
	delete(f.owned, path)
	f.mu.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting temp file: %w", err)
	}
	return nil
}

// Owned returns the number of created files not deleted yet.
func (f *Factory) Owned() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.owned)
}

// Cleanup deletes every file still owned, reporting all failures together.
func (f *Factory) Cleanup() error {
	f.mu.Lock()
	paths := make([]string, 0, len(f.owned))
	for path := range f.owned {
		paths = append(paths, path)
	}
	f.mu.Unlock()

	var result *multierror.Error
	for _, path := range paths {
		if err := f.Delete(path); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
