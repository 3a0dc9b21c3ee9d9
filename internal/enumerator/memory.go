package enumerator

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	apperrors "github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/metrics"
)

// Memory keeps the mapping in memory and saves it as "id\tstring" lines.
type Memory struct {
	mu      sync.RWMutex
	values  []string
	ids     map[string]int32
	path    string
	role    string
	metrics *metrics.Metrics
}

// OpenMemory loads path if it exists. An empty path never persists.
func OpenMemory(path, role string, m *metrics.Metrics) (*Memory, error) {
	e := &Memory{ids: make(map[string]int32), path: path, role: role, metrics: m}
	if path == "" {
		return e, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return e, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening enumerator file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for line := 1; sc.Scan(); line++ {
		idStr, value, ok := strings.Cut(sc.Text(), "\t")
		id, err := strconv.Atoi(idStr)
		if !ok || err != nil || id != len(e.values) {
			return nil, apperrors.DataFormatf("%s:%d: want id %d then a tab", path, line, len(e.values))
		}
		e.ids[value] = int32(id)
		e.values = append(e.values, value)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading enumerator file: %w", err)
	}
	return e, nil
}

func (e *Memory) IDOf(s string) (int32, error) {
	e.mu.RLock()
	id, ok := e.ids[s]
	e.mu.RUnlock()
	if ok {
		return id, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if id, ok := e.ids[s]; ok {
		return id, nil
	}
	id = int32(len(e.values))
	e.ids[s] = id
	e.values = append(e.values, s)
	return id, nil
}

func (e *Memory) ValueOf(id int32) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if id < 0 || int(id) >= len(e.values) {
		return "", notFound(e.role, id)
	}
	return e.values[id], nil
}

func (e *Memory) Len() (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.values), nil
}

// Save writes the mapping to a temporary file and renames it over path.
func (e *Memory) Save() error {
	if e.path == "" {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	e.metrics.SetEnumeratorSize(e.role, len(e.values))

	if err := os.MkdirAll(filepath.Dir(e.path), 0o755); err != nil {
		return fmt.Errorf("creating enumerator directory: %w", err)
	}
	tmp := e.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating enumerator file: %w", err)
	}
	w := bufio.NewWriter(f)
	for id, value := range e.values {
		fmt.Fprintf(w, "%d\t%s\n", id, value)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing enumerator file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing enumerator file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing enumerator file: %w", err)
	}
	if err := os.Rename(tmp, e.path); err != nil {
		return fmt.Errorf("renaming enumerator file: %w", err)
	}
	return nil
}

func (e *Memory) Close() error { return nil }
