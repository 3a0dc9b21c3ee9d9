// Package task runs units of build work on a bounded pool of goroutines and
// hands each completed task back to a single-threaded driver.
package task

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/tempfile"
)

// Task is one unit of work. Results are exported fields of the concrete
// task type, read by the driver once the task has completed.
type Task interface {
	Kind() string
	Run(ctx context.Context) error
}

// DeleteTask removes a temporary file.
type DeleteTask struct {
	Path  string
	Files *tempfile.Factory
}

func (t *DeleteTask) Kind() string { return "delete" }

func (t *DeleteTask) Run(ctx context.Context) error {
	if err := t.Files.Delete(t.Path); err != nil {
		return fmt.Errorf("deleting %s: %w", t.Path, err)
	}
	return nil
}

// Func adapts a function to a Task.
type Func struct {
	Name string
	Fn   func(ctx context.Context) error
}

func (t *Func) Kind() string { return t.Name }

func (t *Func) Run(ctx context.Context) error { return t.Fn(ctx) }
