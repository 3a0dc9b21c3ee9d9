package errors

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	ErrDataFormat     = errors.New("malformed record")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnknownMeasure = errors.New("unknown measure")
	ErrNotFound       = errors.New("not found")
	ErrInternal       = errors.New("internal error")
)

// Process exit codes, following sysexits.h.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 64
	ExitDataErr  = 65
	ExitSoftware = 70
	ExitIOErr    = 74
)

type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, exitCode int, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCode,
	}
}

func Newf(sentinel error, exitCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCode,
	}
}

// DataFormatf reports a malformed record read from a source.
func DataFormatf(format string, args ...any) *AppError {
	return Newf(ErrDataFormat, ExitDataErr, format, args...)
}

// InvalidInputf reports a bad argument or configuration value.
func InvalidInputf(format string, args ...any) *AppError {
	return Newf(ErrInvalidInput, ExitUsage, format, args...)
}

func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}

	var pathErr *fs.PathError
	switch {
	case errors.Is(err, ErrDataFormat):
		return ExitDataErr
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnknownMeasure):
		return ExitUsage
	case errors.Is(err, ErrInternal):
		return ExitSoftware
	case errors.As(err, &pathErr):
		return ExitIOErr
	default:
		return ExitFailure
	}
}
