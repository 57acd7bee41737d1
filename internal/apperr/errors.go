// Package apperr defines the error values shared across the build pipeline.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrConfig           = errors.New("invalid configuration")
	ErrTemplateNotFound = errors.New("template not found")
	ErrInputMissing     = errors.New("input directory missing")
	ErrIndexDisabled    = errors.New("site index disabled")
)

// ContentError reports a source document that could not be turned into a page.
type ContentError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ContentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

func (e *ContentError) Unwrap() error { return e.Err }

// StageError tags a build failure with the pipeline stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("build: %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
