package errors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// Stage identifies which pipeline component produced an error.
type Stage string

const (
	StageIngestion      Stage = "ingestion"
	StageTransformation Stage = "transformation"
)

// PipelineError is the single error type returned from a pipeline component's
// entry point. Callers must treat it as terminal for the current run.
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("gemprep: %s stage failed: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds the stage and cause to a zerolog event.
func (e *PipelineError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("stage", string(e.Stage)).
		AnErr("cause", e.Err).
		Str("type", "PipelineError")
}

// NewPipelineError wraps err with a stage tag. A nil err yields nil.
// An err that already carries the same stage is returned unchanged.
func NewPipelineError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	var existing *PipelineError
	if errors.As(err, &existing) && existing.Stage == stage {
		return err
	}
	return errors.WithStack(&PipelineError{Stage: stage, Err: err})
}

// StageOf reports the stage of the outermost PipelineError in err's chain.
func StageOf(err error) (Stage, bool) {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Stage, true
	}
	return "", false
}

// DataLoadError is returned when a delimited-text source is missing or cannot be parsed.
type DataLoadError struct {
	Path string
	Err  error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("gemprep: cannot load data from '%s': %v", e.Path, e.Err)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds the path and cause to a zerolog event.
func (e *DataLoadError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("path", e.Path).
		AnErr("cause", e.Err).
		Str("type", "DataLoadError")
}

// NewDataLoadError creates a DataLoadError with a stack trace.
func NewDataLoadError(path string, err error) error {
	return errors.WithStack(&DataLoadError{Path: path, Err: err})
}

// MissingColumnError is returned when required columns are absent from a table.
type MissingColumnError struct {
	Op      string
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("gemprep: %s: missing column(s) [%s]", e.Op, strings.Join(e.Columns, ", "))
}

// MarshalZerologObject adds the missing columns to a zerolog event.
func (e *MissingColumnError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Strs("columns", e.Columns).
		Str("type", "MissingColumnError")
}

// NewMissingColumnError creates a MissingColumnError with a stack trace.
func NewMissingColumnError(op string, columns ...string) error {
	return errors.WithStack(&MissingColumnError{Op: op, Columns: columns})
}

// UnknownCategoryError is returned by the ordinal encoder when a value is not part
// of the declared category list and the unknown policy is "error".
type UnknownCategoryError struct {
	Column string
	Values []string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("gemprep: found unknown categories %v in column '%s'", e.Values, e.Column)
}

// MarshalZerologObject adds the column and offending values to a zerolog event.
func (e *UnknownCategoryError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("column", e.Column).
		Strs("values", e.Values).
		Str("type", "UnknownCategoryError")
}

// NewUnknownCategoryError creates an UnknownCategoryError with a stack trace.
func NewUnknownCategoryError(column string, values []string) error {
	return errors.WithStack(&UnknownCategoryError{Column: column, Values: values})
}
