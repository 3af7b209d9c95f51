// Package compose routes groups of columns through separate pipelines and
// concatenates their outputs, like sklearn.compose.ColumnTransformer.
//
// A ColumnTransformer describes the routing and is fitted exactly once. Fitting
// yields a Preprocessor, which can only transform and can be saved to disk.
package compose

import (
	"fmt"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gemprep/dataset"
	"github.com/YuminosukeSato/gemprep/pipeline"
	"github.com/YuminosukeSato/gemprep/pkg/errors"
	"github.com/YuminosukeSato/gemprep/pkg/log"
)

// ColumnPipeline sends Columns, in that order, through Pipeline.
type ColumnPipeline struct {
	Name     string
	Pipeline *pipeline.Pipeline
	Columns  []string
}

// ColumnTransformer applies one pipeline per column group. Output blocks are
// concatenated in declaration order. Columns not named by any group are dropped.
type ColumnTransformer struct {
	transformers []ColumnPipeline
	fitted       bool
	runID        string
	logger       log.Logger
}

// Option configures a ColumnTransformer.
type Option func(*ColumnTransformer)

// WithLogger sets the logger used while fitting.
func WithLogger(l log.Logger) Option {
	return func(ct *ColumnTransformer) {
		ct.logger = l
	}
}

// WithRunID tags the fitted Preprocessor with the id of the run that produced it.
func WithRunID(id string) Option {
	return func(ct *ColumnTransformer) {
		ct.runID = id
	}
}

// NewColumnTransformer creates a ColumnTransformer. Call Validate or Fit to
// check the routing.
//
//	ct := compose.NewColumnTransformer([]compose.ColumnPipeline{
//	    {Name: "num", Pipeline: numPipeline, Columns: []string{"carat", "depth"}},
//	    {Name: "cat", Pipeline: catPipeline, Columns: []string{"cut"}},
//	})
//	pre, train, err := ct.FitTransform(trainSet)
func NewColumnTransformer(transformers []ColumnPipeline, opts ...Option) *ColumnTransformer {
	ct := &ColumnTransformer{transformers: transformers}
	for _, opt := range opts {
		opt(ct)
	}
	if ct.logger == nil {
		ct.logger = log.GetLoggerWithName("ColumnTransformer")
	}
	return ct
}

// Transformers returns the column groups in declaration order.
func (ct *ColumnTransformer) Transformers() []ColumnPipeline {
	return append([]ColumnPipeline(nil), ct.transformers...)
}

// Validate checks that names are unique and that every column belongs to
// exactly one non-empty group.
func (ct *ColumnTransformer) Validate() error {
	if len(ct.transformers) == 0 {
		return errors.NewValidationError("transformers", "at least one column group is required", 0)
	}
	names := make(map[string]struct{}, len(ct.transformers))
	owner := make(map[string]string)
	for _, t := range ct.transformers {
		if t.Name == "" {
			return errors.NewValidationError("transformers", "column group name must not be empty", t.Name)
		}
		if _, dup := names[t.Name]; dup {
			return errors.NewValidationError("transformers", "column group names must be unique", t.Name)
		}
		names[t.Name] = struct{}{}
		if t.Pipeline == nil {
			return errors.NewValidationError(t.Name, "pipeline must not be nil", nil)
		}
		if len(t.Columns) == 0 {
			return errors.NewValidationError(t.Name, "column list must not be empty", t.Columns)
		}
		for _, c := range t.Columns {
			if prev, taken := owner[c]; taken {
				return errors.NewValidationError(t.Name,
					fmt.Sprintf("column '%s' is already assigned to '%s'", c, prev), c)
			}
			owner[c] = t.Name
		}
		if err := t.Pipeline.Validate(); err != nil {
			return errors.Wrapf(err, "column group '%s'", t.Name)
		}
	}
	return nil
}

// Fit fits every pipeline on its columns of X and returns the fitted
// Preprocessor. A ColumnTransformer can be fitted only once.
func (ct *ColumnTransformer) Fit(X *dataset.Dataset) (*Preprocessor, error) {
	pre, _, err := ct.FitTransform(X)
	return pre, err
}

// FitTransform fits on X and also returns the transformed training matrix.
func (ct *ColumnTransformer) FitTransform(X *dataset.Dataset) (*Preprocessor, *mat.Dense, error) {
	if ct.fitted {
		return nil, nil, errors.NewModelError("ColumnTransformer.Fit", "already fitted", errors.ErrAlreadyFitted)
	}
	if err := ct.Validate(); err != nil {
		return nil, nil, err
	}
	if err := requireColumns("ColumnTransformer.Fit", X, ct.transformers); err != nil {
		return nil, nil, err
	}
	start := time.Now()

	blocks := make([]mat.Matrix, 0, len(ct.transformers))
	var namesIn, namesOut []string
	for _, t := range ct.transformers {
		part, err := X.Select(t.Columns...)
		if err != nil {
			return nil, nil, err
		}
		block, err := t.Pipeline.FitTransform(part)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to fit column group '%s'", t.Name)
		}
		blocks = append(blocks, block)
		namesIn = append(namesIn, t.Columns...)
		namesOut = append(namesOut, t.Pipeline.FeatureNamesOut(t.Columns)...)

		ct.logger.Debug("Column group fitted",
			log.ComponentKey, t.Name,
			log.ColumnsKey, strings.Join(t.Columns, ","),
		)
	}
	ct.fitted = true

	out, err := hstack(blocks)
	if err != nil {
		return nil, nil, err
	}

	pre := &Preprocessor{
		Transformers:    ct.Transformers(),
		FeatureNamesIn:  namesIn,
		FeatureNamesOut: namesOut,
		NSamplesFit:     X.Nrow(),
		FittedAt:        time.Now().UTC(),
		RunID:           ct.runID,
	}

	ct.logger.Info("ColumnTransformer fitted",
		log.SamplesKey, X.Nrow(),
		log.FeaturesKey, len(namesOut),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return pre, out, nil
}

func requireColumns(op string, X *dataset.Dataset, transformers []ColumnPipeline) error {
	var missing []string
	for _, t := range transformers {
		for _, c := range t.Columns {
			if !X.HasColumn(c) {
				missing = append(missing, c)
			}
		}
	}
	if len(missing) > 0 {
		return errors.NewMissingColumnError(op, missing...)
	}
	return nil
}

// hstack concatenates blocks column-wise.
func hstack(blocks []mat.Matrix) (*mat.Dense, error) {
	if len(blocks) == 0 {
		return nil, errors.NewModelError("hstack", "empty data", errors.ErrEmptyData)
	}
	rows, _ := blocks[0].Dims()
	out := mat.DenseCopyOf(blocks[0])
	for i, b := range blocks[1:] {
		r, _ := b.Dims()
		if r != rows {
			return nil, errors.NewDimensionError(fmt.Sprintf("hstack block %d", i+1), rows, r, 0)
		}
		var next mat.Dense
		next.Augment(out, b)
		out = &next
	}
	return out, nil
}
