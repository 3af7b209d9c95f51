// Package pipeline implements a scikit-learn style Pipeline that chains
// preprocessing steps over a dataset.Dataset.
//
// A pipeline runs in up to three phases, in this order:
//
//  1. steps implementing model.FrameTransformer, which work on text columns
//  2. at most one model.FrameEncoder, which turns the table into a matrix
//  3. steps implementing model.Transformer, which work on matrices
//
// When the chain has no encoder, the table is parsed as numbers (missing cells
// become NaN) before the first matrix step.
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gemprep/core/model"
	"github.com/YuminosukeSato/gemprep/dataset"
	"github.com/YuminosukeSato/gemprep/pkg/errors"
	"github.com/YuminosukeSato/gemprep/pkg/log"
)

// Step represents a single step in the pipeline.
// Each step is a tuple of (name, transformer).
type Step struct {
	Name      string      // Name of this step (for identification)
	Estimator interface{} // FrameTransformer, FrameEncoder or Transformer
}

type stepKind int

const (
	kindFrame stepKind = iota
	kindEncoder
	kindMatrix
)

func kindOf(est interface{}) (stepKind, bool) {
	switch est.(type) {
	case model.FrameEncoder:
		return kindEncoder, true
	case model.FrameTransformer:
		return kindFrame, true
	case model.Transformer:
		return kindMatrix, true
	}
	return 0, false
}

// Pipeline chains preprocessing steps. Fields are exported so that a fitted
// pipeline can be persisted with encoding/gob.
type Pipeline struct {
	State *model.StateManager
	Steps []Step

	logger log.Logger
}

// New creates a new Pipeline with the given steps.
// This is equivalent to sklearn.pipeline.Pipeline(steps)
func New(steps ...Step) *Pipeline {
	return &Pipeline{
		State: model.NewStateManager(),
		Steps: steps,
	}
}

// Make is a convenience function similar to sklearn.pipeline.make_pipeline.
// It names the steps step1, step2, ...
func Make(estimators ...interface{}) *Pipeline {
	steps := make([]Step, len(estimators))
	for i, estimator := range estimators {
		steps[i] = Step{Name: fmt.Sprintf("step%d", i+1), Estimator: estimator}
	}
	return New(steps...)
}

func (p *Pipeline) st() *model.StateManager {
	if p.State == nil {
		p.State = model.NewStateManager()
	}
	return p.State
}

func (p *Pipeline) log() log.Logger {
	if p.logger == nil {
		p.logger = log.GetLoggerWithName("Pipeline")
	}
	return p.logger
}

// SetLogger replaces the pipeline's logger.
func (p *Pipeline) SetLogger(l log.Logger) {
	p.logger = l
}

// IsFitted reports whether the pipeline has been fitted.
func (p *Pipeline) IsFitted() bool {
	return p.st().IsFitted()
}

// Validate checks step names and that the steps appear in phase order.
func (p *Pipeline) Validate() error {
	if len(p.Steps) == 0 {
		return errors.NewValidationError("steps", "pipeline has no steps", 0)
	}
	names := make(map[string]struct{}, len(p.Steps))
	last := kindFrame
	encoders := 0
	for _, step := range p.Steps {
		if step.Name == "" || strings.Contains(step.Name, "__") {
			return errors.NewValidationError("pipeline step", "step names must be non-empty and must not contain '__'", step.Name)
		}
		if _, dup := names[step.Name]; dup {
			return errors.NewValidationError("pipeline step", "step names must be unique", step.Name)
		}
		names[step.Name] = struct{}{}

		kind, ok := kindOf(step.Estimator)
		if !ok {
			return errors.NewValidationError("pipeline step",
				"step must be a FrameTransformer, FrameEncoder or Transformer", step.Name)
		}
		if kind < last {
			return errors.NewValidationError("pipeline step",
				"text steps must come before the encoder and the encoder before numeric steps", step.Name)
		}
		if kind == kindEncoder {
			encoders++
			if encoders > 1 {
				return errors.NewValidationError("pipeline step", "at most one encoder is allowed", step.Name)
			}
		}
		last = kind
	}
	return nil
}

// Fit fits every step in order on X.
func (p *Pipeline) Fit(X *dataset.Dataset) error {
	_, err := p.FitTransform(X)
	return err
}

// FitTransform fits each step on the output of the previous one and returns
// the output of the last step.
func (p *Pipeline) FitTransform(X *dataset.Dataset) (mat.Matrix, error) {
	return p.run(X, true)
}

// Transform applies the fitted steps to X.
func (p *Pipeline) Transform(X *dataset.Dataset) (mat.Matrix, error) {
	if err := p.st().RequireFitted("Pipeline", "Transform"); err != nil {
		return nil, err
	}
	return p.run(X, false)
}

func (p *Pipeline) run(X *dataset.Dataset, fit bool) (mat.Matrix, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if fit {
		p.st().Reset()
	}

	frame := X
	var Xt mat.Matrix
	var err error

	for _, step := range p.Steps {
		start := time.Now()
		kind, _ := kindOf(step.Estimator)

		if kind == kindMatrix && Xt == nil {
			if Xt, err = frame.Matrix(); err != nil {
				return nil, errors.Wrap(err, fmt.Sprintf("failed to convert input of step '%s'", step.Name))
			}
		}

		switch kind {
		case kindFrame:
			ft := step.Estimator.(model.FrameTransformer)
			if fit {
				if err = ft.FitFrame(frame); err != nil {
					return nil, errors.Wrap(err, fmt.Sprintf("failed to fit step '%s'", step.Name))
				}
			}
			if frame, err = ft.TransformFrame(frame); err != nil {
				return nil, errors.Wrap(err, fmt.Sprintf("failed to transform at step '%s'", step.Name))
			}
		case kindEncoder:
			enc := step.Estimator.(model.FrameEncoder)
			if fit {
				if err = enc.FitFrame(frame); err != nil {
					return nil, errors.Wrap(err, fmt.Sprintf("failed to fit step '%s'", step.Name))
				}
			}
			if Xt, err = enc.EncodeFrame(frame); err != nil {
				return nil, errors.Wrap(err, fmt.Sprintf("failed to transform at step '%s'", step.Name))
			}
		case kindMatrix:
			tr := step.Estimator.(model.Transformer)
			if fit {
				Xt, err = tr.FitTransform(Xt)
			} else {
				Xt, err = tr.Transform(Xt)
			}
			if err != nil {
				return nil, errors.Wrap(err, fmt.Sprintf("failed at step '%s'", step.Name))
			}
		}

		p.log().Debug("Pipeline step completed",
			"step", step.Name,
			log.OperationKey, operationName(fit),
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
	}

	if Xt == nil {
		if Xt, err = frame.Matrix(); err != nil {
			return nil, errors.Wrap(err, "failed to convert pipeline output")
		}
	}

	if fit {
		p.st().SetFitted(X.Ncol(), X.Nrow())
	}
	return Xt, nil
}

func operationName(fit bool) string {
	if fit {
		return log.OperationFitTransform
	}
	return log.OperationTransform
}

// Named returns the estimator registered under name.
func (p *Pipeline) Named(name string) (interface{}, bool) {
	for _, step := range p.Steps {
		if step.Name == name {
			return step.Estimator, true
		}
	}
	return nil, false
}

// NamedSteps returns the steps as a map for easy access by name.
func (p *Pipeline) NamedSteps() map[string]interface{} {
	named := make(map[string]interface{}, len(p.Steps))
	for _, step := range p.Steps {
		named[step.Name] = step.Estimator
	}
	return named
}

// FeatureNamesOut passes input through every step that names its outputs.
func (p *Pipeline) FeatureNamesOut(input []string) []string {
	names := append([]string(nil), input...)
	for _, step := range p.Steps {
		if namer, ok := step.Estimator.(model.FeatureNamer); ok {
			names = namer.FeatureNamesOut(names)
		}
	}
	return names
}

// GetParams returns the parameters of all steps prefixed with "<step>__".
func (p *Pipeline) GetParams() map[string]interface{} {
	params := make(map[string]interface{})
	names := make([]string, len(p.Steps))
	for i, step := range p.Steps {
		names[i] = step.Name
		if getter, ok := step.Estimator.(model.ParameterGetter); ok {
			for key, value := range getter.GetParams() {
				params[fmt.Sprintf("%s__%s", step.Name, key)] = value
			}
		}
	}
	params["steps"] = names
	return params
}

func (p *Pipeline) String() string {
	parts := make([]string, len(p.Steps))
	for i, step := range p.Steps {
		if s, ok := step.Estimator.(fmt.Stringer); ok {
			parts[i] = fmt.Sprintf("('%s', %s)", step.Name, s.String())
			continue
		}
		parts[i] = fmt.Sprintf("('%s', %T)", step.Name, step.Estimator)
	}
	return "Pipeline(steps=[" + strings.Join(parts, ", ") + "])"
}
