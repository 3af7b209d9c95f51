package compose

import (
	"encoding/gob"
	"fmt"
	"io"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gemprep/core/model"
	"github.com/YuminosukeSato/gemprep/dataset"
	"github.com/YuminosukeSato/gemprep/impute"
	"github.com/YuminosukeSato/gemprep/pkg/errors"
	"github.com/YuminosukeSato/gemprep/preprocessing"
)

func init() {
	gob.Register(&impute.SimpleImputer{})
	gob.Register(&impute.CategoricalImputer{})
	gob.Register(&preprocessing.StandardScaler{})
	gob.Register(&preprocessing.MinMaxScaler{})
	gob.Register(&preprocessing.OrdinalEncoder{})
}

// Preprocessor is a fitted ColumnTransformer. It only transforms.
type Preprocessor struct {
	Transformers    []ColumnPipeline
	FeatureNamesIn  []string
	FeatureNamesOut []string
	NSamplesFit     int
	FittedAt        time.Time
	RunID           string
}

// NFeaturesOut returns the width of the transformed matrix.
func (p *Preprocessor) NFeaturesOut() int {
	return len(p.FeatureNamesOut)
}

// Transform applies the fitted pipelines to X. X must contain every column the
// preprocessor was fitted on; other columns are ignored.
func (p *Preprocessor) Transform(X *dataset.Dataset) (*mat.Dense, error) {
	if len(p.Transformers) == 0 {
		return nil, errors.NewNotFittedError("Preprocessor", "Transform")
	}
	if err := requireColumns("Preprocessor.Transform", X, p.Transformers); err != nil {
		return nil, err
	}

	blocks := make([]mat.Matrix, 0, len(p.Transformers))
	for _, t := range p.Transformers {
		part, err := X.Select(t.Columns...)
		if err != nil {
			return nil, err
		}
		block, err := t.Pipeline.Transform(part)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to transform column group '%s'", t.Name)
		}
		blocks = append(blocks, block)
	}
	return hstack(blocks)
}

// Save writes the preprocessor to path with encoding/gob, creating the parent
// directory if needed.
func (p *Preprocessor) Save(path string) error {
	if err := model.SaveModel(p, path); err != nil {
		return errors.Wrap(err, "failed to save preprocessor")
	}
	return nil
}

// Encode writes the gob encoding of the preprocessor to w.
func (p *Preprocessor) Encode(w io.Writer) error {
	return model.SaveModelToWriter(p, w)
}

// LoadPreprocessor reads a preprocessor written by Save.
func LoadPreprocessor(path string) (*Preprocessor, error) {
	var p Preprocessor
	if err := model.LoadModel(&p, path); err != nil {
		return nil, errors.Wrap(err, "failed to load preprocessor")
	}
	return &p, nil
}

// ReadPreprocessor decodes a preprocessor from r.
func ReadPreprocessor(r io.Reader) (*Preprocessor, error) {
	var p Preprocessor
	if err := model.LoadModelFromReader(&p, r); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Preprocessor) String() string {
	parts := make([]string, len(p.Transformers))
	for i, t := range p.Transformers {
		parts[i] = fmt.Sprintf("('%s', %s, [%s])", t.Name, t.Pipeline.String(), strings.Join(t.Columns, ", "))
	}
	return "ColumnTransformer(transformers=[" + strings.Join(parts, ", ") + "])"
}
