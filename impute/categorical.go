package impute

import (
	"fmt"
	"strings"

	"github.com/YuminosukeSato/gemprep/core/model"
	"github.com/YuminosukeSato/gemprep/dataset"
	"github.com/YuminosukeSato/gemprep/pkg/errors"
)

// CategoricalImputer replaces missing text cells with the most frequent value
// of the column, or with a constant.
type CategoricalImputer struct {
	State *model.StateManager

	// Strategy is most_frequent or constant.
	Strategy string

	// FillValue is used by the constant strategy.
	FillValue string

	// Columns are the input column names seen during FitFrame.
	Columns []string

	// Statistics holds the fill value of every column after FitFrame.
	Statistics []string
}

// NewCategoricalImputer creates a most_frequent imputer.
func NewCategoricalImputer() *CategoricalImputer {
	return &CategoricalImputer{
		State:    model.NewStateManager(),
		Strategy: StrategyMostFrequent,
	}
}

// NewConstantCategoricalImputer creates an imputer that fills with value.
func NewConstantCategoricalImputer(value string) *CategoricalImputer {
	return &CategoricalImputer{
		State:     model.NewStateManager(),
		Strategy:  StrategyConstant,
		FillValue: value,
	}
}

func (c *CategoricalImputer) st() *model.StateManager {
	if c.State == nil {
		c.State = model.NewStateManager()
	}
	return c.State
}

// IsFitted reports whether FitFrame has completed.
func (c *CategoricalImputer) IsFitted() bool {
	return c.st().IsFitted()
}

// FitFrame learns a fill value for every column of X.
func (c *CategoricalImputer) FitFrame(X *dataset.Dataset) error {
	if X.Nrow() == 0 || X.Ncol() == 0 {
		return errors.NewModelError("CategoricalImputer.FitFrame", "empty data", errors.ErrEmptyData)
	}

	cols := X.Names()
	stats := make([]string, len(cols))
	for j, col := range cols {
		switch c.Strategy {
		case StrategyConstant:
			if dataset.IsMissing(c.FillValue) {
				return errors.NewValidationError("fill_value", "must not be a missing-value token", c.FillValue)
			}
			stats[j] = c.FillValue
		case StrategyMostFrequent:
			values, err := X.Strings(col)
			if err != nil {
				return err
			}
			mode, ok := mostFrequentString(values)
			if !ok {
				return errors.NewModelError("CategoricalImputer.FitFrame",
					fmt.Sprintf("column '%s' has no observed values", col), errors.ErrNoObservedValues)
			}
			stats[j] = mode
		default:
			return errors.NewValidationError("strategy", "must be most_frequent or constant", c.Strategy)
		}
	}

	c.Columns = cols
	c.Statistics = stats
	c.st().SetFitted(len(cols), X.Nrow())
	return nil
}

// TransformFrame returns a copy of X with missing cells filled.
func (c *CategoricalImputer) TransformFrame(X *dataset.Dataset) (*dataset.Dataset, error) {
	if err := c.st().RequireFitted("CategoricalImputer", "TransformFrame"); err != nil {
		return nil, err
	}
	if err := c.st().RequireFeatures("CategoricalImputer.TransformFrame", X.Ncol()); err != nil {
		return nil, err
	}

	out := X
	for j, col := range c.Columns {
		values, err := out.Strings(col)
		if err != nil {
			return nil, err
		}
		changed := false
		for i, v := range values {
			if dataset.IsMissing(v) {
				values[i] = c.Statistics[j]
				changed = true
			}
		}
		if !changed {
			continue
		}
		if out, err = out.WithColumn(col, values); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FitTransformFrame fits on X and fills it.
func (c *CategoricalImputer) FitTransformFrame(X *dataset.Dataset) (*dataset.Dataset, error) {
	if err := c.FitFrame(X); err != nil {
		return nil, err
	}
	return c.TransformFrame(X)
}

// FeatureNamesOut returns input unchanged.
func (c *CategoricalImputer) FeatureNamesOut(input []string) []string {
	return append([]string(nil), input...)
}

// GetParams returns the imputer's hyperparameters.
func (c *CategoricalImputer) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"strategy":   c.Strategy,
		"fill_value": c.FillValue,
	}
}

func (c *CategoricalImputer) String() string {
	return fmt.Sprintf("CategoricalImputer(strategy=%s)", c.Strategy)
}

// mostFrequentString returns the most common non-missing value. Ties go to the
// lexicographically smallest value.
func mostFrequentString(values []string) (string, bool) {
	counts := make(map[string]int, len(values))
	for _, v := range values {
		if dataset.IsMissing(v) {
			continue
		}
		counts[strings.TrimSpace(v)]++
	}
	best, bestCount := "", 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best, bestCount > 0
}
