// Package impute fills missing values with per-column statistics learned from
// training data.
//
// SimpleImputer works on numeric matrices where missing cells are NaN.
// CategoricalImputer works on text columns of a dataset.Dataset, before they
// are encoded.
package impute

import (
	"fmt"
	"math"
	"sort"

	"github.com/YuminosukeSato/gemprep/core/model"
	"github.com/YuminosukeSato/gemprep/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Imputation strategies.
const (
	StrategyMean         = "mean"
	StrategyMedian       = "median"
	StrategyMostFrequent = "most_frequent"
	StrategyConstant     = "constant"
)

// SimpleImputer replaces NaN cells with a per-column statistic.
type SimpleImputer struct {
	State *model.StateManager

	// Strategy is one of mean, median, most_frequent or constant.
	Strategy string

	// FillValue is used by the constant strategy.
	FillValue float64

	// Statistics holds the fill value of every column after Fit.
	Statistics []float64
}

// NewSimpleImputer creates an imputer with the given strategy.
//
//	imp := impute.NewSimpleImputer(impute.StrategyMedian)
//	filled, err := imp.FitTransform(X)
func NewSimpleImputer(strategy string) *SimpleImputer {
	return &SimpleImputer{
		State:    model.NewStateManager(),
		Strategy: strategy,
	}
}

// NewConstantImputer creates an imputer that fills every missing cell with value.
func NewConstantImputer(value float64) *SimpleImputer {
	imp := NewSimpleImputer(StrategyConstant)
	imp.FillValue = value
	return imp
}

func (s *SimpleImputer) st() *model.StateManager {
	if s.State == nil {
		s.State = model.NewStateManager()
	}
	return s.State
}

// IsFitted reports whether Fit has completed.
func (s *SimpleImputer) IsFitted() bool {
	return s.st().IsFitted()
}

// Fit learns the fill value of every column from the non-missing cells of X.
func (s *SimpleImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("SimpleImputer.Fit", "empty data", errors.ErrEmptyData)
	}

	stats := make([]float64, c)
	for j := 0; j < c; j++ {
		if s.Strategy == StrategyConstant {
			stats[j] = s.FillValue
			continue
		}

		observed := make([]float64, 0, r)
		for i := 0; i < r; i++ {
			if v := X.At(i, j); !math.IsNaN(v) {
				observed = append(observed, v)
			}
		}
		if len(observed) == 0 {
			return errors.NewModelError("SimpleImputer.Fit",
				fmt.Sprintf("column %d has no observed values", j), errors.ErrNoObservedValues)
		}

		switch s.Strategy {
		case StrategyMean:
			stats[j] = stat.Mean(observed, nil)
		case StrategyMedian:
			stats[j] = Median(observed)
		case StrategyMostFrequent:
			stats[j] = mostFrequentFloat(observed)
		default:
			return errors.NewValidationError("strategy", "must be one of mean, median, most_frequent, constant", s.Strategy)
		}
	}

	s.Statistics = stats
	s.st().SetFitted(c, r)
	return nil
}

// Transform returns a copy of X whose NaN cells hold the learned statistics.
func (s *SimpleImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.st().RequireFitted("SimpleImputer", "Transform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := s.st().RequireFeatures("SimpleImputer.Transform", c); err != nil {
		return nil, err
	}

	out := mat.DenseCopyOf(X)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.IsNaN(out.At(i, j)) {
				out.Set(i, j, s.Statistics[j])
			}
		}
	}
	return out, nil
}

// FitTransform fits on X and fills it.
func (s *SimpleImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// FeatureNamesOut returns input unchanged.
func (s *SimpleImputer) FeatureNamesOut(input []string) []string {
	return append([]string(nil), input...)
}

// GetParams returns the imputer's hyperparameters.
func (s *SimpleImputer) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"strategy":   s.Strategy,
		"fill_value": s.FillValue,
	}
}

func (s *SimpleImputer) String() string {
	return fmt.Sprintf("SimpleImputer(strategy=%s)", s.Strategy)
}

// Median returns the middle value of values, or the mean of the two middle
// values when the count is even. values is not modified.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// mostFrequentFloat returns the most common value; ties go to the smallest.
func mostFrequentFloat(values []float64) float64 {
	counts := make(map[float64]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best, bestCount := math.Inf(1), 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best
}
