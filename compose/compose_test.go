package compose

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/gemprep/dataset"
	"github.com/YuminosukeSato/gemprep/impute"
	"github.com/YuminosukeSato/gemprep/pipeline"
	"github.com/YuminosukeSato/gemprep/pkg/errors"
	"github.com/YuminosukeSato/gemprep/preprocessing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(t *testing.T, records ...[]string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.FromRecords(records)
	require.NoError(t, err)
	return ds
}

func newGemTransformer() *ColumnTransformer {
	num := pipeline.New(
		pipeline.Step{Name: "imputer", Estimator: impute.NewSimpleImputer(impute.StrategyMedian)},
		pipeline.Step{Name: "scaler", Estimator: preprocessing.NewStandardScalerDefault()},
	)
	cat := pipeline.New(
		pipeline.Step{Name: "imputer", Estimator: impute.NewCategoricalImputer()},
		pipeline.Step{Name: "ordinalencoder", Estimator: preprocessing.NewOrdinalEncoder([][]string{
			{"Fair", "Good", "Very Good", "Premium", "Ideal"},
		})},
		pipeline.Step{Name: "scaler", Estimator: preprocessing.NewStandardScalerDefault()},
	)
	return NewColumnTransformer([]ColumnPipeline{
		{Name: "num_pipeline", Pipeline: num, Columns: []string{"carat", "depth"}},
		{Name: "cat_pipeline", Pipeline: cat, Columns: []string{"cut"}},
	}, WithRunID("run-1"))
}

func trainFrame(t *testing.T) *dataset.Dataset {
	return frame(t,
		[]string{"id", "cut", "carat", "depth", "price"},
		[]string{"0", "Fair", "0.5", "60", "100"},
		[]string{"1", "Ideal", "", "61", "200"},
		[]string{"2", "Ideal", "1.5", "62", "300"},
		[]string{"3", "", "1.0", "63", "400"},
	)
}

func TestColumnTransformer_FitTransform(t *testing.T) {
	ct := newGemTransformer()
	pre, out, err := ct.FitTransform(trainFrame(t))
	require.NoError(t, err)

	r, c := out.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, []string{"carat", "depth", "cut"}, pre.FeatureNamesOut)
	assert.Equal(t, []string{"carat", "depth", "cut"}, pre.FeatureNamesIn)
	assert.Equal(t, 4, pre.NSamplesFit)
	assert.Equal(t, "run-1", pre.RunID)
	assert.Equal(t, 3, pre.NFeaturesOut())

	// every output column is centred on the training rows
	for j := 0; j < c; j++ {
		sum := 0.0
		for i := 0; i < r; i++ {
			require.False(t, math.IsNaN(out.At(i, j)))
			sum += out.At(i, j)
		}
		assert.InDelta(t, 0, sum, 1e-9, "column %d", j)
	}

	// fitting twice is rejected
	_, err = ct.Fit(trainFrame(t))
	assert.True(t, errors.Is(err, errors.ErrAlreadyFitted))
}

func TestPreprocessor_TransformUsesTrainingStatistics(t *testing.T) {
	pre, train, err := newGemTransformer().FitTransform(trainFrame(t))
	require.NoError(t, err)

	// row identical to training row 2 must map to the same features
	test := frame(t,
		[]string{"cut", "carat", "depth", "extra"},
		[]string{"Ideal", "1.5", "62", "x"},
		[]string{"", "", "", "y"},
	)
	out, err := pre.Transform(test)
	require.NoError(t, err)
	for j := 0; j < 3; j++ {
		assert.InDelta(t, train.At(2, j), out.At(0, j), 1e-12)
	}
	// missing cells take training median (carat 1.0, depth 61.5) and mode (Ideal)
	assert.InDelta(t, train.At(3, 0), out.At(1, 0), 1e-12)
	assert.InDelta(t, train.At(1, 2), out.At(1, 2), 1e-12)
}

func TestPreprocessor_MissingColumns(t *testing.T) {
	pre, err := newGemTransformer().Fit(trainFrame(t))
	require.NoError(t, err)

	_, err = pre.Transform(frame(t, []string{"cut", "price"}, []string{"Fair", "1"}))
	var colErr *errors.MissingColumnError
	require.True(t, errors.As(err, &colErr))
	assert.Equal(t, []string{"carat", "depth"}, colErr.Columns)

	_, err = newGemTransformer().Fit(frame(t, []string{"carat", "cut"}, []string{"1", "Fair"}))
	require.True(t, errors.As(err, &colErr))
	assert.Equal(t, []string{"depth"}, colErr.Columns)
}

func TestPreprocessor_SaveLoad(t *testing.T) {
	pre, _, err := newGemTransformer().FitTransform(trainFrame(t))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "artifacts", "preprocessor.gob")
	require.NoError(t, pre.Save(path))

	loaded, err := LoadPreprocessor(path)
	require.NoError(t, err)
	assert.Equal(t, pre.FeatureNamesOut, loaded.FeatureNamesOut)
	assert.Equal(t, pre.RunID, loaded.RunID)
	assert.True(t, pre.FittedAt.Equal(loaded.FittedAt))

	test := frame(t,
		[]string{"cut", "carat", "depth"},
		[]string{"Good", "0.7", ""},
		[]string{"Premium", "", "59"},
	)
	want, err := pre.Transform(test)
	require.NoError(t, err)
	got, err := loaded.Transform(test)
	require.NoError(t, err)
	assert.Equal(t, want.RawMatrix().Data, got.RawMatrix().Data)

	var buf bytes.Buffer
	require.NoError(t, pre.Encode(&buf))
	decoded, err := ReadPreprocessor(&buf)
	require.NoError(t, err)
	assert.Equal(t, pre.String(), decoded.String())

	_, err = LoadPreprocessor(filepath.Join(t.TempDir(), "missing.gob"))
	assert.Error(t, err)
}

func TestColumnTransformer_Validate(t *testing.T) {
	scaler := func() *pipeline.Pipeline { return pipeline.Make(preprocessing.NewStandardScalerDefault()) }
	tests := []struct {
		name   string
		groups []ColumnPipeline
	}{
		{"empty", nil},
		{"no name", []ColumnPipeline{{Pipeline: scaler(), Columns: []string{"a"}}}},
		{"duplicate name", []ColumnPipeline{
			{Name: "a", Pipeline: scaler(), Columns: []string{"x"}},
			{Name: "a", Pipeline: scaler(), Columns: []string{"y"}},
		}},
		{"nil pipeline", []ColumnPipeline{{Name: "a", Columns: []string{"x"}}}},
		{"no columns", []ColumnPipeline{{Name: "a", Pipeline: scaler()}}},
		{"overlap", []ColumnPipeline{
			{Name: "a", Pipeline: scaler(), Columns: []string{"x"}},
			{Name: "b", Pipeline: scaler(), Columns: []string{"x"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var vErr *errors.ValidationError
			assert.True(t, errors.As(NewColumnTransformer(tt.groups).Validate(), &vErr))
		})
	}
}
