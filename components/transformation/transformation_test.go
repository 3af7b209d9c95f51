package transformation

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/gemprep/compose"
	"github.com/YuminosukeSato/gemprep/components/ingestion"
	"github.com/YuminosukeSato/gemprep/config"
	"github.com/YuminosukeSato/gemprep/dataset"
	"github.com/YuminosukeSato/gemprep/internal/gemstonetest"
	"github.com/YuminosukeSato/gemprep/pkg/errors"
	"github.com/YuminosukeSato/gemprep/pkg/log"
	"github.com/YuminosukeSato/gemprep/preprocessing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ingest(t *testing.T, rows int) (config.Config, string, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default().WithSeed(7)
	cfg.SourcePath = gemstonetest.WriteCSV(t, dir, rows, 3, true)
	cfg.ArtifactsDir = filepath.Join(dir, "artifacts")

	trainPath, testPath, err := ingestion.New(cfg).Run()
	require.NoError(t, err)
	return cfg, trainPath, testPath
}

func writeTable(t *testing.T, path string, records [][]string) {
	t.Helper()
	ds, err := dataset.FromRecords(records)
	require.NoError(t, err)
	require.NoError(t, ds.WriteCSV(path))
}

func TestDataTransformation_Run(t *testing.T) {
	cfg, trainPath, testPath := ingest(t, 1000)
	logger, _ := log.NewTestLogger(log.LevelDebug)

	train, test, preprocessorPath, err := New(cfg, WithLogger(logger), WithRunID("run-7")).Run(trainPath, testPath)
	require.NoError(t, err)
	assert.Equal(t, cfg.PreprocessorPath(), preprocessorPath)

	r, c := train.Dims()
	assert.Equal(t, 700, r)
	assert.Equal(t, 10, c)
	r, c = test.Dims()
	assert.Equal(t, 300, r)
	assert.Equal(t, 10, c)

	// last column is the untouched target
	trainData, err := dataset.ReadCSV(trainPath)
	require.NoError(t, err)
	price, err := trainData.Floats("price")
	require.NoError(t, err)
	for i := range price {
		assert.Equal(t, price[i], train.At(i, 9))
	}

	// standardized features are centred on the training partition
	for j := 0; j < 9; j++ {
		sum := 0.0
		for i := 0; i < 700; i++ {
			v := train.At(i, j)
			require.False(t, math.IsNaN(v) || math.IsInf(v, 0))
			sum += v
		}
		assert.InDelta(t, 0, sum/700, 1e-9, "feature %d", j)
	}

	// the saved preprocessor reproduces the test features
	pre, err := compose.LoadPreprocessor(preprocessorPath)
	require.NoError(t, err)
	assert.Equal(t, "run-7", pre.RunID)
	assert.Equal(t, []string{"carat", "depth", "table", "x", "y", "z", "cut", "color", "clarity"}, pre.FeatureNamesOut)

	testData, err := dataset.ReadCSV(testPath)
	require.NoError(t, err)
	again, err := pre.Transform(testData)
	require.NoError(t, err)
	for i := 0; i < 300; i++ {
		for j := 0; j < 9; j++ {
			assert.Equal(t, test.At(i, j), again.At(i, j))
		}
	}

	assert.True(t, logger.ContainsMessage("Preprocessor file saved"))
	assert.True(t, logger.ContainsField(log.StageKey, "transformation"))
}

func TestDataTransformation_OrdinalCodes(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.ArtifactsDir = filepath.Join(dir, "artifacts")
	cfg.Transformation.NumericalColumns = []string{"carat"}
	cfg.Transformation.CategoricalColumns = cfg.Transformation.CategoricalColumns[:1]

	train := [][]string{
		{"id", "carat", "cut", "price"},
		{"0", "1.0", "Fair", "100"},
		{"1", "2.0", "Ideal", "200"},
		{"2", "", "Good", ""},
	}
	trainPath := filepath.Join(dir, "train.csv")
	testPath := filepath.Join(dir, "test.csv")
	writeTable(t, trainPath, train)
	writeTable(t, testPath, [][]string{
		{"id", "carat", "cut", "price"},
		{"9", "", "Fair", "1"},
	})

	d := New(cfg)
	out, _, preprocessorPath, err := d.Run(trainPath, testPath)
	require.NoError(t, err)

	// missing target passes through
	assert.True(t, math.IsNaN(out.At(2, 2)))

	pre, err := compose.LoadPreprocessor(preprocessorPath)
	require.NoError(t, err)
	var enc *preprocessing.OrdinalEncoder
	for _, group := range pre.Transformers {
		if group.Name != CatPipelineName {
			continue
		}
		step, ok := group.Pipeline.Named("ordinalencoder")
		require.True(t, ok)
		enc = step.(*preprocessing.OrdinalEncoder)
	}
	require.NotNil(t, enc)

	cuts, err := dataset.FromRecords([][]string{{"cut"}, {"Fair"}, {"Ideal"}})
	require.NoError(t, err)
	codes, err := enc.EncodeFrame(cuts)
	require.NoError(t, err)
	assert.Equal(t, 0.0, codes.At(0, 0))
	assert.Equal(t, 4.0, codes.At(1, 0))
}

func TestDataTransformation_StatisticsIgnoreTestData(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.ArtifactsDir = filepath.Join(dir, "artifacts")
	cfg.Transformation.NumericalColumns = []string{"carat"}
	cfg.Transformation.CategoricalColumns = cfg.Transformation.CategoricalColumns[:1]

	trainPath := filepath.Join(dir, "train.csv")
	writeTable(t, trainPath, [][]string{
		{"id", "carat", "cut", "price"},
		{"0", "1.0", "Fair", "1"},
		{"1", "2.0", "Good", "2"},
		{"2", "3.0", "Good", "3"},
	})

	run := func(testCarat string) float64 {
		testPath := filepath.Join(dir, "test.csv")
		writeTable(t, testPath, [][]string{
			{"id", "carat", "cut", "price"},
			{"5", testCarat, "Ideal", "9"},
			{"6", "2.0", "Fair", "9"},
		})
		train, test, _, err := New(cfg).Run(trainPath, testPath)
		require.NoError(t, err)
		assert.InDelta(t, 0, train.At(1, 0), 1e-12)
		return test.At(1, 0)
	}

	// the same test row maps to the same feature whatever the other test rows hold
	assert.Equal(t, run("100"), run("-50"))
}

func TestDataTransformation_Errors(t *testing.T) {
	cfg, trainPath, testPath := ingest(t, 40)

	t.Run("missing target column", func(t *testing.T) {
		c := cfg.Clone()
		c.Transformation.TargetColumn = "cost"
		_, _, _, err := New(c).Run(trainPath, testPath)
		stage, ok := errors.StageOf(err)
		require.True(t, ok)
		assert.Equal(t, errors.StageTransformation, stage)
		var colErr *errors.MissingColumnError
		require.True(t, errors.As(err, &colErr))
		assert.Equal(t, []string{"cost"}, colErr.Columns)
	})

	t.Run("missing feature column", func(t *testing.T) {
		c := cfg.Clone()
		c.Transformation.NumericalColumns = append(c.Transformation.NumericalColumns, "weight")
		_, _, _, err := New(c).Run(trainPath, testPath)
		var colErr *errors.MissingColumnError
		require.True(t, errors.As(err, &colErr))
		_, statErr := os.Stat(c.PreprocessorPath())
		assert.True(t, os.IsNotExist(statErr), "no preprocessor may be written on failure")
	})

	t.Run("unreadable train file", func(t *testing.T) {
		_, _, _, err := New(cfg).Run(filepath.Join(t.TempDir(), "nope.csv"), testPath)
		var loadErr *errors.DataLoadError
		assert.True(t, errors.As(err, &loadErr))
	})

	t.Run("unknown category in test data", func(t *testing.T) {
		dir := t.TempDir()
		records := gemstonetest.Records(5, 1, false)
		records[2][2] = "Flawless"
		bad := filepath.Join(dir, "test.csv")
		writeTable(t, bad, records)

		c := cfg.Clone()
		c.ArtifactsDir = filepath.Join(dir, "artifacts")
		_, _, _, err := New(c).Run(trainPath, bad)
		var ucErr *errors.UnknownCategoryError
		require.True(t, errors.As(err, &ucErr))
		assert.Equal(t, "cut", ucErr.Column)
	})

	t.Run("duplicate categories", func(t *testing.T) {
		c := cfg.Clone()
		c.Transformation.CategoricalColumns[0].Categories = []string{"Fair", "Fair"}
		_, err := New(c).BuildPreprocessor()
		stage, ok := errors.StageOf(err)
		require.True(t, ok)
		assert.Equal(t, errors.StageTransformation, stage)
	})
}

func TestDataTransformation_MinMaxAndReport(t *testing.T) {
	cfg, trainPath, testPath := ingest(t, 60)
	cfg.Transformation.Scaler = "minmax"
	cfg.Report.Enabled = true

	train, _, _, err := New(cfg).Run(trainPath, testPath)
	require.NoError(t, err)

	for j := 0; j < 9; j++ {
		for i := 0; i < 42; i++ {
			v := train.At(i, j)
			assert.True(t, v >= -1e-12 && v <= 1+1e-12, "feature %d row %d = %v", j, i, v)
		}
	}

	entries, err := os.ReadDir(cfg.ReportDir())
	require.NoError(t, err)
	assert.Len(t, entries, 10)
}
