// Package transformation implements the second pipeline stage: it fits the
// feature preprocessor on the training partition, applies it to both
// partitions and saves it.
package transformation

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gemprep/compose"
	"github.com/YuminosukeSato/gemprep/config"
	"github.com/YuminosukeSato/gemprep/dataset"
	"github.com/YuminosukeSato/gemprep/impute"
	"github.com/YuminosukeSato/gemprep/pipeline"
	"github.com/YuminosukeSato/gemprep/pkg/errors"
	"github.com/YuminosukeSato/gemprep/pkg/log"
	"github.com/YuminosukeSato/gemprep/preprocessing"
	"github.com/YuminosukeSato/gemprep/report"
)

// Column group names of the preprocessor.
const (
	NumPipelineName = "num_pipeline"
	CatPipelineName = "cat_pipeline"
)

// DataTransformation turns the train and test files into numeric matrices.
type DataTransformation struct {
	cfg    config.Config
	runID  string
	logger log.Logger
}

// Option configures a DataTransformation.
type Option func(*DataTransformation)

// WithLogger sets the stage logger.
func WithLogger(l log.Logger) Option {
	return func(d *DataTransformation) {
		d.logger = l
	}
}

// WithRunID tags log records and the saved preprocessor with the run id.
func WithRunID(id string) Option {
	return func(d *DataTransformation) {
		d.runID = id
	}
}

// New creates the transformation stage. cfg is copied.
func New(cfg config.Config, opts ...Option) *DataTransformation {
	d := &DataTransformation{cfg: cfg.Clone()}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = log.GetLoggerWithName("DataTransformation")
	}
	d.logger = d.logger.With(log.StageKey, string(errors.StageTransformation))
	if d.runID != "" {
		d.logger = d.logger.With(log.RunIDKey, d.runID)
	}
	return d
}

// BuildPreprocessor returns an unfitted ColumnTransformer: median imputation
// and scaling for numerical columns; most-frequent imputation, ordinal
// encoding and scaling for categorical columns.
func (d *DataTransformation) BuildPreprocessor() (ct *compose.ColumnTransformer, err error) {
	defer func() {
		if err != nil {
			d.logger.Error("Error in data transformation", err)
			err = errors.NewPipelineError(errors.StageTransformation, err)
		}
	}()

	t := d.cfg.Transformation
	d.logger.Info("Data transformation initiated")

	var groups []compose.ColumnPipeline

	if len(t.NumericalColumns) > 0 {
		numScaler, err := preprocessing.NewScaler(t.Scaler)
		if err != nil {
			return nil, err
		}
		num := pipeline.New(
			pipeline.Step{Name: "imputer", Estimator: impute.NewSimpleImputer(impute.StrategyMedian)},
			pipeline.Step{Name: "scaler", Estimator: numScaler},
		)
		num.SetLogger(d.logger)
		groups = append(groups, compose.ColumnPipeline{
			Name:     NumPipelineName,
			Pipeline: num,
			Columns:  append([]string(nil), t.NumericalColumns...),
		})
	}

	if len(t.CategoricalColumns) > 0 {
		categories := make([][]string, len(t.CategoricalColumns))
		for i, c := range t.CategoricalColumns {
			categories[i] = c.Categories
		}
		var encOpts []preprocessing.EncoderOption
		if t.HandleUnknown == preprocessing.HandleUnknownUseEncodedValue && t.UnknownValue != nil {
			encOpts = append(encOpts, preprocessing.WithUnknownValue(*t.UnknownValue))
		} else if t.HandleUnknown != "" {
			encOpts = append(encOpts, preprocessing.WithHandleUnknown(t.HandleUnknown, 0))
		}
		encoder := preprocessing.NewOrdinalEncoder(categories, encOpts...)
		if err := encoder.Validate(); err != nil {
			return nil, err
		}
		catScaler, err := preprocessing.NewScaler(t.Scaler)
		if err != nil {
			return nil, err
		}
		cat := pipeline.New(
			pipeline.Step{Name: "imputer", Estimator: impute.NewCategoricalImputer()},
			pipeline.Step{Name: "ordinalencoder", Estimator: encoder},
			pipeline.Step{Name: "scaler", Estimator: catScaler},
		)
		cat.SetLogger(d.logger)
		groups = append(groups, compose.ColumnPipeline{
			Name:     CatPipelineName,
			Pipeline: cat,
			Columns:  d.cfg.CategoricalNames(),
		})
	}

	ct = compose.NewColumnTransformer(groups,
		compose.WithLogger(d.logger),
		compose.WithRunID(d.runID),
	)
	if err := ct.Validate(); err != nil {
		return nil, err
	}

	d.logger.Info("Pipeline completed")
	return ct, nil
}

// Run fits the preprocessor on the training file, transforms both files and
// saves the preprocessor. Each returned matrix holds the transformed features
// followed by the target as its last column.
func (d *DataTransformation) Run(trainPath, testPath string) (train, test *mat.Dense, preprocessorPath string, err error) {
	defer func() {
		if err != nil {
			d.logger.Error("Exception occurred at data transformation stage", err)
			err = errors.NewPipelineError(errors.StageTransformation, err)
			train, test, preprocessorPath = nil, nil, ""
		}
	}()
	defer errors.Recover(&err, "DataTransformation.Run")

	start := time.Now()

	trainData, err := dataset.ReadCSV(trainPath)
	if err != nil {
		return nil, nil, "", err
	}
	testData, err := dataset.ReadCSV(testPath)
	if err != nil {
		return nil, nil, "", err
	}
	d.logger.Info("Train and test data read",
		"train_samples", trainData.Nrow(),
		"test_samples", testData.Nrow(),
	)
	d.logger.Debug("Train data head\n" + trainData.Head(5))
	d.logger.Debug("Test data head\n" + testData.Head(5))

	trainX, trainY, err := d.splitTarget(trainData)
	if err != nil {
		return nil, nil, "", err
	}
	testX, testY, err := d.splitTarget(testData)
	if err != nil {
		return nil, nil, "", err
	}

	d.logger.Info("Obtaining preprocessing object")
	ct, err := d.BuildPreprocessor()
	if err != nil {
		return nil, nil, "", err
	}

	pre, trainFeatures, err := ct.FitTransform(trainX)
	if err != nil {
		return nil, nil, "", err
	}
	testFeatures, err := pre.Transform(testX)
	if err != nil {
		return nil, nil, "", err
	}
	d.logger.Info("Applied preprocessing object on training and testing data",
		log.FeaturesKey, pre.NFeaturesOut(),
	)

	r, c := trainFeatures.Dims()
	if err := errors.CheckMatrix("DataTransformation.train", trainFeatures, r, c); err != nil {
		return nil, nil, "", err
	}
	r, c = testFeatures.Dims()
	if err := errors.CheckMatrix("DataTransformation.test", testFeatures, r, c); err != nil {
		return nil, nil, "", err
	}

	train = appendColumn(trainFeatures, trainY)
	test = appendColumn(testFeatures, testY)

	preprocessorPath = d.cfg.PreprocessorPath()
	if err := pre.Save(preprocessorPath); err != nil {
		return nil, nil, "", err
	}
	d.logger.Info("Preprocessor file saved",
		log.PathKey, preprocessorPath,
		log.OperationKey, log.OperationSave,
	)

	if d.cfg.Report.Enabled {
		names := append(append([]string(nil), pre.FeatureNamesOut...), d.cfg.Transformation.TargetColumn)
		paths, err := report.WriteMatrixReport(train, names, d.cfg.ReportDir(), d.cfg.Report.Bins)
		if err != nil {
			return nil, nil, "", err
		}
		d.logger.Info("Report written", log.PathKey, d.cfg.ReportDir(), "files", len(paths))
	}

	d.logger.Info("Data transformation completed",
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return train, test, preprocessorPath, nil
}

// splitTarget separates the feature columns from the target. The target and
// the index column are removed from the features.
func (d *DataTransformation) splitTarget(ds *dataset.Dataset) (*dataset.Dataset, []float64, error) {
	t := d.cfg.Transformation
	drop := []string{t.TargetColumn}
	if t.IndexColumn != "" {
		drop = append(drop, t.IndexColumn)
	}
	features, err := ds.Drop(drop...)
	if err != nil {
		return nil, nil, err
	}
	target, err := ds.Floats(t.TargetColumn)
	if err != nil {
		return nil, nil, err
	}
	return features, target, nil
}

// appendColumn returns [m | col].
func appendColumn(m *mat.Dense, col []float64) *mat.Dense {
	var out mat.Dense
	out.Augment(m, mat.NewDense(len(col), 1, col))
	return &out
}
