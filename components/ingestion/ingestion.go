// Package ingestion implements the first pipeline stage: it snapshots the
// source table and splits it into training and test partitions.
package ingestion

import (
	"time"

	"github.com/YuminosukeSato/gemprep/config"
	"github.com/YuminosukeSato/gemprep/dataset"
	"github.com/YuminosukeSato/gemprep/pkg/errors"
	"github.com/YuminosukeSato/gemprep/pkg/log"
)

// DataIngestion reads the source file and writes raw.csv, train.csv and test.csv.
type DataIngestion struct {
	cfg    config.Config
	runID  string
	logger log.Logger
}

// Option configures a DataIngestion.
type Option func(*DataIngestion)

// WithLogger sets the stage logger.
func WithLogger(l log.Logger) Option {
	return func(d *DataIngestion) {
		d.logger = l
	}
}

// WithRunID tags every log record with the id of the current run.
func WithRunID(id string) Option {
	return func(d *DataIngestion) {
		d.runID = id
	}
}

// New creates the ingestion stage. cfg is copied.
func New(cfg config.Config, opts ...Option) *DataIngestion {
	d := &DataIngestion{cfg: cfg.Clone()}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = log.GetLoggerWithName("DataIngestion")
	}
	d.logger = d.logger.With(log.StageKey, string(errors.StageIngestion))
	if d.runID != "" {
		d.logger = d.logger.With(log.RunIDKey, d.runID)
	}
	return d
}

// Run performs the stage and returns the paths of the training and test files.
// Any failure is returned as a PipelineError for the ingestion stage.
func (d *DataIngestion) Run() (trainPath, testPath string, err error) {
	defer func() {
		if err != nil {
			d.logger.Error("Exception occurred at data ingestion stage", err)
			err = errors.NewPipelineError(errors.StageIngestion, err)
			trainPath, testPath = "", ""
		}
	}()
	defer errors.Recover(&err, "DataIngestion.Run")

	start := time.Now()
	d.logger.Info("Data ingestion starts", log.PathKey, d.cfg.SourcePath)

	data, err := dataset.ReadCSV(d.cfg.SourcePath)
	if err != nil {
		return "", "", err
	}
	d.logger.Info("Data read",
		log.SamplesKey, data.Nrow(),
		log.FeaturesKey, data.Ncol(),
	)

	rawPath := d.cfg.RawDataPath()
	if err := data.WriteCSV(rawPath); err != nil {
		return "", "", err
	}
	d.logger.Debug("Raw snapshot written", log.PathKey, rawPath)

	var opts []dataset.SplitOption
	if seed := d.cfg.Ingestion.RandomState; seed != nil {
		opts = append(opts, dataset.WithRandomState(*seed))
		d.logger.Debug("Using fixed split seed", log.RandomSeedKey, *seed)
	}
	train, test, err := dataset.TrainTestSplit(data, d.cfg.Ingestion.TestSize, opts...)
	if err != nil {
		return "", "", err
	}
	d.logger.Info("Train test split",
		log.OperationKey, log.OperationSplit,
		log.TestSizeKey, d.cfg.Ingestion.TestSize,
		"train_samples", train.Nrow(),
		"test_samples", test.Nrow(),
	)

	trainPath, testPath = d.cfg.TrainDataPath(), d.cfg.TestDataPath()
	if err := train.WriteCSV(trainPath); err != nil {
		return "", "", err
	}
	if err := test.WriteCSV(testPath); err != nil {
		return "", "", err
	}

	d.logger.Info("Data ingestion completed",
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return trainPath, testPath, nil
}
