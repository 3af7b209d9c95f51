// Package components wires the ingestion and transformation stages into a
// single run.
package components

import (
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gemprep/components/ingestion"
	"github.com/YuminosukeSato/gemprep/components/transformation"
	"github.com/YuminosukeSato/gemprep/config"
	"github.com/YuminosukeSato/gemprep/pkg/log"
)

// Result holds everything a run produced.
type Result struct {
	RunID            string
	TrainPath        string
	TestPath         string
	PreprocessorPath string
	Train            *mat.Dense
	Test             *mat.Dense
}

// RunPipeline validates cfg, then runs ingestion followed by transformation.
// Both stages share one run id. The first failing stage aborts the run and its
// PipelineError is returned.
func RunPipeline(cfg config.Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := log.GetLoggerWithName("Pipeline").With(log.RunIDKey, runID)
	logger.Info("Pipeline run started", log.PathKey, cfg.SourcePath)

	trainPath, testPath, err := ingestion.New(cfg,
		ingestion.WithRunID(runID),
	).Run()
	if err != nil {
		return nil, err
	}

	train, test, preprocessorPath, err := transformation.New(cfg,
		transformation.WithRunID(runID),
	).Run(trainPath, testPath)
	if err != nil {
		return nil, err
	}

	tr, tc := train.Dims()
	logger.Info("Pipeline run completed",
		"train_rows", tr,
		"test_rows", test.RawMatrix().Rows,
		log.FeaturesKey, tc,
	)
	return &Result{
		RunID:            runID,
		TrainPath:        trainPath,
		TestPath:         testPath,
		PreprocessorPath: preprocessorPath,
		Train:            train,
		Test:             test,
	}, nil
}
