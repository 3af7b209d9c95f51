// Package gemprep prepares the gemstone price dataset for model training.
//
// The work is split into two stages that run one after the other:
//
//   - Ingestion reads the source CSV, keeps an untouched copy as raw.csv and
//     splits the rows into train.csv and test.csv.
//   - Transformation fits a column preprocessor on the training rows only,
//     applies it to both partitions and saves it as preprocessor.gob so that
//     inference code can reuse the exact same feature mapping.
//
// The preprocessor follows the scikit-learn model: numerical columns are
// median-imputed and standardized; categorical columns are imputed with the
// most frequent value, ordinal-encoded against a fixed category order and
// standardized. Output columns are the numerical block, then the categorical
// block, then the target.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "log"
//
//	    "github.com/YuminosukeSato/gemprep/components"
//	    "github.com/YuminosukeSato/gemprep/config"
//	)
//
//	func main() {
//	    cfg := config.Default().WithSeed(42)
//	    res, err := components.RunPipeline(cfg)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    rows, cols := res.Train.Dims()
//	    log.Printf("train matrix %dx%d", rows, cols)
//	}
//
// # Packages
//
//   - dataset: gota-backed tables, CSV I/O and the train/test split
//   - impute, preprocessing: imputers, scalers and the ordinal encoder
//   - pipeline, compose: step chaining and column routing
//   - components: the ingestion and transformation stages
//   - config: YAML configuration with gemstone defaults
//   - report: optional histograms of the transformed features
//   - pkg/errors, pkg/log: structured errors and logging
//
// # Reusing the preprocessor
//
//	pre, err := compose.LoadPreprocessor("artifacts/preprocessor.gob")
//	if err != nil {
//	    return err
//	}
//	features, err := pre.Transform(newRows)
package gemprep
