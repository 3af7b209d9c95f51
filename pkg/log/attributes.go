// Package log defines standard attribute keys for pipeline logging.
//
// Using these keys keeps the ingestion and transformation logs consistent and
// lets log processors filter by stage, run or artifact. Keys follow a
// hierarchical "group.name" convention.

package log

// Estimator and operation context.
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "StandardScaler", "OrdinalEncoder", "ColumnTransformer"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "transform", "fit_transform", "save", "load"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component or package is logging.
	ComponentKey = "ml.component"

	// PhaseKey indicates the lifecycle phase.
	PhaseKey = "ml.phase"
)

// Pipeline context.
const (
	// StageKey is the pipeline stage, "ingestion" or "transformation".
	StageKey = "pipeline.stage"

	// RunIDKey correlates the log lines of one driver invocation.
	RunIDKey = "pipeline.run_id"

	// PathKey is the filesystem path of an artifact being read or written.
	PathKey = "artifact.path"

	// ArtifactKey names the artifact kind: "raw", "train", "test", "preprocessor".
	ArtifactKey = "artifact.kind"
)

// Data shape.
const (
	// SamplesKey is the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns being processed.
	FeaturesKey = "data.features"

	// ColumnKey names a single column.
	ColumnKey = "data.column"

	// ColumnsKey lists several columns.
	ColumnsKey = "data.columns"

	// TestSizeKey is the requested test fraction of a split.
	TestSizeKey = "data.test_size"
)

// Performance.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Error context.
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the error.
	ErrorTypeKey = "error.type"

	// SuggestionKey carries a hint for resolving the issue.
	SuggestionKey = "error.suggestion"
)

// Configuration.
const (
	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Standard attribute values.
const (
	OperationFit          = "fit"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationSave         = "save"
	OperationLoad         = "load"
	OperationSplit        = "split"

	PhaseTraining      = "training"
	PhaseTesting       = "testing"
	PhasePreprocessing = "preprocessing"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorMissingColumn     = "MISSING_COLUMN"
	ErrorUnknownCategory   = "UNKNOWN_CATEGORY"
)
