// Package config holds the settings shared by the ingestion and transformation
// stages, with defaults for the gemstone price dataset.
package config

import (
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/gemprep/pkg/errors"
	"github.com/YuminosukeSato/gemprep/pkg/log"
)

// Category is a categorical column together with its ordered categories.
type Category struct {
	Name       string   `yaml:"name"`
	Categories []string `yaml:"categories"`
}

// Ingestion configures the ingestion stage.
type Ingestion struct {
	RawFile     string  `yaml:"raw_file"`
	TrainFile   string  `yaml:"train_file"`
	TestFile    string  `yaml:"test_file"`
	TestSize    float64 `yaml:"test_size"`
	RandomState *int64  `yaml:"random_state,omitempty"`
}

// Transformation configures the transformation stage.
type Transformation struct {
	PreprocessorFile   string     `yaml:"preprocessor_file"`
	TargetColumn       string     `yaml:"target_column"`
	IndexColumn        string     `yaml:"index_column"`
	NumericalColumns   []string   `yaml:"numerical_columns"`
	CategoricalColumns []Category `yaml:"categorical_columns"`
	HandleUnknown      string     `yaml:"handle_unknown"`
	UnknownValue       *float64   `yaml:"unknown_value,omitempty"`
	Scaler             string     `yaml:"scaler"`
}

// Report configures the optional histogram report.
type Report struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
	Bins    int    `yaml:"bins"`
}

// Config is the full pipeline configuration.
type Config struct {
	LogLevel       string         `yaml:"log_level"`
	SourcePath     string         `yaml:"source_path"`
	ArtifactsDir   string         `yaml:"artifacts_dir"`
	Ingestion      Ingestion      `yaml:"ingestion"`
	Transformation Transformation `yaml:"transformation"`
	Report         Report         `yaml:"report"`
}

// Default returns the configuration for the gemstone dataset.
func Default() Config {
	return Config{
		LogLevel:     "info",
		SourcePath:   filepath.Join("code", "data", "gemstone.csv"),
		ArtifactsDir: "artifacts",
		Ingestion: Ingestion{
			RawFile:   "raw.csv",
			TrainFile: "train.csv",
			TestFile:  "test.csv",
			TestSize:  0.30,
		},
		Transformation: Transformation{
			PreprocessorFile: "preprocessor.gob",
			TargetColumn:     "price",
			IndexColumn:      "id",
			NumericalColumns: []string{"carat", "depth", "table", "x", "y", "z"},
			CategoricalColumns: []Category{
				{Name: "cut", Categories: []string{"Fair", "Good", "Very Good", "Premium", "Ideal"}},
				{Name: "color", Categories: []string{"D", "E", "F", "G", "H", "I", "J"}},
				{Name: "clarity", Categories: []string{"I1", "SI2", "SI1", "VS2", "VS1", "VVS2", "VVS1", "IF"}},
			},
			HandleUnknown: "error",
			Scaler:        "standard",
		},
		Report: Report{
			Dir:  "report",
			Bins: 30,
		},
	}
}

// Load reads a YAML file on top of Default. Keys absent from the file keep
// their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "failed to parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every setting. It returns the first problem found as a
// ValidationError.
func (c Config) Validate() error {
	if !log.ValidLevel(c.LogLevel) {
		return errors.NewValidationError("log_level", "must be one of debug, info, warn, error", c.LogLevel)
	}
	if c.SourcePath == "" {
		return errors.NewValidationError("source_path", "must not be empty", c.SourcePath)
	}
	if c.ArtifactsDir == "" {
		return errors.NewValidationError("artifacts_dir", "must not be empty", c.ArtifactsDir)
	}
	for param, v := range map[string]string{
		"ingestion.raw_file":               c.Ingestion.RawFile,
		"ingestion.train_file":             c.Ingestion.TrainFile,
		"ingestion.test_file":              c.Ingestion.TestFile,
		"transformation.preprocessor_file": c.Transformation.PreprocessorFile,
	} {
		if v == "" {
			return errors.NewValidationError(param, "must not be empty", v)
		}
	}
	ts := c.Ingestion.TestSize
	if math.IsNaN(ts) || ts <= 0 || ts >= 1 {
		return errors.NewValidationError("ingestion.test_size", "must be in the open interval (0, 1)", ts)
	}

	t := c.Transformation
	if t.TargetColumn == "" {
		return errors.NewValidationError("transformation.target_column", "must not be empty", t.TargetColumn)
	}
	if len(t.NumericalColumns) == 0 && len(t.CategoricalColumns) == 0 {
		return errors.NewValidationError("transformation", "at least one feature column is required", nil)
	}

	seen := map[string]string{t.TargetColumn: "target_column"}
	if t.IndexColumn != "" {
		if t.IndexColumn == t.TargetColumn {
			return errors.NewValidationError("transformation.index_column", "must differ from target_column", t.IndexColumn)
		}
		seen[t.IndexColumn] = "index_column"
	}
	claim := func(col, group string) error {
		if col == "" {
			return errors.NewValidationError("transformation."+group, "column name must not be empty", col)
		}
		if prev, ok := seen[col]; ok {
			return errors.NewValidationError("transformation."+group, "column is already used by "+prev, col)
		}
		seen[col] = group
		return nil
	}
	for _, col := range t.NumericalColumns {
		if err := claim(col, "numerical_columns"); err != nil {
			return err
		}
	}
	for _, cat := range t.CategoricalColumns {
		if err := claim(cat.Name, "categorical_columns"); err != nil {
			return err
		}
		if len(cat.Categories) == 0 {
			return errors.NewValidationError("transformation.categorical_columns."+cat.Name, "category list must not be empty", cat.Categories)
		}
		dup := make(map[string]struct{}, len(cat.Categories))
		for _, v := range cat.Categories {
			if _, ok := dup[v]; ok {
				return errors.NewValidationError("transformation.categorical_columns."+cat.Name, "duplicate category", v)
			}
			dup[v] = struct{}{}
		}
	}

	switch t.HandleUnknown {
	case "error":
	case "use_encoded_value":
		if t.UnknownValue == nil {
			return errors.NewValidationError("transformation.unknown_value", "is required when handle_unknown is use_encoded_value", nil)
		}
	default:
		return errors.NewValidationError("transformation.handle_unknown", "must be 'error' or 'use_encoded_value'", t.HandleUnknown)
	}
	switch t.Scaler {
	case "standard", "minmax":
	default:
		return errors.NewValidationError("transformation.scaler", "must be 'standard' or 'minmax'", t.Scaler)
	}

	if c.Report.Enabled {
		if c.Report.Dir == "" {
			return errors.NewValidationError("report.dir", "must not be empty when the report is enabled", c.Report.Dir)
		}
		if c.Report.Bins <= 0 {
			return errors.NewValidationError("report.bins", "must be positive", c.Report.Bins)
		}
	}
	return nil
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	if c.Ingestion.RandomState != nil {
		seed := *c.Ingestion.RandomState
		out.Ingestion.RandomState = &seed
	}
	if c.Transformation.UnknownValue != nil {
		v := *c.Transformation.UnknownValue
		out.Transformation.UnknownValue = &v
	}
	out.Transformation.NumericalColumns = append([]string(nil), c.Transformation.NumericalColumns...)
	out.Transformation.CategoricalColumns = make([]Category, len(c.Transformation.CategoricalColumns))
	for i, cat := range c.Transformation.CategoricalColumns {
		out.Transformation.CategoricalColumns[i] = Category{
			Name:       cat.Name,
			Categories: append([]string(nil), cat.Categories...),
		}
	}
	return out
}

// WithSeed returns a copy of c whose split uses seed.
func (c Config) WithSeed(seed int64) Config {
	out := c.Clone()
	out.Ingestion.RandomState = &seed
	return out
}

// CategoricalNames returns the categorical column names in declaration order.
func (c Config) CategoricalNames() []string {
	names := make([]string, len(c.Transformation.CategoricalColumns))
	for i, cat := range c.Transformation.CategoricalColumns {
		names[i] = cat.Name
	}
	return names
}

// RawDataPath is where ingestion writes the full snapshot.
func (c Config) RawDataPath() string {
	return filepath.Join(c.ArtifactsDir, c.Ingestion.RawFile)
}

// TrainDataPath is where ingestion writes the training partition.
func (c Config) TrainDataPath() string {
	return filepath.Join(c.ArtifactsDir, c.Ingestion.TrainFile)
}

// TestDataPath is where ingestion writes the test partition.
func (c Config) TestDataPath() string {
	return filepath.Join(c.ArtifactsDir, c.Ingestion.TestFile)
}

// PreprocessorPath is where transformation writes the fitted preprocessor.
func (c Config) PreprocessorPath() string {
	return filepath.Join(c.ArtifactsDir, c.Transformation.PreprocessorFile)
}

// ReportDir is where the optional histograms are written.
func (c Config) ReportDir() string {
	return filepath.Join(c.ArtifactsDir, c.Report.Dir)
}
