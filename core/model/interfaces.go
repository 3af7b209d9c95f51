// Package model provides the interfaces and shared state types of gemprep's
// estimators.
package model

// ParameterGetter is implemented by estimators that expose their hyperparameters.
type ParameterGetter interface {
	// GetParams returns the estimator's hyperparameters.
	GetParams() map[string]interface{}
}

// FeatureNamer is implemented by steps that know the names of their output columns.
type FeatureNamer interface {
	// FeatureNamesOut returns output column names for the given input names.
	FeatureNamesOut(input []string) []string
}

// Persistable is implemented by fitted objects that can be written to and read
// back from a file.
type Persistable interface {
	// Save writes the object to path.
	Save(path string) error
}
