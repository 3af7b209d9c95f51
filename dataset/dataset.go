// Package dataset provides the in-memory table used by the pipeline, backed by
// a gota DataFrame.
//
// Every cell is kept as text so that a table read from CSV and written back
// keeps the source text unchanged. Numeric views are produced on demand with
// missing cells mapped to NaN.
package dataset

import (
	"bufio"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/gemprep/pkg/errors"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"
)

// missingTokens are the cell values treated as missing.
var missingTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"NaN":  {},
	"nan":  {},
	"N/A":  {},
	"null": {},
}

// IsMissing reports whether a cell value denotes a missing value.
func IsMissing(v string) bool {
	_, ok := missingTokens[strings.TrimSpace(v)]
	return ok
}

// Dataset is an immutable table of named text columns.
type Dataset struct {
	df dataframe.DataFrame
}

// ReadCSV loads a comma separated file with a header row. A missing or
// unparsable file yields a DataLoadError.
func ReadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewDataLoadError(path, err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(bufio.NewReader(f),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return nil, errors.NewDataLoadError(path, df.Err)
	}
	if df.Ncol() == 0 {
		return nil, errors.NewDataLoadError(path, errors.ErrEmptyData)
	}
	return &Dataset{df: df}, nil
}

// FromRecords builds a Dataset from rows of text, the first row being the header.
func FromRecords(records [][]string) (*Dataset, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, errors.NewModelError("dataset.FromRecords", "empty data", errors.ErrEmptyData)
	}
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "dataset.FromRecords")
	}
	return &Dataset{df: df}, nil
}

// WriteCSV writes the table with a header row to path, creating the parent
// directory if needed and overwriting any existing file.
func (d *Dataset) WriteCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := d.df.WriteCSV(w, dataframe.WriteHeader(true)); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "failed to flush %s", path)
	}
	return f.Close()
}

// Frame returns the underlying gota DataFrame.
func (d *Dataset) Frame() dataframe.DataFrame {
	return d.df
}

// Nrow returns the number of rows.
func (d *Dataset) Nrow() int {
	return d.df.Nrow()
}

// Ncol returns the number of columns.
func (d *Dataset) Ncol() int {
	return d.df.Ncol()
}

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	return d.df.Names()
}

// HasColumn reports whether name is a column of the table.
func (d *Dataset) HasColumn(name string) bool {
	for _, n := range d.df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

func (d *Dataset) requireColumns(op string, cols []string) error {
	var missing []string
	for _, c := range cols {
		if !d.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return errors.NewMissingColumnError(op, missing...)
	}
	return nil
}

// Select returns a table holding only cols, in the given order.
func (d *Dataset) Select(cols ...string) (*Dataset, error) {
	if err := d.requireColumns("Dataset.Select", cols); err != nil {
		return nil, err
	}
	df := d.df.Select(cols)
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "Dataset.Select")
	}
	return &Dataset{df: df}, nil
}

// Drop returns a table without cols. Every dropped column must exist.
func (d *Dataset) Drop(cols ...string) (*Dataset, error) {
	if err := d.requireColumns("Dataset.Drop", cols); err != nil {
		return nil, err
	}
	df := d.df.Drop(cols)
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "Dataset.Drop")
	}
	return &Dataset{df: df}, nil
}

// Subset returns the rows at the given indexes, in that order. A table must
// keep at least one row.
func (d *Dataset) Subset(rows []int) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, errors.NewModelError("Dataset.Subset", "empty data", errors.ErrEmptyData)
	}
	df := d.df.Subset(rows)
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "Dataset.Subset")
	}
	return &Dataset{df: df}, nil
}

// Strings returns the raw text of column col.
func (d *Dataset) Strings(col string) ([]string, error) {
	if err := d.requireColumns("Dataset.Strings", []string{col}); err != nil {
		return nil, err
	}
	s := d.df.Col(col)
	out := make([]string, s.Len())
	for i := range out {
		e := s.Elem(i)
		if e.IsNA() {
			out[i] = "NaN"
			continue
		}
		out[i] = e.String()
	}
	return out, nil
}

// Floats parses column col as float64. Missing cells become NaN; any other
// unparsable cell is a ValueError.
func (d *Dataset) Floats(col string) ([]float64, error) {
	raw, err := d.Strings(col)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		if IsMissing(v) {
			out[i] = math.NaN()
			continue
		}
		f, perr := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if perr != nil {
			return nil, errors.NewValueError("Dataset.Floats",
				"column '"+col+"' row "+strconv.Itoa(i)+": cannot parse '"+v+"' as float")
		}
		out[i] = f
	}
	return out, nil
}

// Matrix parses cols into an n_rows × len(cols) matrix. With no cols given all
// columns are used.
func (d *Dataset) Matrix(cols ...string) (*mat.Dense, error) {
	if len(cols) == 0 {
		cols = d.Names()
	}
	r := d.Nrow()
	if r == 0 || len(cols) == 0 {
		return nil, errors.NewModelError("Dataset.Matrix", "empty data", errors.ErrEmptyData)
	}
	m := mat.NewDense(r, len(cols), nil)
	for j, c := range cols {
		values, err := d.Floats(c)
		if err != nil {
			return nil, err
		}
		m.SetCol(j, values)
	}
	return m, nil
}

// WithColumn returns a copy of the table whose column col holds values.
func (d *Dataset) WithColumn(col string, values []string) (*Dataset, error) {
	if err := d.requireColumns("Dataset.WithColumn", []string{col}); err != nil {
		return nil, err
	}
	if len(values) != d.Nrow() {
		return nil, errors.NewDimensionError("Dataset.WithColumn", d.Nrow(), len(values), 0)
	}
	df := d.df.Mutate(series.New(values, series.String, col))
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "Dataset.WithColumn")
	}
	return &Dataset{df: df}, nil
}

// Records returns the table as text rows, header first.
func (d *Dataset) Records() [][]string {
	return d.df.Records()
}

// Head renders the first n rows for logging.
func (d *Dataset) Head(n int) string {
	if n > d.Nrow() {
		n = d.Nrow()
	}
	if n <= 0 {
		return strings.Join(d.Names(), ",")
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return d.df.Subset(rows).String()
}
