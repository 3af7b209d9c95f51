// Package report renders histograms of transformed feature matrices with gonum/plot.
package report

import (
	"image/color"
	"math"
	"os"
	"path/filepath"
	"regexp"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/gemprep/pkg/errors"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// Histogram draws a histogram of values to a PNG file at path. NaN values are
// skipped; a series with no finite value is an error.
func Histogram(values []float64, title string, bins int, path string) error {
	finite := make(plotter.Values, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return errors.NewModelError("report.Histogram", "no finite values for "+title, errors.ErrEmptyData)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = title
	p.Y.Label.Text = "count"

	h, err := plotter.NewHist(finite, bins)
	if err != nil {
		return errors.Wrapf(err, "failed to build histogram for %s", title)
	}
	h.FillColor = color.RGBA{R: 50, G: 90, B: 200, A: 255}
	p.Add(h)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", path)
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "failed to save %s", path)
	}
	return nil
}

// WriteMatrixReport writes one histogram per column of m into dir and returns
// the written paths in column order. names labels the columns.
func WriteMatrixReport(m mat.Matrix, names []string, dir string, bins int) ([]string, error) {
	r, c := m.Dims()
	if len(names) != c {
		return nil, errors.NewDimensionError("report.WriteMatrixReport", c, len(names), 1)
	}
	if r == 0 {
		return nil, errors.NewModelError("report.WriteMatrixReport", "empty data", errors.ErrEmptyData)
	}

	paths := make([]string, 0, c)
	for j := 0; j < c; j++ {
		col := mat.Col(nil, j, m)
		path := filepath.Join(dir, unsafeName.ReplaceAllString(names[j], "_")+".png")
		if err := Histogram(col, names[j], bins, path); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
