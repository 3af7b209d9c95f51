package dataset

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/YuminosukeSato/gemprep/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `id,carat,cut,color,clarity,depth,table,x,y,z,price
0,1.52,Premium,F,VS2,62.2,58.0,7.27,7.33,4.55,13619
1,2.03,Very Good,J,SI2,62.0,58.0,8.06,8.12,5.05,13387
2,0.7,Ideal,G,VS1,61.2,57.0,5.69,5.73,3.5,2772
3,,Ideal,,VS2,61.6,56.0,4.38,4.41,2.71,666
4,1.7,Premium,G,VS2,62.6,59.0,7.65,7.61,4.77,14453
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gemstone.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
	return path
}

func TestReadCSV(t *testing.T) {
	ds, err := ReadCSV(writeSample(t))
	require.NoError(t, err)

	assert.Equal(t, 5, ds.Nrow())
	assert.Equal(t, 11, ds.Ncol())
	assert.Equal(t, []string{"id", "carat", "cut", "color", "clarity", "depth", "table", "x", "y", "z", "price"}, ds.Names())
	assert.True(t, ds.HasColumn("price"))
	assert.False(t, ds.HasColumn("weight"))

	cut, err := ds.Strings("cut")
	require.NoError(t, err)
	assert.Equal(t, []string{"Premium", "Very Good", "Ideal", "Ideal", "Premium"}, cut)
}

func TestReadCSV_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
		require.Error(t, err)
		var loadErr *errors.DataLoadError
		assert.True(t, errors.As(err, &loadErr))
	})

	t.Run("ragged rows", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.csv")
		require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2,3\n"), 0o644))
		_, err := ReadCSV(path)
		var loadErr *errors.DataLoadError
		assert.True(t, errors.As(err, &loadErr))
	})

	t.Run("header only", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.csv")
		require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o644))
		_, err := ReadCSV(path)
		assert.Error(t, err)
	})
}

func TestFloatsAndMatrix(t *testing.T) {
	ds, err := ReadCSV(writeSample(t))
	require.NoError(t, err)

	carat, err := ds.Floats("carat")
	require.NoError(t, err)
	assert.Equal(t, 1.52, carat[0])
	assert.True(t, math.IsNaN(carat[3]))

	m, err := ds.Matrix("carat", "depth")
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 5, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 62.0, m.At(1, 1))
	assert.True(t, math.IsNaN(m.At(3, 0)))

	_, err = ds.Floats("cut")
	var valueErr *errors.ValueError
	assert.True(t, errors.As(err, &valueErr))

	_, err = ds.Floats("weight")
	var colErr *errors.MissingColumnError
	require.True(t, errors.As(err, &colErr))
	assert.Equal(t, []string{"weight"}, colErr.Columns)
}

func TestSelectDropSubset(t *testing.T) {
	ds, err := ReadCSV(writeSample(t))
	require.NoError(t, err)

	sel, err := ds.Select("price", "cut")
	require.NoError(t, err)
	assert.Equal(t, []string{"price", "cut"}, sel.Names())

	dropped, err := ds.Drop("id", "price")
	require.NoError(t, err)
	assert.Equal(t, 9, dropped.Ncol())
	assert.False(t, dropped.HasColumn("id"))

	_, err = ds.Drop("id", "nope")
	var colErr *errors.MissingColumnError
	require.True(t, errors.As(err, &colErr))
	assert.Equal(t, []string{"nope"}, colErr.Columns)

	sub, err := ds.Subset([]int{4, 0})
	require.NoError(t, err)
	ids, err := sub.Strings("id")
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "0"}, ids)

	_, err = ds.Subset(nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestWithColumn(t *testing.T) {
	ds, err := ReadCSV(writeSample(t))
	require.NoError(t, err)

	updated, err := ds.WithColumn("color", []string{"D", "E", "F", "G", "H"})
	require.NoError(t, err)
	colors, err := updated.Strings("color")
	require.NoError(t, err)
	assert.Equal(t, []string{"D", "E", "F", "G", "H"}, colors)

	// original table is untouched
	orig, err := ds.Strings("color")
	require.NoError(t, err)
	assert.True(t, IsMissing(orig[3]))

	_, err = ds.WithColumn("color", []string{"D"})
	assert.Error(t, err)
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	src := writeSample(t)
	ds, err := ReadCSV(src)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "nested", "raw.csv")
	require.NoError(t, ds.WriteCSV(out))

	back, err := ReadCSV(out)
	require.NoError(t, err)
	assert.Equal(t, ds.Names(), back.Names())
	assert.Equal(t, ds.Nrow(), back.Nrow())

	price, err := back.Strings("price")
	require.NoError(t, err)
	assert.Equal(t, []string{"13619", "13387", "2772", "666", "14453"}, price)

	carat, err := back.Floats("carat")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(carat[3]))
}

func TestIsMissing(t *testing.T) {
	for _, v := range []string{"", " ", "NA", "NaN", "nan", "N/A", "null"} {
		assert.True(t, IsMissing(v), "%q", v)
	}
	for _, v := range []string{"0", "Ideal", "none"} {
		assert.False(t, IsMissing(v), "%q", v)
	}
}

func TestHead(t *testing.T) {
	ds, err := ReadCSV(writeSample(t))
	require.NoError(t, err)
	assert.True(t, strings.Contains(ds.Head(2), "Premium"))
	assert.NotEmpty(t, ds.Head(100))
}
