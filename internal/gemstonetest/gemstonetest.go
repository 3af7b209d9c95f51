// Package gemstonetest generates synthetic gemstone tables for tests.
package gemstonetest

import (
	"encoding/csv"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// Header is the column layout of the gemstone source file.
var Header = []string{"id", "carat", "cut", "color", "clarity", "depth", "table", "x", "y", "z", "price"}

var (
	cuts     = []string{"Fair", "Good", "Very Good", "Premium", "Ideal"}
	colors   = []string{"D", "E", "F", "G", "H", "I", "J"}
	clarity  = []string{"I1", "SI2", "SI1", "VS2", "VS1", "VVS2", "VVS1", "IF"}
	missingN = 25
)

// Records returns n rows plus the header. Every missingN-th row has an empty
// carat cell and an empty color cell when withMissing is set.
func Records(n int, seed int64, withMissing bool) [][]string {
	rng := rand.New(rand.NewSource(seed))
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

	records := [][]string{append([]string(nil), Header...)}
	for i := 0; i < n; i++ {
		carat := 0.2 + rng.Float64()*2.8
		x := 3.5 + carat*2
		row := []string{
			strconv.Itoa(i),
			f(carat),
			cuts[rng.Intn(len(cuts))],
			colors[rng.Intn(len(colors))],
			clarity[rng.Intn(len(clarity))],
			f(58 + rng.Float64()*6),
			f(53 + rng.Float64()*8),
			f(x),
			f(x + rng.Float64()*0.1),
			f(x * 0.62),
			strconv.Itoa(300 + int(carat*5000) + rng.Intn(500)),
		}
		if withMissing && i%missingN == missingN-1 {
			row[1] = ""
			row[3] = ""
		}
		records = append(records, row)
	}
	return records
}

// WriteCSV writes Records(n, seed, withMissing) to dir/gemstone.csv and returns the path.
func WriteCSV(t testing.TB, dir string, n int, seed int64, withMissing bool) string {
	t.Helper()
	path := filepath.Join(dir, "gemstone.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	if err := csv.NewWriter(f).WriteAll(Records(n, seed, withMissing)); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
