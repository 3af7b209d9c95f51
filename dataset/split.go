package dataset

import (
	"math"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/YuminosukeSato/gemprep/pkg/errors"
)

// SplitOption configures TrainTestSplit.
type SplitOption func(*splitConfig)

type splitConfig struct {
	randomState *int64
	shuffle     bool
}

// WithRandomState pins the permutation seed so the split is reproducible.
func WithRandomState(seed int64) SplitOption {
	return func(c *splitConfig) {
		c.randomState = &seed
	}
}

// WithShuffle toggles shuffling. Without shuffling the first rows form the
// training partition and the last rows the test partition.
func WithShuffle(shuffle bool) SplitOption {
	return func(c *splitConfig) {
		c.shuffle = shuffle
	}
}

// SplitSizes returns the partition sizes for n rows: the test partition holds
// ceil(testSize*n) rows and the training partition the rest.
func SplitSizes(n int, testSize float64) (nTrain, nTest int, err error) {
	if testSize <= 0 || testSize >= 1 || math.IsNaN(testSize) {
		return 0, 0, errors.NewValidationError("test_size", "must be in the open interval (0, 1)", testSize)
	}
	nTest = int(math.Ceil(testSize * float64(n)))
	nTrain = n - nTest
	if nTrain <= 0 || nTest <= 0 {
		return 0, 0, errors.NewValueError("TrainTestSplit",
			"with n_samples="+strconv.Itoa(n)+" the resulting train or test set would be empty")
	}
	return nTrain, nTest, nil
}

// TrainTestSplit partitions the rows of d into a training and a test table.
// Every row lands in exactly one partition; rows keep their relative order
// inside each partition.
func TrainTestSplit(d *Dataset, testSize float64, opts ...SplitOption) (train, test *Dataset, err error) {
	cfg := splitConfig{shuffle: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	n := d.Nrow()
	nTrain, _, err := SplitSizes(n, testSize)
	if err != nil {
		return nil, nil, err
	}

	perm := make([]int, n)
	if cfg.shuffle {
		seed := time.Now().UnixNano()
		if cfg.randomState != nil {
			seed = *cfg.randomState
		}
		perm = rand.New(rand.NewSource(seed)).Perm(n)
	} else {
		for i := range perm {
			perm[i] = i
		}
	}

	trainIdx := append([]int(nil), perm[:nTrain]...)
	testIdx := append([]int(nil), perm[nTrain:]...)
	sort.Ints(trainIdx)
	sort.Ints(testIdx)

	if train, err = d.Subset(trainIdx); err != nil {
		return nil, nil, err
	}
	if test, err = d.Subset(testIdx); err != nil {
		return nil, nil, err
	}
	return train, test, nil
}
