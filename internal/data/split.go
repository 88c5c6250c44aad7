package data

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/Veraticus/textclass/internal/common"
)

// TrainTestSplit partitions v into disjoint train and test views. The test
// view holds round(rows*testFraction) rows chosen by a shuffle seeded with
// seed; both partitions keep the source row order.
func TrainTestSplit(v *View, testFraction float64, seed int64) (train, test *View, err error) {
	if math.IsNaN(testFraction) || testFraction < 0 || testFraction > 1 {
		return nil, nil, fmt.Errorf("%w: test fraction %v is outside [0, 1]", common.ErrInvalidConfig, testFraction)
	}

	n := v.Rows()
	nTest := int(math.Round(float64(n) * testFraction))

	rng := rand.New(rand.NewSource(seed))
	indices := rng.Perm(n)

	testRows := append([]int(nil), indices[:nTest]...)
	trainRows := append([]int(nil), indices[nTest:]...)
	sort.Ints(testRows)
	sort.Ints(trainRows)

	return v.Select(trainRows), v.Select(testRows), nil
}
