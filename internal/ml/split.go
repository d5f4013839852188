package ml

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/emiliopalmerini/poisonbench/internal/apperr"
)

// Split holds row indices for the train and validation partitions.
type Split struct {
	Train []int
	Val   []int
}

// TrainTestSplit shuffles row indices with seed and holds out
// ceil(n*testSize) of them.
func TrainTestSplit(n int, testSize float64, seed uint64) (Split, error) {
	nTest, err := testCount(n, testSize)
	if err != nil {
		return Split{}, err
	}
	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	return Split{Train: perm[nTest:], Val: perm[:nTest]}, nil
}

// StratifiedSplit holds out ceil(n*testSize) rows while keeping each class's
// share of the validation partition proportional to its share of y. It fails
// with apperr.ErrStratify when a class has a single member or when either
// partition is too small to hold every class.
func StratifiedSplit(y []int, testSize float64, seed uint64) (Split, error) {
	n := len(y)
	nTest, err := testCount(n, testSize)
	if err != nil {
		return Split{}, err
	}

	byClass := make(map[int][]int)
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}
	classes := make([]int, 0, len(byClass))
	for c, members := range byClass {
		if len(members) < 2 {
			return Split{}, fmt.Errorf("%w: class %d has only %d member", apperr.ErrStratify, c, len(members))
		}
		classes = append(classes, c)
	}
	sort.Ints(classes)

	nTrain := n - nTest
	if nTest < len(classes) || nTrain < len(classes) {
		return Split{}, fmt.Errorf("%w: %d train / %d validation rows cannot hold %d classes",
			apperr.ErrStratify, nTrain, nTest, len(classes))
	}

	alloc := allocate(classes, byClass, n, nTest)

	rng := rand.New(rand.NewPCG(seed, seed))
	var s Split
	for _, c := range classes {
		members := append([]int(nil), byClass[c]...)
		rng.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
		s.Val = append(s.Val, members[:alloc[c]]...)
		s.Train = append(s.Train, members[alloc[c]:]...)
	}
	rng.Shuffle(len(s.Train), func(i, j int) { s.Train[i], s.Train[j] = s.Train[j], s.Train[i] })
	rng.Shuffle(len(s.Val), func(i, j int) { s.Val[i], s.Val[j] = s.Val[j], s.Val[i] })
	return s, nil
}

// allocate distributes nTest validation slots across classes by largest
// remainder, keeping at least one training row per class.
func allocate(classes []int, byClass map[int][]int, n, nTest int) map[int]int {
	type share struct {
		class int
		rem   float64
	}
	alloc := make(map[int]int, len(classes))
	shares := make([]share, 0, len(classes))
	given := 0
	for _, c := range classes {
		exact := float64(len(byClass[c])) * float64(nTest) / float64(n)
		base := int(math.Floor(exact))
		if base > len(byClass[c])-1 {
			base = len(byClass[c]) - 1
		}
		alloc[c] = base
		given += base
		shares = append(shares, share{class: c, rem: exact - float64(base)})
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].rem > shares[j].rem })

	for given < nTest {
		progressed := false
		for _, s := range shares {
			if given == nTest {
				break
			}
			if alloc[s.class] < len(byClass[s.class])-1 {
				alloc[s.class]++
				given++
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return alloc
}

func testCount(n int, testSize float64) (int, error) {
	if testSize <= 0 || testSize >= 1 {
		return 0, apperr.Validation(nil, "test size %v must be in (0, 1)", testSize)
	}
	nTest := int(math.Ceil(float64(n) * testSize))
	if nTest < 1 || n-nTest < 1 {
		return 0, fmt.Errorf("%w: %d rows cannot be split with test size %v", apperr.ErrStratify, n, testSize)
	}
	return nTest, nil
}

// Take selects rows of x and y by index.
func Take(x [][]float64, y []int, idx []int) ([][]float64, []int) {
	xs := make([][]float64, len(idx))
	ys := make([]int, len(idx))
	for i, j := range idx {
		xs[i] = x[j]
		ys[i] = y[j]
	}
	return xs, ys
}
