package classifier

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// StratifiedSplit partitions row indices into train and test sets so that
// each label keeps roughly its share in both. The test set holds
// ceil(testFraction * n) rows; every label needs at least two rows and keeps
// at least one on each side. The same seed always yields the same split.
func StratifiedSplit(labels []int, testFraction float64, seed int64) (train, test []int, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("test fraction must be in (0,1), got %v", testFraction)
	}

	byLabel := make(map[int][]int)
	for i, label := range labels {
		byLabel[label] = append(byLabel[label], i)
	}
	classes := make([]int, 0, len(byLabel))
	for label, rows := range byLabel {
		if len(rows) < 2 {
			return nil, nil, fmt.Errorf("label %d has %d row(s); stratified split needs at least 2", label, len(rows))
		}
		classes = append(classes, label)
	}
	sort.Ints(classes)

	n := len(labels)
	nTest := int(math.Ceil(testFraction * float64(n)))
	alloc := allocate(classes, byLabel, n, nTest)

	rng := rand.New(rand.NewSource(seed))
	for _, label := range classes {
		rows := append([]int(nil), byLabel[label]...)
		rng.Shuffle(len(rows), func(a, b int) { rows[a], rows[b] = rows[b], rows[a] })
		test = append(test, rows[:alloc[label]]...)
		train = append(train, rows[alloc[label]:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}

// allocate distributes nTest test rows across classes proportionally using
// largest remainders, then clamps each class to [1, size-1].
func allocate(classes []int, byLabel map[int][]int, n, nTest int) map[int]int {
	type share struct {
		label int
		rest  float64
	}
	alloc := make(map[int]int, len(classes))
	shares := make([]share, 0, len(classes))
	assigned := 0
	for _, label := range classes {
		exact := float64(nTest) * float64(len(byLabel[label])) / float64(n)
		alloc[label] = int(math.Floor(exact))
		assigned += alloc[label]
		shares = append(shares, share{label: label, rest: exact - math.Floor(exact)})
	}
	sort.SliceStable(shares, func(a, b int) bool { return shares[a].rest > shares[b].rest })
	for i := 0; assigned < nTest && i < len(shares); i++ {
		alloc[shares[i].label]++
		assigned++
	}

	for _, label := range classes {
		size := len(byLabel[label])
		if alloc[label] < 1 {
			alloc[label] = 1
		}
		if alloc[label] > size-1 {
			alloc[label] = size - 1
		}
	}
	return alloc
}
