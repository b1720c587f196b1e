package estimator

import (
	"math/rand"
	"os"
	"sync"
)

// EpsilonGreedy learns a |K|x|K| matrix of running-average rates, one cell
// per (app, concurrent app) pair, and picks candidates by an epsilon-greedy
// rule over the expected rate.
type EpsilonGreedy struct {
	mu      sync.Mutex
	space   *indexSpace
	epsilon float64
	average [][]float64
	count   [][]int
	rng     *rand.Rand
}

// NewEpsilonGreedy builds an estimator over appNames, initializing every
// cell to initialAverage (with an implied first observation if
// initialAverage != 0, matching the source's "seed the prior" convention).
func NewEpsilonGreedy(appNames []string, initialAverage, epsilon float64) *EpsilonGreedy {
	space := newIndexSpace(appNames)
	n := space.Size()

	initCount := 0
	if initialAverage != 0 {
		initCount = 1
	}

	average := make([][]float64, n)
	count := make([][]int, n)
	for i := range average {
		average[i] = make([]float64, n)
		count[i] = make([]int, n)
		for j := range average[i] {
			average[i][j] = initialAverage
			count[i][j] = initCount
		}
	}

	return &EpsilonGreedy{
		space:   space,
		epsilon: epsilon,
		average: average,
		count:   count,
		rng:     rand.New(rand.NewSource(rand.Int63())),
	}
}

func (e *EpsilonGreedy) String() string { return "EpsilonGreedy" }

// UpdateApp incrementally folds rate into average[app][c] for every
// concurrent app c, using the standard running-mean update.
func (e *EpsilonGreedy) UpdateApp(app string, concurrentApps []string, rate float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.space.index[app]
	for _, c := range concurrentApps {
		j := e.space.index[c]
		e.count[i][j]++
		e.average[i][j] += (rate - e.average[i][j]) / float64(e.count[i][j])
	}
}

// ExpectedRates returns, for each candidate in candidateApps, the
// weight-summed average rate of running it alongside every app in
// scheduledApps (weights default to 1 per scheduled app).
func (e *EpsilonGreedy) ExpectedRates(scheduledApps, candidateApps []string, weights []float64) []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expectedRatesLocked(scheduledApps, candidateApps, weights)
}

func (e *EpsilonGreedy) expectedRatesLocked(scheduledApps, candidateApps []string, weights []float64) []float64 {
	scheduled := e.space.Indices(scheduledApps)
	candidates := e.space.Indices(candidateApps)

	rates := make([]float64, len(candidates))
	for ci, c := range candidates {
		sum := 0.0
		for si, s := range scheduled {
			v := e.average[s][c]
			if weights != nil {
				v *= weights[si]
			}
			sum += v
		}
		rates[ci] = sum
	}
	return rates
}

// BestAppIndex returns candidate 0 when nothing is scheduled yet; otherwise
// it ranks candidates by expected rate (reversing the candidate order when
// every rate ties, a deliberate exploration heuristic under complete
// ignorance) and applies the epsilon-greedy pick.
func (e *EpsilonGreedy) BestAppIndex(scheduledApps, candidateApps []string, weights []float64) int {
	if len(scheduledApps) == 0 {
		return 0
	}

	e.mu.Lock()
	rates := e.expectedRatesLocked(scheduledApps, candidateApps, weights)
	e.mu.Unlock()

	order := argsortOrReverse(rates)
	return e.greedy(order)
}

// BestNodeIndex ranks nodeApps by expected rate for candidateApp and
// applies the same epsilon-greedy pick over node addresses.
func (e *EpsilonGreedy) BestNodeIndex(nodeApps map[string][]string, candidateApp string) string {
	addrs := sortedNodeAddresses(nodeApps)

	e.mu.Lock()
	rates := make([]float64, len(addrs))
	for i, addr := range addrs {
		rates[i] = e.expectedRatesLocked(nodeApps[addr], []string{candidateApp}, nil)[0]
	}
	e.mu.Unlock()

	order := argsortOrReverse(rates)
	return addrs[e.greedy(order)]
}

// argsortOrReverse returns the ascending-sort permutation of values, unless
// every value is equal, in which case it returns the reversed identity
// permutation - the tie-break the estimator uses under complete ignorance.
func argsortOrReverse(values []float64) []int {
	allEqual := true
	for _, v := range values {
		if v != values[0] {
			allEqual = false
			break
		}
	}

	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}

	if allEqual {
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
		return order
	}

	// stable ascending argsort
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && values[order[j-1]] > values[order[j]]; j-- {
			order[j-1], order[j] = order[j], order[j-1]
		}
	}
	return order
}

// greedy picks the last (highest-rate) item with probability 1-epsilon, and
// a uniformly random item excluding the last one with probability epsilon.
func (e *EpsilonGreedy) greedy(items []int) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rng.Float64() < e.epsilon && len(items) > 1 {
		return items[e.rng.Intn(len(items)-1)]
	}
	return items[len(items)-1]
}

func (e *EpsilonGreedy) Save(folder string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := os.MkdirAll(folder, 0o755); err != nil {
		return err
	}
	if err := writeMatrix(folder, "average", e.average); err != nil {
		return err
	}
	if err := writeMatrix(folder, "ucount", intMatrixToFloats(e.count)); err != nil {
		return err
	}
	return writeAxes(folder, e.space.names)
}

func (e *EpsilonGreedy) Load(folder string) error {
	average, err := readMatrix(folder, "average")
	if err != nil {
		return err
	}
	count, err := readMatrix(folder, "ucount")
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.average = average
	e.count = floatMatrixToInts(count)
	return nil
}
