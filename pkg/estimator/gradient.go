package estimator

import (
	"math"
	"math/rand"
	"os"
	"sync"
)

// Gradient is a softmax-preference (policy-gradient) complementarity
// estimator: it maintains a per-app running-average reward and a
// |K|x|K| preference matrix H updated in the direction of whichever
// concurrent apps produced an above-average rate.
type Gradient struct {
	mu          sync.Mutex
	space       *indexSpace
	alpha       float64
	average     []float64
	count       []int
	preferences [][]float64
	rng         *rand.Rand
}

// NewGradient builds a Gradient estimator over appNames.
func NewGradient(appNames []string, alpha, initialAverage float64) *Gradient {
	space := newIndexSpace(appNames)
	n := space.Size()

	initCount := 0
	if initialAverage != 0 {
		initCount = 1
	}

	average := make([]float64, n)
	count := make([]int, n)
	preferences := make([][]float64, n)
	for i := range average {
		average[i] = initialAverage
		count[i] = initCount
		preferences[i] = make([]float64, n)
	}

	return &Gradient{
		space:       space,
		alpha:       alpha,
		average:     average,
		count:       count,
		preferences: preferences,
		rng:         rand.New(rand.NewSource(rand.Int63())),
	}
}

func (g *Gradient) String() string { return "Gradient" }

// UpdateApp folds one observation into the running average for app and
// nudges the preference row for app toward the concurrent apps, away from
// every other app, scaled by how far rate was from the running average.
func (g *Gradient) UpdateApp(app string, concurrentApps []string, rate float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.space.index[app]
	concurrent := uniqueSorted(g.space.Indices(concurrentApps))
	other := complement(g.space.Size(), concurrent)

	constant := g.alpha * (rate - g.average[i])

	g.count[i]++
	g.average[i] += (rate - g.average[i]) / float64(g.count[i])

	apConcurrent := softmaxRow(g.preferences[i], concurrent)
	apOther := softmaxRow(g.preferences[i], other)

	for k, c := range concurrent {
		g.preferences[i][c] += constant * (1 - apConcurrent[k])
	}
	for k, o := range other {
		g.preferences[i][o] -= constant * apOther[k]
	}
}

// softmaxRow returns exp(row[c])/sum(exp(row)) for each c in cols - a
// row-softmax restricted to a subset of columns.
func softmaxRow(row []float64, cols []int) []float64 {
	sum := 0.0
	exp := make([]float64, len(row))
	for k, v := range row {
		exp[k] = math.Exp(v)
		sum += exp[k]
	}

	out := make([]float64, len(cols))
	for i, c := range cols {
		out[i] = exp[c] / sum
	}
	return out
}

// softmaxRows applies softmaxRow independently to each of rowIndices,
// restricted to colIndices; used where the source aggregates over several
// scheduled apps at once.
func softmaxRows(preferences [][]float64, rowIndices, colIndices []int) [][]float64 {
	out := make([][]float64, len(rowIndices))
	for i, r := range rowIndices {
		out[i] = softmaxRow(preferences[r], colIndices)
	}
	return out
}

// NormalizedActionProbabilities sums the per-row softmax (optionally
// weighted per row) over apps, restricted to the candidates in
// appsToSchedule, and renormalizes to a probability distribution.
func (g *Gradient) NormalizedActionProbabilities(apps, appsToSchedule []string, weights []float64) []float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.normalizedActionProbabilitiesLocked(g.space.Indices(apps), g.space.Indices(appsToSchedule), weights)
}

func (g *Gradient) normalizedActionProbabilitiesLocked(rows, cols []int, weights []float64) []float64 {
	p := softmaxRows(g.preferences, rows, cols)

	summed := make([]float64, len(cols))
	for ri, row := range p {
		w := 1.0
		if weights != nil {
			w = weights[ri]
		}
		for ci, v := range row {
			summed[ci] += v * w
		}
	}

	total := 0.0
	for _, v := range summed {
		total += v
	}
	for i := range summed {
		summed[i] /= total
	}
	return summed
}

// BestAppIndex samples uniformly when nothing is scheduled yet; otherwise
// it samples a candidate proportional to its normalized action probability.
func (g *Gradient) BestAppIndex(scheduledApps, candidateApps []string, weights []float64) int {
	if len(scheduledApps) == 0 {
		g.mu.Lock()
		defer g.mu.Unlock()
		return g.rng.Intn(len(candidateApps))
	}

	p := g.NormalizedActionProbabilities(scheduledApps, candidateApps, weights)
	return g.choose(p)
}

// choose samples an index from p, a probability distribution.
func (g *Gradient) choose(p []float64) int {
	g.mu.Lock()
	r := g.rng.Float64()
	g.mu.Unlock()

	cum := 0.0
	for i, v := range p {
		cum += v
		if r < cum {
			return i
		}
	}
	return len(p) - 1
}

// BestNodeIndex samples a node address proportional to how well
// candidateApp's rate distribution matches each node's current occupants.
// Callers are expected to have already filtered out empty and full nodes,
// since an empty occupant list makes the underlying probability undefined.
func (g *Gradient) BestNodeIndex(nodeApps map[string][]string, candidateApp string) string {
	addrs := sortedNodeAddresses(nodeApps)

	p := make([]float64, len(addrs))
	for i, addr := range addrs {
		probs := g.NormalizedActionProbabilities(nodeApps[addr], []string{candidateApp}, nil)
		p[i] = probs[0]
	}

	total := 0.0
	for _, v := range p {
		total += v
	}
	for i := range p {
		p[i] /= total
	}

	return addrs[g.choose(p)]
}

func (g *Gradient) Save(folder string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := os.MkdirAll(folder, 0o755); err != nil {
		return err
	}
	if err := writeVector(folder, "average", g.average); err != nil {
		return err
	}
	if err := writeVector(folder, "ucount", intsToFloats(g.count)); err != nil {
		return err
	}
	if err := writeMatrix(folder, "preferences", g.preferences); err != nil {
		return err
	}
	return writeAxes(folder, g.space.names)
}

func (g *Gradient) Load(folder string) error {
	average, err := readVector(folder, "average")
	if err != nil {
		return err
	}
	count, err := readVector(folder, "ucount")
	if err != nil {
		return err
	}
	preferences, err := readMatrix(folder, "preferences")
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.average = average
	g.count = floatsToInts(count)
	g.preferences = preferences
	return nil
}
