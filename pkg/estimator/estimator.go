package estimator

import "sort"

// Estimator is the behavior shared by every complementarity estimator
// variant: incorporate one observation, and persist/restore state.
type Estimator interface {
	// UpdateApp incorporates one observation: app was running alongside
	// every element of concurrentApps when rate was observed.
	UpdateApp(app string, concurrentApps []string, rate float64)

	// Save persists the estimator's matrices to folder.
	Save(folder string) error

	// Load restores the estimator's matrices from folder.
	Load(folder string) error

	// String returns the estimator's kind, e.g. for logging.
	String() string
}

// AppEstimator is implemented by estimators that select a single best
// candidate index: EpsilonGreedy and Gradient.
type AppEstimator interface {
	Estimator

	// BestAppIndex picks which of candidateApps to schedule next, given the
	// set of already-scheduled apps it would run alongside (and an optional
	// per-scheduled-app weight, defaulting to 1).
	BestAppIndex(scheduledApps, candidateApps []string, weights []float64) int

	// BestNodeIndex picks a node address to co-locate candidateApp on,
	// given nodeApps mapping each candidate node's address to the apps
	// already placed there. Callers are expected to have already filtered
	// out empty and full nodes.
	BestNodeIndex(nodeApps map[string][]string, candidateApp string) string
}

// GroupEstimator is implemented by GroupGradient. It selects a pair of
// group indices: the group to schedule next, and the already-running group
// to prefer co-locating it with. It may abstain, returning (-1, -1).
type GroupEstimator interface {
	Estimator

	BestAppIndex(scheduledApps, candidateApps []string, weights []float64) (scheduleGroup, coLocateGroup int)
}

// indexSpace is the stable, sorted job-name -> index assignment shared by
// EpsilonGreedy and Gradient. Construction order matches
// ComplementarityEstimation's "stable sort of job names" invariant.
type indexSpace struct {
	names []string
	index map[string]int
}

func newIndexSpace(appNames []string) *indexSpace {
	sorted := append([]string(nil), appNames...)
	sort.Strings(sorted)

	idx := make(map[string]int, len(sorted))
	for i, name := range sorted {
		idx[name] = i
	}
	return &indexSpace{names: sorted, index: idx}
}

func (s *indexSpace) Size() int { return len(s.names) }

func (s *indexSpace) Indices(appNames []string) []int {
	out := make([]int, len(appNames))
	for i, name := range appNames {
		out[i] = s.index[name]
	}
	return out
}

// sortedNodeAddresses returns the keys of nodeApps in a stable order so
// node selection is reproducible given the same random seed.
func sortedNodeAddresses(nodeApps map[string][]string) []string {
	addrs := make([]string, 0, len(nodeApps))
	for addr := range nodeApps {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}

// uniqueSorted returns the distinct values of xs in ascending order.
func uniqueSorted(xs []int) []int {
	seen := make(map[int]bool, len(xs))
	out := make([]int, 0, len(xs))
	for _, x := range xs {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	sort.Ints(out)
	return out
}

// complement returns the values in [0, n) that are not present in exclude.
func complement(n int, exclude []int) []int {
	excl := make(map[int]bool, len(exclude))
	for _, x := range exclude {
		excl[x] = true
	}
	out := make([]int, 0, n-len(excl))
	for i := 0; i < n; i++ {
		if !excl[i] {
			out = append(out, i)
		}
	}
	return out
}
