package estimator

import (
	"fmt"

	"github.com/cuemby/complementor/pkg/types"
)

// Kind names one of the three estimator variants, used to select an
// implementation from configuration.
type Kind string

const (
	KindEpsilonGreedy Kind = "epsilon_greedy"
	KindGradient      Kind = "gradient"
	KindGroupGradient Kind = "group_gradient"
)

// Options bundles the construction parameters every variant draws from;
// fields unused by a given Kind are ignored.
type Options struct {
	Epsilon        float64
	Alpha          float64
	InitialAverage float64
}

// New constructs an AppEstimator (EpsilonGreedy or Gradient) from kind.
// GroupGradient is constructed separately via NewForGroups, since it
// implements GroupEstimator instead.
func New(kind Kind, appNames []string, opts Options) (AppEstimator, error) {
	switch kind {
	case KindEpsilonGreedy:
		return NewEpsilonGreedy(appNames, opts.InitialAverage, opts.Epsilon), nil
	case KindGradient:
		return NewGradient(appNames, opts.Alpha, opts.InitialAverage), nil
	default:
		return nil, fmt.Errorf("estimator: unsupported app estimator kind %q", kind)
	}
}

// NewForGroups constructs the GroupEstimator for the GroupAdaptive policy.
func NewForGroups(groups *types.JobGroupTable, opts Options) *GroupGradient {
	return NewGroupGradient(groups, opts.Alpha, opts.InitialAverage)
}
