/*
Package estimator implements the online complementarity estimators: bandit-style
learners over the pairwise job-name (or job-group) space that feed the
scheduling loop's placement decisions.

Three variants are provided, all grounded on the same update/selection
contract (Estimator):

  - EpsilonGreedy: a |K|x|K| running-average matrix with epsilon-greedy
    candidate selection.
  - Gradient: a softmax-preference (policy-gradient) learner over the same
    index space.
  - GroupGradient: identical math to Gradient, restricted to the smaller
    job-group index space, with a two-index selection result and a documented
    abstention case.

All three persist their state as flat TSV matrices plus a shared axis file,
so a human (or a text editor) can inspect learned preferences without a
NumPy-style tensor library.
*/
package estimator
