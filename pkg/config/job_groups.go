package config

import "github.com/cuemby/complementor/pkg/types"

// JobGroups is the static complementarity grouping used by GroupGradient,
// grounded on job_group_data.py's JobGroupData. Group order is significant:
// it fixes the group index the estimator keys its preferences on.
var JobGroups = []types.JobGroup{
	{Name: "WC,KM,LiR", Jobs: []string{"WordCount", "KMeans", "LinearRegression"}},
	{Name: "LoR,SVM", Jobs: []string{"LogisticRegression", "SVM"}},
	{Name: "SWC,PR", Jobs: []string{"SortedWordCount", "PageRank"}},
	{Name: "TPCH", Jobs: []string{"TPCH18"}},
	{Name: "S", Jobs: []string{"Sort"}},
	{Name: "CC", Jobs: []string{"ConnectedComponent"}},
}

// NewJobGroupTable builds the table GroupGradient consults from JobGroups.
func NewJobGroupTable() *types.JobGroupTable {
	return types.NewJobGroupTable(JobGroups)
}

const (
	// Slot1 and Slot2 partition cluster nodes for GroupAdaptive placement.
	Slot1 = "slot1"
	Slot2 = "slot2"
)
