package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ResourceManagerConfig selects and parameterizes the resource-manager
// client: type "yarn" talks to a real RM over HTTP, type "dummy" uses an
// in-memory stand-in for local runs and tests.
type ResourceManagerConfig struct {
	Type   string                 `yaml:"type"`
	Kwargs map[string]interface{} `yaml:"kwargs"`
}

// StatCollectorConfig selects and parameterizes the usage sampler: type
// "influxdb" queries a real metrics store, type "dummy" reports constant
// usage.
type StatCollectorConfig struct {
	Type   string                 `yaml:"type"`
	Kwargs map[string]interface{} `yaml:"kwargs"`
}

// ServerConfig carries the per-resource sampling maxima passed to the
// influxdb sampler. Containers is parsed but not read anywhere: node
// capacity always comes from the resource manager.
type ServerConfig struct {
	DiskMax      float64 `yaml:"disk_max"`
	NetMax       float64 `yaml:"net_max"`
	DiskName     string  `yaml:"disk_name"`
	NetInterface string  `yaml:"net_interface"`
	Containers   int     `yaml:"containers,omitempty"`
}

// SchedulerConfig selects the placement policy and its tunables.
type SchedulerConfig struct {
	Policy      string `yaml:"policy"`       // round_robin, random, adaptive, group_adaptive
	JobsToPeek  int    `yaml:"jobs_to_peek"` // Adaptive/GroupAdaptive peek window
	Stride      int    `yaml:"stride"`       // containers placed per node per pass
}

// EstimatorConfig selects the complementarity estimator and its tunables.
// Alpha applies to the Gradient/GroupGradient variants, Epsilon to
// EpsilonGreedy, and InitialAverage to all three.
type EstimatorConfig struct {
	Type           string  `yaml:"type"` // epsilon_greedy, gradient, group_gradient
	Epsilon        float64 `yaml:"epsilon,omitempty"`
	Alpha          float64 `yaml:"alpha,omitempty"`
	InitialAverage float64 `yaml:"initial_average,omitempty"`
}

// NodeConfig declares one cluster node and the slot partition it belongs
// to, per spec's S1/S2 GroupAdaptive scenario.
type NodeConfig struct {
	Address  string `yaml:"address"`
	Capacity int    `yaml:"capacity,omitempty"`
	Slot     string `yaml:"slot,omitempty"`
}

// Config is the top-level cluster configuration document.
type Config struct {
	ResourceManager ResourceManagerConfig `yaml:"resource_manager"`
	StatCollector   StatCollectorConfig   `yaml:"stat_collector"`
	Server          ServerConfig          `yaml:"server"`
	Scheduler       SchedulerConfig       `yaml:"scheduler"`
	Estimator       EstimatorConfig       `yaml:"estimator"`
	Nodes           []NodeConfig          `yaml:"nodes,omitempty"`
}

// Load reads and parses a cluster config document from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Scheduler.JobsToPeek == 0 {
		c.Scheduler.JobsToPeek = 5
	}
	if c.Scheduler.Stride == 0 {
		c.Scheduler.Stride = 3
	}
	if c.Scheduler.Policy == "" {
		c.Scheduler.Policy = "round_robin"
	}
	if c.Estimator.Type == "" {
		c.Estimator.Type = "epsilon_greedy"
	}
}

// SlotIndex builds the node-address -> slot label mapping declared in the
// Nodes section, for slot-aware GroupAdaptive placement.
func (c *Config) SlotIndex() map[string]string {
	idx := make(map[string]string, len(c.Nodes))
	for _, n := range c.Nodes {
		if n.Slot != "" {
			idx[n.Address] = n.Slot
		}
	}
	return idx
}
