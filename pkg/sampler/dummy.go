package sampler

import (
	"context"
	"time"

	"github.com/cuemby/complementor/pkg/types"
)

// DummyCollector returns a constant usage for every host, grounded on
// stat_collector.py's DummyStatCollector.
type DummyCollector struct {
	Value types.Usage
}

// NewDummyCollector builds a DummyCollector reporting a constant,
// non-idle usage for every host.
func NewDummyCollector() *DummyCollector {
	return &DummyCollector{
		Value: types.Usage{
			CPU:      1,
			IOWait:   1,
			DiskRead: 1,
			DiskSent: 1,
			NetRecv:  1,
			NetSent:  1,
		},
	}
}

// Sample returns Value for every host in hosts.
func (d *DummyCollector) Sample(ctx context.Context, hosts []string, window time.Duration) (map[string]types.Usage, error) {
	out := make(map[string]types.Usage, len(hosts))
	for _, host := range hosts {
		out[host] = d.Value
	}
	return out, nil
}
