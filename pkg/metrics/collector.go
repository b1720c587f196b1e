package metrics

import (
	"time"

	"github.com/cuemby/complementor/pkg/cluster"
	"github.com/cuemby/complementor/pkg/types"
)

// Collector periodically snapshots cluster and queue state into the
// Prometheus gauges, since those describe current state rather than
// discrete events the scheduler can observe as they happen.
type Collector struct {
	cluster *cluster.Cluster
	queue   *types.Queue
	stopCh  chan struct{}
}

// NewCollector creates a new metrics collector.
func NewCollector(c *cluster.Cluster, queue *types.Queue) *Collector {
	return &Collector{
		cluster: c,
		queue:   queue,
		stopCh:  make(chan struct{}),
	}
}

// Start begins collecting metrics every 15 seconds.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectNodeMetrics()
	c.collectApplicationMetrics()
	c.collectQueueMetrics()
}

func (c *Collector) collectNodeMetrics() {
	var empty, partial, full int
	for _, node := range c.cluster.AllNodes() {
		switch {
		case node.IsEmpty():
			empty++
		case node.IsFull():
			full++
		default:
			partial++
		}
	}
	NodesTotal.WithLabelValues("empty").Set(float64(empty))
	NodesTotal.WithLabelValues("partial").Set(float64(partial))
	NodesTotal.WithLabelValues("full").Set(float64(full))

	ContainersAvailable.Set(float64(c.cluster.AvailableContainers()))
}

func (c *Collector) collectApplicationMetrics() {
	apps, _ := c.cluster.Applications(true)
	ApplicationsTotal.WithLabelValues("running").Set(float64(len(apps)))
}

func (c *Collector) collectQueueMetrics() {
	if c.queue == nil {
		return
	}
	QueueDepth.Set(float64(c.queue.Len()))
}
