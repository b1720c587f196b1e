package sampler

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/complementor/pkg/log"
	"github.com/cuemby/complementor/pkg/metrics"
	"github.com/cuemby/complementor/pkg/types"
)

// Sampler samples every Usage field per host over a window by fanning out
// one Query per field.
type Sampler struct {
	queries map[string]Query
	logger  zerolog.Logger
}

// NewSampler builds a Sampler against a metrics store at baseURL. diskMax
// and netMax clamp the disk and network fields respectively; zero disables
// clamping for that family.
func NewSampler(baseURL string, diskMax, netMax float64) *Sampler {
	client := &http.Client{Timeout: 15 * time.Second}
	logger := log.WithComponent("sampler")

	return &Sampler{
		logger: logger,
		queries: map[string]Query{
			"cpu":       newHTTPQuery("cpu", baseURL, 0, client, logger),
			"iowait":    newHTTPQuery("iowait", baseURL, 0, client, logger),
			"disk_read": newHTTPQuery("disk_read", baseURL, diskMax, client, logger),
			"disk_sent": newHTTPQuery("disk_sent", baseURL, diskMax, client, logger),
			"net_recv":  newHTTPQuery("net_recv", baseURL, netMax, client, logger),
			"net_sent":  newHTTPQuery("net_sent", baseURL, netMax, client, logger),
		},
	}
}

// Sample returns each host's mean usage over window. Hosts absent from a
// given query's result get a zero value for that field.
func (s *Sampler) Sample(ctx context.Context, hosts []string, window time.Duration) (map[string]types.Usage, error) {
	results := make(map[string]map[string]float64, len(s.queries))
	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error

	for name, q := range s.queries {
		wg.Add(1)
		go func(name string, q Query) {
			defer wg.Done()

			timer := metrics.NewTimer()
			values, err := q.Fetch(ctx, hosts, window)
			timer.ObserveDurationVec(metrics.SamplerQueryDuration, name)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				metrics.SamplerQueryFailures.WithLabelValues(name).Inc()
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			results[name] = values
		}(name, q)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, fmt.Errorf("sampler: %w", firstErr)
	}

	usage := make(map[string]types.Usage, len(hosts))
	for _, host := range hosts {
		usage[host] = types.Usage{
			CPU:      results["cpu"][host],
			IOWait:   results["iowait"][host],
			DiskRead: results["disk_read"][host],
			DiskSent: results["disk_sent"][host],
			NetRecv:  results["net_recv"][host],
			NetSent:  results["net_sent"][host],
		}
	}
	return usage, nil
}
