package resourcemanager

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/complementor/pkg/log"
	"github.com/cuemby/complementor/pkg/metrics"
)

// runningStates and finishedStates classify the YARN-like application
// states is_application_running/is_application_finished key off.
var runningStates = map[string]bool{
	"RUNNING": true,
}

var finishedStates = map[string]bool{
	"FINISHED": true,
	"FAILED":   true,
	"KILLED":   true,
}

type clusterInfoResponse struct {
	ClusterInfo struct {
		StartedOn int64 `json:"startedOn"`
	} `json:"clusterInfo"`
}

type clusterNodesResponse struct {
	Nodes struct {
		Node []struct {
			NodeHostName          string `json:"nodeHostName"`
			AvailableVirtualCores int    `json:"availableVirtualCores"`
		} `json:"node"`
	} `json:"nodes"`
}

type clusterAppResponse struct {
	App struct {
		State string `json:"state"`
	} `json:"app"`
}

// Client is a ResourceManager backed by a YARN-like REST API, serializing
// run-state queries behind mu per the resource manager's stated concurrency
// contract.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger

	mu       sync.Mutex
	epoch    int64
	nextSeq  int
	hasEpoch bool
}

// NewClient constructs a Client against baseURL (e.g.
// "http://resourcemanager:8088"). It does not contact the server; epoch
// discovery happens lazily on the first NextApplicationID call.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: log.WithComponent("resourcemanager"),
	}
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	timer := metrics.NewTimer()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("resourcemanager: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	timer.ObserveDurationVec(metrics.ResourceManagerRequestDuration, path)
	if err != nil {
		metrics.ResourceManagerRequestFailures.WithLabelValues(path).Inc()
		return fmt.Errorf("resourcemanager: request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ResourceManagerRequestFailures.WithLabelValues(path).Inc()
		return fmt.Errorf("resourcemanager: %s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.ResourceManagerRequestFailures.WithLabelValues(path).Inc()
		return fmt.Errorf("resourcemanager: decode %s: %w", path, err)
	}
	return nil
}

// Nodes enumerates the cluster's nodes and their available container slots.
func (c *Client) Nodes(ctx context.Context) (map[string]int, error) {
	var resp clusterNodesResponse
	if err := c.get(ctx, "/ws/v1/cluster/nodes", &resp); err != nil {
		return nil, err
	}

	nodes := make(map[string]int, len(resp.Nodes.Node))
	for _, n := range resp.Nodes.Node {
		nodes[n.NodeHostName] = n.AvailableVirtualCores
	}
	return nodes, nil
}

// NextApplicationID allocates a fresh id formatted
// application_<cluster_epoch>_<4-digit-sequence>.
func (c *Client) NextApplicationID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasEpoch {
		var info clusterInfoResponse
		if err := c.get(ctx, "/ws/v1/cluster/info", &info); err != nil {
			return "", err
		}
		c.epoch = info.ClusterInfo.StartedOn
		c.hasEpoch = true
	}

	c.nextSeq++
	return fmt.Sprintf("application_%d_%04d", c.epoch, c.nextSeq), nil
}

// IsApplicationRunning reports whether id is in the RUNNING state.
// Transport errors are swallowed: the caller retries on its next tick.
func (c *Client) IsApplicationRunning(ctx context.Context, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, err := c.applicationState(ctx, id)
	if err != nil {
		c.logger.Debug().Err(err).Str("application_id", id).Msg("is_application_running query failed")
		return false
	}
	return runningStates[state]
}

// IsApplicationFinished reports whether id has reached a terminal state.
// Transport errors are swallowed: the caller retries on its next tick.
func (c *Client) IsApplicationFinished(ctx context.Context, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, err := c.applicationState(ctx, id)
	if err != nil {
		c.logger.Debug().Err(err).Str("application_id", id).Msg("is_application_finished query failed")
		return false
	}
	return finishedStates[state]
}

func (c *Client) applicationState(ctx context.Context, id string) (string, error) {
	var resp clusterAppResponse
	if err := c.get(ctx, "/ws/v1/cluster/apps/"+id, &resp); err != nil {
		return "", err
	}
	return resp.App.State, nil
}
