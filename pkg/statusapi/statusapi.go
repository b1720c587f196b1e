package statusapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cuemby/complementor/pkg/cluster"
	"github.com/cuemby/complementor/pkg/metrics"
	"github.com/cuemby/complementor/pkg/types"
)

// NodeSnapshot is one node's occupancy at snapshot time.
type NodeSnapshot struct {
	Address    string `json:"address"`
	Slot       string `json:"slot,omitempty"`
	Capacity   int    `json:"capacity"`
	Used       int    `json:"used"`
	Applications []string `json:"applications"`
}

// ApplicationSnapshot is one running application's placement weight.
type ApplicationSnapshot struct {
	Name   string `json:"name"`
	ID     string `json:"id"`
	Slot   string `json:"slot,omitempty"`
	Weight int    `json:"weight"`
}

// StatusResponse is the /status payload: cluster occupancy, running
// applications, and queue depth.
type StatusResponse struct {
	Timestamp    time.Time             `json:"timestamp"`
	Nodes        []NodeSnapshot        `json:"nodes"`
	Applications []ApplicationSnapshot `json:"applications"`
	QueueDepth   int                   `json:"queue_depth"`
}

// Server serves the status introspection endpoints over a *cluster.Cluster
// and *types.Queue.
type Server struct {
	cluster *cluster.Cluster
	queue   *types.Queue
	mux     *http.ServeMux
}

// NewServer builds a Server wired to c and queue, serving health and
// readiness off checker.
func NewServer(c *cluster.Cluster, queue *types.Queue, checker *metrics.Checker) *Server {
	s := &Server{cluster: c, queue: queue, mux: http.NewServeMux()}

	s.mux.HandleFunc("/status", s.statusHandler)
	s.mux.HandleFunc("/health", checker.HealthHandler())
	s.mux.HandleFunc("/ready", checker.ReadyHandler())
	s.mux.HandleFunc("/live", checker.LivenessHandler())
	s.mux.Handle("/metrics", metrics.Handler())

	return s
}

// ListenAndServe starts the HTTP server on addr. Blocks until the server
// stops or errors.
func (s *Server) ListenAndServe(addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server.ListenAndServe()
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := StatusResponse{
		Timestamp: time.Now(),
		Nodes:     s.nodeSnapshots(),
	}
	apps, weights := s.cluster.Applications(true)
	resp.Applications = make([]ApplicationSnapshot, 0, len(apps))
	for i, app := range apps {
		resp.Applications = append(resp.Applications, ApplicationSnapshot{
			Name:   app.Name,
			ID:     app.ID,
			Slot:   app.Slot,
			Weight: weights[i],
		})
	}
	if s.queue != nil {
		resp.QueueDepth = s.queue.Len()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) nodeSnapshots() []NodeSnapshot {
	nodes := s.cluster.AllNodes()
	snaps := make([]NodeSnapshot, 0, len(nodes))
	for _, n := range nodes {
		names := make([]string, 0, len(n.Containers))
		seen := make(map[string]bool)
		for _, c := range n.Containers {
			if c.Application == nil || seen[c.Application.Name] {
				continue
			}
			seen[c.Application.Name] = true
			names = append(names, c.Application.Name)
		}
		snaps = append(snaps, NodeSnapshot{
			Address:      n.Address,
			Slot:         n.Slot,
			Capacity:     n.Capacity,
			Used:         len(n.Containers),
			Applications: names,
		})
	}
	return snaps
}
