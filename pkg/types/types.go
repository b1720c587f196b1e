package types

import (
	"math"
	"time"
)

// Node is a machine with a fixed number of container slots.
type Node struct {
	Address    string
	Slot       string
	Capacity   int
	Containers []*Container
}

// NewNode creates an empty node with the given capacity.
func NewNode(address, slot string, capacity int) *Node {
	return &Node{
		Address:  address,
		Slot:     slot,
		Capacity: capacity,
	}
}

// AvailableContainers returns how many more containers the node can hold.
func (n *Node) AvailableContainers() int {
	return n.Capacity - len(n.Containers)
}

// IsEmpty reports whether the node has no containers placed on it.
func (n *Node) IsEmpty() bool {
	return len(n.Containers) == 0
}

// IsFull reports whether the node has no remaining capacity.
func (n *Node) IsFull() bool {
	return len(n.Containers) >= n.Capacity
}

// Container is a single task slot belonging to an Application. A container
// that is IsNegligible (an application master/driver) is never counted
// toward usage-based reward attribution, but still occupies a node slot.
type Container struct {
	Application  *Application
	NodeAddress  string
	IsNegligible bool
}

// IsPlaced reports whether the container has been assigned to a node.
func (c *Container) IsPlaced() bool {
	return c.NodeAddress != ""
}

// Application is one job submission: a set of task containers plus an
// optional master container.
type Application struct {
	Name      string
	ID        string
	DataSet   string
	Slot      string
	Tasks     []*Container
	Master    *Container
	IsRunning bool
	CreatedAt time.Time
	StartedAt time.Time
	FinishedAt time.Time
}

// NewApplication builds an Application with nTasks fresh, unplaced task
// containers and, if withMaster, one negligible master container.
func NewApplication(name string, nTasks int, withMaster bool, dataSet string) *Application {
	app := &Application{
		Name:      name,
		DataSet:   dataSet,
		CreatedAt: time.Now(),
	}
	app.Tasks = make([]*Container, nTasks)
	for i := range app.Tasks {
		app.Tasks[i] = &Container{Application: app}
	}
	if withMaster {
		app.Master = &Container{Application: app, IsNegligible: true}
	}
	return app
}

// Containers returns every container owned by the application, tasks
// first, master last if present.
func (a *Application) Containers() []*Container {
	if a.Master == nil {
		return a.Tasks
	}
	all := make([]*Container, 0, len(a.Tasks)+1)
	all = append(all, a.Tasks...)
	return append(all, a.Master)
}

// NContainers returns the total number of containers the application needs.
func (a *Application) NContainers() int {
	n := len(a.Tasks)
	if a.Master != nil {
		n++
	}
	return n
}

// IsFullyPlaced reports whether every container of the application has a
// node address.
func (a *Application) IsFullyPlaced() bool {
	for _, c := range a.Containers() {
		if !c.IsPlaced() {
			return false
		}
	}
	return true
}

// JobGroup names one complementarity group and the job names that belong
// to it.
type JobGroup struct {
	Name string
	Jobs []string
}

// JobGroupTable is the static job-name -> complementarity-group mapping
// consumed by GroupGradient.
type JobGroupTable struct {
	names   []string
	indexOf map[string]int
}

// NewJobGroupTable builds a table from an ordered list of groups. Group
// index is the position of the group in the slice.
func NewJobGroupTable(groups []JobGroup) *JobGroupTable {
	t := &JobGroupTable{
		names:   make([]string, len(groups)),
		indexOf: make(map[string]int),
	}
	for i, g := range groups {
		t.names[i] = g.Name
		for _, job := range g.Jobs {
			t.indexOf[job] = i
		}
	}
	return t
}

// GroupIndex returns the group index for a job name.
func (t *JobGroupTable) GroupIndex(jobName string) (int, bool) {
	idx, ok := t.indexOf[jobName]
	return idx, ok
}

// GroupName returns the name of the group at idx.
func (t *JobGroupTable) GroupName(idx int) string {
	if idx < 0 || idx >= len(t.names) {
		return ""
	}
	return t.names[idx]
}

// Size returns the number of groups in the table.
func (t *JobGroupTable) Size() int {
	return len(t.names)
}

// Usage is one host's sampled resource utilization over a time window.
type Usage struct {
	CPU      float64
	IOWait   float64
	DiskRead float64
	DiskSent float64
	NetRecv  float64
	NetSent  float64
}

// idleCPUThreshold and idleIOWaitThreshold bound the usage below which a
// host is considered idle.
const (
	idleCPUThreshold    = 0.05
	idleIOWaitThreshold = 0.05
)

// IsNotIdle reports whether the sampled usage indicates the host is doing
// real work, as opposed to background noise.
func (u Usage) IsNotIdle() bool {
	return u.CPU > idleCPUThreshold || u.IOWait > idleIOWaitThreshold
}

// Rate folds a Usage sample into the single scalar reward used by the
// complementarity estimators: CPU utilization dominates, I/O-bound disk and
// network activity contribute less as I/O wait grows.
func (u Usage) Rate() float64 {
	io := math.Tanh(u.DiskRead+u.DiskSent) + math.Tanh(u.NetRecv+u.NetSent)
	return math.Exp(1 + u.CPU + io*math.Exp(-5*u.IOWait))
}

// Queue is the FIFO list of applications waiting to be placed. It carries
// no internal locking: callers (pkg/scheduler) serialize access under their
// own lock, matching the rest of the concurrency model.
type Queue struct {
	items []*Application
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Append adds an application to the back of the queue.
func (q *Queue) Append(app *Application) {
	q.items = append(q.items, app)
}

// Len returns the number of applications waiting.
func (q *Queue) Len() int {
	return len(q.items)
}

// IsEmpty reports whether the queue has no applications waiting.
func (q *Queue) IsEmpty() bool {
	return len(q.items) == 0
}

// PopAt removes and returns the application at index i.
func (q *Queue) PopAt(i int) (*Application, bool) {
	if i < 0 || i >= len(q.items) {
		return nil, false
	}
	app := q.items[i]
	q.items = append(q.items[:i], q.items[i+1:]...)
	return app, true
}

// Prepend puts an application back at the front of the queue, used to
// requeue an application that could not be scheduled this tick.
func (q *Queue) Prepend(app *Application) {
	q.items = append([]*Application{app}, q.items...)
}

// Peek returns up to n applications from the front of the queue without
// removing them, for policies that look ahead of the head (Adaptive,
// GroupAdaptive).
func (q *Queue) Peek(n int) []*Application {
	if n > len(q.items) {
		n = len(q.items)
	}
	out := make([]*Application, n)
	copy(out, q.items[:n])
	return out
}

// Remove deletes app from the queue by identity, wherever it sits, for
// policies that select a candidate out of a peeked window rather than the
// head. Reports whether app was found.
func (q *Queue) Remove(app *Application) bool {
	for i, item := range q.items {
		if item == app {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}
