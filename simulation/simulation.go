package simulation

import (
	"fmt"
	"sync"

	"github.com/skylab-sim/skymesh/controller"
	"github.com/skylab-sim/skymesh/datarecording"
	"github.com/skylab-sim/skymesh/monitoring"
	"github.com/skylab-sim/skymesh/sim"
)

// A Fault records the abnormal termination of one node's run loop.
type Fault struct {
	Node   sim.NodeID
	Reason string
}

// handle tracks one node's execution unit. done closes exactly once,
// whether the run loop returns or panics.
type handle struct {
	id   sim.NodeID
	done chan struct{}
}

// A Simulation owns the built network: the runnable nodes, the
// controller, the optional monitor, and the optional data recorder. It
// starts every node in its own goroutine and joins each of them
// independently, so the failure of one node never wedges the shutdown
// of the rest.
type Simulation struct {
	id         string
	nodes      []sim.Node
	controller *controller.Controller
	monitor    *monitoring.Monitor
	recorder   datarecording.DataRecorder

	handles  map[sim.NodeID]*handle
	ctrlDone chan struct{}

	mu      sync.Mutex
	started bool
	faults  []Fault

	closeOnce sync.Once
}

// ID returns the unique id of this run.
func (s *Simulation) ID() string {
	return s.id
}

// Controller returns the supervisory controller.
func (s *Simulation) Controller() *controller.Controller {
	return s.controller
}

// Monitor returns the web monitor, or nil when monitoring is disabled.
func (s *Simulation) Monitor() *monitoring.Monitor {
	return s.monitor
}

// Start launches the controller, one goroutine per node, and the
// monitoring server if one is configured, then publishes the initial
// topology snapshot. It returns once everything is running.
func (s *Simulation) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("simulation %s already started", s.id)
	}
	s.started = true
	s.mu.Unlock()

	s.ctrlDone = make(chan struct{})
	go func() {
		defer close(s.ctrlDone)
		s.controller.Run()
	}()

	s.handles = make(map[sim.NodeID]*handle, len(s.nodes))
	for _, n := range s.nodes {
		h := &handle{id: n.ID(), done: make(chan struct{})}
		s.handles[h.id] = h
		go s.runNode(n, h)
	}

	if s.monitor != nil {
		s.monitor.StartServer()
	}

	s.controller.PublishSnapshot()

	return nil
}

// runNode executes one node's run loop. A panic is converted into a
// recorded fault and a crash event instead of taking the process down.
func (s *Simulation) runNode(n sim.Node, h *handle) {
	defer close(h.done)
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		reason := fmt.Sprintf("panic: %v", r)

		s.mu.Lock()
		s.faults = append(s.faults, Fault{Node: h.id, Reason: reason})
		s.mu.Unlock()

		s.controller.ReportFault(h.id, reason)
	}()

	n.Run()
}

// Join blocks until the given node's run loop has returned. Joining one
// node never waits on any other node.
func (s *Simulation) Join(id sim.NodeID) error {
	s.mu.Lock()
	h, ok := s.handles[id]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", controller.ErrUnknownNode, id)
	}

	<-h.done

	return nil
}

// Faults returns the abnormal terminations recorded so far.
func (s *Simulation) Faults() []Fault {
	s.mu.Lock()
	defer s.mu.Unlock()

	faults := make([]Fault, len(s.faults))
	copy(faults, s.faults)
	return faults
}

// Shutdown commands every node to stop, joins each execution unit
// independently, stops the controller and the monitor, and flushes the
// data recorder. Safe to call more than once; later calls are no-ops.
func (s *Simulation) Shutdown() {
	s.closeOnce.Do(s.shutdown)
}

func (s *Simulation) shutdown() {
	directory := s.controller.Directory()
	for _, id := range directory.IDs() {
		e, err := directory.Entry(id)
		if err != nil {
			continue
		}
		e.Commands.Send(sim.Crash{})
	}

	for _, h := range s.handles {
		<-h.done
	}

	s.controller.Stop()
	if s.ctrlDone != nil {
		<-s.ctrlDone
	}

	if s.monitor != nil {
		s.monitor.StopServer()
	}

	if s.recorder != nil {
		s.recorder.Close()
	}
}
