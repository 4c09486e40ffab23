// Package monitoring turns a running network into a web server, serving
// a live topology view and accepting control commands over HTTP.
package monitoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"

	"github.com/skylab-sim/skymesh/controller"
	"github.com/skylab-sim/skymesh/monitoring/web"
	"github.com/skylab-sim/skymesh/sim"
)

// Monitor exposes the controller over HTTP and streams the event feed
// to connected browsers.
type Monitor struct {
	controller  *controller.Controller
	portNumber  int
	openBrowser bool

	listener net.Listener

	subscribersLock sync.Mutex
	subscribers     map[chan []byte]struct{}
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		subscribers: make(map[chan []byte]struct{}),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowserLaunch makes StartServer open the monitor page in the
// system browser.
func (m *Monitor) WithBrowserLaunch() *Monitor {
	m.openBrowser = true
	return m
}

// RegisterController registers the controller the monitor speaks to.
func (m *Monitor) RegisterController(c *controller.Controller) {
	m.controller = c
}

// StartServer starts the monitor as a web server with a custom port if
// wanted. It takes the controller's event feed; a monitor and any other
// feed consumer are mutually exclusive.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()

	r.HandleFunc("/api/topology", m.topology)
	r.HandleFunc("/api/events", m.streamEvents)
	r.HandleFunc("/api/node/{id}/crash", m.crashNode).Methods(http.MethodPost)
	r.HandleFunc("/api/node/{id}/drop_rate", m.setDropRate).
		Methods(http.MethodPost)
	r.HandleFunc("/api/edge/{a}/{b}", m.addEdge).Methods(http.MethodPost)
	r.HandleFunc("/api/edge/{a}/{b}", m.removeEdge).Methods(http.MethodDelete)
	r.HandleFunc("/api/resource", m.listResources)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)
	m.listener = listener

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring network with %s\n", url)

	go m.pumpFeed(m.controller.Feed())

	go func() {
		serveErr := http.Serve(listener, r)
		if errors.Is(serveErr, net.ErrClosed) {
			// StopServer closed the listener.
			return
		}
		dieOnErr(serveErr)
	}()

	if m.openBrowser {
		err = browser.OpenURL(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %s\n", err)
		}
	}
}

// StopServer closes the listening socket. In-flight event streams end
// when their clients disconnect.
func (m *Monitor) StopServer() {
	if m.listener == nil {
		return
	}

	l := m.listener
	m.listener = nil
	_ = l.Close()
}

// Port returns the port the server is listening on, or 0 before
// StartServer.
func (m *Monitor) Port() int {
	if m.listener == nil {
		return 0
	}
	return m.listener.Addr().(*net.TCPAddr).Port
}

// pumpFeed serializes each controller event and fans it out to every
// connected stream. A subscriber that cannot keep up loses events
// rather than stalling the feed.
func (m *Monitor) pumpFeed(feed sim.Receiver[sim.Event]) {
	for ev := range feed.Ch() {
		payload, err := json.Marshal(eventView(ev))
		if err != nil {
			continue
		}

		m.subscribersLock.Lock()
		for sub := range m.subscribers {
			select {
			case sub <- payload:
			default:
			}
		}
		m.subscribersLock.Unlock()
	}

	m.subscribersLock.Lock()
	for sub := range m.subscribers {
		close(sub)
		delete(m.subscribers, sub)
	}
	m.subscribersLock.Unlock()
}

func (m *Monitor) subscribe() chan []byte {
	sub := make(chan []byte, 64)

	m.subscribersLock.Lock()
	m.subscribers[sub] = struct{}{}
	m.subscribersLock.Unlock()

	return sub
}

func (m *Monitor) unsubscribe(sub chan []byte) {
	m.subscribersLock.Lock()
	if _, ok := m.subscribers[sub]; ok {
		delete(m.subscribers, sub)
		close(sub)
	}
	m.subscribersLock.Unlock()
}

func (m *Monitor) topology(w http.ResponseWriter, _ *http.Request) {
	bytes, err := json.Marshal(m.controller.Snapshot())
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

// streamEvents serves the event feed as server-sent events until the
// client disconnects.
func (m *Monitor) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	flusher.Flush()

	sub := m.subscribe()
	defer m.unsubscribe(sub)

	for {
		select {
		case payload, open := <-sub:
			if !open {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (m *Monitor) crashNode(w http.ResponseWriter, r *http.Request) {
	id, ok := m.nodeIDOr400(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	m.commandResult(w, m.controller.Crash(id))
}

func (m *Monitor) setDropRate(w http.ResponseWriter, r *http.Request) {
	id, ok := m.nodeIDOr400(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	rate, err := strconv.ParseFloat(r.URL.Query().Get("rate"), 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Invalid rate: %s", err)
		return
	}

	m.commandResult(w, m.controller.SetDropRate(id, rate))
}

func (m *Monitor) addEdge(w http.ResponseWriter, r *http.Request) {
	a, ok := m.nodeIDOr400(w, mux.Vars(r)["a"])
	if !ok {
		return
	}
	b, ok := m.nodeIDOr400(w, mux.Vars(r)["b"])
	if !ok {
		return
	}

	m.commandResult(w, m.controller.AddEdge(a, b))
}

func (m *Monitor) removeEdge(w http.ResponseWriter, r *http.Request) {
	a, ok := m.nodeIDOr400(w, mux.Vars(r)["a"])
	if !ok {
		return
	}
	b, ok := m.nodeIDOr400(w, mux.Vars(r)["b"])
	if !ok {
		return
	}

	m.commandResult(w, m.controller.RemoveEdge(a, b))
}

func (m *Monitor) nodeIDOr400(
	w http.ResponseWriter,
	raw string,
) (sim.NodeID, bool) {
	n, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Invalid node id %q", raw)
		return 0, false
	}

	return sim.NodeID(n), true
}

func (m *Monitor) commandResult(w http.ResponseWriter, err error) {
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "%s", err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
