// Package monitoring serves a finished simulation result over HTTP, together
// with run progress, process resources and Prometheus metrics.
package monitoring

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sarchlab/tankersim/idgen"
	"github.com/sarchlab/tankersim/monitoring/web"
	"github.com/sarchlab/tankersim/simulation"
)

// Ports below this are left to system services.
const minPort = 1024

// Monitor turns a simulation result into a read-only web server.
type Monitor struct {
	portNumber int
	gatherer   prometheus.Gatherer
	logger     *log.Logger

	resultLock sync.RWMutex
	result     *simulation.Result

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
	barIDs           idgen.Generator

	server *http.Server
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		gatherer: prometheus.DefaultGatherer,
		logger:   log.NewWithOptions(os.Stderr, log.Options{Prefix: "monitor"}),
		barIDs:   idgen.New(),
	}
}

// WithPortNumber sets the port number of the monitor. Zero, or a port below
// 1024, lets the system pick one.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < minPort {
		m.logger.Warn("port not allowed, using a random port instead",
			"port", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithGatherer sets where the /metrics endpoint reads metrics from.
func (m *Monitor) WithGatherer(g prometheus.Gatherer) *Monitor {
	m.gatherer = g
	return m
}

// WithLogger sets the logger of the server.
func (m *Monitor) WithLogger(l *log.Logger) *Monitor {
	m.logger = l
	return m
}

// SetResult publishes the result to serve.
func (m *Monitor) SetResult(r *simulation.Result) {
	m.resultLock.Lock()
	defer m.resultLock.Unlock()

	m.result = r
}

func (m *Monitor) currentResult() *simulation.Result {
	m.resultLock.RLock()
	defer m.resultLock.RUnlock()

	return m.result
}

// Router returns the HTTP routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Methods(http.MethodGet).Subrouter()
	api.HandleFunc("/summary", m.withResult(m.summary))
	api.HandleFunc("/steps", m.withResult(m.listSteps))
	api.HandleFunc("/steps/{index}", m.withResult(m.stepDetails))
	api.HandleFunc("/field/{json}", m.withResult(m.listFieldValue))
	api.HandleFunc("/events", m.withResult(m.listEvents))
	api.HandleFunc("/plan", m.withResult(m.plan))
	api.HandleFunc("/plan/{truck}", m.withResult(m.truckPlan))
	api.HandleFunc("/progress", m.listProgressBars)
	api.HandleFunc("/resource", m.listResources)
	api.HandleFunc("/profile", m.collectProfile)

	r.PathPrefix("/api/").HandlerFunc(http.NotFound)
	r.Handle("/metrics", promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
	r.PathPrefix("/").Handler(web.Handler())

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() (string, error) {
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(m.portNumber))
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	m.logger.Info("monitoring simulation", "url", url)

	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("monitor stopped", "err", err)
		}
	}()

	return url, nil
}

// StopServer shuts the web server down.
func (m *Monitor) StopServer(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}
