// Package monitoring serves the progress and the counters of a running
// simulation over HTTP.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/rs/xid"
	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/hooking"
	"github.com/sarchlab/cachesim/trace"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// DefaultSnapshotInterval is the number of replayed events between two
// snapshots.
const DefaultSnapshotInterval = 4096

// A Snapshot is a copy of the state of the simulation taken on the
// simulation goroutine. Handlers only ever read snapshots.
type Snapshot struct {
	Engine    string
	Config    cache.Config
	Stats     cache.Statistics
	Occupancy int
	Capacity  int
	Summary   trace.Summary
	Time      time.Time
}

// ProgressFunc reports how much of the input has been consumed and how much
// there is in total. A negative total means unknown.
type ProgressFunc func() (done, total int64)

// Monitor can turn a simulation into a server and allows external
// monitoring of the simulation.
type Monitor struct {
	portNumber       int
	snapshotInterval uint64

	engine   *cache.Engine
	replayer *trace.Replayer
	progress ProgressFunc
	bar      *ProgressBar
	events   uint64

	lock     sync.Mutex
	snapshot Snapshot
	bars     []*ProgressBar

	server *http.Server
	url    string
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{snapshotInterval: DefaultSnapshotInterval}
}

// WithPortNumber sets the port number of the monitor. Ports below 1000 are
// not allowed; a random port is used instead.
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

// WithSnapshotInterval sets how many events pass between two snapshots.
func (m *Monitor) WithSnapshotInterval(n uint64) *Monitor {
	if n == 0 {
		n = 1
	}

	m.snapshotInterval = n

	return m
}

// RegisterEngine registers the cache whose counters are served.
func (m *Monitor) RegisterEngine(e *cache.Engine) {
	m.engine = e
}

// RegisterReplayer registers the replayer that drives the cache and hooks
// the monitor to it.
func (m *Monitor) RegisterReplayer(r *trace.Replayer) {
	m.replayer = r
	r.AcceptHook(m)
}

// TrackProgress creates a progress bar fed by f.
func (m *Monitor) TrackProgress(name string, f ProgressFunc) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
	}

	if _, total := f(); total > 0 {
		bar.Total = uint64(total)
	}

	m.progress = f
	m.bar = bar

	m.lock.Lock()
	m.bars = append(m.bars, bar)
	m.lock.Unlock()

	return bar
}

// Positions limits the monitor to replayed events.
func (m *Monitor) Positions() []*hooking.HookPos {
	return []*hooking.HookPos{trace.HookPosEventReplayed}
}

// Func counts replayed events and takes a snapshot every so often.
func (m *Monitor) Func(_ hooking.HookCtx) {
	m.events++
	if m.events%m.snapshotInterval != 0 {
		return
	}

	m.takeSnapshot()
}

// Finish takes a last snapshot and completes the progress bar. It must be
// called on the simulation goroutine once replay is over.
func (m *Monitor) Finish() {
	m.takeSnapshot()

	if m.bar != nil {
		m.bar.Complete()
	}
}

func (m *Monitor) takeSnapshot() {
	s := Snapshot{Time: time.Now()}

	if m.engine != nil {
		s.Engine = m.engine.Name()
		s.Config = m.engine.Config()
		s.Stats = m.engine.Stats()
		s.Occupancy = m.engine.Occupancy()
		s.Capacity = s.Config.NumSets() * s.Config.Associativity
	}

	if m.replayer != nil {
		s.Summary = m.replayer.Summary()
	}

	if m.progress != nil && m.bar != nil {
		done, _ := m.progress()
		if done > 0 {
			m.bar.SetFinished(uint64(done))
		}
	}

	m.lock.Lock()
	m.snapshot = s
	m.lock.Unlock()
}

// Snapshot returns the latest snapshot.
func (m *Monitor) Snapshot() Snapshot {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.snapshot
}

// Router returns the HTTP routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/progress", m.listProgressBars).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", m.stats).Methods(http.MethodGet)
	r.HandleFunc("/api/cache", m.serializeSnapshot).Methods(http.MethodGet)
	r.HandleFunc("/api/field/{path}", m.serializeField).Methods(http.MethodGet)
	r.HandleFunc("/api/resource", m.listResources).Methods(http.MethodGet)
	r.HandleFunc("/api/profile", m.collectProfile).Methods(http.MethodGet)

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() (string, error) {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", fmt.Errorf("start monitoring server: %w", err)
	}

	m.url = fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", m.url)

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("monitoring server stopped: %v", err)
		}
	}()

	return m.url, nil
}

// OpenBrowser opens the monitoring page in the default browser.
func (m *Monitor) OpenBrowser() error {
	if m.url == "" {
		return errors.New("monitoring server is not running")
	}

	return browser.OpenURL(m.url + "/api/stats")
}

// StopServer shuts the server down.
func (m *Monitor) StopServer(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	views := make([]progressBarView, 0, len(m.bars))
	for _, b := range m.bars {
		views = append(views, b.view())
	}
	m.lock.Unlock()

	writeJSON(w, views)
}

type statsRsp struct {
	Engine    string  `json:"engine"`
	Config    string  `json:"config"`
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Evictions uint64  `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
	Occupancy int     `json:"occupancy"`
	Capacity  int     `json:"capacity"`
	Events    uint64  `json:"events"`
}

func (m *Monitor) stats(w http.ResponseWriter, _ *http.Request) {
	s := m.Snapshot()

	rsp := statsRsp{
		Engine:    s.Engine,
		Config:    s.Config.String(),
		Hits:      s.Stats.Hits,
		Misses:    s.Stats.Misses,
		Evictions: s.Stats.Evictions,
		Occupancy: s.Occupancy,
		Capacity:  s.Capacity,
		Events:    s.Summary.Events(),
	}

	if n := s.Stats.Accesses(); n > 0 {
		rsp.HitRate = float64(s.Stats.Hits) / float64(n)
	}

	writeJSON(w, rsp)
}

func (m *Monitor) serializeSnapshot(w http.ResponseWriter, _ *http.Request) {
	s := m.Snapshot()

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&s)
	serializer.SetMaxDepth(2)

	err := serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) serializeField(w http.ResponseWriter, r *http.Request) {
	s := m.Snapshot()
	fields := strings.Split(mux.Vars(r)["path"], ".")

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&s)
	serializer.SetMaxDepth(1)

	err := serializer.SetEntryPoint(fields)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	err = serializer.Serialize(w)
	dieOnErr(err)
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

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
