package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/trace"
)

var _ = Describe("Monitor", func() {
	var (
		engine   *cache.Engine
		replayer *trace.Replayer
		monitor  *Monitor
		server   *httptest.Server
	)

	BeforeEach(func() {
		engine = cache.MakeBuilder().
			WithSetBits(1).
			WithWayAssociativity(1).
			WithBlockBits(1).
			Build("Cache")
		replayer = trace.NewReplayer(engine)

		monitor = NewMonitor().WithSnapshotInterval(2)
		monitor.RegisterEngine(engine)
		monitor.RegisterReplayer(replayer)

		server = httptest.NewServer(monitor.Router())
	})

	AfterEach(func() {
		server.Close()
	})

	get := func(path string, v any) {
		rsp, err := http.Get(server.URL + path)
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
		Expect(json.NewDecoder(rsp.Body).Decode(v)).To(Succeed())
	}

	replay := func(src string) {
		r := trace.NewReader("test", strings.NewReader(src))
		replayer.Replay(r.Events())
	}

	It("should hook to replayed events only", func() {
		Expect(replayer.NumHooks()).To(Equal(1))
		Expect(monitor.Positions()).To(ConsistOf(trace.HookPosEventReplayed))
	})

	It("should snapshot every few events", func() {
		replay(" L 10,1\n")
		Expect(monitor.Snapshot().Stats.Accesses()).To(BeZero())

		replay(" M 20,1\n")
		Expect(monitor.Snapshot().Stats).To(Equal(cache.Statistics{
			Hits: 1, Misses: 2, Evictions: 1,
		}))
	})

	It("should take a last snapshot when finished", func() {
		replay(" L 10,1\n")
		monitor.Finish()

		Expect(monitor.Snapshot().Stats.Misses).To(Equal(uint64(1)))
		Expect(monitor.Snapshot().Engine).To(Equal("Cache"))
	})

	It("should serve the statistics", func() {
		replay(" L 10,1\n M 20,1\n L 22,1\n S 18,1\n")
		monitor.Finish()

		var rsp statsRsp
		get("/api/stats", &rsp)

		Expect(rsp.Engine).To(Equal("Cache"))
		Expect(rsp.Config).To(Equal("s=1 E=1 b=1"))
		Expect(rsp.Hits).To(Equal(uint64(1)))
		Expect(rsp.Misses).To(Equal(uint64(4)))
		Expect(rsp.Evictions).To(Equal(uint64(2)))
		Expect(rsp.HitRate).To(BeNumerically("~", 0.2))
		Expect(rsp.Capacity).To(Equal(2))
		Expect(rsp.Events).To(Equal(uint64(4)))
	})

	It("should report a zero hit rate before any access", func() {
		var rsp statsRsp
		get("/api/stats", &rsp)

		Expect(rsp.HitRate).To(BeZero())
	})

	It("should serve the progress bars", func() {
		done := int64(0)
		bar := monitor.TrackProgress("test.trace", func() (int64, int64) {
			return done, 100
		})

		done = 40
		replay(" L 10,1\n L 20,1\n")

		var rsp []progressBarView
		get("/api/progress", &rsp)

		Expect(rsp).To(HaveLen(1))
		Expect(rsp[0].ID).To(Equal(bar.ID))
		Expect(rsp[0].Name).To(Equal("test.trace"))
		Expect(rsp[0].Total).To(Equal(uint64(100)))
		Expect(rsp[0].Finished).To(Equal(uint64(40)))
		Expect(rsp[0].Done).To(BeFalse())

		monitor.Finish()
		get("/api/progress", &rsp)

		Expect(rsp[0].Finished).To(Equal(uint64(100)))
		Expect(rsp[0].Done).To(BeTrue())
	})

	It("should serialize the snapshot", func() {
		replay(" L 10,1\n")
		monitor.Finish()

		rsp, err := http.Get(server.URL + "/api/cache")
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
	})

	It("should serve the resource usage", func() {
		var rsp resourceRsp
		get("/api/resource", &rsp)

		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should stop serving once stopped", func() {
		url, err := monitor.StartServer()
		Expect(err).NotTo(HaveOccurred())

		rsp, err := http.Get(url + "/api/stats")
		Expect(err).NotTo(HaveOccurred())
		rsp.Body.Close()
		Expect(rsp.StatusCode).To(Equal(http.StatusOK))

		Expect(monitor.StopServer(context.Background())).To(Succeed())

		_, err = http.Get(url + "/api/stats")
		Expect(err).To(HaveOccurred())
	})

	It("should stop without a server", func() {
		Expect(monitor.StopServer(context.Background())).To(Succeed())
	})

	It("should not open a browser without a server", func() {
		Expect(monitor.OpenBrowser()).NotTo(Succeed())
	})
})

var _ = Describe("ProgressBar", func() {
	It("should never go back", func() {
		bar := &ProgressBar{Total: 10}

		bar.SetFinished(5)
		bar.SetFinished(3)
		Expect(bar.view().Finished).To(Equal(uint64(5)))

		bar.IncrementFinished(2)
		Expect(bar.view().Finished).To(Equal(uint64(7)))
	})

	It("should fill up when completed", func() {
		bar := &ProgressBar{Total: 10}

		bar.Complete()

		Expect(bar.view().Finished).To(Equal(uint64(10)))
		Expect(bar.view().Done).To(BeTrue())
	})
})
