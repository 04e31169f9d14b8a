package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"

	"github.com/charmbracelet/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sarchlab/tankersim/fleet"
	"github.com/sarchlab/tankersim/simulation"
)

func get(m *Monitor, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	m.Router().ServeHTTP(rec, req)

	return rec
}

// closedConnWriter fails every body write, like a client that hung up.
type closedConnWriter struct {
	*httptest.ResponseRecorder
}

func (closedConnWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func decode[T any](rec *httptest.ResponseRecorder) T {
	var v T
	Expect(json.Unmarshal(rec.Body.Bytes(), &v)).To(Succeed())

	return v
}

var _ = Describe("Monitor", func() {
	var (
		m      *Monitor
		result *simulation.Result
	)

	BeforeEach(func() {
		var err error
		result, err = simulation.Simulate(simulation.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())

		m = NewMonitor().WithGatherer(prometheus.NewRegistry())
	})

	It("should answer 503 before a result is published", func() {
		rec := get(m, "/api/summary")

		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
	})

	Context("with a result", func() {
		BeforeEach(func() {
			m.SetResult(result)
		})

		It("should serve the summary", func() {
			rec := get(m, "/api/summary")

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode[simulation.Summary](rec)).To(Equal(result.Summary))
		})

		It("should list steps with paging", func() {
			rec := get(m, "/api/steps?offset=10&limit=3")

			Expect(rec.Code).To(Equal(http.StatusOK))
			steps := decode[[]stepRsp](rec)
			Expect(steps).To(HaveLen(3))
			Expect(steps[0].Index).To(Equal(10))
			Expect(steps[1].TanksInNeed).To(Equal(1))
			Expect(steps[1].Events).To(Equal(2))
			Expect(steps[1].TotalWater).To(Equal(200.0))
		})

		It("should clamp paging to the step count", func() {
			steps := decode[[]stepRsp](get(m, "/api/steps?offset=20&limit=10"))

			Expect(steps).To(HaveLen(4))
		})

		It("should reject bad paging", func() {
			Expect(get(m, "/api/steps?limit=x").Code).To(Equal(http.StatusBadRequest))
			Expect(get(m, "/api/steps?offset=-1").Code).To(Equal(http.StatusBadRequest))
		})

		It("should serve one step", func() {
			rec := get(m, "/api/steps/13")

			Expect(rec.Code).To(Equal(http.StatusOK))
			step := decode[simulation.StepSnapshot](rec)
			Expect(step.Tanks[0].CurrentWater).To(Equal(600.0))
			Expect(step.Events[0].Kind).To(Equal(simulation.LogDelivery))
		})

		It("should report unknown steps", func() {
			Expect(get(m, "/api/steps/24").Code).To(Equal(http.StatusNotFound))
			Expect(get(m, "/api/steps/abc").Code).To(Equal(http.StatusBadRequest))
		})

		It("should serve cumulative events", func() {
			events := decode[[]simulation.StepEvent](get(m, "/api/events?upto=13"))

			Expect(events).To(HaveLen(3))
			Expect(events[2].StepIndex).To(Equal(13))
			Expect(*events[2].Amount).To(Equal(500.0))
		})

		It("should filter events by kind", func() {
			events := decode[[]simulation.StepEvent](
				get(m, "/api/events?kind=request&kind=return"))

			Expect(events).To(HaveLen(3))
			for _, e := range events {
				Expect(e.Kind).To(BeElementOf(simulation.LogRequest, simulation.LogReturn))
			}

			Expect(get(m, "/api/events?kind=refill").Code).
				To(Equal(http.StatusBadRequest))
		})

		It("should serve the plan", func() {
			plan := decode[fleet.Plan](get(m, "/api/plan"))
			Expect(plan["1"]).To(HaveLen(2))

			trips := decode[[]fleet.Trip](get(m, "/api/plan/1"))
			Expect(trips[0].DepartTime).To(BeEquivalentTo(11))

			Expect(get(m, "/api/plan/9").Code).To(Equal(http.StatusNotFound))
		})

		It("should serve a field of the result", func() {
			path := "/api/field/" + url.PathEscape(`{"field_name":"Summary"}`)
			rec := get(m, path)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.Len()).To(BeNumerically(">", 0))
		})

		It("should log responses it cannot write", func() {
			logs := new(bytes.Buffer)
			m.WithLogger(log.NewWithOptions(logs, log.Options{Level: log.DebugLevel}))

			for _, path := range []string{
				"/api/summary",
				"/api/field/" + url.PathEscape(`{"field_name":"Summary"}`),
			} {
				logs.Reset()
				req := httptest.NewRequest(http.MethodGet, path, nil)
				m.Router().ServeHTTP(closedConnWriter{httptest.NewRecorder()}, req)

				Expect(logs.String()).To(ContainSubstring("writing response"))
				Expect(logs.String()).To(ContainSubstring("connection reset by peer"))
			}
		})

		It("should reject a malformed field request", func() {
			rec := get(m, "/api/field/"+url.PathEscape("{"))

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	It("should list progress bars", func() {
		bar := m.CreateProgressBar("run", 10)
		bar.IncrementFinished(4)

		bars := decode[[]ProgressBar](get(m, "/api/progress"))
		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Name).To(Equal("run"))
		Expect(bars[0].Finished).To(Equal(uint64(4)))

		m.CompleteProgressBar(bar)
		Expect(decode[[]ProgressBar](get(m, "/api/progress"))).To(BeEmpty())
	})

	It("should report process resources", func() {
		rec := get(m, "/api/resource")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(decode[resourceRsp](rec).MemorySize).To(BeNumerically(">", 0))
	})

	It("should not answer unknown API paths with the dashboard", func() {
		Expect(get(m, "/api/nothing").Code).To(Equal(http.StatusNotFound))
	})

	It("should serve the dashboard", func() {
		rec := get(m, "/")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(HavePrefix("<!DOCTYPE html>"))
	})

	It("should serve metrics", func() {
		reg := prometheus.NewRegistry()
		metrics, err := NewMetrics(reg)
		Expect(err).NotTo(HaveOccurred())
		metrics.Steps.Inc()

		m.WithGatherer(reg)
		rec := get(m, "/metrics")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("tankersim_steps_total 1"))
	})

	It("should track run progress through the hook", func() {
		hook := NewProgressBarHook(m, "tankersim")
		var seen []uint64

		engine, err := simulation.MakeBuilder().WithHook(hook).Build()
		Expect(err).NotTo(HaveOccurred())
		engine.AcceptHook(hookFunc(func(pos string) {
			if pos == simulation.HookPosStepEnd.Name && hook.Bar() != nil {
				seen = append(seen, hook.Bar().snapshot().Finished)
			}
		}))

		_, err = engine.Run()
		Expect(err).NotTo(HaveOccurred())

		Expect(seen).To(HaveLen(24))
		Expect(seen[0]).To(Equal(uint64(1)))
		Expect(seen[23]).To(Equal(uint64(24)))
		Expect(hook.Bar()).To(BeNil())
		Expect(m.progressBars).To(BeEmpty())
	})
})
