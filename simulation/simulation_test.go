package simulation

import (
	"bytes"
	"context"
	"path/filepath"

	"github.com/charmbracelet/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/tankersim/datarecording"
	"github.com/sarchlab/tankersim/fleet"
	"github.com/sarchlab/tankersim/hooking"
	"github.com/sarchlab/tankersim/timing"
	"go.uber.org/mock/gomock"
)

func singleTankScenario() Config {
	return DefaultConfig()
}

func twoTankScenario() Config {
	tank := fleet.TankSpec{
		Capacity:         1000,
		CurrentWater:     100,
		Consumption:      10,
		TravelTime:       1,
		MaintenanceLevel: 200,
	}

	tank1, tank2 := tank, tank
	tank1.ID, tank2.ID = "1", "2"

	return Config{
		TimeStep:        1,
		SimulationHours: 6,
		Tanks:           []fleet.TankSpec{tank1, tank2},
		Trucks:          []fleet.TruckSpec{{ID: "1", Capacity: 500}},
	}
}

type timedKind struct {
	Time timing.VTimeInHour
	Kind LogKind
}

func timedKinds(events []StepEvent) []timedKind {
	out := make([]timedKind, 0, len(events))
	for _, e := range events {
		out = append(out, timedKind{Time: e.Time, Kind: e.Kind})
	}

	return out
}

func tankLevel(r *Result, step int, id fleet.ID) float64 {
	s, err := r.Step(step)
	Expect(err).NotTo(HaveOccurred())

	t, ok := s.Tank(id)
	Expect(ok).To(BeTrue())

	return t.CurrentWater
}

var _ = Describe("Engine", func() {
	var (
		mockCtrl *gomock.Controller
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("with a single tank and truck", func() {
		var result *Result

		BeforeEach(func() {
			var err error
			result, err = Simulate(singleTankScenario())
			Expect(err).NotTo(HaveOccurred())
		})

		It("should produce one snapshot per step", func() {
			Expect(result.Steps).To(HaveLen(24))
			for i, s := range result.Steps {
				Expect(s.Index).To(Equal(i))
				Expect(s.Time).To(Equal(timing.VTimeInHour(i)))
			}
		})

		It("should summarize the run", func() {
			Expect(result.Summary).To(Equal(Summary{
				TotalSteps:  24,
				TotalTime:   24,
				Tanks:       1,
				Trucks:      1,
				TotalEvents: 7,
			}))
		})

		It("should request when the projected level drops below maintenance", func() {
			Expect(tankLevel(result, 10, "1")).To(Equal(250.0))
			Expect(result.Steps[10].Tanks[0].NeedsWater).To(BeFalse())

			Expect(tankLevel(result, 11, "1")).To(Equal(200.0))
			Expect(result.Steps[11].Tanks[0].NeedsWater).To(BeTrue())
			Expect(*result.Steps[11].Tanks[0].RequestedTime).
				To(Equal(timing.VTimeInHour(11)))
		})

		It("should deliver and return after the travel time", func() {
			Expect(timedKinds(result.EventsUpTo(-1))).To(Equal([]timedKind{
				{11, LogRequest},
				{11, LogDispatch},
				{13, LogDelivery},
				{15, LogReturn},
				{21, LogRequest},
				{21, LogDispatch},
				{23, LogDelivery},
			}))
		})

		It("should deliver before consuming", func() {
			Expect(tankLevel(result, 12, "1")).To(Equal(150.0))
			Expect(tankLevel(result, 13, "1")).To(Equal(600.0))

			delivery := result.EventsUpTo(13, LogDelivery)
			Expect(delivery).To(HaveLen(1))
			Expect(*delivery[0].Amount).To(Equal(500.0))
			Expect(delivery[0].StepIndex).To(Equal(13))
		})

		It("should report the events of each step window", func() {
			Expect(result.Steps[11].Events).To(HaveLen(2))
			Expect(result.Steps[11].Events[0].Message).
				To(Equal("Tank #1 requested water (200.0L < 200L)"))
			Expect(result.Steps[11].Events[1].Message).
				To(Equal("Truck #1 dispatched to Tank #1 (travel time 2h)"))
			Expect(result.Steps[13].Events[0].Message).
				To(Equal("Truck #1 delivered 500.0L to Tank #1"))
			Expect(result.Steps[15].Events[0].Message).
				To(Equal("Truck #1 returned to the depot"))
			Expect(result.Steps[12].Events).To(BeEmpty())
		})

		It("should track the truck", func() {
			truck, _ := result.Steps[12].Truck("1")
			Expect(truck.Available).To(BeFalse())
			Expect(truck.CurrentWater).To(Equal(500.0))
			Expect(*truck.TargetTank).To(Equal(fleet.ID("1")))
			Expect(truck.Status).To(Equal("transporting"))

			truck, _ = result.Steps[14].Truck("1")
			Expect(truck.CurrentWater).To(Equal(0.0))
			Expect(truck.Available).To(BeFalse())

			truck, _ = result.Steps[15].Truck("1")
			Expect(truck.Available).To(BeTrue())
			Expect(truck.TargetTank).To(BeNil())
			Expect(truck.Status).To(Equal("available"))
		})

		It("should record the trips", func() {
			r15, r25 := timing.VTimeInHour(15), timing.VTimeInHour(25)

			Expect(result.Plan).To(Equal(fleet.Plan{
				"1": {
					{TruckID: "1", TankID: "1", DepartTime: 11, ArrivalTime: 13, ReturnTime: &r15},
					{TruckID: "1", TankID: "1", DepartTime: 21, ArrivalTime: 23, ReturnTime: &r25},
				},
			}))
		})
	})

	Context("with two tanks in need and one truck", func() {
		var result *Result

		BeforeEach(func() {
			var err error
			result, err = Simulate(twoTankScenario())
			Expect(err).NotTo(HaveOccurred())
		})

		It("should serve the tanks in registry order", func() {
			step0 := result.Steps[0]
			Expect(step0.Tanks[0].TruckAssigned).To(BeTrue())
			Expect(step0.Tanks[1].NeedsWater).To(BeTrue())
			Expect(step0.Tanks[1].TruckAssigned).To(BeFalse())
			Expect(*step0.Trucks[0].TargetTank).To(Equal(fleet.ID("1")))
		})

		It("should keep the second tank waiting until the truck returns", func() {
			step1 := result.Steps[1]
			Expect(step1.Tanks[0].CurrentWater).To(Equal(580.0))
			Expect(step1.Tanks[0].NeedsWater).To(BeFalse())
			Expect(step1.Tanks[1].NeedsWater).To(BeTrue())
			Expect(step1.Tanks[1].TruckAssigned).To(BeFalse())

			step2 := result.Steps[2]
			Expect(step2.Tanks[1].TruckAssigned).To(BeTrue())
			Expect(*step2.Trucks[0].TargetTank).To(Equal(fleet.ID("2")))

			Expect(timedKinds(result.EventsUpTo(2))).To(Equal([]timedKind{
				{0, LogRequest},
				{0, LogRequest},
				{0, LogDispatch},
				{1, LogDelivery},
				{2, LogReturn},
				{2, LogDispatch},
			}))
		})

		It("should keep the original request time while waiting", func() {
			Expect(*result.Steps[1].Tanks[1].RequestedTime).
				To(Equal(timing.VTimeInHour(0)))
		})
	})

	Context("when one delivery does not satisfy the tank", func() {
		It("should send the next truck while the first one drives back", func() {
			cfg := Config{
				TimeStep:        1,
				SimulationHours: 12,
				Tanks: []fleet.TankSpec{{
					ID:               "1",
					Capacity:         1000,
					TravelTime:       2,
					MaintenanceLevel: 900,
				}},
				Trucks: []fleet.TruckSpec{
					{ID: "1", Capacity: 100},
					{ID: "2", Capacity: 100},
				},
			}

			result, err := Simulate(cfg)
			Expect(err).NotTo(HaveOccurred())

			step := result.Steps[2]
			Expect(step.Tanks[0].CurrentWater).To(Equal(100.0))
			Expect(step.Tanks[0].NeedsWater).To(BeTrue())
			Expect(step.Tanks[0].TruckAssigned).To(BeTrue())

			for _, truck := range step.Trucks {
				Expect(truck.Available).To(BeFalse())
				Expect(truck.TargetTank).To(HaveValue(Equal(fleet.ID("1"))))
			}

			first := result.Plan["1"][0]
			Expect(first.IsOpen()).To(BeFalse())
			Expect(first.ArrivalTime).To(Equal(timing.VTimeInHour(2)))
			Expect(first.ReturnTime).To(HaveValue(Equal(timing.VTimeInHour(4))))
			Expect(result.Plan["2"][0].DepartTime).To(Equal(timing.VTimeInHour(2)))

			Expect(result.Steps[4].Trucks[0].Available).To(BeFalse())
			Expect(result.Plan["1"][1].DepartTime).To(Equal(timing.VTimeInHour(4)))
		})
	})

	Context("when consumption exceeds the remaining water", func() {
		It("should floor the level at zero", func() {
			cfg := Config{
				TimeStep:        1,
				SimulationHours: 3,
				Tanks: []fleet.TankSpec{{
					ID:               "1",
					Capacity:         100,
					CurrentWater:     30,
					Consumption:      50,
					TravelTime:       1,
					MaintenanceLevel: 10,
				}},
			}

			result, err := Simulate(cfg)

			Expect(err).NotTo(HaveOccurred())
			for _, s := range result.Steps {
				Expect(s.Tanks[0].CurrentWater).To(Equal(0.0))
				Expect(s.Tanks[0].Percentage).To(Equal(0.0))
			}
			Expect(result.Plan).To(BeEmpty())
		})
	})

	Context("when the time step does not divide the horizon", func() {
		It("should round the step count up and apply events past the horizon", func() {
			cfg := Config{
				TimeStep:        1.5,
				SimulationHours: 4,
				Tanks: []fleet.TankSpec{{
					ID:               "1",
					Capacity:         1000,
					CurrentWater:     100,
					Consumption:      10,
					TravelTime:       2.1,
					MaintenanceLevel: 200,
				}},
				Trucks: []fleet.TruckSpec{{ID: "1", Capacity: 500}},
			}

			result, err := Simulate(cfg)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Steps).To(HaveLen(3))
			Expect(result.Steps[2].Time).To(Equal(timing.VTimeInHour(3)))

			returns := result.EventsUpTo(-1, LogReturn)
			Expect(returns).To(HaveLen(1))
			Expect(returns[0].StepIndex).To(Equal(2))
			Expect(float64(returns[0].Time)).To(BeNumerically("~", 4.2, 1e-9))
		})
	})

	Context("when a tank has no travel time", func() {
		It("should leave the truck committed", func() {
			cfg := singleTankScenario()
			cfg.Tanks[0].CurrentWater = 100
			cfg.Tanks[0].TravelTime = 0

			result, err := Simulate(cfg)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.EventsUpTo(-1, LogDispatch)).To(HaveLen(1))
			Expect(result.EventsUpTo(-1, LogDelivery)).To(BeEmpty())

			last := result.Steps[len(result.Steps)-1]
			Expect(last.Trucks[0].Available).To(BeFalse())
			Expect(last.Tanks[0].TruckAssigned).To(BeTrue())
			Expect(result.Plan["1"][0].IsOpen()).To(BeTrue())
		})
	})

	Context("when the travel time is shorter than a step", func() {
		It("should leave the truck committed", func() {
			cfg := singleTankScenario()
			cfg.Tanks[0].CurrentWater = 100
			cfg.Tanks[0].TravelTime = 0.5

			result, err := Simulate(cfg)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.EventsUpTo(-1, LogDispatch)).To(HaveLen(1))
			Expect(result.EventsUpTo(-1, LogDelivery)).To(BeEmpty())
			Expect(result.EventsUpTo(-1, LogReturn)).To(BeEmpty())

			last := result.Steps[len(result.Steps)-1]
			Expect(last.Trucks[0].Available).To(BeFalse())
			Expect(last.Tanks[0].TruckAssigned).To(BeTrue())

			trip := result.Plan["1"][0]
			Expect(trip.IsOpen()).To(BeTrue())
			Expect(trip.DepartTime).To(Equal(timing.VTimeInHour(0)))
			Expect(trip.ArrivalTime).To(Equal(timing.VTimeInHour(0.5)))
		})
	})

	It("should reject an invalid scenario", func() {
		cfg := singleTankScenario()
		cfg.TimeStep = 0

		_, err := MakeBuilder().WithConfig(cfg).Build()

		Expect(err).To(MatchError(ErrInvalidConfig))
	})

	It("should produce the same result on every run", func() {
		engine, err := MakeBuilder().WithConfig(twoTankScenario()).Build()
		Expect(err).NotTo(HaveOccurred())

		first, err := engine.Run()
		Expect(err).NotTo(HaveOccurred())
		second, err := engine.Run()
		Expect(err).NotTo(HaveOccurred())

		Expect(second).To(Equal(first))
	})

	It("should give the same result with time-ordered events", func() {
		engine, err := MakeBuilder().
			WithConfig(singleTankScenario()).
			WithTimeOrderedEvents().
			Build()
		Expect(err).NotTo(HaveOccurred())

		timeOrdered, err := engine.Run()
		Expect(err).NotTo(HaveOccurred())
		insertionOrdered, err := Simulate(singleTankScenario())
		Expect(err).NotTo(HaveOccurred())

		Expect(timeOrdered).To(Equal(insertionOrdered))
	})

	It("should ask the dispatcher once per step", func() {
		dispatcher := NewMockDispatcher(mockCtrl)
		dispatcher.EXPECT().
			Dispatch(gomock.Any(), gomock.Any()).
			Return(nil).
			Times(24)

		engine, err := MakeBuilder().
			WithConfig(singleTankScenario()).
			WithDispatcher(dispatcher).
			Build()
		Expect(err).NotTo(HaveOccurred())

		result, err := engine.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(result.EventsUpTo(-1, LogDispatch)).To(BeEmpty())
		Expect(result.EventsUpTo(-1, LogRequest)).To(HaveLen(1))
	})

	It("should invoke hooks at every stage", func() {
		counts := make(map[string]int)
		var order []string

		hook := NewMockHook(mockCtrl)
		hook.EXPECT().
			Func(gomock.Any()).
			Do(func(ctx hooking.HookCtx) {
				counts[ctx.Pos.Name]++
				order = append(order, ctx.Pos.Name)
			}).
			AnyTimes()

		engine, err := MakeBuilder().
			WithConfig(singleTankScenario()).
			WithHook(hook).
			Build()
		Expect(err).NotTo(HaveOccurred())

		_, err = engine.Run()
		Expect(err).NotTo(HaveOccurred())

		Expect(order[0]).To(Equal(HookPosRunStart.Name))
		Expect(order[len(order)-1]).To(Equal(HookPosRunEnd.Name))
		Expect(counts).To(Equal(map[string]int{
			HookPosRunStart.Name:    1,
			HookPosStepEnd.Name:     24,
			HookPosLogEvent.Name:    7,
			HookPosBeforeEvent.Name: 3,
			HookPosAfterEvent.Name:  3,
			HookPosTripStart.Name:   2,
			HookPosTripArrive.Name:  2,
			HookPosTripReturn.Name:  1,
			HookPosRunEnd.Name:      1,
		}))
	})

	It("should hand copies to hooks", func() {
		hook := NewMockHook(mockCtrl)
		hook.EXPECT().
			Func(gomock.Any()).
			Do(func(ctx hooking.HookCtx) {
				switch item := ctx.Item.(type) {
				case StepSnapshot:
					for i := range item.Tanks {
						item.Tanks[i].CurrentWater = -1
					}
				case LogEvent:
					if item.Amount != nil {
						*item.Amount = -1
					}
				}
			}).
			AnyTimes()

		engine, err := MakeBuilder().
			WithConfig(singleTankScenario()).
			WithHook(hook).
			Build()
		Expect(err).NotTo(HaveOccurred())

		result, err := engine.Run()
		Expect(err).NotTo(HaveOccurred())

		expected, err := Simulate(singleTankScenario())
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(Equal(expected))
	})

	It("should write log events through the event logger", func() {
		buf := new(bytes.Buffer)
		logger := log.NewWithOptions(buf, log.Options{Level: log.InfoLevel})

		engine, err := MakeBuilder().
			WithConfig(singleTankScenario()).
			WithHook(NewEventLogger(logger)).
			Build()
		Expect(err).NotTo(HaveOccurred())

		_, err = engine.Run()
		Expect(err).NotTo(HaveOccurred())

		Expect(buf.String()).To(ContainSubstring("Truck #1 dispatched to Tank #1"))
		Expect(buf.String()).To(ContainSubstring("simulation finished"))
		Expect(buf.String()).NotTo(ContainSubstring("applying event"))
	})

	It("should record events and samples", func() {
		path := filepath.Join(GinkgoT().TempDir(), "run")
		recorder, err := datarecording.New(path)
		Expect(err).NotTo(HaveOccurred())
		defer recorder.Close()

		engine, err := MakeBuilder().
			WithConfig(twoTankScenario()).
			WithDataRecorder(recorder).
			Build()
		Expect(err).NotTo(HaveOccurred())

		result, err := engine.Run()
		Expect(err).NotTo(HaveOccurred())

		reader, err := datarecording.NewReader(path + ".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()

		ctx := context.Background()

		events, total, err := datarecording.Query[LogEventEntry](ctx, reader,
			LogEventTable, datarecording.QueryParams{OrderBy: "seq"})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(result.Summary.TotalEvents))
		Expect(events[0].Kind).To(Equal("request"))
		Expect(events[0].Amount).To(BeNil())

		deliveries, _, err := datarecording.Query[LogEventEntry](ctx, reader,
			LogEventTable, datarecording.QueryParams{}.And("kind = ?", "delivery"))
		Expect(err).NotTo(HaveOccurred())
		Expect(deliveries).NotTo(BeEmpty())
		Expect(deliveries[0].Amount).NotTo(BeNil())

		total, err = reader.Count(ctx, TankSampleTable, datarecording.QueryParams{})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(12))

		trucks, _, err := datarecording.Query[TruckSampleEntry](ctx, reader,
			TruckSampleTable, datarecording.QueryParams{Where: "step = ?", Args: []any{0}})
		Expect(err).NotTo(HaveOccurred())
		Expect(trucks).To(HaveLen(1))
		Expect(trucks[0].TargetTank).To(HaveValue(Equal("1")))
	})
})
