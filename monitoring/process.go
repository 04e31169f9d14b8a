package monitoring

import (
	"bytes"
	"cmp"
	"net/http"
	"os"
	"runtime"
	"runtime/pprof"
	"slices"
	"time"

	"github.com/google/pprof/profile"
	"github.com/shirou/gopsutil/process"
)

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
	Goroutines int     `json:"goroutines"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	memory, err := proc.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	m.writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memory.RSS,
		Goroutines: runtime.NumGoroutine(),
	})
}

type hotSpot struct {
	Function string  `json:"function"`
	Flat     float64 `json:"flat"`
	Cum      float64 `json:"cum"`
}

type profileRsp struct {
	DurationMs int       `json:"duration_ms"`
	Unit       string    `json:"unit"`
	Total      float64   `json:"total"`
	Functions  []hotSpot `json:"functions"`
}

// collectProfile samples the CPU for ?ms= milliseconds and lists the ?top=
// functions with the most samples.
func (m *Monitor) collectProfile(w http.ResponseWriter, req *http.Request) {
	ms, err := intParam(req, "ms", 1000)
	if err != nil || ms <= 0 {
		http.Error(w, "invalid profiling duration", http.StatusBadRequest)
		return
	}

	top, err := intParam(req, "top", 20)
	if err != nil || top <= 0 {
		http.Error(w, "invalid number of functions", http.StatusBadRequest)
		return
	}

	buf := new(bytes.Buffer)

	if err := pprof.StartCPUProfile(buf); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(time.Duration(ms) * time.Millisecond)
	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rsp := summarizeProfile(prof, top)
	rsp.DurationMs = ms

	m.writeJSON(w, rsp)
}

func summarizeProfile(prof *profile.Profile, top int) profileRsp {
	valueIndex := 0
	unit := ""

	for i, st := range prof.SampleType {
		if st.Type == "cpu" {
			valueIndex = i
		}
	}

	if len(prof.SampleType) > 0 {
		unit = prof.SampleType[valueIndex].Unit
	}

	spots := make(map[string]*hotSpot)
	spot := func(name string) *hotSpot {
		s, ok := spots[name]
		if !ok {
			s = &hotSpot{Function: name}
			spots[name] = s
		}

		return s
	}

	rsp := profileRsp{Unit: unit}

	for _, sample := range prof.Sample {
		if valueIndex >= len(sample.Value) {
			continue
		}

		v := float64(sample.Value[valueIndex])
		rsp.Total += v

		seen := make(map[string]bool)

		for i, loc := range sample.Location {
			for _, line := range loc.Line {
				if line.Function == nil {
					continue
				}

				name := line.Function.Name
				if i == 0 && !seen[name] {
					spot(name).Flat += v
				}

				if !seen[name] {
					spot(name).Cum += v
					seen[name] = true
				}
			}
		}
	}

	for _, s := range spots {
		rsp.Functions = append(rsp.Functions, *s)
	}

	slices.SortFunc(rsp.Functions, func(a, b hotSpot) int {
		if c := cmp.Compare(b.Flat, a.Flat); c != 0 {
			return c
		}

		return cmp.Compare(a.Function, b.Function)
	})

	if len(rsp.Functions) > top {
		rsp.Functions = rsp.Functions[:top]
	}

	return rsp
}
