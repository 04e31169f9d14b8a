package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sarchlab/tankersim/fleet"
	"github.com/sarchlab/tankersim/simulation"
	"github.com/syifan/goseth"
)

type resultHandler func(w http.ResponseWriter, req *http.Request, r *simulation.Result)

// withResult answers 503 until a result is set.
func (m *Monitor) withResult(h resultHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		r := m.currentResult()
		if r == nil {
			http.Error(w, "simulation result not available yet",
				http.StatusServiceUnavailable)
			return
		}

		h(w, req, r)
	}
}

func (m *Monitor) summary(w http.ResponseWriter, _ *http.Request, r *simulation.Result) {
	m.writeJSON(w, r.Summary)
}

type stepRsp struct {
	Index           int     `json:"index"`
	Time            float64 `json:"time"`
	Events          int     `json:"events"`
	TanksInNeed     int     `json:"tanksInNeed"`
	TrucksAvailable int     `json:"trucksAvailable"`
	TotalWater      float64 `json:"totalWater"`
}

func newStepRsp(s simulation.StepSnapshot) stepRsp {
	rsp := stepRsp{
		Index:  s.Index,
		Time:   float64(s.Time),
		Events: len(s.Events),
	}

	for _, t := range s.Tanks {
		rsp.TotalWater += t.CurrentWater
		if t.NeedsWater {
			rsp.TanksInNeed++
		}
	}

	for _, t := range s.Trucks {
		if t.Available {
			rsp.TrucksAvailable++
		}
	}

	return rsp
}

func (m *Monitor) listSteps(w http.ResponseWriter, req *http.Request, r *simulation.Result) {
	offset, limit, err := parsePage(req, len(r.Steps))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rsp := make([]stepRsp, 0, limit)
	for _, s := range r.Steps[offset : offset+limit] {
		rsp = append(rsp, newStepRsp(s))
	}

	m.writeJSON(w, rsp)
}

func parsePage(req *http.Request, total int) (offset, limit int, err error) {
	offset, err = intParam(req, "offset", 0)
	if err != nil {
		return 0, 0, err
	}

	limit, err = intParam(req, "limit", 0)
	if err != nil {
		return 0, 0, err
	}

	if offset < 0 || limit < 0 {
		return 0, 0, errors.New("offset and limit must not be negative")
	}

	offset = min(offset, total)
	if limit == 0 || offset+limit > total {
		limit = total - offset
	}

	return offset, limit, nil
}

func intParam(req *http.Request, name string, fallback int) (int, error) {
	str := req.URL.Query().Get(name)
	if str == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, str)
	}

	return v, nil
}

func (m *Monitor) stepDetails(w http.ResponseWriter, req *http.Request, r *simulation.Result) {
	index, err := strconv.Atoi(mux.Vars(req)["index"])
	if err != nil {
		http.Error(w, "invalid step index", http.StatusBadRequest)
		return
	}

	step, err := r.Step(index)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	m.writeJSON(w, step)
}

type fieldReq struct {
	FieldName string `json:"field_name,omitempty"`
}

// listFieldValue serializes one level of the result, starting at a dotted
// field path such as "Summary" or "Steps.3".
func (m *Monitor) listFieldValue(
	w http.ResponseWriter,
	req *http.Request,
	r *simulation.Result,
) {
	fr := fieldReq{}

	err := json.Unmarshal([]byte(mux.Vars(req)["json"]), &fr)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(r)
	serializer.SetMaxDepth(1)

	if fr.FieldName != "" {
		err = serializer.SetEntryPoint(strings.Split(fr.FieldName, "."))
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
	}

	buf := new(bytes.Buffer)
	if err := serializer.Serialize(buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	m.write(w, buf.Bytes())
}

func (m *Monitor) listEvents(w http.ResponseWriter, req *http.Request, r *simulation.Result) {
	upTo, err := intParam(req, "upto", -1)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var kinds []simulation.LogKind
	for _, k := range req.URL.Query()["kind"] {
		kind, err := simulation.ParseLogKind(k)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		kinds = append(kinds, kind)
	}

	m.writeJSON(w, r.EventsUpTo(upTo, kinds...))
}

func (m *Monitor) plan(w http.ResponseWriter, _ *http.Request, r *simulation.Result) {
	m.writeJSON(w, r.Plan)
}

func (m *Monitor) truckPlan(w http.ResponseWriter, req *http.Request, r *simulation.Result) {
	trips, ok := r.Plan[fleet.ID(mux.Vars(req)["truck"])]
	if !ok {
		http.Error(w, "truck not found", http.StatusNotFound)
		return
	}

	m.writeJSON(w, trips)
}

func (m *Monitor) writeJSON(w http.ResponseWriter, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	m.write(w, b)
}

// write sends a JSON body. Write errors are logged at debug level.
func (m *Monitor) write(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")

	if _, err := w.Write(body); err != nil {
		m.logger.Debug("writing response", "err", err)
	}
}
