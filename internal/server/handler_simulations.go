package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/me/ossim/internal/scheduler"
	"github.com/me/ossim/internal/stats"
	"github.com/me/ossim/internal/store"
	"github.com/me/ossim/internal/trace"
	"github.com/me/ossim/pkg/model"
)

type averagesView struct {
	Turnaround float64 `json:"turnaround"`
	Response   float64 `json:"response"`
	Wait       float64 `json:"wait"`
}

type simulationResponse struct {
	Run         *model.Run   `json:"run"`
	Utilization float64      `json:"utilization"`
	Averages    averagesView `json:"averages"`
	Trace       []string     `json:"trace"`
}

type tickView struct {
	model.TickResult
	Tag  string `json:"tag"`
	Line string `json:"line"`
}

func (s *Server) handleCreateSimulation(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, reqID, http.StatusRequestEntityTooLarge,
				model.NewValidationError(fmt.Sprintf("process description exceeds %d bytes", tooLarge.Limit)))
			return
		}
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("read body: "+err.Error()))
		return
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("process description is empty"))
		return
	}

	source := sourceName(r)
	procs, err := s.parser.Parse(body, source)
	if err != nil {
		respondInvalid(w, reqID, err)
		return
	}

	rec, err := store.StartRun(r.Context(), s.store, source, len(procs), s.logger)
	if err != nil {
		respondInternal(w, reqID, err)
		return
	}

	lines := &trace.Collector{}
	collector := stats.NewCollector()
	cfg := scheduler.Config{MaxTicks: s.tickLimit}
	_, runErr := scheduler.Simulate(r.Context(), procs, cfg, s.logger, lines, collector, rec)
	if runErr != nil {
		s.logger.Warn("simulation failed", "run_id", rec.RunID(), "error", runErr)
	}

	// Archive the outcome even when the client has gone away.
	run, err := rec.Finish(context.WithoutCancel(r.Context()), collector.Stats(), runErr)
	if err != nil {
		respondInternal(w, reqID, err)
		return
	}

	turnaround, response, wait := stats.Averages(run.Stats)
	respondCreated(w, reqID, simulationResponse{
		Run:         run,
		Utilization: run.Utilization(),
		Averages:    averagesView{Turnaround: turnaround, Response: response, Wait: wait},
		Trace:       lines.Lines,
	})
}

func (s *Server) handleListSimulations(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	opts, err := listOptions(r)
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError(err.Error()))
		return
	}

	runs, total, err := s.store.ListRuns(r.Context(), opts)
	if err != nil {
		respondInternal(w, reqID, err)
		return
	}
	if runs == nil {
		runs = []*model.Run{}
	}

	opts.Clamp()
	respondList(w, reqID, runs, &model.Pagination{
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		HasMore: opts.Offset+opts.Limit < total,
	})
}

func (s *Server) handleGetSimulation(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		respondInternal(w, reqID, err)
		return
	}
	if run == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("simulation", id))
		return
	}
	respondOK(w, reqID, run)
}

func (s *Server) handleListTicks(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		respondInternal(w, reqID, err)
		return
	}
	if run == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("simulation", id))
		return
	}

	ticks, err := s.store.ListTicks(r.Context(), id)
	if err != nil {
		respondInternal(w, reqID, err)
		return
	}
	views := make([]tickView, len(ticks))
	for i, tk := range ticks {
		views[i] = tickView{
			TickResult: tk,
			Tag:        strings.TrimSpace(tk.Action.Tag()),
			Line:       trace.Line(tk),
		}
	}
	respondOK(w, reqID, views)
}

// sourceName picks the name a submission is parsed and archived under. An
// explicit ?name= wins; otherwise a YAML content type selects the YAML format.
func sourceName(r *http.Request) string {
	if name := r.URL.Query().Get("name"); name != "" {
		return name
	}
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		return "request.yaml"
	}
	return "request.txt"
}

func listOptions(r *http.Request) (model.ListOptions, error) {
	opts := model.DefaultListOptions()
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("invalid limit %q", v)
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("invalid offset %q", v)
		}
		opts.Offset = n
	}
	return opts, nil
}
