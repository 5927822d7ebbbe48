package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/basin-cli/internal/store"
)

var errNoStore = eris.New("server: run store disabled")

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, r, eris.Wrap(store.ErrNotFound, errNoStore.Error()))
		return
	}
	q := r.URL.Query()
	var f store.RunFilter
	for key, dst := range map[string]*int{"level": &f.Level, "limit": &f.Limit, "offset": &f.Offset} {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, r, eris.Wrapf(errBadRequest, "invalid %s %q", key, v))
				return
			}
			*dst = n
		}
	}
	runs, err := s.store.ListRuns(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (*store.Run, bool) {
	if s.store == nil {
		writeError(w, r, eris.Wrap(store.ErrNotFound, errNoStore.Error()))
		return nil, false
	}
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return run, true
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	if run, ok := s.loadRun(w, r); ok {
		writeJSON(w, http.StatusOK, run)
	}
}

func (s *Server) runCSV(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	if err := writeCSV(w, run.Table(), "run-"+run.ID+".csv"); err != nil {
		writeError(w, r, err)
	}
}

func (s *Server) deleteRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, r, eris.Wrap(store.ErrNotFound, errNoStore.Error()))
		return
	}
	if err := s.store.DeleteRun(r.Context(), chi.URLParam(r, "runID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
