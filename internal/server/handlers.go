package server

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/basin-cli/internal/basin"
	"github.com/sells-group/basin-cli/internal/hydro"
	"github.com/sells-group/basin-cli/internal/store"
	"github.com/sells-group/basin-cli/internal/view"
	"github.com/sells-group/basin-cli/internal/zonal"
)

// State is the JSON view of a session.
type State struct {
	ID        string        `json:"id"`
	Lat       float64       `json:"lat"`
	Lon       float64       `json:"lon"`
	Years     []int         `json:"years"`
	Threshold int           `json:"thres"`
	Level     int           `json:"level"`
	Method    string        `json:"method"`
	Manual    bool          `json:"manual"`
	Marker    bool          `json:"marker"`
	Selected  []int64       `json:"selected_hybas"`
	Upstream  []int64       `json:"hybasin_list"`
	Truncated bool          `json:"truncated"`
	Ready     bool          `json:"ready"`
	Views     view.Snapshot `json:"views"`
}

func stateOf(sess *Session) State {
	m := sess.Model
	st := State{
		ID:        sess.ID,
		Lat:       m.Lat.Get(),
		Lon:       m.Lon.Get(),
		Years:     m.Years.Get(),
		Threshold: m.Threshold.Get(),
		Level:     m.Level.Get(),
		Method:    m.Method.Get(),
		Manual:    m.Manual.Get(),
		Marker:    m.Marker.Get(),
		Selected:  m.SelectedHybas.Get(),
		Upstream:  m.HybasinList.Get(),
		Ready:     m.Ready.Get(),
		Views:     sess.Views.Snapshot(),
	}
	if up := m.Upstream(); up != nil {
		st.Truncated = up.Truncated
	}
	return st
}

// withSession runs fn with the session locked.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*Session) error) {
	sess, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := fn(sess); err != nil {
		writeError(w, r, err)
	}
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create(r.Header.Get("Accept-Language"))
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.log.Info("session created", zap.String("session", sess.ID))
	writeJSON(w, http.StatusCreated, stateOf(sess))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session) error {
		writeJSON(w, http.StatusOK, stateOf(sess))
		return nil
	})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type pointRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

func (p pointRequest) values() (float64, float64, error) {
	if p.Lat == nil || p.Lon == nil {
		return 0, 0, eris.Wrap(basin.ErrInvalidCoordinates, "lat and lon are required")
	}
	return *p.Lat, *p.Lon, nil
}

// setAOI places the marker at a point regardless of the coordinate mode.
func (s *Server) setAOI(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(sess *Session) error {
		lat, lon, err := req.values()
		if err != nil {
			return err
		}
		if err := sess.Model.PlaceMarker(lat, lon); err != nil {
			return err
		}
		sess.Views.Map.SetMarker(lat, lon)
		return s.refresh(w, r, sess)
	})
}

// click forwards a map click; it only moves the marker in map mode.
func (s *Server) click(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(sess *Session) error {
		lat, lon, err := req.values()
		if err != nil {
			return err
		}
		if err := basin.ValidateCoordinates(lat, lon); err != nil {
			return err
		}
		sess.Views.Map.Click(lat, lon)
		return s.refresh(w, r, sess)
	})
}

type coordinatesRequest struct {
	Manual *bool   `json:"manual"`
	Lat    *string `json:"lat"`
	Lon    *string `json:"lon"`
	Use    bool    `json:"use"`
}

func (s *Server) coordinates(w http.ResponseWriter, r *http.Request) {
	var req coordinatesRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(sess *Session) error {
		cv := sess.Views.Coordinates
		if req.Manual != nil {
			cv.Manual.Set(*req.Manual)
		}
		if req.Lat != nil || req.Lon != nil {
			lat, lon := cv.Lat.Get(), cv.Lon.Get()
			if req.Lat != nil {
				lat = *req.Lat
			}
			if req.Lon != nil {
				lon = *req.Lon
			}
			if err := cv.SetText(lat, lon); err != nil {
				return err
			}
		}
		if req.Use {
			if err := cv.Use(); err != nil {
				return err
			}
		}
		return s.refresh(w, r, sess)
	})
}

// refresh re-resolves the upstream set when needed and writes the state.
func (s *Server) refresh(w http.ResponseWriter, r *http.Request, sess *Session) error {
	if err := sess.Model.Refresh(r.Context()); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, stateOf(sess))
	return nil
}

type paramsRequest struct {
	Years     []int   `json:"years"`
	Threshold *int    `json:"thres"`
	Level     *int    `json:"level"`
	Method    *string `json:"method"`
	Selected  []int64 `json:"selected_hybas"`
}

func (s *Server) setParams(w http.ResponseWriter, r *http.Request) {
	var req paramsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(sess *Session) error {
		m := sess.Model
		if req.Years != nil {
			if len(req.Years) != 2 {
				return eris.Wrap(errBadRequest, "years must be [start, end]")
			}
			if err := sess.Views.Years.Set(req.Years[0], req.Years[1]); err != nil {
				return err
			}
		}
		if req.Threshold != nil {
			if err := m.SetThreshold(*req.Threshold); err != nil {
				return err
			}
		}
		if req.Level != nil {
			if err := m.SetLevel(*req.Level); err != nil {
				return eris.Wrap(errBadRequest, err.Error())
			}
		}
		if req.Method != nil {
			if err := m.SetMethod(*req.Method); err != nil {
				return err
			}
		}
		if req.Selected != nil {
			m.SelectedHybas.Set(req.Selected)
		}
		return s.refresh(w, r, sess)
	})
}

func (s *Server) upstream(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session) error {
		if err := sess.Model.Refresh(r.Context()); err != nil {
			return err
		}
		up := sess.Model.Upstream()
		if up == nil {
			if sess.Model.Marker.Get() {
				return basin.ErrNotResolved
			}
			return basin.ErrNoAOI
		}
		resp := struct {
			*hydro.Upstream
			Bounds *hydro.BBox `json:"bounds,omitempty"`
		}{Upstream: up}
		if bb, ok := sess.Model.Bounds(up.IDs); ok {
			resp.Bounds = &bb
		}
		writeJSON(w, http.StatusOK, resp)
		return nil
	})
}

// parseIDs reads a comma separated id list.
func parseIDs(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	var ids []int64
	for _, f := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return nil, eris.Wrapf(errBadRequest, "invalid id %q", f)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Server) catchmentsGeoJSON(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDs(r.URL.Query().Get("ids"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(sess *Session) error {
		if ids == nil {
			ids = sess.Model.HybasinList.Get()
		}
		data, err := sess.Model.SelectedGeoJSON(ids)
		if err != nil {
			return err
		}
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write(data)
		return nil
	})
}

func (s *Server) inspect(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "hybasID"), 10, 64)
	if err != nil {
		writeError(w, r, eris.Wrap(errBadRequest, "invalid hybas id"))
		return
	}
	s.withSession(w, r, func(sess *Session) error {
		if err := sess.Views.Inspect(id); err != nil {
			return eris.Wrap(errBadRequest, err.Error())
		}
		writeJSON(w, http.StatusOK, sess.Views.Metadata.Rows())
		return nil
	})
}

type calculateResponse struct {
	RunID string      `json:"run_id,omitempty"`
	Total float64     `json:"total_area"`
	Rows  []zonal.Row `json:"rows"`
}

func (s *Server) calculate(w http.ResponseWriter, r *http.Request) {
	if s.calc != nil && !s.calc.Allow() {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "calculation rate exceeded"})
		return
	}
	s.withSession(w, r, func(sess *Session) error {
		m := sess.Model
		if err := m.Refresh(r.Context()); err != nil {
			return err
		}
		t, err := m.CalculateStatistics(r.Context())
		if err != nil {
			return err
		}

		resp := calculateResponse{Total: t.Total(), Rows: t.Rows}
		if s.store != nil {
			ids, _ := m.TargetIDs()
			run := &store.Run{
				Lat:    m.Lat.Get(),
				Lon:    m.Lon.Get(),
				Level:  m.Level.Get(),
				Method: m.Method.Get(),
				Params: m.Params(),
				IDs:    ids,
				Rows:   t.Rows,
				Area:   t.Total(),
			}
			if err := s.store.SaveRun(r.Context(), run); err != nil {
				return err
			}
			resp.RunID = run.ID
		}
		writeJSON(w, http.StatusOK, resp)
		return nil
	})
}

// table returns the last calculated table.
func table(sess *Session) (*zonal.Table, error) {
	t := sess.Model.Table()
	if t == nil {
		return nil, eris.Wrap(errBadRequest, "no statistics calculated")
	}
	return t, nil
}

func (s *Server) statistics(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session) error {
		t, err := table(sess)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, calculateResponse{Total: t.Total(), Rows: t.Rows})
		return nil
	})
}

func (s *Server) statisticsCSV(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session) error {
		t, err := table(sess)
		if err != nil {
			return err
		}
		return writeCSV(w, t, "statistics.csv")
	})
}

func (s *Server) statisticsXLSX(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session) error {
		t, err := table(sess)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := zonal.WriteXLSX(&buf, t, t.ByGroup(sess.Model.Deps().Legend)); err != nil {
			return err
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="statistics.xlsx"`)
		_, _ = w.Write(buf.Bytes())
		return nil
	})
}

func writeCSV(w http.ResponseWriter, t *zonal.Table, name string) error {
	var buf bytes.Buffer
	if err := zonal.WriteCSV(&buf, t); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	_, _ = w.Write(buf.Bytes())
	return nil
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session) error {
		writeJSON(w, http.StatusOK, sess.Model.Dashboard())
		return nil
	})
}

type dashboardRequest struct {
	Variable *string `json:"selected_var"`
	Basins   []int64 `json:"selected_hybasid_chart"`
	Timespan []int   `json:"timespan"`
}

func (s *Server) setDashboard(w http.ResponseWriter, r *http.Request) {
	var req dashboardRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(sess *Session) error {
		m := sess.Model
		if req.Timespan != nil {
			if len(req.Timespan) != 2 {
				return eris.Wrap(errBadRequest, "timespan must be [from, to]")
			}
			if err := m.SetTimespan(req.Timespan[0], req.Timespan[1]); err != nil {
				return err
			}
		}
		if req.Variable != nil {
			m.SelectedVar.Set(*req.Variable)
		}
		if req.Basins != nil {
			m.SelectChartCatchments(req.Basins)
		}
		writeJSON(w, http.StatusOK, m.Dashboard())
		return nil
	})
}
