package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/spektr-org/pgexplorer/binder"
	"github.com/spektr-org/pgexplorer/engine"
	"github.com/spektr-org/pgexplorer/render"
)

// ============================================================================
// HTML
// ============================================================================

// handleIndex applies any control values in the query string, then renders
// the dashboard page for the resulting state.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	u, ok, err := ParseQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if ok {
		if _, err := s.binder.Apply(u); err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
	}

	sel, options, dash := s.binder.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.WriteDashboard(w, render.NewPageData(sel, options, dash)); err != nil {
		s.logger.Error("rendering dashboard", zap.Error(err))
	}
}

// handleCharts renders the chart page. A query string previews that
// selection without committing it; otherwise the current state is drawn.
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	u, ok, err := ParseQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	dash := s.binder.Dashboard()
	if ok {
		if dash, err = s.binder.Preview(u); err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.WriteCharts(w, dash); err != nil {
		s.logger.Error("rendering charts", zap.Error(err))
	}
}

// ============================================================================
// JSON API
// ============================================================================

type stateResponse struct {
	Selection engine.Selection `json:"selection"`
	Options   binder.Options   `json:"options"`
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	sel, options, _ := s.binder.Snapshot()
	s.writeJSON(w, http.StatusOK, stateResponse{Selection: sel, Options: options})
}

func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.binder.Dashboard())
}

func (s *Server) handlePostSelection(w http.ResponseWriter, r *http.Request) {
	var u binder.Update
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&u); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.Wrap(err, "decoding selection"))
		return
	}

	dash, err := s.binder.Apply(u)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, dash)
}

func (s *Server) handleGetCountries(w http.ResponseWriter, r *http.Request) {
	regions := nonEmpty(r.URL.Query()["region"])
	s.writeJSON(w, http.StatusOK, s.binder.Table().ValidCountries(regions))
}

// handleExportCSV writes the rows behind the 3D chart. ?summary=1 appends
// the totals row.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	dash := s.binder.Dashboard()
	sel := dash.Selection
	table := engine.BuildTable(dash.View, s.binder.Table().Schema, "export", engine.TableColumns(sel.X, sel.Y, sel.Z))
	if r.URL.Query().Get("summary") != "1" {
		table.Summary = nil
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="pgexplorer-export.csv"`)
	if err := render.WriteTableCSV(w, table); err != nil {
		s.logger.Error("writing export", zap.Error(err))
	}
}

// handleChartCSV writes the points of the current 2D chart.
func (s *Server) handleChartCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="pgexplorer-chart2d.csv"`)
	if err := render.WriteChartCSV(w, s.binder.Dashboard().Chart2D); err != nil {
		s.logger.Error("writing chart csv", zap.Error(err))
	}
}

// handleChartPNG serves the current 2D chart as a static image. Charts with
// category axes or no points answer 422.
func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := render.WriteChartPNG(&buf, s.binder.Dashboard().Chart2D); err != nil {
		if errors.Is(err, render.ErrNotDrawable) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		s.logger.Error("rendering png", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// ============================================================================
// HELPERS
// ============================================================================

// ParseQuery turns dashboard form values into an Update. ok reports whether
// any control was present. After a form submission (submitted=1) an absent
// multi-select means "nothing selected" rather than "unchanged".
func ParseQuery(q url.Values) (u binder.Update, ok bool, err error) {
	submitted := q.Get("submitted") == "1"

	if vals, present := q["region"]; present || submitted {
		regions := nonEmpty(vals)
		u.Regions, ok = &regions, true
	}
	if vals, present := q["country"]; present || submitted {
		countries := nonEmpty(vals)
		u.Countries, ok = &countries, true
	}
	for _, p := range []struct {
		key string
		dst **string
	}{{"x", &u.X}, {"y", &u.Y}, {"z", &u.Z}} {
		if v := q.Get(p.key); v != "" {
			v := v
			*p.dst, ok = &v, true
		}
	}
	if v := q.Get("chart"); v != "" {
		kind := engine.ChartKind(v)
		u.Chart2D, ok = &kind, true
	}
	for _, p := range []struct {
		key string
		dst **int
	}{{"year_min", &u.YearMin}, {"year_max", &u.YearMax}} {
		v := strings.TrimSpace(q.Get(p.key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return binder.Update{}, false, errors.Errorf("%s: %q is not a year", p.key, v)
		}
		*p.dst, ok = &n, true
	}
	return u, ok, nil
}

func nonEmpty(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func statusFor(err error) int {
	if errors.Is(err, engine.ErrInvalidSelection) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeJSON encodes v before touching the response so an encoding failure
// still reaches the client as a 500.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		s.logger.Error("encoding response", zap.Error(err))
		http.Error(w, "encoding response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
