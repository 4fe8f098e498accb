// Package render turns dashboards into HTML: an echarts page for the charts
// and the control page that frames it.
package render

import (
	"html/template"
	"io"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/spektr-org/pgexplorer/binder"
	"github.com/spektr-org/pgexplorer/engine"
)

// PageData is everything the dashboard page shows.
type PageData struct {
	Title     string
	Selection engine.Selection
	Options   binder.Options
	Dashboard *engine.Dashboard
	ChartsURL string
}

// NewPageData assembles page data from one binder snapshot.
func NewPageData(sel engine.Selection, options binder.Options, dash *engine.Dashboard) PageData {
	return PageData{
		Title:     PageTitle,
		Selection: sel,
		Options:   options,
		Dashboard: dash,
		ChartsURL: ChartsURL(sel),
	}
}

// ChartsURL returns the iframe source for sel. The selection is encoded so
// that each state change yields a new URL and the browser reloads the frame.
func ChartsURL(sel engine.Selection) string {
	q := url.Values{}
	q.Set("x", sel.X)
	q.Set("y", sel.Y)
	q.Set("z", sel.Z)
	q.Set("chart", string(sel.Chart2D))
	q.Set("year_min", strconv.Itoa(sel.YearMin))
	q.Set("year_max", strconv.Itoa(sel.YearMax))
	for _, r := range sel.Regions {
		q.Add("region", r)
	}
	for _, c := range sel.Countries {
		q.Add("country", c)
	}
	return "/charts?" + q.Encode()
}

// WriteDashboard renders the control page.
func WriteDashboard(w io.Writer, data PageData) error {
	if err := dashboardTmpl.Execute(w, data); err != nil {
		return errors.Wrap(err, "render dashboard")
	}
	return nil
}

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"contains": func(list []string, s string) bool {
		for _, v := range list {
			if v == s {
				return true
			}
		}
		return false
	},
}).Parse(dashboardHTML))

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { background: #222; color: #fff; font-family: sans-serif; margin: 1.5rem; }
h1 { text-align: center; }
.row { display: flex; gap: 1rem; margin-bottom: 1rem; }
.col { flex: 1; }
select, input { width: 100%; background: #444; color: #fff; border: 1px solid #666; padding: .3rem; }
select[multiple] { height: 8rem; }
.cards { display: flex; flex-direction: column; gap: .5rem; width: 18rem; }
.card { background: #303030; border-radius: 4px; padding: .75rem; }
.card h5 { margin: 0 0 .25rem 0; font-weight: normal; }
.card p { margin: 0; font-size: 1.5rem; }
iframe { border: 0; flex: 1; height: 1250px; }
button { background: #375a7f; color: #fff; border: 0; padding: .5rem 1.5rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<form method="get" action="/">
<input type="hidden" name="submitted" value="1">
<div class="row">
  <div class="col">
    <label for="region">UN Region(s):</label>
    <select id="region" name="region" multiple onchange="this.form.submit()">
    {{- range .Options.Regions}}
      <option value="{{.}}"{{if contains $.Selection.Regions .}} selected{{end}}>{{.}}</option>
    {{- end}}
    </select>
  </div>
  <div class="col">
    <label for="country">Country(ies):</label>
    <select id="country" name="country" multiple onchange="this.form.submit()">
    {{- range .Options.Countries}}
      <option value="{{.}}"{{if contains $.Selection.Countries .}} selected{{end}}>{{.}}</option>
    {{- end}}
    </select>
  </div>
</div>
<div class="row">
  <div class="col">
    <label for="x">X-axis variable:</label>
    <select id="x" name="x" onchange="this.form.submit()">
    {{- range .Options.AxisColumns}}
      <option value="{{.}}"{{if eq . $.Selection.X}} selected{{end}}>{{.}}</option>
    {{- end}}
    </select>
  </div>
  <div class="col">
    <label for="y">Y-axis variable:</label>
    <select id="y" name="y" onchange="this.form.submit()">
    {{- range .Options.AxisColumns}}
      <option value="{{.}}"{{if eq . $.Selection.Y}} selected{{end}}>{{.}}</option>
    {{- end}}
    </select>
  </div>
  <div class="col">
    <label for="z">Z-axis variable:</label>
    <select id="z" name="z" onchange="this.form.submit()">
    {{- range .Options.AxisColumns}}
      <option value="{{.}}"{{if eq . $.Selection.Z}} selected{{end}}>{{.}}</option>
    {{- end}}
    </select>
  </div>
</div>
<div class="row">
  <div class="col">
    <label for="year_min">Year Range:</label>
    <input id="year_min" name="year_min" type="number" list="years" min="{{.Options.YearMin}}" max="{{.Options.YearMax}}" value="{{.Selection.YearMin}}" onchange="this.form.submit()">
  </div>
  <div class="col">
    <label for="year_max">&nbsp;</label>
    <input id="year_max" name="year_max" type="number" list="years" min="{{.Options.YearMin}}" max="{{.Options.YearMax}}" value="{{.Selection.YearMax}}" onchange="this.form.submit()">
    <datalist id="years">{{range .Options.Years}}<option value="{{.}}">{{end}}</datalist>
  </div>
  <div class="col">
    <label for="chart">2D chart:</label>
    <select id="chart" name="chart" onchange="this.form.submit()">
    {{- range .Options.ChartKinds}}
      <option value="{{.}}"{{if eq . (printf "%s" $.Selection.Chart2D)}} selected{{end}}>{{.}}</option>
    {{- end}}
    </select>
  </div>
  <div class="col"><label>&nbsp;</label><button type="submit">Apply</button></div>
</div>
</form>
<div class="row">
  <iframe src="{{.ChartsURL}}" title="charts"></iframe>
  {{- with .Dashboard}}
  <div class="cards">
  {{- range .Scorecards.All}}
    <div class="card"><h5>{{.Title}}</h5><p>{{.Value}}</p></div>
  {{- end}}
    <div class="card"><h5>Rows</h5><p>{{.RowCount}}</p></div>
  </div>
  {{- end}}
</div>
</body>
</html>
`
