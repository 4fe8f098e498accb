// Package pgexplorer is an interactive dashboard for exploring per-country
// indicator time series.
//
// The dataset is a pivoted CSV: one row per (country, year), identity
// columns country / ISO2 / ISO3 / un_region, and one column per indicator.
//
// Layout:
//
//	schema   column discovery (roles, kinds, missing markers)
//	dataset  immutable loaded table and its option lists
//	engine   filtering, aggregation, chart and scorecard building
//	binder   selection state and control events
//	render   echarts chart page, HTML dashboard, CSV/JSON/YAML output
//	server   HTTP routes, middleware, Prometheus metrics
//
// The binary lives in cmd/pgexplorer:
//
//	pgexplorer --data pivoted.csv --port 8080
//
// Everything is computed in-process from the loaded table. Nothing is
// written back and no external service is called.
package pgexplorer
