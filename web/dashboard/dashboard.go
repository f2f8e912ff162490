// Package dashboard serves the anomaly analysis web application. It
// mounts as the router fallback so the API and reference modules keep
// their prefixes while every other path lands on the dashboard.
package dashboard

import (
	"embed"
	"net/http"

	"argus/pkg/web"
)

//go:embed layouts/*.html
var layoutFS embed.FS

//go:embed views/*.html
var viewFS embed.FS

//go:embed static/*
var staticFS embed.FS

const layout = "base"

var views = []web.ViewDef{
	{Route: "GET /{$}", Template: "analyze.html", Title: "IoT Security Anomaly Analysis", Bundle: "analyze.js"},
	{Route: "GET /browse", Template: "browse.html", Title: "Result Browser", Bundle: "browse.js"},
}

// NewHandler builds the dashboard handler: rendered pages, embedded
// static assets, and a catch-all landing unknown paths on the analysis
// page.
func NewHandler() (http.Handler, error) {
	ts, err := web.NewTemplateSet(layoutFS, viewFS, "layouts/*.html", "views", "", views)
	if err != nil {
		return nil, err
	}

	router := web.NewRouter()
	for _, view := range views {
		router.HandleFunc(view.Route, ts.PageHandler(layout, view))
	}
	router.HandleFunc("GET /static/", web.DistServer(staticFS, "static", "/static/"))
	router.SetFallback(ts.PageHandler(layout, views[0]))

	return router, nil
}
