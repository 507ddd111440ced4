package app

import (
	"compress/flate"
	"fmt"
	"io/fs"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"ogctz/internal/middleware"
	handlers "ogctz/internal/transport/http"
)

// LiveReloadPath is where browsers connect for template reload events
const LiveReloadPath = "/__livereload"

// Route is one entry of the routing table
type Route struct {
	Method  string
	Pattern string
}

// setupRouter builds the chi router.
// Order: RequestID → RealIP → OTel → Logger → Recoverer → SecureHeaders,
// then Timeout and the session for the page, form and API routes.
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	otelMiddleware, err := middleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
	if err != nil {
		return fmt.Errorf("failed to create OpenTelemetry middleware: %w", err)
	}

	secure := middleware.DefaultSecureHeaders()
	secure.DevMode = a.Config.Telemetry.Environment == "development"

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(otelMiddleware.Handler)
	r.Use(middleware.StructuredLogger(a.Logger))
	r.Use(a.ErrorHandler.Middleware)
	r.Use(secure.Handler)

	pages := handlers.NewPageHandler(a.Renderer, a.Sessions, a.ErrorHandler, a.Logger)
	forms := handlers.NewFormHandler(a.FormService, a.Logger)
	health := handlers.NewHealthHandler(a.HealthService, a.Logger)

	r.NotFound(pages.NotFound)
	r.MethodNotAllowed(pages.MethodNotAllowed)

	// the websocket must not sit behind Timeout
	if a.LiveReload != nil {
		r.Get(LiveReloadPath, a.LiveReload.ServeHTTP)
	}

	if a.static != nil {
		r.With(middleware.Compress(flate.DefaultCompression)).
			Get("/static/*", http.StripPrefix("/static/", staticHandler(a.static)).ServeHTTP)
	}

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Get("/metrics", a.OTelProviders.PrometheusHTTP.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		health.Routes(r)

		r.Group(func(r chi.Router) {
			r.Use(a.Sessions.Middleware)
			pages.Routes(r)
			forms.Routes(r)
		})
	})

	a.Router = r
	return nil
}

// staticHandler serves files from fsys without directory listings
func staticHandler(fsys fs.FS) http.Handler {
	files := http.FileServerFS(fsys)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		files.ServeHTTP(w, r)
	})
}

// Routes returns the routing table sorted by pattern then method
func (a *Application) Routes() ([]Route, error) {
	var routes []Route
	err := chi.Walk(a.Router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, Route{Method: method, Pattern: route})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk routes: %w", err)
	}

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Pattern != routes[j].Pattern {
			return routes[i].Pattern < routes[j].Pattern
		}
		return routes[i].Method < routes[j].Method
	})
	return routes, nil
}
