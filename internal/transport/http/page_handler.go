package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "ogctz/internal/errors"
	"ogctz/internal/render"
	"ogctz/internal/session"
)

// NotFoundTemplate is rendered for unmatched HTML paths when present
const NotFoundTemplate = "404.html"

// Page is one static content page
type Page struct {
	Path     string
	Template string
	Title    string
}

// Pages lists every content page in navigation order
var Pages = []Page{
	{Path: "/", Template: "index.html", Title: "Home"},
	{Path: "/about", Template: "about.html", Title: "About Us"},
	{Path: "/services", Template: "services.html", Title: "Our Services"},
	{Path: "/projects", Template: "projects.html", Title: "Our Projects"},
	{Path: "/team", Template: "team.html", Title: "Our Team"},
	{Path: "/contact", Template: "contact.html", Title: "Contact Us"},
	{Path: "/resources", Template: "resources.html", Title: "Resources"},
}

// PageRenderer renders named page templates
type PageRenderer interface {
	Render(w http.ResponseWriter, r *http.Request, status int, name string, vars map[string]any) error
	Has(name string) bool
}

// Flashes reads and queues session flash messages
type Flashes interface {
	TakeFlash(ctx context.Context) *session.Flash
	SetFlash(ctx context.Context, flash session.Flash) error
}

// PageHandler serves the content pages and the HTML error pages
type PageHandler struct {
	renderer PageRenderer
	flashes  Flashes
	errors   *apierrors.ErrorHandler
	logger   *slog.Logger
}

// NewPageHandler creates a new page handler
func NewPageHandler(renderer PageRenderer, flashes Flashes, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *PageHandler {
	return &PageHandler{
		renderer: renderer,
		flashes:  flashes,
		errors:   errorHandler,
		logger:   logger.With(slog.String("handler", "page")),
	}
}

// Routes mounts every page on r
func (h *PageHandler) Routes(r chi.Router) {
	for _, page := range Pages {
		r.Get(page.Path, h.Serve(page))
	}
}

// Serve returns the handler for one page. The pending flash is consumed by
// this render; a failed render queues it again.
func (h *PageHandler) Serve(page Page) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flash := h.flashes.TakeFlash(r.Context())

		vars := map[string]any{
			render.VarTitle: page.Title,
			render.VarPath:  r.URL.Path,
		}
		if flash != nil {
			vars[render.VarFlash] = flash
		}

		if err := h.renderer.Render(w, r, http.StatusOK, page.Template, vars); err != nil {
			if flash != nil {
				if qerr := h.flashes.SetFlash(r.Context(), *flash); qerr != nil {
					h.logger.WarnContext(r.Context(), "flash requeue failed", slog.String("error", qerr.Error()))
				}
			}
			h.errors.HandlePage(w, r, err)
		}
	}
}

// NotFound answers unmatched paths. API paths get a problem document,
// everything else the 404 page or plain text when that page is missing.
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	if apierrors.IsAPIRequest(r) {
		h.errors.NotFound(w, r)
		return
	}

	if h.renderer.Has(NotFoundTemplate) {
		vars := map[string]any{
			render.VarTitle: "Page Not Found",
			render.VarPath:  r.URL.Path,
		}
		err := h.renderer.Render(w, r, http.StatusNotFound, NotFoundTemplate, vars)
		if err == nil {
			return
		}
		h.logger.WarnContext(r.Context(), "404 page render failed", slog.String("error", err.Error()))
	}

	http.Error(w, "404 page not found", http.StatusNotFound)
}

// MethodNotAllowed answers a matched path requested with the wrong method
func (h *PageHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	for _, method := range allowedMethods(r) {
		w.Header().Add("Allow", method)
	}

	if apierrors.IsAPIRequest(r) {
		h.errors.MethodNotAllowed(w, r)
		return
	}

	http.Error(w, "405 method not allowed", http.StatusMethodNotAllowed)
}

var probeMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

// allowedMethods asks the router which methods the request path accepts
func allowedMethods(r *http.Request) []string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || rctx.Routes == nil {
		return nil
	}

	var allowed []string
	for _, method := range probeMethods {
		if rctx.Routes.Match(chi.NewRouteContext(), method, r.URL.Path) {
			allowed = append(allowed, method)
		}
	}
	return allowed
}
