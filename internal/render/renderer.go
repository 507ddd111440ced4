package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tdewolff/minify/v2"
	mincss "github.com/tdewolff/minify/v2/css"
	minhtml "github.com/tdewolff/minify/v2/html"
	minjs "github.com/tdewolff/minify/v2/js"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"ogctz/internal/config"
	apierrors "ogctz/internal/errors"
	"ogctz/internal/infrastructure"
)

const (
	// LayoutName is the layout every page is parsed together with
	LayoutName = "base.html"

	partialsGlob = "partials/*.html"
)

// Template variables injected on every render
const (
	VarFlash      = "flash"
	VarPath       = "path"
	VarYear       = "year"
	VarTitle      = "title"
	VarLiveReload = "livereload"
)

// Options configures a Renderer
type Options struct {
	Templates  fs.FS
	Site       *config.SiteContext
	Minify     bool
	LiveReload bool
	Logger     *slog.Logger
	Tracer     trace.Tracer
	Metrics    *infrastructure.BusinessMetrics
}

// Renderer executes page templates against the global site context.
// The template set can be reloaded while serving.
type Renderer struct {
	mu    sync.RWMutex
	pages map[string]*template.Template

	fsys       fs.FS
	site       *config.SiteContext
	minifier   *minify.M
	liveReload bool
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    *infrastructure.BusinessMetrics
	now        func() time.Time
}

// New creates a Renderer and parses the template set
func New(opts Options) (*Renderer, error) {
	if opts.Templates == nil {
		return nil, apierrors.NewConfigError("template filesystem is nil", nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Tracer == nil {
		opts.Tracer = tracenoop.NewTracerProvider().Tracer("render")
	}
	if opts.Site == nil {
		opts.Site = config.NewSiteContext(config.Default().Site)
	}

	r := &Renderer{
		fsys:       opts.Templates,
		site:       opts.Site,
		liveReload: opts.LiveReload,
		logger:     infrastructure.WithComponent(opts.Logger, "render"),
		tracer:     opts.Tracer,
		metrics:    opts.Metrics,
		now:        time.Now,
	}

	if opts.Minify {
		m := minify.New()
		m.AddFunc("text/html", minhtml.Minify)
		m.AddFunc("text/css", mincss.Minify)
		m.AddFunc("application/javascript", minjs.Minify)
		r.minifier = m
	}

	if err := r.Load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Load parses the layout, partials and every page. The current set is only
// replaced when the whole parse succeeds.
func (r *Renderer) Load() error {
	pages, err := r.parse()
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.pages = pages
	r.mu.Unlock()

	r.logger.Debug("templates loaded", slog.Int("pages", len(pages)))
	return nil
}

func (r *Renderer) parse() (map[string]*template.Template, error) {
	if _, err := fs.Stat(r.fsys, LayoutName); err != nil {
		return nil, apierrors.NewTemplateError("layout "+LayoutName+" not found", err)
	}

	partials, err := fs.Glob(r.fsys, partialsGlob)
	if err != nil {
		return nil, apierrors.NewTemplateError("list partials", err)
	}

	names, err := fs.Glob(r.fsys, "*.html")
	if err != nil {
		return nil, apierrors.NewTemplateError("list pages", err)
	}

	funcs := FuncMap(func() time.Time { return r.now() })
	pages := make(map[string]*template.Template, len(names))

	for _, name := range names {
		if name == LayoutName {
			continue
		}

		files := append([]string{LayoutName}, partials...)
		files = append(files, name)

		tmpl, err := template.New(LayoutName).Funcs(funcs).ParseFS(r.fsys, files...)
		if err != nil {
			return nil, apierrors.NewTemplateError("parse "+name, err).WithContext("page", name)
		}
		pages[name] = tmpl
	}

	return pages, nil
}

// Pages returns the sorted names of the loaded page templates
func (r *Renderer) Pages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.pages))
	for name := range r.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a page template is loaded
func (r *Renderer) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.pages[name]
	return ok
}

// Ready reports whether at least one page is loaded
func (r *Renderer) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pages) > 0
}

// Vars builds the variable set for one render. Site values come first,
// then the injected defaults, then vars; later entries win.
func (r *Renderer) Vars(vars map[string]any) map[string]any {
	data := r.site.Map()
	data[VarTitle] = ""
	data[VarPath] = ""
	data[VarFlash] = nil
	data[VarYear] = r.now().Year()
	data[VarLiveReload] = r.liveReload
	for k, v := range vars {
		data[k] = v
	}
	return data
}

// Execute renders the named page into a byte slice
func (r *Renderer) Execute(ctx context.Context, name string, vars map[string]any) ([]byte, error) {
	ctx, span := r.tracer.Start(ctx, "render "+name,
		trace.WithAttributes(attribute.String("template.name", name)))
	defer span.End()

	start := time.Now()
	out, err := r.execute(name, vars)
	r.metrics.RecordPageRender(ctx, strings.TrimSuffix(name, path.Ext(name)), time.Since(start), err)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	return out, nil
}

func (r *Renderer) execute(name string, vars map[string]any) ([]byte, error) {
	r.mu.RLock()
	tmpl, ok := r.pages[name]
	r.mu.RUnlock()
	if !ok {
		return nil, apierrors.NewNotFoundError("template " + name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, LayoutName, r.Vars(vars)); err != nil {
		return nil, apierrors.NewTemplateError("execute "+name, err).WithContext("page", name)
	}

	if r.minifier == nil {
		return buf.Bytes(), nil
	}

	var min bytes.Buffer
	if err := r.minifier.Minify("text/html", &min, &buf); err != nil {
		return nil, apierrors.NewTemplateError("minify "+name, err)
	}
	return min.Bytes(), nil
}

// Render executes the page and writes it with the given status. Nothing is
// written when rendering fails. Once the header is sent the response is
// committed, so write failures are only logged.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, name string, vars map[string]any) error {
	out, err := r.Execute(req.Context(), name, vars)
	if err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(out); err != nil {
		r.logger.WarnContext(req.Context(), "page write failed",
			slog.String("page", name),
			slog.String("error", err.Error()))
	}
	return nil
}
