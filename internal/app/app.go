package app

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"ogctz/internal/config"
	apierrors "ogctz/internal/errors"
	"ogctz/internal/infrastructure"
	"ogctz/internal/middleware"
	"ogctz/internal/render"
	"ogctz/internal/services"
	"ogctz/internal/session"
	handlers "ogctz/internal/transport/http"
	ws "ogctz/internal/websocket"
)

var (
	// BuildTime is set at link time
	BuildTime = ""
	// BuildID identifies this build; derived from the version when not set
	BuildID = ""
)

func buildID() string {
	if BuildID != "" {
		return BuildID
	}
	h := sha256.New()
	h.Write([]byte(config.AppVersion))
	h.Write([]byte(BuildTime))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Assets are the template and static roots used when the configuration
// does not point at directories on disk.
type Assets struct {
	Templates fs.FS
	Static    fs.FS
}

// Application wires the site's components together and owns their lifecycle
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics

	Site          *config.SiteContext
	Renderer      *render.Renderer
	Flashes       *session.MemoryStore
	Sessions      *session.Manager
	HealthService *services.HealthService
	FormService   *services.FormService
	ErrorHandler  *apierrors.ErrorHandler

	// LiveReload is nil unless template reload is enabled
	LiveReload *ws.Hub

	roots  *config.Roots
	static fs.FS
}

// New builds the application from cfg. Configured directories take
// precedence over assets.
func New(cfg *config.Config, assets Assets, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("executable", config.Executable))

	if cfg.UsesDefaultSecret() {
		logger.Warn("Using the built-in development secret key; set SECRET_KEY in production")
	}

	roots, err := cfg.Paths.ResolveRoots()
	if err != nil {
		return nil, apierrors.NewConfigError("resolve asset roots", err)
	}

	a := &Application{
		Config: cfg,
		Logger: logger,
		Site:   config.NewSiteContext(cfg.Site),
		roots:  roots,
	}

	templates := roots.Templates
	if templates == nil {
		templates = assets.Templates
	}
	a.static = roots.Static
	if a.static == nil {
		a.static = assets.Static
	}
	if templates == nil {
		return nil, apierrors.NewConfigError("no template root configured", nil)
	}

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, config.AppVersion, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	a.OTelProviders = providers

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	a.Metrics = metrics

	if err := a.initializeServices(templates); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := a.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	a.createServer()

	return a, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices(templates fs.FS) error {
	liveReload := a.Config.Render.Reload && a.roots.TemplateDir != ""
	if a.Config.Render.Reload && !liveReload {
		a.Logger.Warn("Template reload needs an on-disk template directory; serving embedded templates without reload")
	}

	renderer, err := render.New(render.Options{
		Templates:  templates,
		Site:       a.Site,
		Minify:     a.Config.Render.Minify,
		LiveReload: liveReload,
		Logger:     a.Logger,
		Tracer:     a.OTelProviders.Tracer,
		Metrics:    a.Metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	a.Renderer = renderer

	if liveReload {
		a.LiveReload = ws.NewHub(a.Logger)
	}

	a.Flashes = session.NewMemoryStore(a.Config.Session.FlashTTL)
	sessions, err := session.NewManager(a.Config.Session, a.Flashes, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize sessions: %w", err)
	}
	a.Sessions = sessions

	a.ErrorHandler = apierrors.NewErrorHandler(a.Logger, a.Config.Render.ExposeErrors)
	a.FormService = services.NewFormService(middleware.NewFormValidator(), sessions, a.Metrics, a.Logger)

	a.HealthService = services.NewHealthService(services.BuildInfo{
		Version:   config.AppVersion,
		BuildTime: BuildTime,
		BuildID:   buildID(),
	}, a.Logger)
	a.HealthService.AddCheck("templates", a.templatesHealth)
	a.HealthService.AddCheck("sessions", a.sessionsHealth)

	a.Logger.Info("Services initialized",
		slog.Any("pages", renderer.Pages()),
		slog.Bool("live_reload", liveReload))

	return nil
}

func (a *Application) templatesHealth(context.Context) services.ServiceHealth {
	for _, page := range handlers.Pages {
		if !a.Renderer.Has(page.Template) {
			return services.ServiceHealth{
				Status:  services.StatusNotReady,
				Message: "missing template " + page.Template,
			}
		}
	}
	return services.ServiceHealth{
		Status:  services.StatusReady,
		Message: fmt.Sprintf("%d pages loaded", len(a.Renderer.Pages())),
	}
}

func (a *Application) sessionsHealth(context.Context) services.ServiceHealth {
	return services.ServiceHealth{
		Status:  services.StatusReady,
		Message: fmt.Sprintf("%d pending flashes", a.Flashes.Len()),
	}
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Run serves until ctx is cancelled, then shuts the server down within the
// configured timeout. The flash janitor, the template watcher and the
// live-reload hub run alongside the server and stop with it.
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Flashes.RunJanitor(ctx, a.Config.Session.SweepInterval, a.Logger)
	})

	if a.LiveReload != nil {
		g.Go(func() error {
			return a.LiveReload.Run(ctx)
		})
		g.Go(func() error {
			return render.NewWatcher(a.roots.TemplateDir, a.Renderer, a.Logger, a.LiveReload.BroadcastReload).Run(ctx)
		})
	}

	g.Go(func() error {
		a.Logger.InfoContext(ctx, "Server listening",
			slog.String("address", ln.Addr().String()),
			slog.String("environment", a.Config.Telemetry.Environment))

		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return a.Stop(context.WithoutCancel(ctx))
	})

	return g.Wait()
}

// Stop gracefully stops the server and flushes telemetry
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Handler returns the root HTTP handler
func (a *Application) Handler() http.Handler {
	return a.Router
}
