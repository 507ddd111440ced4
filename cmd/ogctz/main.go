package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"ogctz/internal/app"
	"ogctz/internal/config"
	apierrors "ogctz/internal/errors"
	"ogctz/internal/infrastructure"
	"ogctz/internal/render"
	handlers "ogctz/internal/transport/http"
	"ogctz/web"
)

func main() {
	if err := runApp(os.Args); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func runApp(args []string) error {
	return newCLI().Run(args)
}

func newCLI() *cli.App {
	return &cli.App{
		Name:    config.Executable,
		Usage:   "Serve the " + config.AppName + " website",
		Version: config.AppVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML configuration file",
			},
			&cli.StringFlag{
				Name:  "templates",
				Usage: "template directory (default: embedded templates)",
			},
			&cli.StringFlag{
				Name:  "static",
				Usage: "static asset directory (default: embedded assets)",
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the web server",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "listen port"},
				},
				Action: serve,
			},
			{
				Name:   "check",
				Usage:  "Parse and execute every page template",
				Action: check,
			},
			{
				Name:   "routes",
				Usage:  "Print the route table",
				Action: routes,
			},
		},
	}
}

// loadConfig reads the configuration and applies command-line overrides.
// Directory flags are taken relative to the working directory.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if dir := c.String("templates"); dir != "" {
		if cfg.Paths.TemplateDir, err = filepath.Abs(dir); err != nil {
			return nil, fmt.Errorf("template directory: %w", err)
		}
	}
	if dir := c.String("static"); dir != "" {
		if cfg.Paths.StaticDir, err = filepath.Abs(dir); err != nil {
			return nil, fmt.Errorf("static directory: %w", err)
		}
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func defaultAssets() app.Assets {
	return app.Assets{Templates: web.Templates(), Static: web.Static()}
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger, closer, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	application, err := app.New(cfg, defaultAssets(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return application.Run(ctx)
}

func check(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	roots, err := cfg.Paths.ResolveRoots()
	if err != nil {
		return err
	}
	templates := roots.Templates
	source := roots.TemplateDir
	if templates == nil {
		templates, source = web.Templates(), "embedded"
	}

	renderer, err := render.New(render.Options{
		Templates: templates,
		Site:      config.NewSiteContext(cfg.Site),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("templates (%s): %v", source, err), 1)
	}

	out := c.App.Writer
	fmt.Fprintf(out, "templates: %s\n", source)

	failed := 0
	for _, page := range handlers.Pages {
		_, err := renderer.Execute(context.Background(), page.Template, map[string]any{
			render.VarTitle: page.Title,
			render.VarPath:  page.Path,
		})
		if apierrors.IsType(err, apierrors.ErrTypeNotFound) {
			failed++
			fmt.Fprintf(out, "MISS %-16s %s\n", page.Template, page.Path)
			continue
		}
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %-16s %s: %v\n", page.Template, page.Path, err)
			continue
		}
		fmt.Fprintf(out, "ok   %-16s %s\n", page.Template, page.Path)
	}

	if !renderer.Has(handlers.NotFoundTemplate) {
		fmt.Fprintf(out, "warn %-16s missing, 404s fall back to plain text\n", handlers.NotFoundTemplate)
	}

	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d pages failed", failed, len(handlers.Pages)), 1)
	}
	return nil
}

func routes(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	application, err := app.New(cfg, defaultAssets(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return err
	}
	defer func() {
		if err := application.OTelProviders.Shutdown(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	table, err := application.Routes()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tPATTERN")
	for _, r := range table {
		fmt.Fprintf(tw, "%s\t%s\n", r.Method, r.Pattern)
	}
	return tw.Flush()
}
