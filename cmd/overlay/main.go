// Overlay - mirrors Ninjabrain Bot's live state as an always-on-top HUD
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"

	"github.com/GriffinCanCode/nbtrackr/internal/config"
	"github.com/GriffinCanCode/nbtrackr/internal/customize"
	apperrors "github.com/GriffinCanCode/nbtrackr/internal/errors"
	"github.com/GriffinCanCode/nbtrackr/internal/health"
	"github.com/GriffinCanCode/nbtrackr/internal/ninjabrain"
	"github.com/GriffinCanCode/nbtrackr/internal/orchestrator"
	"github.com/GriffinCanCode/nbtrackr/internal/position"
	"github.com/GriffinCanCode/nbtrackr/internal/surface"
	"github.com/GriffinCanCode/nbtrackr/internal/surface/pngfile"
	"github.com/GriffinCanCode/nbtrackr/internal/surface/term"
	"github.com/GriffinCanCode/nbtrackr/internal/surface/window"
	"github.com/GriffinCanCode/nbtrackr/internal/surface/wsbridge"
)

func main() {
	os.Exit(run())
}

// run owns every deferred cleanup, so main can exit with its code after
// they ran.
func run() int {
	cfg := config.Load()

	// Setup structured logging; the terminal surface owns stdout.
	level := cfg.LogLevel
	if config.Debug() {
		level = slog.LevelDebug
	}
	var out io.Writer = os.Stdout
	if cfg.Surface == config.SurfaceTerm {
		f, err := os.OpenFile(filepath.Join(os.TempDir(), "nbtrackr.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			defer f.Close()
			out = f
		} else {
			out = io.Discard
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Release: "nbtrackr"}); err != nil {
			slog.Warn("sentry disabled", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	if cfg.StatsviewAddr != "" {
		viewer.SetConfiguration(viewer.WithTheme(viewer.ThemeWesteros), viewer.WithAddr(cfg.StatsviewAddr))
		mgr := statsview.New()
		go mgr.Start()
		defer mgr.Stop()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	upstream := ninjabrain.New(cfg.NinjabrainURL, cfg.FetchTimeout)
	deps := orchestrator.Deps{
		Fetcher: upstream,
		Config:  customize.NewStore(cfg.CustomizationsPath),
		Mailbox: surface.NewMailbox(),
	}

	positions, err := position.Open(cfg.StateDBPath)
	if err != nil {
		slog.Warn("position persistence disabled", "path", cfg.StateDBPath, "error", err)
	} else {
		defer func() { _ = positions.Close() }()
		deps.Positions = positions
	}

	mgr := orchestrator.New(cfg, deps)

	if cfg.HealthAddr != "" {
		hs := health.New(upstream.Breaker())
		go func() {
			if err := hs.ListenAndServe(ctx, cfg.HealthAddr); err != nil {
				slog.Error("health service error", "error", err)
			}
		}()
	}

	slog.Info("overlay starting",
		"upstream", cfg.NinjabrainURL,
		"surface", cfg.Surface,
		"customizations", cfg.CustomizationsPath)

	if err := mgr.Start(ctx); err != nil {
		slog.Error("engine start failed", "error", err)
		return 1
	}

	code := 0
	if err := present(ctx, cancel, cfg, mgr); err != nil {
		slog.Error("surface error", "surface", cfg.Surface, "error", err)
		code = 1
	}

	slog.Info("shutting down...")
	cancel()
	mgr.Stop()
	slog.Info("shutdown complete",
		"frames_posted", mgr.Emissions(),
		"upstream_reachable", mgr.Reachable())
	return code
}

// present runs the configured surface until ctx is done.
func present(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, mgr *orchestrator.Manager) error {
	mb := mgr.Mailbox()

	switch cfg.Surface {
	case config.SurfaceWindow:
		// The game loop drains the mailbox; it must own the main goroutine.
		return window.New(ctx, mb, mgr.HandleMove).Run()

	case config.SurfaceWS:
		bridge := wsbridge.New(mgr.HandleMove)
		go surface.Run(ctx, bridge, mb)
		return bridge.ListenAndServe(ctx, cfg.WSAddr)

	case config.SurfacePNG:
		out := pngfile.New(cfg.PNGOutputPath)
		slog.Info("writing overlay image", "path", out.Path())
		surface.Run(ctx, out, mb)
		return nil

	case config.SurfaceTerm:
		t, err := term.Open()
		if err != nil {
			return err
		}
		defer t.Close()
		go surface.Run(ctx, t, mb)
		t.Events(ctx, cancel, mgr.HandleMove)
		return nil
	}

	return apperrors.Newf(apperrors.CodeInvalidArgument, "unknown surface %q", cfg.Surface).
		WithMetadata("valid", strings.Join([]string{
			config.SurfaceWindow, config.SurfaceWS, config.SurfacePNG, config.SurfaceTerm,
		}, ","))
}
