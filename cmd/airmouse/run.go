package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/ayusman/airmouse/internal/app"
	"github.com/ayusman/airmouse/internal/capture"
	"github.com/ayusman/airmouse/internal/config"
	"github.com/ayusman/airmouse/internal/detector"
	"github.com/ayusman/airmouse/internal/effector"
	"github.com/ayusman/airmouse/internal/logging"
	"github.com/ayusman/airmouse/internal/metrics"
	"github.com/ayusman/airmouse/internal/plugin"
	"github.com/ayusman/airmouse/internal/server"
	"github.com/ayusman/airmouse/internal/store"
	"github.com/ayusman/airmouse/internal/tray"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// dryRunHistory is how many actions the dry-run recorder keeps.
const dryRunHistory = 256

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start gesture control",
	Long: `Opens the camera and turns gestures into actions until interrupted.
With --dry-run actions are logged instead of performed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		withTray, _ := cmd.Flags().GetBool("tray")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		disabled, _ := cmd.Flags().GetBool("disabled")

		return run(cmd.Context(), runOptions{
			configPath: configPath,
			tray:       withTray,
			dryRun:     dryRun,
			enabled:    !disabled,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("tray", false, "Show the system tray menu")
	runCmd.Flags().Bool("dry-run", false, "Log actions instead of performing them")
	runCmd.Flags().Bool("disabled", false, "Start with gesture control turned off")
}

type runOptions struct {
	configPath string
	tray       bool
	dryRun     bool
	enabled    bool
}

// loadConfig layers the file and the environment, opens the settings store
// named by that configuration, then reloads with the stored settings on top.
func loadConfig(path string) (config.Config, *store.Store, error) {
	base, err := config.Load(path, nil)
	if err != nil {
		return config.Config{}, nil, err
	}

	st, err := store.New(base.DBPath())
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to open store: %w", err)
	}

	cfg, err := loadStored(path, st)
	if err != nil {
		st.Close()
		return config.Config{}, nil, err
	}
	return cfg, st, nil
}

// loadExistingConfig layers stored settings only when the database already
// exists, so read-only commands never create it.
func loadExistingConfig(path string) (config.Config, error) {
	base, err := config.Load(path, nil)
	if err != nil {
		return config.Config{}, err
	}
	if _, err := os.Stat(base.DBPath()); errors.Is(err, fs.ErrNotExist) {
		return base, nil
	}

	st, err := store.New(base.DBPath())
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()
	return loadStored(path, st)
}

func loadStored(path string, st *store.Store) (config.Config, error) {
	settings, err := st.Settings().All()
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to read settings: %w", err)
	}
	return config.Load(path, settings)
}

func run(ctx context.Context, opts runOptions) error {
	cfg, st, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	defer st.Close()

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	eff, err := newEffector(cfg, opts.dryRun, logger)
	if err != nil {
		return err
	}

	collector := metrics.New()
	a, err := app.New(app.Config{
		Session: cfg.Gesture(),
		Camera: capture.NewCamera(capture.Config{
			Device: cfg.Capture.Device,
			Width:  cfg.Capture.Width,
			Height: cfg.Capture.Height,
			FPS:    cfg.Capture.FPS,
		}),
		Detector:               newDetector(cfg, logger),
		Effector:               eff,
		Metrics:                collector,
		Logger:                 logger,
		FPS:                    cfg.Capture.FPS,
		IdleFPS:                cfg.Capture.IdleFPS,
		MotionThreshold:        cfg.Capture.MotionThreshold,
		Mirror:                 cfg.Capture.Mirror,
		MaxConsecutiveFailures: cfg.Capture.MaxConsecutiveFailures,
		Preview:                cfg.Server.Preview,
		Enabled:                opts.enabled,
		DetectScreen:           !cfg.ScreenOverride(),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// A stopped loop takes the server and tray down with it.
		defer cancel()
		return a.Run(gctx)
	})

	if cfg.Server.Addr != "" {
		srv := server.New(server.Config{
			StaticDir: findWebDir(cfg.DataDir),
			Store:     st,
			Engine:    a,
			Metrics:   collector.Handler(),
			Base:      cfg,
			Logger:    logger,
		})
		g.Go(func() error {
			return srv.Run(gctx, cfg.Server.Addr)
		})
	}

	if opts.tray {
		t := tray.New(a)
		t.OnQuit(cancel)
		if cfg.Server.Addr != "" {
			t.OnSettings(func() { openBrowser(settingsURL(cfg.Server.Addr), logger) })
		}
		go func() {
			<-gctx.Done()
			t.Quit()
		}()
		// The tray owns the main goroutine until it quits.
		t.Run()
		cancel()
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newDetector prefers MediaPipe and falls back to a detector that never
// sees a hand, so the preview and server still work without Python.
func newDetector(cfg config.Config, logger *slog.Logger) detector.Detector {
	mp, err := detector.NewMediaPipeDetector(cfg.DetectorOptions())
	if err != nil {
		logger.Warn("MediaPipe not available, no hands will be detected", "err", err)
		return detector.NewMockDetector()
	}
	logger.Info("using MediaPipe hand detection")
	return mp
}

func newEffector(cfg config.Config, dryRun bool, logger *slog.Logger) (effector.Effector, error) {
	if dryRun {
		logger.Info("dry run: actions are logged, not performed")
		return effector.NewRecorder(dryRunHistory, logger), nil
	}

	mgr := plugin.NewManager(cfg.Plugins.Dir, logger)
	if err := mgr.Discover(); err != nil {
		return nil, fmt.Errorf("failed to discover plugins: %w", err)
	}
	for _, p := range mgr.List() {
		logger.Info("plugin loaded", "name", p.Manifest.Name, "actions", p.Manifest.Actions)
	}
	return effector.NewPluginEffector(mgr, plugin.NewExecutor(cfg.Plugins.Timeout)), nil
}

func settingsURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string, logger *slog.Logger) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		logger.Warn("failed to open browser", "url", url, "err", err)
	}
}
