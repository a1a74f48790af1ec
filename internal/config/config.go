// Package config loads airmouse settings.
//
// Values are resolved in layers: built-in defaults, then an optional YAML
// file, then settings persisted in the store, then AIRMOUSE_* environment
// variables. Later layers only override the keys they set.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ayusman/airmouse/internal/detector"
	"github.com/ayusman/airmouse/internal/gesture"
	"github.com/caarlos0/env/v11"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "AIRMOUSE_"

// ErrInvalid is returned when a configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete application configuration.
type Config struct {
	DataDir    string           `yaml:"data_dir" env:"DATA_DIR"`
	Classifier ClassifierConfig `yaml:"classifier" envPrefix:"CLASSIFIER_"`
	Router     RouterConfig     `yaml:"router" envPrefix:"ROUTER_"`
	Cursor     CursorConfig     `yaml:"cursor" envPrefix:"CURSOR_"`
	Capture    CaptureConfig    `yaml:"capture" envPrefix:"CAPTURE_"`
	Detector   DetectorConfig   `yaml:"detector" envPrefix:"DETECTOR_"`
	Plugins    PluginsConfig    `yaml:"plugins" envPrefix:"PLUGINS_"`
	Server     ServerConfig     `yaml:"server" envPrefix:"SERVER_"`
	Log        LogConfig        `yaml:"log" envPrefix:"LOG_"`
}

// ClassifierConfig holds the finger-state margins in pixels.
type ClassifierConfig struct {
	ThumbMargin  int `yaml:"thumb_margin" env:"THUMB_MARGIN"`
	FingerMargin int `yaml:"finger_margin" env:"FINGER_MARGIN"`
}

// RouterConfig holds gesture thresholds and cooldowns.
type RouterConfig struct {
	ClickDistance      int           `yaml:"click_distance" env:"CLICK_DISTANCE"`
	VolumeMinDistance  int           `yaml:"volume_min_distance" env:"VOLUME_MIN_DISTANCE"`
	VolumeMaxDistance  int           `yaml:"volume_max_distance" env:"VOLUME_MAX_DISTANCE"`
	ZoomSpread         int           `yaml:"zoom_spread" env:"ZOOM_SPREAD"`
	ScrollStep         int           `yaml:"scroll_step" env:"SCROLL_STEP"`
	LeftClickCooldown  time.Duration `yaml:"left_click_cooldown" env:"LEFT_CLICK_COOLDOWN"`
	RightClickCooldown time.Duration `yaml:"right_click_cooldown" env:"RIGHT_CLICK_COOLDOWN"`
	ScrollCooldown     time.Duration `yaml:"scroll_cooldown" env:"SCROLL_COOLDOWN"`
	ZoomCooldown       time.Duration `yaml:"zoom_cooldown" env:"ZOOM_COOLDOWN"`
	ZoomExclusive      bool          `yaml:"zoom_exclusive" env:"ZOOM_EXCLUSIVE"`
	ScreenshotPath     string        `yaml:"screenshot_path" env:"SCREENSHOT_PATH"`
	// SeedCooldowns starts every cooldown at the first frame, so no click or
	// scroll fires until its cooldown has passed once.
	SeedCooldowns bool `yaml:"seed_cooldowns" env:"SEED_COOLDOWNS"`
}

// CursorConfig maps the camera frame onto the screen. A zero screen size is
// detected from the display when the engine starts.
type CursorConfig struct {
	FrameMargin  int     `yaml:"frame_margin" env:"FRAME_MARGIN"`
	Smoothing    float64 `yaml:"smoothing" env:"SMOOTHING"`
	ScreenWidth  int     `yaml:"screen_width" env:"SCREEN_WIDTH"`
	ScreenHeight int     `yaml:"screen_height" env:"SCREEN_HEIGHT"`
	Clamp        bool    `yaml:"clamp" env:"CLAMP"`
}

// CaptureConfig configures the camera.
type CaptureConfig struct {
	Device int `yaml:"device" env:"DEVICE"`
	Width  int `yaml:"width" env:"WIDTH"`
	Height int `yaml:"height" env:"HEIGHT"`
	FPS    int `yaml:"fps" env:"FPS"`
	// IdleFPS is the frame rate used while no motion is seen. Zero disables
	// the governor.
	IdleFPS                int     `yaml:"idle_fps" env:"IDLE_FPS"`
	MotionThreshold        float64 `yaml:"motion_threshold" env:"MOTION_THRESHOLD"`
	Mirror                 bool    `yaml:"mirror" env:"MIRROR"`
	MaxConsecutiveFailures int     `yaml:"max_consecutive_failures" env:"MAX_CONSECUTIVE_FAILURES"`
}

// DetectorConfig configures hand landmark detection.
type DetectorConfig struct {
	MaxHands              int           `yaml:"max_hands" env:"MAX_HANDS"`
	MinConfidence         float64       `yaml:"min_confidence" env:"MIN_CONFIDENCE"`
	MinTrackingConfidence float64       `yaml:"min_tracking_confidence" env:"MIN_TRACKING_CONFIDENCE"`
	Script                string        `yaml:"script" env:"SCRIPT"`
	Python                string        `yaml:"python" env:"PYTHON"`
	IdleShutdown          time.Duration `yaml:"idle_shutdown" env:"IDLE_SHUTDOWN"`
}

// PluginsConfig locates the effector plugins.
type PluginsConfig struct {
	Dir     string        `yaml:"dir" env:"DIR"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// ServerConfig configures the local HTTP server. An empty Addr disables it.
type ServerConfig struct {
	Addr    string `yaml:"addr" env:"ADDR"`
	Preview bool   `yaml:"preview" env:"PREVIEW"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Default returns the stock configuration.
func Default() Config {
	router := gesture.DefaultRouterConfig()
	cursor := gesture.DefaultCursorConfig()
	classifier := gesture.DefaultClassifierConfig()
	det := detector.DefaultConfig()

	dataDir := ".airmouse"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".airmouse")
	}

	return Config{
		DataDir: dataDir,
		Classifier: ClassifierConfig{
			ThumbMargin:  classifier.ThumbMargin,
			FingerMargin: classifier.FingerMargin,
		},
		Router: RouterConfig{
			ClickDistance:      router.ClickDistance,
			VolumeMinDistance:  router.VolumeMinDistance,
			VolumeMaxDistance:  router.VolumeMaxDistance,
			ZoomSpread:         router.ZoomSpread,
			ScrollStep:         router.ScrollStep,
			LeftClickCooldown:  router.LeftClickCooldown,
			RightClickCooldown: router.RightClickCooldown,
			ScrollCooldown:     router.ScrollCooldown,
			ZoomCooldown:       router.ZoomCooldown,
			ZoomExclusive:      router.ZoomExclusive,
			ScreenshotPath:     router.ScreenshotPath,
			SeedCooldowns:      router.SeedCooldowns,
		},
		Cursor: CursorConfig{
			FrameMargin: cursor.Margin,
			Smoothing:   cursor.Smoothing,
			Clamp:       cursor.Clamp,
		},
		Capture: CaptureConfig{
			Device:                 0,
			Width:                  cursor.FrameWidth,
			Height:                 cursor.FrameHeight,
			FPS:                    60,
			MotionThreshold:        1.0,
			Mirror:                 true,
			MaxConsecutiveFailures: 30,
		},
		Detector: DetectorConfig{
			MaxHands:              det.MaxHands,
			MinConfidence:         det.MinConfidence,
			MinTrackingConfidence: det.MinTrackingConf,
			IdleShutdown:          det.IdleShutdown,
		},
		Plugins: PluginsConfig{
			Dir:     filepath.Join(dataDir, "plugins"),
			Timeout: 2 * time.Second,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load resolves the configuration from every layer and validates it.
// path may be empty; a missing file is not an error.
func Load(path string, settings map[string]string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.ApplySettings(settings); err != nil {
		return Config{}, err
	}

	if err := cfg.ApplyEnv(nil); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// ApplySettings overlays dotted key/value pairs such as
// "router.click_distance" = "25". Unknown keys are rejected.
func (c *Config) ApplySettings(settings map[string]string) error {
	if len(settings) == 0 {
		return nil
	}

	tree := make(map[string]any)
	for key, value := range settings {
		parts := strings.Split(key, ".")
		node := tree
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = value
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "yaml",
		Result:           c,
	})
	if err != nil {
		return fmt.Errorf("failed to build settings decoder: %w", err)
	}

	if err := decoder.Decode(tree); err != nil {
		return fmt.Errorf("%w: settings: %v", ErrInvalid, err)
	}
	return nil
}

// ApplyEnv overlays AIRMOUSE_* variables. A nil environ reads the process
// environment.
func (c *Config) ApplyEnv(environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix, Environment: environ}
	if err := env.ParseWithOptions(c, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks the configuration for values the engine cannot use.
func (c Config) Validate() error {
	var errs []error

	if c.Cursor.Smoothing < 1 {
		errs = append(errs, fmt.Errorf("cursor.smoothing must be >= 1, got %v", c.Cursor.Smoothing))
	}
	if c.Capture.Width <= 2*c.Cursor.FrameMargin || c.Capture.Height <= 2*c.Cursor.FrameMargin {
		errs = append(errs, fmt.Errorf("cursor.frame_margin %d leaves no active area in a %dx%d frame",
			c.Cursor.FrameMargin, c.Capture.Width, c.Capture.Height))
	}
	if c.Cursor.ScreenWidth < 0 || c.Cursor.ScreenHeight < 0 {
		errs = append(errs, fmt.Errorf("cursor screen size must not be negative, got %dx%d",
			c.Cursor.ScreenWidth, c.Cursor.ScreenHeight))
	}
	if c.Router.VolumeMaxDistance <= c.Router.VolumeMinDistance {
		errs = append(errs, fmt.Errorf("router.volume_max_distance %d must exceed volume_min_distance %d",
			c.Router.VolumeMaxDistance, c.Router.VolumeMinDistance))
	}

	cooldowns := []struct {
		name string
		d    time.Duration
	}{
		{"left_click_cooldown", c.Router.LeftClickCooldown},
		{"right_click_cooldown", c.Router.RightClickCooldown},
		{"scroll_cooldown", c.Router.ScrollCooldown},
		{"zoom_cooldown", c.Router.ZoomCooldown},
	}
	for _, cd := range cooldowns {
		if cd.d < 0 {
			errs = append(errs, fmt.Errorf("router.%s must not be negative", cd.name))
		}
	}

	if c.Capture.MaxConsecutiveFailures < 1 {
		errs = append(errs, errors.New("capture.max_consecutive_failures must be >= 1"))
	}
	if c.Capture.FPS < 1 {
		errs = append(errs, errors.New("capture.fps must be >= 1"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Gesture converts the configuration into the engine's session config.
func (c Config) Gesture() gesture.Config {
	cfg := gesture.DefaultConfig()

	cfg.Classifier = gesture.ClassifierConfig{
		ThumbMargin:  c.Classifier.ThumbMargin,
		FingerMargin: c.Classifier.FingerMargin,
	}
	cfg.Router = gesture.RouterConfig{
		ClickDistance:      c.Router.ClickDistance,
		VolumeMinDistance:  c.Router.VolumeMinDistance,
		VolumeMaxDistance:  c.Router.VolumeMaxDistance,
		ZoomSpread:         c.Router.ZoomSpread,
		ScrollStep:         c.Router.ScrollStep,
		LeftClickCooldown:  c.Router.LeftClickCooldown,
		RightClickCooldown: c.Router.RightClickCooldown,
		ScrollCooldown:     c.Router.ScrollCooldown,
		ZoomCooldown:       c.Router.ZoomCooldown,
		ZoomExclusive:      c.Router.ZoomExclusive,
		ScreenshotPath:     c.Router.ScreenshotPath,
		SeedCooldowns:      c.Router.SeedCooldowns,
	}

	screen := cfg.Cursor
	if c.ScreenOverride() {
		screen.ScreenWidth = c.Cursor.ScreenWidth
		screen.ScreenHeight = c.Cursor.ScreenHeight
	}
	cfg.Cursor = gesture.CursorConfig{
		FrameWidth:   c.Capture.Width,
		FrameHeight:  c.Capture.Height,
		Margin:       c.Cursor.FrameMargin,
		ScreenWidth:  screen.ScreenWidth,
		ScreenHeight: screen.ScreenHeight,
		Smoothing:    c.Cursor.Smoothing,
		Clamp:        c.Cursor.Clamp,
	}
	return cfg
}

// ScreenOverride reports whether cursor.screen_width and screen_height are
// both set, in which case the display size is not detected.
func (c Config) ScreenOverride() bool {
	return c.Cursor.ScreenWidth > 0 && c.Cursor.ScreenHeight > 0
}

// DetectorOptions converts the detector section.
func (c Config) DetectorOptions() detector.Config {
	return detector.Config{
		MaxHands:        c.Detector.MaxHands,
		MinConfidence:   c.Detector.MinConfidence,
		MinTrackingConf: c.Detector.MinTrackingConfidence,
		ScriptPath:      c.Detector.Script,
		Python:          c.Detector.Python,
		IdleShutdown:    c.Detector.IdleShutdown,
	}
}

// DBPath returns the location of the settings database.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "airmouse.db")
}
