package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

var (
	// ErrPluginNotFound is returned when a requested plugin cannot be found.
	ErrPluginNotFound = errors.New("plugin not found")
	// ErrNoProvider is returned when no discovered plugin supports an action.
	ErrNoProvider = errors.New("no plugin provides action")
)

// Manager discovers plugins under a directory and indexes them by name and action.
type Manager struct {
	pluginDir string
	logger    *slog.Logger

	mu       sync.RWMutex
	plugins  map[string]*Plugin
	byAction map[string]*Plugin
}

// NewManager creates a Manager for pluginDir. A nil logger uses slog.Default.
func NewManager(pluginDir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		pluginDir: pluginDir,
		logger:    logger,
		plugins:   make(map[string]*Plugin),
		byAction:  make(map[string]*Plugin),
	}
}

// Discover rescans the plugin directory. Each subdirectory holding a
// plugin.json is a plugin; unreadable or malformed manifests are skipped.
// A missing directory yields no plugins.
func (m *Manager) Discover() error {
	plugins := make(map[string]*Plugin)
	byAction := make(map[string]*Plugin)

	entries, err := os.ReadDir(m.pluginDir)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read plugin dir: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		path := filepath.Join(m.pluginDir, entry.Name())
		manifest, err := readManifest(filepath.Join(path, "plugin.json"))
		if err != nil {
			if !os.IsNotExist(err) {
				m.logger.Warn("skipping plugin", "dir", path, "err", err)
			}
			continue
		}

		p := &Plugin{
			Manifest:   manifest,
			Path:       path,
			Executable: filepath.Join(path, manifest.Executable),
		}
		plugins[manifest.Name] = p

		for _, action := range manifest.Actions {
			if prev, ok := byAction[action]; ok {
				m.logger.Warn("action provided twice", "action", action,
					"kept", prev.Manifest.Name, "ignored", manifest.Name)
				continue
			}
			byAction[action] = p
		}
	}

	m.mu.Lock()
	m.plugins = plugins
	m.byAction = byAction
	m.mu.Unlock()

	m.logger.Debug("plugins discovered", "dir", m.pluginDir, "count", len(plugins))
	return nil
}

func readManifest(path string) (Manifest, error) {
	var manifest Manifest

	data, err := os.ReadFile(path)
	if err != nil {
		return manifest, err
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return manifest, fmt.Errorf("invalid manifest: %w", err)
	}
	if manifest.Name == "" || manifest.Executable == "" {
		return manifest, errors.New("manifest needs name and executable")
	}
	return manifest, nil
}

// Get returns a plugin by name.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plugins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	return p, nil
}

// Provider returns the plugin that handles action.
func (m *Manager) Provider(action string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.byAction[action]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoProvider, action)
	}
	return p, nil
}

// List returns all discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Plugin, 0, len(m.plugins))
	for _, p := range m.plugins {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Manifest.Name < out[j].Manifest.Name })
	return out
}

// PluginDir returns the plugin directory path.
func (m *Manager) PluginDir() string {
	return m.pluginDir
}
