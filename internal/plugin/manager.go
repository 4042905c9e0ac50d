package plugin

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	log "github.com/sirupsen/logrus"
)

var ErrPluginNotFound = errors.New("plugin not found")

// Manager indexes the plugins installed under one directory by manifest name.
type Manager struct {
	dir string

	mu      sync.RWMutex
	plugins map[string]*Plugin
}

func NewManager(dir string) *Manager {
	return &Manager{dir: dir, plugins: map[string]*Plugin{}}
}

func (m *Manager) PluginDir() string {
	return m.dir
}

// Discover replaces the index with the subdirectories of the plugin directory
// that hold a usable manifest. Broken plugins are logged and skipped, and a
// missing plugin directory simply yields none. When two manifests share a
// name the first directory in lexical order wins.
func (m *Manager) Discover() error {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, fs.ErrNotExist) {
		entries, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("scan plugin dir %s: %w", m.dir, err)
	}

	found := make(map[string]*Plugin, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(m.dir, entry.Name())

		p, err := readPlugin(dir)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			continue
		case err != nil:
			log.WithError(err).WithField("path", dir).Warn("Skipping plugin")
			continue
		}

		if prev, dup := found[p.Manifest.Name]; dup {
			log.WithFields(log.Fields{"name": p.Manifest.Name, "kept": prev.Path, "skipped": dir}).Warn("Duplicate plugin name")
			continue
		}
		found[p.Manifest.Name] = p
	}

	m.mu.Lock()
	m.plugins = found
	m.mu.Unlock()

	log.WithFields(log.Fields{"dir": m.dir, "count": len(found)}).Debug("Discovered plugins")
	return nil
}

// readPlugin loads dir/plugin.json. A directory without a manifest reports
// fs.ErrNotExist.
func readPlugin(dir string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ManifestFile, err)
	}
	if manifest.Name == "" {
		return nil, fmt.Errorf("%s has no name", ManifestFile)
	}
	if manifest.Executable == "" {
		return nil, fmt.Errorf("%s has no executable", ManifestFile)
	}

	return &Plugin{
		Manifest:   manifest,
		Path:       dir,
		Executable: filepath.Join(dir, manifest.Executable),
	}, nil
}

func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if p, ok := m.plugins[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
}

// List returns the indexed plugins ordered by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.SortedFunc(maps.Values(m.plugins), func(a, b *Plugin) int {
		return cmp.Compare(a.Manifest.Name, b.Manifest.Name)
	})
}
