package cli

import (
	"os"
	"path/filepath"
)

// Paths provides access to the wombscape directory structure
type Paths struct {
	// AppName is the application name
	AppName string

	// HomeDir is the user's home directory
	HomeDir string
}

// NewPaths creates a new Paths instance for the given app
func NewPaths(appName string) (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{
		AppName: appName,
		HomeDir: home,
	}, nil
}

// BaseDir returns the base directory (~/.wombscape)
func (p *Paths) BaseDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir)
}

// AppDir returns the app-specific directory (~/.wombscape/<app>)
func (p *Paths) AppDir() string {
	return filepath.Join(p.BaseDir(), p.AppName)
}

// ConfigFile returns the config file path (~/.wombscape/<app>/config.yaml)
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.AppDir(), DefaultConfigFile)
}

// CatalogDir returns the render catalog directory (~/.wombscape/<app>/catalog)
func (p *Paths) CatalogDir() string {
	return filepath.Join(p.AppDir(), "catalog")
}

// RendersDir returns the default render output directory (~/.wombscape/<app>/renders)
func (p *Paths) RendersDir() string {
	return filepath.Join(p.AppDir(), "renders")
}

// PresetsFile returns the default extra presets file (~/.wombscape/<app>/presets.yaml)
func (p *Paths) PresetsFile() string {
	return filepath.Join(p.AppDir(), "presets.yaml")
}

// EnsureCatalogDir creates the catalog directory if it doesn't exist
func (p *Paths) EnsureCatalogDir() error {
	return os.MkdirAll(p.CatalogDir(), 0755)
}

// EnsureRendersDir creates the renders directory if it doesn't exist
func (p *Paths) EnsureRendersDir() error {
	return os.MkdirAll(p.RendersDir(), 0755)
}

// RenderPath returns a path within the renders directory
func (p *Paths) RenderPath(name string) string {
	return filepath.Join(p.RendersDir(), name)
}
