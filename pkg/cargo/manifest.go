package cargo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ManifestFile is the cargo manifest file name.
const ManifestFile = "Cargo.toml"

// ErrNoPackage is returned for manifests without a [package] or [workspace] table.
var ErrNoPackage = errors.New("manifest has neither [package] nor [workspace]")

// Manifest is the subset of Cargo.toml allowfix reads.
type Manifest struct {
	// Path is where the manifest was read from.
	Path string `toml:"-"`

	Package *struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
		Edition string `toml:"edition"`
	} `toml:"package"`

	Workspace *struct {
		Members []string `toml:"members"`
	} `toml:"workspace"`
}

// ReadManifest parses the manifest at path.
func ReadManifest(path string) (*Manifest, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, ManifestFile)
	}

	var manifest Manifest
	if _, err := toml.DecodeFile(path, &manifest); err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	if manifest.Package == nil && manifest.Workspace == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNoPackage)
	}
	manifest.Path = path

	return &manifest, nil
}

// Name returns the package name, or "" for a virtual workspace manifest.
func (m *Manifest) Name() string {
	if m == nil || m.Package == nil {
		return ""
	}
	return m.Package.Name
}

// Dir returns the crate root: the directory holding the manifest. Paths in
// the diagnostic stream are relative to it.
func (m *Manifest) Dir() string {
	if m == nil {
		return ""
	}
	return filepath.Dir(m.Path)
}

// Members returns the workspace members, if any.
func (m *Manifest) Members() []string {
	if m == nil || m.Workspace == nil {
		return nil
	}
	return m.Workspace.Members
}
