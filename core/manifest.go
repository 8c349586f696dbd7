package core

import (
	"encoding/json"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// PluginManifest is the declarative identity of a plugin package. Instances
// are produced by ParseManifest or a ManifestValidator and treated as
// immutable afterwards; use Clone before handing one to untrusted code.
type PluginManifest struct {
	Name         string         `json:"name"`
	Version      string         `json:"version"`
	DisplayName  string         `json:"displayName"`
	Description  string         `json:"description"`
	Author       string         `json:"author"`
	Capabilities []Capability   `json:"capabilities"`
	Entrypoint   string         `json:"entrypoint"`
	Frontend     *FrontendSpec  `json:"frontend,omitempty"`
	Backend      *BackendSpec   `json:"backend,omitempty"`
	Database     *DatabaseSpec  `json:"database,omitempty"`
	Settings     map[string]any `json:"settings,omitempty"`
}

// FrontendSpec declares the admin UI surface a plugin ships.
type FrontendSpec struct {
	Entry  string          `json:"entry"`
	Routes []FrontendRoute `json:"routes,omitempty"`
}

type FrontendRoute struct {
	Path      string `json:"path"`
	Component string `json:"component"`
	Label     string `json:"label,omitempty"`
}

// BackendSpec declares the server-side entry a plugin ships.
type BackendSpec struct {
	Entry          string `json:"entry"`
	HealthEndpoint string `json:"healthEndpoint,omitempty"`
}

// DatabaseSpec declares plugin-owned persistence assets.
type DatabaseSpec struct {
	Migrations  string `json:"migrations,omitempty"`
	TablePrefix string `json:"tablePrefix,omitempty"`
}

func (m PluginManifest) Clone() PluginManifest {
	out := m
	out.Capabilities = append([]Capability(nil), m.Capabilities...)
	if m.Frontend != nil {
		frontend := *m.Frontend
		frontend.Routes = append([]FrontendRoute(nil), m.Frontend.Routes...)
		out.Frontend = &frontend
	}
	if m.Backend != nil {
		backend := *m.Backend
		out.Backend = &backend
	}
	if m.Database != nil {
		database := *m.Database
		out.Database = &database
	}
	out.Settings = copyAnyMap(m.Settings)
	return out
}

// ParseManifest decodes a manifest document without validating it. Both JSON
// and YAML inputs are accepted; YAML is normalized to JSON first so a single
// decode path applies. Schema enforcement belongs to ManifestValidator.
func ParseManifest(raw []byte) (PluginManifest, error) {
	jsonBytes, err := yaml.YAMLToJSON(raw)
	if err != nil {
		return PluginManifest{}, fmt.Errorf("core: manifest is not valid YAML or JSON: %w", err)
	}
	var manifest PluginManifest
	if err := json.Unmarshal(jsonBytes, &manifest); err != nil {
		return PluginManifest{}, fmt.Errorf("core: decode manifest: %w", err)
	}
	return manifest, nil
}

// LoadManifest reads and decodes a manifest file from disk.
func LoadManifest(path string) (PluginManifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return PluginManifest{}, fmt.Errorf("core: read manifest %q: %w", path, err)
	}
	manifest, err := ParseManifest(raw)
	if err != nil {
		return PluginManifest{}, fmt.Errorf("core: manifest %q: %w", path, err)
	}
	return manifest, nil
}
