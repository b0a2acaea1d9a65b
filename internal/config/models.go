package config

import (
	"sort"
	"sync"
	"time"
)

// CurrentVersion is the only config file version this build understands
const CurrentVersion = 1

// DefaultMetadataKey is the part metadata key the EAN is stored under
const DefaultMetadataKey = "ean"

// Registry represents the entire configuration file: plugin settings, client
// preferences and the part store served by gm-ean-server.
type Registry struct {
	Version  int           `yaml:"version"`
	Settings *Settings     `yaml:"settings,omitempty"`
	Client   *ClientPrefs  `yaml:"client,omitempty"`
	Parts    map[int]*Part `yaml:"parts,omitempty"` // Keyed by part primary key

	path string
	mu   sync.RWMutex
}

// Settings mirrors the plugin settings exposed in the admin panel.
type Settings struct {
	EnablePanel       bool   `yaml:"enable_panel"`        // Serve the EAN panel for part detail pages
	EnableBarcodeScan bool   `yaml:"enable_barcode_scan"` // Resolve scanned EANs to parts
	MetadataKey       string `yaml:"metadata_key"`        // Part metadata key holding the EAN
	LockCoreFields    bool   `yaml:"lock_core_fields"`    // Reject set requests carrying fields other than ean
}

// ClientPrefs holds defaults for the gm-ean CLI.
type ClientPrefs struct {
	ServerURL       string `yaml:"server_url,omitempty"`   // e.g. http://inventory.local:8000
	DefaultPart     int    `yaml:"default_part,omitempty"` // Part opened when --part is not given
	DiscoverTimeout int    `yaml:"discover_timeout"`       // mDNS discovery timeout in seconds
}

// Part is a stored inventory part. Only its metadata is ever written by the
// EAN endpoints.
type Part struct {
	Name      string            `yaml:"name"`
	Metadata  map[string]string `yaml:"metadata,omitempty"`
	UpdatedAt time.Time         `yaml:"updated_at,omitempty"`
}

// DefaultSettings returns the settings a fresh installation starts with.
func DefaultSettings() *Settings {
	return &Settings{
		EnablePanel:       true,
		EnableBarcodeScan: true,
		MetadataKey:       DefaultMetadataKey,
		LockCoreFields:    true,
	}
}

// DefaultClientPrefs returns the CLI defaults.
func DefaultClientPrefs() *ClientPrefs {
	return &ClientPrefs{
		ServerURL:       "http://localhost:8000",
		DiscoverTimeout: 5,
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:  CurrentVersion,
		Settings: DefaultSettings(),
		Client:   DefaultClientPrefs(),
		Parts:    make(map[int]*Part),
	}
}

// applyDefaults fills sections missing from a file written by hand.
func (r *Registry) applyDefaults() {
	if r.Settings == nil {
		r.Settings = DefaultSettings()
	}
	if r.Settings.MetadataKey == "" {
		r.Settings.MetadataKey = DefaultMetadataKey
	}
	if r.Client == nil {
		r.Client = DefaultClientPrefs()
	}
	if r.Parts == nil {
		r.Parts = make(map[int]*Part)
	}
}

// MetadataKey returns the configured EAN metadata key.
func (r *Registry) MetadataKey() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Settings == nil || r.Settings.MetadataKey == "" {
		return DefaultMetadataKey
	}
	return r.Settings.MetadataKey
}

// SettingsSnapshot returns a copy of the current settings.
func (r *Registry) SettingsSnapshot() Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Settings == nil {
		return *DefaultSettings()
	}
	return *r.Settings
}

// GetPart returns a copy of the part with the given key.
func (r *Registry) GetPart(pk int) (Part, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	part, ok := r.Parts[pk]
	if !ok {
		return Part{}, false
	}
	return part.clone(), true
}

// EnsurePart ensures a part entry exists, creating it with the given name.
func (r *Registry) EnsurePart(pk int, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Parts == nil {
		r.Parts = make(map[int]*Part)
	}
	if _, exists := r.Parts[pk]; exists {
		return
	}
	r.Parts[pk] = &Part{Name: name, Metadata: make(map[string]string)}
}

// PartEAN returns the EAN stored on a part under the configured key.
func (r *Registry) PartEAN(pk int) string {
	key := r.MetadataKey()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if part, ok := r.Parts[pk]; ok {
		return part.Metadata[key]
	}
	return ""
}

// FindPartByMetadata returns the lowest part key whose metadata[key] equals
// value.
func (r *Registry) FindPartByMetadata(key, value string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pks := make([]int, 0, len(r.Parts))
	for pk := range r.Parts {
		pks = append(pks, pk)
	}
	sort.Ints(pks)

	for _, pk := range pks {
		if v, ok := r.Parts[pk].Metadata[key]; ok && v == value {
			return pk, true
		}
	}
	return 0, false
}

// SetPartMetadata sets one metadata field on an existing part.
// Returns false if the part does not exist.
func (r *Registry) SetPartMetadata(pk int, key, value string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	part, ok := r.Parts[pk]
	if !ok {
		return false
	}
	if part.Metadata == nil {
		part.Metadata = make(map[string]string)
	}
	part.Metadata[key] = value
	part.UpdatedAt = time.Now()
	return true
}

// PutPart stores a copy of part under pk, replacing any existing entry.
func (r *Registry) PutPart(pk int, part Part) {
	c := part.clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Parts == nil {
		r.Parts = make(map[int]*Part)
	}
	r.Parts[pk] = &c
}

// PartKeys returns all part keys in ascending order.
func (r *Registry) PartKeys() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pks := make([]int, 0, len(r.Parts))
	for pk := range r.Parts {
		pks = append(pks, pk)
	}
	sort.Ints(pks)
	return pks
}

func (p *Part) clone() Part {
	c := *p
	c.Metadata = make(map[string]string, len(p.Metadata))
	for k, v := range p.Metadata {
		c.Metadata[k] = v
	}
	return c
}
