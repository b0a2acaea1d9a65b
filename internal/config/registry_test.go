package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
)

func TestGetConfigDir(t *testing.T) {
	if runtime.GOOS != "windows" && runtime.GOOS != "darwin" {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	}

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "gm-ean") {
		t.Errorf("GetConfigDir() = %v, should contain 'gm-ean'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("macOS config dir should contain '.config', got: %v", configDir)
		}
	default:
		if configDir != filepath.Join("/tmp/xdg-test", "gm-ean") {
			t.Errorf("GetConfigDir() = %v, want /tmp/xdg-test/gm-ean", configDir)
		}
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}
	if reg.Parts == nil {
		t.Error("NewRegistry().Parts should not be nil")
	}
	if reg.Settings == nil {
		t.Fatal("NewRegistry().Settings should not be nil")
	}
	if !reg.Settings.EnablePanel || !reg.Settings.EnableBarcodeScan || !reg.Settings.LockCoreFields {
		t.Errorf("NewRegistry().Settings = %+v, want all switches on", reg.Settings)
	}
	if reg.Settings.MetadataKey != "ean" {
		t.Errorf("MetadataKey = %v, want ean", reg.Settings.MetadataKey)
	}
	if reg.Client == nil || reg.Client.DiscoverTimeout != 5 {
		t.Errorf("NewRegistry().Client = %+v, want DiscoverTimeout 5", reg.Client)
	}
}

func TestRegistryEnsurePart(t *testing.T) {
	reg := NewRegistry()

	reg.EnsurePart(7, "Schraube")
	reg.EnsurePart(7, "Renamed")

	part, ok := reg.GetPart(7)
	if !ok {
		t.Fatal("GetPart(7) should exist after EnsurePart()")
	}
	if part.Name != "Schraube" {
		t.Errorf("Name = %v, EnsurePart must not overwrite existing parts", part.Name)
	}
}

func TestRegistryGetPartReturnsCopy(t *testing.T) {
	reg := NewRegistry()
	reg.EnsurePart(1, "A")
	reg.SetPartMetadata(1, "ean", "96385074")

	part, _ := reg.GetPart(1)
	part.Metadata["ean"] = "tampered"

	if got := reg.PartEAN(1); got != "96385074" {
		t.Errorf("PartEAN() = %v, GetPart must return a copy", got)
	}
}

func TestRegistrySetPartMetadata(t *testing.T) {
	reg := NewRegistry()

	if reg.SetPartMetadata(99, "ean", "96385074") {
		t.Error("SetPartMetadata() on unknown part should return false")
	}

	reg.EnsurePart(3, "C")
	if !reg.SetPartMetadata(3, "ean", "96385074") {
		t.Fatal("SetPartMetadata() should succeed for existing part")
	}

	part, _ := reg.GetPart(3)
	if part.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set")
	}
	if reg.PartEAN(3) != "96385074" {
		t.Errorf("PartEAN() = %v, want 96385074", reg.PartEAN(3))
	}
}

func TestRegistryPutPart(t *testing.T) {
	r := NewRegistry()
	r.EnsurePart(2, "Kabelbinder 200mm")
	before, _ := r.GetPart(2)

	r.SetPartMetadata(2, DefaultMetadataKey, "96385074")
	r.PutPart(2, before)

	if got := r.PartEAN(2); got != "" {
		t.Errorf("PartEAN(2) = %q after PutPart, want empty", got)
	}
	if _, ok := r.FindPartByMetadata(DefaultMetadataKey, "96385074"); ok {
		t.Error("FindPartByMetadata() still finds the replaced EAN")
	}

	// The stored part is a copy
	before.Metadata[DefaultMetadataKey] = "changed"
	if got := r.PartEAN(2); got != "" {
		t.Errorf("PartEAN(2) = %q, PutPart must not alias the caller's map", got)
	}

	r.PutPart(7, Part{Name: "Neu"})
	if part, ok := r.GetPart(7); !ok || part.Name != "Neu" {
		t.Errorf("GetPart(7) = %+v, %v, want new part", part, ok)
	}
}

func TestRegistryFindPartByMetadata(t *testing.T) {
	reg := NewRegistry()
	reg.EnsurePart(5, "E")
	reg.EnsurePart(2, "B")
	reg.SetPartMetadata(5, "ean", "4006381333931")
	reg.SetPartMetadata(2, "ean", "4006381333931")

	pk, ok := reg.FindPartByMetadata("ean", "4006381333931")
	if !ok || pk != 2 {
		t.Errorf("FindPartByMetadata() = %d, %v, want lowest key 2", pk, ok)
	}

	if _, ok := reg.FindPartByMetadata("ean", "96385074"); ok {
		t.Error("FindPartByMetadata() should not find unknown code")
	}
	if _, ok := reg.FindPartByMetadata("gtin", "4006381333931"); ok {
		t.Error("FindPartByMetadata() should respect the key")
	}
}

func TestRegistryMetadataKey(t *testing.T) {
	reg := NewRegistry()
	reg.Settings.MetadataKey = "gtin"
	if got := reg.MetadataKey(); got != "gtin" {
		t.Errorf("MetadataKey() = %v, want gtin", got)
	}

	reg.Settings = nil
	if got := reg.MetadataKey(); got != DefaultMetadataKey {
		t.Errorf("MetadataKey() = %v, want default", got)
	}
}

func TestRegistrySaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.yaml")

	reg, err := LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() on missing file error = %v", err)
	}
	if reg.Path() != path {
		t.Errorf("Path() = %v, want %v", reg.Path(), path)
	}

	reg.EnsurePart(10, "Kabel")
	reg.SetPartMetadata(10, "ean", "96385074")
	reg.Settings.LockCoreFields = false
	reg.Client.ServerURL = "http://inventory.local:8000"

	if err := reg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should not remain after Save()")
	}

	loaded, err := LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}

	part, ok := loaded.GetPart(10)
	if !ok {
		t.Fatal("part 10 should exist in loaded registry")
	}
	if part.Name != "Kabel" || part.Metadata["ean"] != "96385074" {
		t.Errorf("loaded part = %+v", part)
	}
	if loaded.Settings.LockCoreFields {
		t.Error("LockCoreFields should round-trip as false")
	}
	if loaded.Client.ServerURL != "http://inventory.local:8000" {
		t.Errorf("ServerURL = %v", loaded.Client.ServerURL)
	}
}

func TestLoadRegistryFrom_AppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `version: 1
parts:
  4:
    name: "Mutter M6"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	reg, err := LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}
	if reg.Settings == nil || reg.Settings.MetadataKey != "ean" {
		t.Errorf("Settings = %+v, want defaults", reg.Settings)
	}
	if reg.Client == nil {
		t.Error("Client should default")
	}
	if _, ok := reg.GetPart(4); !ok {
		t.Error("part 4 should be loaded")
	}
}

func TestLoadRegistryFrom_RejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 2\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadRegistryFrom(path); err == nil {
		t.Error("LoadRegistryFrom() should reject version 2")
	}
}

func TestLoadRegistryFrom_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: [\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadRegistryFrom(path); err == nil {
		t.Error("LoadRegistryFrom() should fail on invalid YAML")
	}
}

func TestSave_WithoutPath(t *testing.T) {
	if err := NewRegistry().Save(); err == nil {
		t.Error("Save() without path should fail")
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.yaml")

	reg, err := CreateDefaultConfig(path)
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if len(reg.PartKeys()) != 2 {
		t.Errorf("PartKeys() = %v, want 2 example parts", reg.PartKeys())
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file should exist: %v", err)
	}
}

func TestLoadRegistry_UsesXDG(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	reg, err := ReloadRegistry()
	if err != nil {
		t.Fatalf("ReloadRegistry() error = %v", err)
	}
	if !strings.HasPrefix(reg.Path(), os.Getenv("XDG_CONFIG_HOME")) {
		t.Errorf("Path() = %v, want under XDG_CONFIG_HOME", reg.Path())
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := NewRegistry()
	reg.EnsurePart(1, "A")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			reg.SetPartMetadata(1, "ean", "96385074")
		}()
		go func() {
			defer wg.Done()
			_, _ = reg.FindPartByMetadata("ean", "96385074")
		}()
	}
	wg.Wait()
}

func BenchmarkFindPartByMetadata(b *testing.B) {
	reg := NewRegistry()
	for pk := 1; pk <= 500; pk++ {
		reg.EnsurePart(pk, "part")
	}
	reg.SetPartMetadata(500, "ean", "96385074")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.FindPartByMetadata("ean", "96385074")
	}
}
