// Package config provides configuration and part storage for gm-ean.
//
// This package manages a YAML file holding three sections:
//   - settings: the plugin switches (panel, barcode scan, metadata key, core
//     field lock)
//   - client: defaults for the gm-ean CLI (server URL, default part)
//   - parts: the part store served by gm-ean-server, keyed by primary key
//
// # Configuration File Location
//
// The default file follows OS conventions:
//   - Linux: $XDG_CONFIG_HOME/gm-ean/config.yaml or $HOME/.config/gm-ean/config.yaml
//   - macOS: $HOME/.config/gm-ean/config.yaml
//   - Windows: %LOCALAPPDATA%\gm-ean\config.yaml
//
// The server can point at any other file with LoadRegistryFrom.
//
// # Usage Example
//
//	registry, err := config.LoadRegistryFrom("/var/lib/gm-ean/store.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry.EnsurePart(42, "Hex nut M6")
//	registry.SetPartMetadata(42, registry.MetadataKey(), "4006381333931")
//
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// Registry methods are safe for concurrent use. Save writes to a temporary
// file and renames it into place.
package config
