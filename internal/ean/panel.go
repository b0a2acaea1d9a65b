package ean

import (
	"context"
	"sync"
)

// Panel is the configuration record shared between the host (admin page,
// terminal panel, CLI) and the widget. The host supplies SetURL and the last
// known value; the widget attaches Save and Clear and writes Current after
// every successful save.
type Panel struct {
	// SetURL is the endpoint the EAN is posted to
	SetURL string

	// Save and Clear are attached by NewWidget
	Save  func(ctx context.Context) error
	Clear func()

	mu      sync.RWMutex
	current string
}

// NewPanel creates a panel for the given endpoint and last saved value
func NewPanel(setURL, current string) *Panel {
	return &Panel{SetURL: setURL, current: current}
}

// Current returns the last successfully saved EAN
func (p *Panel) Current() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// SetCurrent overwrites the last saved EAN
func (p *Panel) SetCurrent(value string) {
	p.mu.Lock()
	p.current = value
	p.mu.Unlock()
}

// PanelContext is the JSON document the server returns for a part's EAN
// panel. Clients build a Panel from it.
type PanelContext struct {
	Title       string `json:"title"`
	Icon        string `json:"icon"`
	Part        int    `json:"part"`
	PartName    string `json:"part_name"`
	EAN         string `json:"ean"`
	MetadataKey string `json:"metadata_key"`
	SetURL      string `json:"set_url"`
	PluginSlug  string `json:"plugin_slug"`
}
