package discovery

import (
	"fmt"
	"os"

	"github.com/grandcat/zeroconf"
)

// Advertisement is a running mDNS registration
type Advertisement struct {
	server *zeroconf.Server
}

// AdvertiseOptions describes what a gm-ean server announces
type AdvertiseOptions struct {
	// Instance is the service instance name. Empty uses "gm-ean on <hostname>".
	Instance string
	Port     int
	Path     string
	Version  string
}

// InstanceName returns the instance name to register under
func (o AdvertiseOptions) InstanceName() string {
	if o.Instance != "" {
		return o.Instance
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	return "gm-ean on " + host
}

// TXT returns the TXT records for the registration
func (o AdvertiseOptions) TXT() []string {
	txt := []string{}
	if o.Path != "" {
		txt = append(txt, "path="+o.Path)
	}
	if o.Version != "" {
		txt = append(txt, "version="+o.Version)
	}
	return txt
}

// Advertise registers a _gm-ean._tcp service on all interfaces
func Advertise(opts AdvertiseOptions) (*Advertisement, error) {
	if opts.Port <= 0 || opts.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", opts.Port)
	}

	server, err := zeroconf.Register(opts.InstanceName(), ServiceType, ServiceDomain, opts.Port, opts.TXT(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	return &Advertisement{server: server}, nil
}

// Shutdown withdraws the registration
func (a *Advertisement) Shutdown() {
	if a != nil && a.server != nil {
		a.server.Shutdown()
	}
}
