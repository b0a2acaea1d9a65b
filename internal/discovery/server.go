package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Server represents a gm-ean server found on the network
type Server struct {
	// Instance is the advertised instance name (e.g., "gm-ean on lager-pc")
	Instance string

	// Hostname is the mDNS hostname (e.g., "lager-pc.local.")
	Hostname string

	// IP is the address to connect to, IPv4 preferred
	IP string

	// Port is the HTTP port
	Port int

	// Metadata contains the TXT record data
	// Advertised fields: "path=/plugin/gm-ean", "version=<v>"
	Metadata map[string]string

	// DiscoveredAt is when the server was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the server
func (s *Server) String() string {
	return fmt.Sprintf("%s (%s) at %s", s.Instance, strings.TrimSuffix(s.Hostname, "."), net.JoinHostPort(s.IP, strconv.Itoa(s.Port)))
}

// BaseURL returns the HTTP base URL for the server
func (s *Server) BaseURL() string {
	return "http://" + net.JoinHostPort(s.IP, strconv.Itoa(s.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (s *Server) GetMetadata(key string) string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}

// Version returns the advertised server version, if any
func (s *Server) Version() string {
	return s.GetMetadata("version")
}
