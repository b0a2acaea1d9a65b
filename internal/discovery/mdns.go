package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type gm-ean servers advertise
	ServiceType = "_gm-ean._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for server discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is used when an entry carries no port
	DefaultPort = 8000
)

// Scanner handles mDNS server discovery
type Scanner struct {
	// Timeout is the maximum time to wait for answers
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForServers discovers all gm-ean servers on the local network
func (s *Scanner) ScanForServers() ([]*Server, error) {
	return s.ScanForServersWithContext(context.Background())
}

// ScanForServersWithContext discovers servers with a custom context.
// Results are collected until the timeout expires.
func (s *Scanner) ScanForServersWithContext(ctx context.Context) ([]*Server, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	var (
		mu      sync.Mutex
		servers = make([]*Server, 0)
		seen    = make(map[string]bool)
		done    = make(chan struct{})
	)
	go func() {
		defer close(done)
		for entry := range entries {
			server := s.parseServiceEntry(entry)
			if server == nil {
				continue
			}
			key := server.BaseURL()
			mu.Lock()
			if !seen[key] {
				seen[key] = true
				servers = append(servers, server)
			}
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	// The resolver closes entries once browsing stops
	select {
	case <-done:
	case <-time.After(time.Second):
	}

	mu.Lock()
	defer mu.Unlock()
	return append([]*Server(nil), servers...), nil
}

// WaitForServer waits until a server whose instance name contains name
// answers. An empty name accepts the first server.
func (s *Scanner) WaitForServer(name string) (*Server, error) {
	return s.WaitForServerWithContext(context.Background(), name)
}

// WaitForServerWithContext waits for a server with a custom context
func (s *Scanner) WaitForServerWithContext(ctx context.Context, name string) (*Server, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	serverChan := make(chan *Server, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			server := s.parseServiceEntry(entry)
			if server != nil && matchesInstance(server, name) {
				select {
				case serverChan <- server:
				default:
				}
				cancel()
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case server := <-serverChan:
		return server, nil
	case <-ctx.Done():
		// The finder may have won the race with the timeout
		select {
		case server := <-serverChan:
			return server, nil
		default:
		}
		if name == "" {
			return nil, fmt.Errorf("no gm-ean server found within %s", s.Timeout)
		}
		return nil, fmt.Errorf("gm-ean server %q not found within %s", name, s.Timeout)
	}
}

func matchesInstance(server *Server, name string) bool {
	if name == "" {
		return true
	}
	return strings.Contains(strings.ToLower(server.Instance), strings.ToLower(name))
}

// parseServiceEntry converts a zeroconf service entry to a Server.
// Returns nil if the entry has no usable address.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Server {
	if entry == nil {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}

	// Fallback to IPv6 if no IPv4
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	return &Server{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     parseTXT(entry.Text),
		DiscoveredAt: time.Now(),
	}
}

// parseTXT splits "key=value" TXT records into a map. A key without '='
// maps to "".
func parseTXT(records []string) map[string]string {
	metadata := make(map[string]string, len(records))
	for _, txt := range records {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}
	return metadata
}

// ScanForServers is a convenience function to scan with a custom timeout
func ScanForServers(timeout time.Duration) ([]*Server, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForServers()
}

// QuickScan performs a fast scan with a 2-second timeout
func QuickScan() ([]*Server, error) {
	return ScanForServers(2 * time.Second)
}
