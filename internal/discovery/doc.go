// Package discovery finds and announces gm-ean servers on the local network
// over mDNS.
//
// Servers started with --advertise register a "_gm-ean._tcp" service whose
// TXT records carry the plugin path and server version. Clients browse for
// that service type and connect to the first (or a named) answer.
//
// # Usage Example
//
//	servers, err := discovery.ScanForServers(5 * time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, s := range servers {
//	    fmt.Printf("Found: %s at %s\n", s.Instance, s.BaseURL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Client and server must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
