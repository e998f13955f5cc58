package discovery

import (
	"fmt"
	"time"
)

// Bridge is an XpressNet network gateway found on the local network.
type Bridge struct {
	// Name is the mDNS instance name, e.g. "LIUSB-Ethernet-001".
	Name string

	// Hostname is the advertised mDNS hostname.
	Hostname string

	// IP is the resolved address, IPv4 preferred.
	IP string

	// Port is the TCP port the bridge listens on.
	Port int

	// Metadata holds the TXT record key/value pairs.
	Metadata map[string]string

	// DiscoveredAt is when the bridge was seen.
	DiscoveredAt time.Time
}

// String returns a human-readable description of the bridge.
func (b *Bridge) String() string {
	return fmt.Sprintf("XpressNet bridge %s (%s) at %s:%d", b.Name, b.Hostname, b.IP, b.Port)
}

// Link returns the transport link for connecting to this bridge.
func (b *Bridge) Link() string {
	return fmt.Sprintf("tcp://%s:%d", b.IP, b.Port)
}

// GetMetadata retrieves a TXT record value by key, or an empty string if
// the bridge did not advertise it.
func (b *Bridge) GetMetadata(key string) string {
	if b.Metadata == nil {
		return ""
	}
	return b.Metadata[key]
}
