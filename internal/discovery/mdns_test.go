package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantName string
		wantIP   string
		wantPort int
	}{
		{
			name: "bridge with IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "LIUSB-Ethernet-001"},
				HostName:      "liusb-001.local.",
				Port:          5550,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.20")},
				Text:          []string{"version=1.5"},
			},
			wantName: "LIUSB-Ethernet-001",
			wantIP:   "192.168.1.20",
			wantPort: 5550,
		},
		{
			name: "custom port",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "bridge"},
				HostName:      "bridge.local",
				Port:          12000,
				AddrIPv4:      []net.IP{net.ParseIP("10.0.0.5")},
			},
			wantName: "bridge",
			wantIP:   "10.0.0.5",
			wantPort: 12000,
		},
		{
			name: "no port advertised falls back to the LIUSB default",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "bridge"},
				HostName:      "bridge.local",
				Port:          0,
				AddrIPv4:      []net.IP{net.ParseIP("172.16.0.1")},
			},
			wantName: "bridge",
			wantIP:   "172.16.0.1",
			wantPort: DefaultPort,
		},
		{
			name: "no address at all",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "bridge"},
				HostName:      "bridge.local",
				Port:          5550,
			},
			wantNil: true,
		},
		{
			name: "IPv6 only",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "bridge"},
				HostName:      "bridge.local",
				Port:          5550,
				AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
			},
			wantName: "bridge",
			wantIP:   "fe80::1",
			wantPort: 5550,
		},
		{
			name: "IPv4 preferred over IPv6",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "bridge"},
				HostName:      "bridge.local",
				Port:          5550,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.50")},
				AddrIPv6:      []net.IP{net.ParseIP("fe80::2")},
			},
			wantName: "bridge",
			wantIP:   "192.168.1.50",
			wantPort: 5550,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bridge := parseServiceEntry(tt.entry)

			if tt.wantNil {
				if bridge != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", bridge)
				}
				return
			}
			if bridge == nil {
				t.Fatal("parseServiceEntry() = nil, want bridge")
			}

			if bridge.Name != tt.wantName {
				t.Errorf("bridge.Name = %v, want %v", bridge.Name, tt.wantName)
			}
			if bridge.IP != tt.wantIP {
				t.Errorf("bridge.IP = %v, want %v", bridge.IP, tt.wantIP)
			}
			if bridge.Port != tt.wantPort {
				t.Errorf("bridge.Port = %v, want %v", bridge.Port, tt.wantPort)
			}
			if bridge.Hostname != tt.entry.HostName {
				t.Errorf("bridge.Hostname = %v, want %v", bridge.Hostname, tt.entry.HostName)
			}
			if time.Since(bridge.DiscoveredAt) > time.Second {
				t.Errorf("bridge.DiscoveredAt is not recent: %v", bridge.DiscoveredAt)
			}
		})
	}
}

func TestParseServiceEntryMetadata(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "LIUSB-Ethernet-001"},
		HostName:      "liusb-001.local",
		Port:          5550,
		AddrIPv4:      []net.IP{net.ParseIP("192.168.1.20")},
		Text:          []string{"version=1.5", "serial=12345", "flag", "path=/"},
	}

	bridge := parseServiceEntry(entry)
	if bridge == nil {
		t.Fatal("parseServiceEntry() = nil, want bridge")
	}

	expected := map[string]string{
		"version": "1.5",
		"serial":  "12345",
		"flag":    "", // key without value
		"path":    "/",
	}

	if len(bridge.Metadata) != len(expected) {
		t.Errorf("bridge.Metadata has %d entries, want %d", len(bridge.Metadata), len(expected))
	}
	for key, want := range expected {
		got, ok := bridge.Metadata[key]
		if !ok {
			t.Errorf("bridge.Metadata missing key %q", key)
		} else if got != want {
			t.Errorf("bridge.Metadata[%q] = %q, want %q", key, got, want)
		}
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()

	if scanner == nil {
		t.Fatal("NewScanner() = nil, want scanner")
	}
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

// Note: integration tests with live mDNS discovery require network access
// and a bridge on the segment; run them manually against real hardware.
