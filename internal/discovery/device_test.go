package discovery

import (
	"testing"
)

func TestBridgeString(t *testing.T) {
	bridge := &Bridge{
		Name:     "LIUSB-Ethernet-001",
		Hostname: "liusb-001.local",
		IP:       "192.168.1.20",
		Port:     5550,
	}

	expected := "XpressNet bridge LIUSB-Ethernet-001 (liusb-001.local) at 192.168.1.20:5550"
	if bridge.String() != expected {
		t.Errorf("Bridge.String() = %v, want %v", bridge.String(), expected)
	}
}

func TestBridgeLink(t *testing.T) {
	tests := []struct {
		name     string
		bridge   *Bridge
		expected string
	}{
		{
			name:     "default port",
			bridge:   &Bridge{IP: "192.168.1.20", Port: 5550},
			expected: "tcp://192.168.1.20:5550",
		},
		{
			name:     "custom port",
			bridge:   &Bridge{IP: "10.0.0.5", Port: 12000},
			expected: "tcp://10.0.0.5:12000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bridge.Link(); got != tt.expected {
				t.Errorf("Bridge.Link() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBridgeGetMetadata(t *testing.T) {
	bridge := &Bridge{
		Metadata: map[string]string{
			"version": "1.5",
			"serial":  "12345",
		},
	}

	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{"existing key", "version", "1.5"},
		{"another existing key", "serial", "12345"},
		{"non-existent key", "missing", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bridge.GetMetadata(tt.key); got != tt.expected {
				t.Errorf("Bridge.GetMetadata(%v) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestBridgeGetMetadataNilMap(t *testing.T) {
	bridge := &Bridge{}

	if got := bridge.GetMetadata("anything"); got != "" {
		t.Errorf("Bridge.GetMetadata() with nil map = %v, want empty string", got)
	}
}
