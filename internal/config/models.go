package config

import "time"

// Registry represents the entire user configuration file. It stores named
// station profiles and application preferences.
type Registry struct {
	Version     int                 `yaml:"version"`
	Stations    map[string]*Station `yaml:"stations,omitempty"` // keyed by profile name
	Preferences *Preferences        `yaml:"preferences,omitempty"`
}

// Station is a saved connection profile for one command station, so the
// CLI can address it by name instead of a raw link.
type Station struct {
	Link        string                 `yaml:"link"`                  // e.g. "tcp://192.168.1.20:5550" or "/dev/ttyUSB0"
	Description string                 `yaml:"description,omitempty"` // free-form note
	LastSeen    time.Time              `yaml:"last_seen,omitempty"`   // last successful connection
	Accessories map[int]*AccessoryMeta `yaml:"accessories,omitempty"` // keyed by decoder address
}

// AccessoryMeta is user-defined metadata for an accessory decoder address.
// The bus itself carries no names, so labels live purely client-side.
type AccessoryMeta struct {
	Label string `yaml:"label"`          // e.g. "Turnout west yard"
	Kind  string `yaml:"kind,omitempty"` // e.g. "turnout", "signal", "uncoupler"
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	AutoDiscover    bool   `yaml:"auto_discover"`             // scan mDNS when no link is given
	DiscoverTimeout int    `yaml:"discover_timeout"`          // mDNS discovery timeout in seconds
	DefaultStation  string `yaml:"default_station,omitempty"` // profile used when none is named
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:  1,
		Stations: make(map[string]*Station),
		Preferences: &Preferences{
			AutoDiscover:    true,
			DiscoverTimeout: 5,
		},
	}
}

// GetStation retrieves a station profile by name, or nil if it does not
// exist.
func (r *Registry) GetStation(name string) *Station {
	return r.Stations[name]
}

// EnsureStation returns the named station profile, creating an empty one
// if it does not exist yet.
func (r *Registry) EnsureStation(name string) *Station {
	if r.Stations == nil {
		r.Stations = make(map[string]*Station)
	}
	if station, exists := r.Stations[name]; exists {
		return station
	}

	station := &Station{
		Accessories: make(map[int]*AccessoryMeta),
	}
	r.Stations[name] = station
	return station
}

// SetStationLink sets or updates the link of a station profile.
func (r *Registry) SetStationLink(name, link string) {
	r.EnsureStation(name).Link = link
}

// UpdateStationLastSeen records a successful connection to a station.
func (r *Registry) UpdateStationLastSeen(name string) {
	r.EnsureStation(name).LastSeen = time.Now()
}

// SetAccessoryLabel sets or updates the label of an accessory decoder
// address under a station profile.
func (r *Registry) SetAccessoryLabel(name string, address int, label, kind string) {
	station := r.EnsureStation(name)
	if station.Accessories == nil {
		station.Accessories = make(map[int]*AccessoryMeta)
	}
	station.Accessories[address] = &AccessoryMeta{
		Label: label,
		Kind:  kind,
	}
}

// ResolveLink maps a station name or raw link to a transport link. A name
// matching a saved profile wins; anything else passes through unchanged.
// An empty argument falls back to the default station, if one is set.
func (r *Registry) ResolveLink(nameOrLink string) string {
	if nameOrLink == "" && r.Preferences != nil {
		nameOrLink = r.Preferences.DefaultStation
	}
	if station := r.GetStation(nameOrLink); station != nil && station.Link != "" {
		return station.Link
	}
	return nameOrLink
}
