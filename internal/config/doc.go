// Package config provides user configuration management for the xpressnet
// tools.
//
// The package manages a YAML configuration file holding named station
// profiles (a friendly name mapped to a transport link, plus optional
// accessory labels) and application preferences. The file lives in the
// platform-appropriate location:
//   - Linux: $XDG_CONFIG_HOME/xpressnet/config.yaml or $HOME/.config/xpressnet/config.yaml
//   - macOS: $HOME/.config/xpressnet/config.yaml
//   - Windows: %LOCALAPPDATA%\xpressnet\config.yaml
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry.SetStationLink("attic", "tcp://192.168.1.20:5550")
//	registry.SetAccessoryLabel("attic", 5, "Turnout west yard", "turnout")
//
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across
// goroutines. File operations are protected by a mutex, and Save writes
// atomically via a temporary file plus rename.
package config
