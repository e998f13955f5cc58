package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/stblassitude/xpressnet/internal/config"
	"github.com/stblassitude/xpressnet/internal/discovery"
	"github.com/stblassitude/xpressnet/internal/session"
)

// Connection flags
var (
	linkFlag    string
	stationFlag string
	scanTimeout int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&linkFlag, "link", "", "Interface link (tcp://host:port or serial device path)")
	rootCmd.PersistentFlags().StringVar(&stationFlag, "station", "", "Saved station profile to connect to")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(powerCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(accessoryCmd)
	rootCmd.AddCommand(switchCmd)
	rootCmd.AddCommand(cvCmd)
	rootCmd.AddCommand(stationCmd)
	rootCmd.AddCommand(monitorCmd)
}

// scanCmd discovers network bridges
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for XpressNet bridges on the network",
	Long: `Scan for XpressNet network bridges using mDNS/DNS-SD discovery.

This command listens for mDNS advertisements from LIUSB-Ethernet and
compatible bridges and displays all discovered bridges with their
addresses and metadata. Serial interfaces cannot be discovered; pass
their device path to --link directly.`,
	Example: `  # Scan with the default 5-second timeout
  xpressnet-ctl scan

  # Longer scan for sleepy networks
  xpressnet-ctl scan --timeout 15`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 5, "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for XpressNet bridges (timeout: %ds)...\n\n", scanTimeout)

	bridges, err := discovery.Scan(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(bridges) == 0 {
		fmt.Println("No bridges found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the bridge is powered on and on the same network segment")
		fmt.Println("  - Check that your firewall allows mDNS (UDP port 5353)")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Use --link to specify the address manually if discovery fails")
		return nil
	}

	fmt.Printf("Found %d bridge(s):\n\n", len(bridges))
	for i, bridge := range bridges {
		fmt.Printf("%d. %s\n", i+1, bridge.Name)
		fmt.Printf("   Host: %s\n", bridge.Hostname)
		fmt.Printf("   Link: %s\n", bridge.Link())
		if len(bridge.Metadata) > 0 {
			fmt.Printf("   Metadata: %v\n", bridge.Metadata)
		}
		fmt.Println()
	}

	fmt.Println("Use 'xpressnet-ctl info --link <link>' to query a bridge")
	fmt.Println("Use 'xpressnet-ctl station add <name> <link>' to save one as a profile")

	return nil
}

// infoCmd queries the interface for its identity
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show interface and protocol versions",
	Long: `Query the XpressNet interface for its hardware and firmware versions,
the protocol version spoken on the bus, its bus address, and the number
of further devices it can accommodate.`,
	Example: `  xpressnet-ctl info --link tcp://192.168.1.20:5550
  xpressnet-ctl info --station attic`,
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	interfaceVersion, err := s.InterfaceVersion()
	if err != nil {
		return fmt.Errorf("failed to query interface version: %w", err)
	}
	fmt.Printf("Interface version:  %s\n", interfaceVersion)

	protocolVersion, err := s.XpressNetVersion()
	if err != nil {
		return fmt.Errorf("failed to query protocol version: %w", err)
	}
	fmt.Printf("XpressNet version:  %s\n", protocolVersion)

	address, err := s.InterfaceAddress()
	if err != nil {
		return fmt.Errorf("failed to query interface address: %w", err)
	}
	fmt.Printf("Bus address:        %d\n", address)

	connections, err := s.AvailableConnections()
	if err != nil {
		return fmt.Errorf("failed to query available connections: %w", err)
	}
	fmt.Printf("Free connections:   %d\n", connections)

	return nil
}

// statusCmd reports the interface's link to the command station
var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show the interface's connection status",
	Example: `  xpressnet-ctl status --station attic`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		connected, err := s.InterfaceStatus()
		if err != nil {
			return fmt.Errorf("failed to query interface status: %w", err)
		}
		if connected {
			fmt.Println("✓ Interface is connected to the command station")
		} else {
			fmt.Println("✗ Interface reports no connection to the command station")
		}
		return nil
	},
}

// powerCmd switches track power
var powerCmd = &cobra.Command{
	Use:   "power <on|off>",
	Short: "Switch track power on or off",
	Long: `Switch track power for the whole layout.

'power off' cuts power to the track immediately; every locomotive stops
and accessory decoders go dark. 'power on' resumes normal operation.`,
	Example: `  xpressnet-ctl power off --station attic
  xpressnet-ctl power on --station attic`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runPower,
}

func runPower(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	switch args[0] {
	case "on":
		if err := s.TrackPowerOn(); err != nil {
			return fmt.Errorf("failed to switch track power on: %w", err)
		}
		fmt.Println("✓ Track power on")
	case "off":
		if err := s.TrackPowerOff(); err != nil {
			return fmt.Errorf("failed to switch track power off: %w", err)
		}
		fmt.Println("✓ Track power off")
	default:
		return fmt.Errorf("invalid argument %q (use on or off)", args[0])
	}
	return nil
}

// stopCmd halts all locomotives
var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Emergency stop all locomotives",
	Long: `Issue an emergency stop to every locomotive on the layout.

Track power stays on, so accessory decoders keep working; only the
locomotives halt. Use 'power on' semantics do not apply here - resume
driving by sending new speed commands from a cab.`,
	Example: `  xpressnet-ctl stop --station attic`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.EmergencyStopAll(); err != nil {
			return fmt.Errorf("emergency stop failed: %w", err)
		}
		fmt.Println("✓ All locomotives stopped")
		return nil
	},
}

// accessoryCmd queries accessory decoder state
var accessoryCmd = &cobra.Command{
	Use:   "accessory <address> [nibble]",
	Short: "Query accessory decoder state",
	Long: `Query the state of an accessory decoder group.

Each decoder address covers eight outputs split into two nibbles of four;
nibble 0 (the default) reports the lower four outputs, nibble 1 the upper
four.`,
	Example: `  # Lower four outputs of decoder 5
  xpressnet-ctl accessory 5 --station attic

  # Upper four outputs
  xpressnet-ctl accessory 5 1 --station attic`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runAccessory,
}

func runAccessory(cmd *cobra.Command, args []string) error {
	address, err := parseByteArg(args[0], "address")
	if err != nil {
		return err
	}
	var nibble byte
	if len(args) == 2 {
		nibble, err = parseByteArg(args[1], "nibble")
		if err != nil {
			return err
		}
		if nibble > 1 {
			return fmt.Errorf("nibble must be 0 or 1, got %d", nibble)
		}
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	state, err := s.AccessoryInfo(address, nibble)
	if err != nil {
		return fmt.Errorf("accessory query failed: %w", err)
	}

	fmt.Printf("Decoder %d (nibble %d, %s):\n", state.Address, state.Nibble, state.Kind)
	if state.Undetermined {
		fmt.Println("  ⚠ Last operation has not completed")
	}
	base := int(state.Nibble) * 4
	for i, on := range state.State {
		marker := "·"
		if on {
			marker = "●"
		}
		fmt.Printf("  Output %d: %s\n", base+i, marker)
	}
	return nil
}

// switchCmd operates one accessory output
var switchCmd = &cobra.Command{
	Use:   "switch <address> <output> <on|off>",
	Short: "Activate or deactivate an accessory output",
	Long: `Operate one output of an accessory decoder, such as a turnout motor or
a signal lamp. output selects the output within the decoder's group
(0-7).

Turnout motors are usually pulsed: switch the output on, wait for the
motor to travel, then switch it off again from your control panel.`,
	Example: `  # Throw the turnout on decoder 5, output 2
  xpressnet-ctl switch 5 2 on --station attic

  # Release the output again
  xpressnet-ctl switch 5 2 off --station attic`,
	Args: cobra.ExactArgs(3),
	RunE: runSwitch,
}

func runSwitch(cmd *cobra.Command, args []string) error {
	address, err := parseByteArg(args[0], "address")
	if err != nil {
		return err
	}
	output, err := parseByteArg(args[1], "output")
	if err != nil {
		return err
	}
	if output > 7 {
		return fmt.Errorf("output must be 0-7, got %d", output)
	}

	var activate bool
	switch args[2] {
	case "on":
		activate = true
	case "off":
		activate = false
	default:
		return fmt.Errorf("invalid argument %q (use on or off)", args[2])
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.SwitchAccessory(address, output, activate); err != nil {
		return fmt.Errorf("accessory operation failed: %w", err)
	}
	fmt.Printf("✓ Decoder %d output %d %s\n", address, output, args[2])
	return nil
}

// cvCmd reads a configuration variable
var cvCmd = &cobra.Command{
	Use:   "cv <number>",
	Short: "Read a CV from the programming track",
	Long: `Read a configuration variable from the decoder on the programming track
using direct CV mode. Only one locomotive may be on the programming
track. CV numbers run 1-256.`,
	Example: `  # Read the decoder address (CV 1)
  xpressnet-ctl cv 1 --station attic

  # Read the manufacturer ID (CV 8)
  xpressnet-ctl cv 8 --station attic`,
	Args: cobra.ExactArgs(1),
	RunE: runCV,
}

func runCV(cmd *cobra.Command, args []string) error {
	cv, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid CV number: %w", err)
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Printf("Reading CV %d from the programming track...\n", cv)
	result, err := s.ReadCV(cv)
	if err != nil {
		return fmt.Errorf("CV read failed: %w", err)
	}
	fmt.Printf("CV %d = %d (0x%02X)\n", result.CV, result.Value, result.Value)
	return nil
}

// stationCmd manages saved station profiles
var stationCmd = &cobra.Command{
	Use:   "station",
	Short: "Manage saved station profiles",
	Long: `Manage named station profiles in the configuration file.

A profile maps a friendly name to a transport link so other commands can
use --station <name> instead of spelling out the link.`,
}

var stationAddCmd = &cobra.Command{
	Use:   "add <name> <link>",
	Short: "Save a station profile",
	Example: `  xpressnet-ctl station add attic tcp://192.168.1.20:5550
  xpressnet-ctl station add workbench /dev/ttyUSB0`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.LoadRegistry()
		if err != nil {
			return err
		}
		registry.SetStationLink(args[0], args[1])
		if err := registry.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Saved station %q -> %s\n", args[0], args[1])
		return nil
	},
}

var stationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved station profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.LoadRegistry()
		if err != nil {
			return err
		}
		if len(registry.Stations) == 0 {
			fmt.Println("No stations saved. Use 'xpressnet-ctl station add <name> <link>'.")
			return nil
		}
		for name, station := range registry.Stations {
			marker := " "
			if registry.Preferences != nil && registry.Preferences.DefaultStation == name {
				marker = "*"
			}
			fmt.Printf("%s %-20s %s\n", marker, name, station.Link)
			if station.Description != "" {
				fmt.Printf("    %s\n", station.Description)
			}
		}
		return nil
	},
}

var stationDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Set the default station profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.LoadRegistry()
		if err != nil {
			return err
		}
		if registry.GetStation(args[0]) == nil {
			return fmt.Errorf("no station named %q; add it first", args[0])
		}
		registry.Preferences.DefaultStation = args[0]
		if err := registry.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Default station is now %q\n", args[0])
		return nil
	},
}

func init() {
	stationCmd.AddCommand(stationAddCmd)
	stationCmd.AddCommand(stationListCmd)
	stationCmd.AddCommand(stationDefaultCmd)
}

// resolveLink maps the connection flags to a transport link: --link wins,
// then --station, then the configured default, then single-bridge
// auto-discovery.
func resolveLink() (string, error) {
	if linkFlag != "" {
		return linkFlag, nil
	}

	registry, err := config.LoadRegistry()
	if err != nil {
		return "", err
	}

	if stationFlag != "" {
		station := registry.GetStation(stationFlag)
		if station == nil || station.Link == "" {
			return "", fmt.Errorf("no station named %q; see 'xpressnet-ctl station list'", stationFlag)
		}
		return station.Link, nil
	}

	if link := registry.ResolveLink(""); link != "" {
		return link, nil
	}

	if registry.Preferences != nil && !registry.Preferences.AutoDiscover {
		return "", fmt.Errorf("no link specified. Use --link or --station")
	}

	timeout := 5
	if registry.Preferences != nil && registry.Preferences.DiscoverTimeout > 0 {
		timeout = registry.Preferences.DiscoverTimeout
	}

	fmt.Println("No link specified, attempting auto-discovery...")
	bridges, err := discovery.Scan(time.Duration(timeout) * time.Second)
	if err != nil {
		return "", fmt.Errorf("discovery failed: %w", err)
	}

	if len(bridges) == 0 {
		return "", fmt.Errorf("no bridges found. Use --link to specify the interface manually")
	}
	if len(bridges) > 1 {
		fmt.Printf("Found %d bridges:\n", len(bridges))
		for i, bridge := range bridges {
			fmt.Printf("%d. %s (%s)\n", i+1, bridge.Name, bridge.Link())
		}
		return "", fmt.Errorf("multiple bridges found. Use --link to specify which one")
	}

	bridge := bridges[0]
	fmt.Printf("Found bridge: %s (%s)\n\n", bridge.Name, bridge.Link())
	return bridge.Link(), nil
}

// openSession resolves the link and opens a session on it.
func openSession() (*session.Session, error) {
	link, err := resolveLink()
	if err != nil {
		return nil, err
	}

	s := session.New(link)
	if err := s.Open(); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", link, err)
	}
	return s, nil
}

func parseByteArg(arg, name string) (byte, error) {
	v, err := strconv.ParseUint(arg, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be 0-255", name, arg)
	}
	return byte(v), nil
}
