// Xpressnet-ctl is a command line utility for XpressNet model railroad
// command stations.
//
// It talks to a command station through an XpressNet interface (a serial
// LI101 or a network bridge like the LIUSB-Ethernet), and provides bridge
// discovery, interface queries, track power control, accessory switching,
// CV reads, and a live broadcast monitor.
//
// Usage:
//
//	xpressnet-ctl [command] [flags]
//
// See 'xpressnet-ctl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stblassitude/xpressnet/internal/logging"
	"github.com/stblassitude/xpressnet/internal/version"
)

func main() {
	defer logging.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "xpressnet-ctl",
	Short: "XpressNet Command Station Utility",
	Long: `A command line utility for XpressNet model railroad command stations.

Talks to the command station through an XpressNet interface, either a
serial LI101 or a network bridge such as the LIUSB-Ethernet. Provides
bridge discovery, interface queries, track power control, accessory
switching, CV reads, and a live broadcast monitor.

Connections are addressed by link ("tcp://192.168.1.20:5550" or
"/dev/ttyUSB0") or by a station profile saved with 'station add'.`,
	Version: version.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.InitializeFromEnv()
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("xpressnet-ctl %s (commit: %s)\n", version.Version, version.Commit)
	},
}
