// Package discovery provides mDNS-based discovery of XpressNet network
// bridges.
//
// LIUSB-Ethernet gateways and compatible bridges advertise themselves with
// the "_xpressnet._tcp" service type. Scanning broadcasts mDNS queries,
// collects the advertisements that arrive within the timeout, and resolves
// each into a Bridge whose Link() can be handed straight to a session.
//
// # Usage Example
//
//	bridges, err := discovery.Scan(5 * time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, bridge := range bridges {
//	    fmt.Printf("Found: %s -> %s\n", bridge.Name, bridge.Link())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Bridges must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
