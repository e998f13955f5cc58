// Package tui implements the interactive terminal monitor: a live tail of
// the broadcasts seen on an XpressNet connection, with the current track
// power state pinned at the top.
package tui
