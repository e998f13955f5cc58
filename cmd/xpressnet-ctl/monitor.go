package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/stblassitude/xpressnet/internal/logging"
	"github.com/stblassitude/xpressnet/internal/monitor"
	"github.com/stblassitude/xpressnet/internal/monitor/tui"
	"github.com/stblassitude/xpressnet/internal/session"
)

var (
	listenAddr string
	tuiFlag    bool
)

// monitorCmd tails the broadcast side channel
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch broadcasts from the command station",
	Long: `Passively watch the connection and display every broadcast the command
station emits: track power changes, programming mode, accessory feedback.

When stdout is a terminal the monitor runs as an interactive full-screen
view; otherwise events are printed one per line. With --listen the same
feed is additionally served over HTTP: /status answers a JSON snapshot
and /events streams events to WebSocket subscribers.`,
	Example: `  # Interactive monitor
  xpressnet-ctl monitor --station attic

  # Plain text, suitable for piping
  xpressnet-ctl monitor --station attic --tui=false | tee events.log

  # Serve the feed to other tools as well
  xpressnet-ctl monitor --station attic --listen :8080`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().StringVar(&listenAddr, "listen", "", "Serve /status and /events on this address")
	monitorCmd.Flags().BoolVar(&tuiFlag, "tui", false, "Force the interactive view on or off")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	link, err := resolveLink()
	if err != nil {
		return err
	}

	s := session.New(link)
	if err := s.Open(); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", link, err)
	}
	defer s.Close()

	server := monitor.NewServer()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Reader: every message on the wire goes into the feed. The loop ends
	// when the session is closed underneath it.
	readErr := make(chan error, 1)
	go func() {
		for {
			msg, err := s.ReceiveOne()
			if err != nil {
				readErr <- err
				return
			}
			server.Publish(msg)
		}
	}()

	if listenAddr != "" {
		go func() {
			if err := server.ListenAndServe(ctx, listenAddr); err != nil {
				fmt.Fprintf(os.Stderr, "monitor server: %v\n", err)
			}
		}()
	}

	interactive := tuiFlag
	if !cmd.Flags().Changed("tui") {
		interactive = term.IsTerminal(int(os.Stdout.Fd()))
	}

	events := server.Subscribe()
	defer server.Unsubscribe(events)

	if interactive {
		go closeFeedOnReadError(readErr, ctx.Done(), func() {
			server.Unsubscribe(events)
		})
		return tui.Run(link, events)
	}

	fmt.Printf("Monitoring %s (ctrl-c to stop)\n", link)
	return streamEvents(os.Stdout, events, readErr, ctx.Done())
}

// streamEvents prints feed events one per line until the reader fails,
// done is signalled, or the feed is closed. A closed feed means Publish
// dropped this subscriber for not keeping up; receiving from it further
// would only yield zero values.
func streamEvents(w io.Writer, events <-chan monitor.Event, readErr <-chan error, done <-chan struct{}) error {
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return fmt.Errorf("event feed closed: output not keeping up with broadcasts")
			}
			fmt.Fprintf(w, "%s  %-18s %s\n",
				event.Time.Format("15:04:05.000"), event.Kind, event.Summary)
		case err := <-readErr:
			return fmt.Errorf("connection lost: %w", err)
		case <-done:
			return nil
		}
	}
}

// closeFeedOnReadError closes the interactive view's feed when the
// connection reader fails, so the view reports the closed connection
// instead of waiting for broadcasts that can no longer arrive.
func closeFeedOnReadError(readErr <-chan error, done <-chan struct{}, unsubscribe func()) {
	select {
	case err := <-readErr:
		logging.Error("Connection lost", zap.Error(err))
		unsubscribe()
	case <-done:
	}
}
