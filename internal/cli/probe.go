package cli

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/tkserver/internal/protocol"
)

// DefaultProbeIdle is how long probe waits for further reply lines
const DefaultProbeIdle = 300 * time.Millisecond

func newProbeCmd() *cobra.Command {
	var idle time.Duration

	cmd := &cobra.Command{
		Use:   "probe [LINE...]",
		Short: "Speak the client protocol to the game server",
		Long: `Connect to the game server, announce --client-version and send each LINE in
turn, printing every reply. Without arguments only the version handshake
is performed.`,
		Example: `  tkctl probe GET_COUNT GET_MODS
  tkctl probe '76561198000000000|ABCD-1234|Alice'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := runProbe(cfg.Addr, cfg.Version, args, cfg.Timeout, idle)
			if err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().DurationVar(&idle, "idle", DefaultProbeIdle, "Stop waiting for replies after this long without a line")

	return cmd
}

func runProbe(addr, version string, lines []string, timeout, idle time.Duration) (ProbeResult, error) {
	nc, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("connect to %s: %w", addr, err)
	}
	conn := protocol.NewConn(nc)
	defer func() { _ = conn.Close() }()

	result := ProbeResult{Addr: addr}
	sends := append([]string{protocol.VersionPrefix + version}, lines...)
	for _, line := range sends {
		if err := conn.WriteLine(line); err != nil {
			return result, fmt.Errorf("send %q: %w", line, err)
		}

		received, closed, err := readReplies(conn, timeout, idle)
		result.Exchanges = append(result.Exchanges, ProbeExchange{Sent: line, Received: received})
		if err != nil {
			return result, err
		}
		if closed {
			break
		}
	}

	return result, nil
}

// readReplies collects lines until the server goes quiet for idle. The first
// line may take up to timeout.
func readReplies(conn *protocol.Conn, timeout, idle time.Duration) ([]string, bool, error) {
	received := []string{}
	wait := timeout
	for {
		if err := conn.SetReadDeadline(time.Now().Add(wait)); err != nil {
			return received, false, err
		}
		line, err := conn.ReadLine()
		switch {
		case err == nil:
			received = append(received, line)
			wait = idle
		case errors.Is(err, io.EOF):
			return received, true, nil
		case protocol.IsTimeout(err) && len(received) > 0:
			return received, false, nil
		case protocol.IsTimeout(err):
			return received, false, fmt.Errorf("no reply within %s", timeout)
		default:
			return received, false, fmt.Errorf("read reply: %w", err)
		}
	}
}
