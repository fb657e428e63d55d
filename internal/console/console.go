// Package console implements the operator command loop on the server's
// standard input.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/mcoot/tkserver/internal/model"
)

// ErrExit is returned by Run when the operator asked the server to stop
var ErrExit = errors.New("operator requested exit")

// Whitelist is the registry view the console needs
type Whitelist interface {
	ListAll() []model.IdentityRecord
	TruncateMembershipFile(ctx context.Context, maxRetainedLines int)
}

// Clients reports the live connection count
type Clients interface {
	Count() int
}

// Content updates the link and mod list files
type Content interface {
	SetLink(link string) error
	SetMods(mods string) error
}

// Scheduler is the restart schedule the console controls
type Scheduler interface {
	SetInterval(d time.Duration) (time.Time, error)
	Cancel()
	PeekNextDeadline() (time.Time, bool)
}

// Config holds console settings
type Config struct {
	// RetainLines is how many membership lines survive an exit
	RetainLines int
	Prompt      string
}

// DefaultConfig returns default console configuration
func DefaultConfig() Config {
	return Config{
		RetainLines: 6,
		Prompt:      "[TK] > ",
	}
}

// Console reads operator commands from in and writes results to out
type Console struct {
	in        io.Reader
	out       io.Writer
	whitelist Whitelist
	clients   Clients
	content   Content
	scheduler Scheduler
	cfg       Config
	logger    *slog.Logger

	lines chan string
}

// New creates a Console
func New(
	in io.Reader,
	out io.Writer,
	whitelist Whitelist,
	clients Clients,
	content Content,
	scheduler Scheduler,
	cfg Config,
	logger *slog.Logger,
) *Console {
	return &Console{
		in:        in,
		out:       out,
		whitelist: whitelist,
		clients:   clients,
		content:   content,
		scheduler: scheduler,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "console")),
	}
}

// Run processes commands until input ends, ctx is done or the operator
// exits. Exit returns ErrExit after the membership file was truncated.
func (c *Console) Run(ctx context.Context) error {
	c.lines = make(chan string)
	go c.scan()

	for {
		c.printf("%s", c.cfg.Prompt)
		line, ok := c.nextLine(ctx)
		if !ok {
			return nil
		}

		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		args[0] = strings.ToLower(args[0])

		c.logger.Debug("operator command", slog.String("command", args[0]))
		root := c.newRootCmd()
		root.SetArgs(args)
		if err := root.ExecuteContext(ctx); err != nil {
			if errors.Is(err, ErrExit) {
				return ErrExit
			}
			if strings.HasPrefix(err.Error(), "unknown command") {
				c.println("[TK] Unknown command. Type 'help' for list.")
				continue
			}
			c.println("[TK] " + err.Error())
		}
	}
}

// scan feeds input lines to Run; it ends with the input
func (c *Console) scan() {
	defer close(c.lines)
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		c.lines <- strings.TrimSpace(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		c.logger.Warn("console input failed", slog.String("error", err.Error()))
	}
}

// nextLine waits for the next input line
func (c *Console) nextLine(ctx context.Context) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-c.lines:
		return line, ok
	}
}

func (c *Console) println(s string) {
	_, _ = fmt.Fprintln(c.out, s)
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}
