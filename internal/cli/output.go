package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case Status:
		o.printStatus(v)
	case Schedule:
		o.printSchedule(v)
	case Users:
		o.printUsers(v)
	case Clients:
		o.printClients(v)
	case ProbeResult:
		o.printProbeResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// Status response type
type Status struct {
	Clients        int       `json:"clients"`
	WhitelistSize  int       `json:"whitelist_size"`
	MembershipSize int       `json:"membership_size"`
	Inconsistent   bool      `json:"inconsistent"`
	Restart        Schedule  `json:"restart"`
	Time           time.Time `json:"time"`
}

// Schedule response type
type Schedule struct {
	Active      bool       `json:"active"`
	Interval    string     `json:"interval,omitempty"`
	NextRestart *time.Time `json:"next_restart"`
}

// User response type
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Member      bool   `json:"member"`
}

// Users response type
type Users struct {
	Users []User `json:"users"`
	Count int    `json:"count"`
}

// Connection response type
type Connection struct {
	ID          string    `json:"id"`
	RemoteAddr  string    `json:"remote_addr"`
	ConnectedAt time.Time `json:"connected_at"`
}

// Clients response type
type Clients struct {
	Clients []Connection `json:"clients"`
	Count   int      `json:"count"`
}

// ProbeExchange is one line sent and the lines received in reply
type ProbeExchange struct {
	Sent     string   `json:"sent"`
	Received []string `json:"received"`
}

// ProbeResult is the transcript of a probe session
type ProbeResult struct {
	Addr      string          `json:"addr"`
	Exchanges []ProbeExchange `json:"exchanges"`
}

func (o *Output) printHealthResult(h HealthResult) {
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", h.Status)
}

func (o *Output) printStatus(s Status) {
	_, _ = fmt.Fprintf(o.w, "Clients: %d\n", s.Clients)
	_, _ = fmt.Fprintf(o.w, "Whitelist: %d\n", s.WhitelistSize)
	_, _ = fmt.Fprintf(o.w, "Membership: %d\n", s.MembershipSize)
	if s.Inconsistent {
		_, _ = fmt.Fprintln(o.w, "Warning: membership file out of sync with whitelist")
	}
	o.printSchedule(s.Restart)
}

func (o *Output) printSchedule(s Schedule) {
	if !s.Active || s.NextRestart == nil {
		_, _ = fmt.Fprintln(o.w, "Restart: not scheduled")
		return
	}
	_, _ = fmt.Fprintf(o.w, "Restart: every %s, next at %s\n", s.Interval, s.NextRestart.Local().Format(time.DateTime))
}

func (o *Output) printUsers(u Users) {
	if len(u.Users) == 0 {
		_, _ = fmt.Fprintln(o.w, "No users registered.")
		return
	}
	_, _ = fmt.Fprintf(o.w, "Users (%d):\n", u.Count)
	for _, user := range u.Users {
		memberStr := ""
		if !user.Member {
			memberStr = " [not in membership file]"
		}
		_, _ = fmt.Fprintf(o.w, "  - %s | %s%s\n", user.ID, user.DisplayName, memberStr)
	}
}

func (o *Output) printClients(c Clients) {
	_, _ = fmt.Fprintf(o.w, "Clients (%d):\n", c.Count)
	for _, cl := range c.Clients {
		_, _ = fmt.Fprintf(o.w, "  - %s %s since %s\n", cl.ID, cl.RemoteAddr, cl.ConnectedAt.Local().Format(time.DateTime))
	}
}

func (o *Output) printProbeResult(p ProbeResult) {
	for _, ex := range p.Exchanges {
		_, _ = fmt.Fprintf(o.w, "> %s\n", ex.Sent)
		for _, line := range ex.Received {
			_, _ = fmt.Fprintf(o.w, "< %s\n", line)
		}
	}
}
