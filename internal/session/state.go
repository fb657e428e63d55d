package session

// State is a position in the per-connection protocol state machine
type State int

const (
	AwaitingVersion State = iota
	Authenticated
	ShellAuthenticating
	ShellActive
	Closed
)

func (s State) String() string {
	switch s {
	case AwaitingVersion:
		return "awaiting_version"
	case Authenticated:
		return "authenticated"
	case ShellAuthenticating:
		return "shell_authenticating"
	case ShellActive:
		return "shell_active"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further input is accepted in this state
func (s State) Terminal() bool {
	return s == Closed
}
