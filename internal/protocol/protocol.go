// Package protocol defines the line-oriented wire format spoken by game clients.
package protocol

import (
	"fmt"
	"strings"

	"github.com/mcoot/tkserver/internal/model"
)

// Inbound tokens
const (
	VersionPrefix = "VERSION:"
	TokenLink     = "GET_Link_Launcher"
	TokenShell    = "REQUEST_SHELL_[TK]KIOXMAR"
	TokenCount    = "GET_COUNT"
	TokenMods     = "GET_MODS"
	ShellExit     = "exit"
)

// Outbound responses
const (
	RespVersionOK       = "VERSION_OK"
	RespUpdateRequired  = "UPDATE_REQUIRED"
	RespVersionRequired = "ERROR: VERSION required first"
	RespLinkNotFound    = "ERROR: Link file not found"
	RespRegistered      = "OK: registered"
	RespGranted         = "OK: Access granted"
	RespIDTaken         = "ERROR: SteamID already exists with different Serial"
	RespSecretTaken     = "ERROR: Serial already exists with different SteamID"
	RespInvalidFormat   = "ERROR: Invalid format"
	RespInternalError   = "ERROR: internal error"

	LinkPrefix  = "LINK:"
	CountPrefix = "CLIENT_COUNT:"
	ModsPrefix  = "MODS:"
)

// Shell dialogue
const (
	ShellPasswordPrompt = "[TK] Enter password:"
	ShellAuthFailed     = "[TK] Authentication failed. Disconnecting."
	ShellPasswordOK     = "[TK] Password OK. Entering shell mode..."
	ShellActive         = "[TK] Shell is active. Type 'exit' to leave."
	ShellPrompt         = "CMD>"
	ShellEnded          = "[TK] Shell session ended."
)

// ShellAttemptsLeft is the warning sent after a wrong shell password
func ShellAttemptsLeft(n int) string {
	return fmt.Sprintf("[TK] Wrong password. Attempts left: %d", n)
}

// Errorf formats an error response line
func Errorf(format string, args ...any) string {
	return "ERROR: " + fmt.Sprintf(format, args...)
}

// ParseVersion extracts the announced version from a VERSION: line
func ParseVersion(line string) (string, bool) {
	if !strings.HasPrefix(line, VersionPrefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(line, VersionPrefix)), true
}

// ParseRegistration splits an "id|secret|displayName" line.
// Anything other than exactly three fields is model.ErrInvalidFormat.
func ParseRegistration(line string) (id, secret, displayName string, err error) {
	parts := strings.Split(strings.TrimSpace(line), "|")
	if len(parts) != 3 {
		return "", "", "", model.ErrInvalidFormat
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2]), nil
}

// IsShellExit reports whether a shell-mode line ends the shell session
func IsShellExit(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), ShellExit)
}
