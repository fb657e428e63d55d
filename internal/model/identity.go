package model

// IdentityRecord is one authorized player identity
// ID and Secret are each unique across the registry; DisplayName is mutable
type IdentityRecord struct {
	ID          string `json:"SteamId"`
	Secret      string `json:"Serial"`
	DisplayName string `json:"Name"`
}

// Outcome is the result of a registration attempt
type Outcome int

const (
	// OutcomeRegistered means a new record was created
	OutcomeRegistered Outcome = iota
	// OutcomeGranted means the (id, secret) pair matched an existing record
	OutcomeGranted
	// OutcomeConflict means the id or the secret belongs to a different record
	OutcomeConflict
)

// String returns a label suitable for logs and metrics
func (o Outcome) String() string {
	switch o {
	case OutcomeRegistered:
		return "registered"
	case OutcomeGranted:
		return "granted"
	case OutcomeConflict:
		return "conflict"
	default:
		return "unknown"
	}
}
