package request

// SetRestartRequest is the request body for scheduling periodic restarts.
// Interval accepts the console syntax ("6:00", "0:05", "1.00:00") or a Go
// duration ("90m").
type SetRestartRequest struct {
	Interval string `json:"interval"`
}
