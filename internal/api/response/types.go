package response

import (
	"time"

	"github.com/mcoot/tkserver/internal/model"
	"github.com/mcoot/tkserver/internal/services/clients"
)

// Health is the response for the health endpoint
type Health struct {
	Status string `json:"status"`
}

// Status summarises the running server
type Status struct {
	Clients        int       `json:"clients"`
	WhitelistSize  int       `json:"whitelist_size"`
	MembershipSize int       `json:"membership_size"`
	Inconsistent   bool      `json:"inconsistent"`
	Restart        Schedule  `json:"restart"`
	Time           time.Time `json:"time"`
}

// Schedule represents the periodic restart schedule
type Schedule struct {
	Active      bool       `json:"active"`
	Interval    string     `json:"interval,omitempty"`
	NextRestart *time.Time `json:"next_restart"`
}

// ScheduleFromModel converts model.Schedule
func ScheduleFromModel(s model.Schedule) Schedule {
	if !s.Active() {
		return Schedule{}
	}
	next := s.NextDeadline
	return Schedule{
		Active:      true,
		Interval:    s.Interval.String(),
		NextRestart: &next,
	}
}

// User is a whitelist entry; the secret is never exposed
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Member      bool   `json:"member"`
}

// Users is the response for the users endpoint
type Users struct {
	Users []User `json:"users"`
	Count int    `json:"count"`
}

// Client is a live connection
type Client struct {
	ID          string    `json:"id"`
	RemoteAddr  string    `json:"remote_addr"`
	ConnectedAt time.Time `json:"connected_at"`
}

// ClientFromModel converts a registry client
func ClientFromModel(c clients.Client) Client {
	return Client{
		ID:          c.ID,
		RemoteAddr:  c.RemoteAddr,
		ConnectedAt: c.ConnectedAt,
	}
}

// Clients is the response for the clients endpoint
type Clients struct {
	Clients []Client `json:"clients"`
	Count   int      `json:"count"`
}
