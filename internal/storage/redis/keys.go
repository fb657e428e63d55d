package redis

import "fmt"

// recordsKey returns the Redis key for the identity snapshot (JSON string)
func (s *Storage) recordsKey() string {
	return fmt.Sprintf("%s:whitelist:records", s.cfg.KeyPrefix)
}

// membersKey returns the Redis key for the membership LIST
func (s *Storage) membersKey() string {
	return fmt.Sprintf("%s:whitelist:members", s.cfg.KeyPrefix)
}
