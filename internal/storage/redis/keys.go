package redis

import "fmt"

// entryKey returns the namespaced Redis key for a client-side entry
func (s *Storage) entryKey(key string) string {
	return fmt.Sprintf("%s:client:%s", s.cfg.Namespace, key)
}
