package timezones

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/samber/mo"
)

// TimezoneService keeps a user-ID to IANA zone name mapping in a flat JSON
// file, read at startup and written wholesale on each update.
type TimezoneService struct {
	filePath string

	mu    sync.Mutex
	zones map[string]string
}

func NewTimezoneService(filePath string) *TimezoneService {
	service := &TimezoneService{
		filePath: filePath,
		zones:    make(map[string]string),
	}
	service.load()
	return service
}

func (s *TimezoneService) load() {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("⚠️ Could not read timezone file %s: %v", s.filePath, err)
		}
		return
	}

	var zones map[string]string
	if err := json.Unmarshal(data, &zones); err != nil {
		log.Printf("⚠️ Timezone file %s is corrupt, starting empty: %v", s.filePath, err)
		return
	}
	s.zones = zones
}

// Set validates and stores the user's zone, persisting the whole map.
func (s *TimezoneService) Set(userID, zoneName string) error {
	if _, err := time.LoadLocation(zoneName); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", zoneName, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.zones[userID] = zoneName
	if err := s.save(); err != nil {
		return err
	}

	log.Printf("✅ Timezone for user %s set to %s", userID, zoneName)
	return nil
}

// Get returns the user's registered zone, if any.
func (s *TimezoneService) Get(userID string) mo.Option[string] {
	s.mu.Lock()
	defer s.mu.Unlock()

	zone, ok := s.zones[userID]
	if !ok {
		return mo.None[string]()
	}
	return mo.Some(zone)
}

// All returns a copy of every registered mapping.
func (s *TimezoneService) All() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	zones := make(map[string]string, len(s.zones))
	for userID, zone := range s.zones {
		zones[userID] = zone
	}
	return zones
}

func (s *TimezoneService) save() error {
	data, err := json.MarshalIndent(s.zones, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal timezones: %w", err)
	}
	if err := os.WriteFile(s.filePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write timezone file: %w", err)
	}
	return nil
}
