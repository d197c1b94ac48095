package botconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/samber/mo"

	"henbot/models"
)

// SnapshotsRepository persists accepted configuration blobs as versioned
// rows, so whitelists survive losing the configuration channel.
type SnapshotsRepository interface {
	InsertSnapshot(ctx context.Context, rawJSON string) (*models.WhitelistSnapshot, error)
	GetLatestSnapshot(ctx context.Context) (mo.Option[models.WhitelistSnapshot], error)
}

// BotConfigService holds the in-memory per-command channel whitelist. The
// whole configuration is a last-writer-wins snapshot: every accepted update
// replaces it wholesale, never merges.
type BotConfigService struct {
	mu      sync.RWMutex
	config  models.CommandConfig
	version int64

	// snapshotsRepo is optional; nil disables persistence.
	snapshotsRepo SnapshotsRepository
}

func NewBotConfigService(snapshotsRepo SnapshotsRepository) *BotConfigService {
	return &BotConfigService{
		config:        models.CommandConfig{},
		snapshotsRepo: snapshotsRepo,
	}
}

// smartQuoteReplacer normalizes the curly quotes chat clients like to insert
// into pasted JSON.
var smartQuoteReplacer = strings.NewReplacer(
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"„", `"`, // low double quote
	"‘", "'", // left single quote
	"’", "'", // right single quote
)

// ProcessUpdate parses content as the new configuration and replaces the
// current one atomically. On a parse failure it makes one best-effort repair
// pass before giving up; a failed update leaves the prior snapshot untouched.
func (s *BotConfigService) ProcessUpdate(ctx context.Context, content string) error {
	log.Printf("📋 Starting to process configuration update (%d bytes)", len(content))

	var newConfig models.CommandConfig
	raw := content
	if err := json.Unmarshal([]byte(raw), &newConfig); err != nil {
		repaired := smartQuoteReplacer.Replace(raw)
		if repaired == raw {
			return fmt.Errorf("failed to parse configuration: %w", err)
		}

		log.Printf("⚠️ Configuration parse failed, retrying after smart-quote repair")
		if repairErr := json.Unmarshal([]byte(repaired), &newConfig); repairErr != nil {
			return fmt.Errorf("failed to parse configuration after repair: %w", repairErr)
		}
		raw = repaired
	}

	s.mu.Lock()
	s.config = newConfig
	s.version++
	version := s.version
	s.mu.Unlock()

	log.Printf("✅ Configuration updated to version %d with %d command entries", version, len(newConfig))

	if s.snapshotsRepo != nil {
		if _, err := s.snapshotsRepo.InsertSnapshot(ctx, raw); err != nil {
			// Persistence is best-effort; the in-memory update already took.
			log.Printf("⚠️ Failed to persist whitelist snapshot: %v", err)
		}
	}

	return nil
}

// Reset clears the configuration. All whitelists become empty, meaning all
// whitelisted commands silently have nothing to operate on.
func (s *BotConfigService) Reset() {
	s.mu.Lock()
	s.config = models.CommandConfig{}
	s.version++
	s.mu.Unlock()

	log.Printf("⚠️ Configuration deleted - using empty config")
}

// GetCommandWhitelist returns the channels the command may read from.
// Absence of the command key is normal and yields an empty list, never an
// error.
func (s *BotConfigService) GetCommandWhitelist(commandName string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.config[commandName]
	if !ok || len(entry.ProcessingWhitelist) == 0 {
		return []string{}
	}

	whitelist := make([]string, len(entry.ProcessingWhitelist))
	copy(whitelist, entry.ProcessingWhitelist)
	return whitelist
}

// Version returns the number of accepted updates since startup.
func (s *BotConfigService) Version() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// RestoreFromSnapshot rehydrates the configuration from the most recent
// persisted snapshot. Used at startup when the configuration channel cannot
// be located; absence of snapshots is not an error.
func (s *BotConfigService) RestoreFromSnapshot(ctx context.Context) error {
	if s.snapshotsRepo == nil {
		return nil
	}

	log.Printf("📋 Starting to restore configuration from latest snapshot")
	maybeSnapshot, err := s.snapshotsRepo.GetLatestSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load latest whitelist snapshot: %w", err)
	}
	if !maybeSnapshot.IsPresent() {
		log.Printf("⚠️ No persisted whitelist snapshot found")
		return nil
	}

	snapshot := maybeSnapshot.MustGet()
	var restored models.CommandConfig
	if err := json.Unmarshal([]byte(snapshot.RawJSON), &restored); err != nil {
		return fmt.Errorf("failed to parse persisted snapshot %s: %w", snapshot.ID, err)
	}

	s.mu.Lock()
	s.config = restored
	s.version++
	s.mu.Unlock()

	log.Printf("✅ Restored configuration from snapshot %s (version %d)", snapshot.ID, snapshot.Version)
	return nil
}
