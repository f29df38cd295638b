package participation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcoot/quizclient/internal/model"
	"github.com/mcoot/quizclient/internal/storage"
)

// Storage keys for the player's session
const (
	PlayerNameKey = "playerName"
	ScoreKey      = "participationScore"
)

// Storage remembers the last player name and score between runs
type Storage struct {
	kv storage.Storage
}

// NewStorage creates a participation storage on top of a key/value store
func NewStorage(kv storage.Storage) *Storage {
	return &Storage{kv: kv}
}

// SavePlayerName stores the player name
func (s *Storage) SavePlayerName(ctx context.Context, name string) error {
	return s.kv.Set(ctx, PlayerNameKey, name)
}

// PlayerName returns the stored player name, if any
func (s *Storage) PlayerName(ctx context.Context) (string, bool, error) {
	name, err := s.kv.Get(ctx, PlayerNameKey)
	if errors.Is(err, model.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, name != "", nil
}

// SaveScore stores the last score result as JSON
func (s *Storage) SaveScore(ctx context.Context, score *model.ScoreResult) error {
	data, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("encode score: %w", err)
	}
	return s.kv.Set(ctx, ScoreKey, string(data))
}

// Score returns the last stored score result, if any. An unreadable entry
// counts as absent.
func (s *Storage) Score(ctx context.Context) (*model.ScoreResult, bool, error) {
	raw, err := s.kv.Get(ctx, ScoreKey)
	if errors.Is(err, model.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var score model.ScoreResult
	if err := json.Unmarshal([]byte(raw), &score); err != nil {
		return nil, false, nil
	}
	return &score, true, nil
}

// Clear removes the stored name and score
func (s *Storage) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, PlayerNameKey, ScoreKey)
}
