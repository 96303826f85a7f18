// services/leveling.go
package services

import (
	"fmt"

	"quest-game-system/models"
)

// LevelUpResult describes a crossed threshold. On a multi-level jump it carries the
// final level only — no intermediate partial rewards.
type LevelUpResult struct {
	NewLevel     int    `json:"new_level"`
	Title        string `json:"title"`
	BonusCoins   int64  `json:"bonus_coins"`
	NewMaxEnergy int    `json:"new_max_energy"`
}

// LevelingService is pure table lookup over the injected level curve: same
// (oldLevel, newExperience) in, same result out. Persistence belongs to the caller's
// transaction.
type LevelingService struct {
	Tables *models.RewardTables
}

func NewLevelingService(tables *models.RewardTables) *LevelingService {
	return &LevelingService{Tables: tables}
}

// ApplyExperience adds delta to the in-memory account and resolves the level in one
// step. On level-up the new MaxEnergy replaces the old capacity and energy is
// refilled to it — the full restore is the level-up reward, deliberately different
// from the incremental regen in EnergyService.
func (s *LevelingService) ApplyExperience(acc *models.PlayerAccount, delta int64) (*LevelUpResult, error) {
	if delta < 0 {
		return nil, fmt.Errorf("%w: negative experience delta %d", ErrInvalidArgument, delta)
	}
	acc.Experience += delta

	target := s.Tables.LevelFor(acc.Experience)
	if target.Level <= acc.Level {
		return nil, nil
	}

	acc.Level = target.Level
	acc.MaxEnergy = target.MaxEnergy
	acc.Energy = target.MaxEnergy

	return &LevelUpResult{
		NewLevel:     target.Level,
		Title:        target.Title,
		BonusCoins:   target.BonusCoins,
		NewMaxEnergy: target.MaxEnergy,
	}, nil
}
