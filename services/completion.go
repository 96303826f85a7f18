// services/completion.go
package services

import (
	"errors"
	"fmt"
	"log"

	"quest-game-system/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CompletionResult is what a finished quest pays out.
type CompletionResult struct {
	ExperienceGained           int64                          `json:"experience_gained"`
	CoinsGained                int64                          `json:"coins_gained"`
	PointsGained               int64                          `json:"points_gained"`
	LevelUp                    *LevelUpResult                 `json:"level_up,omitempty"`
	NewlyCompletedAchievements []models.AchievementDefinition `json:"newly_completed_achievements,omitempty"`
	AlreadyProcessed           bool                           `json:"already_processed,omitempty"`
}

// CompletionService composes the energy economy, leveling engine and achievement
// tracker into one award operation, idempotent per session.
type CompletionService struct {
	DB           *gorm.DB
	Tables       *models.RewardTables
	Leveling     *LevelingService
	Achievements *AchievementService
	Clock        clockwork.Clock
}

func NewCompletionService(db *gorm.DB, tables *models.RewardTables, leveling *LevelingService, achievements *AchievementService, clock clockwork.Clock) *CompletionService {
	return &CompletionService{DB: db, Tables: tables, Leveling: leveling, Achievements: achievements, Clock: clock}
}

// AwardCompletion pays out a finished quest: XP (with level resolution), coins,
// points and the quests-completed counter land in one versioned write together with
// an idempotency receipt. A retry with the same session id replays the receipt and
// pays nothing. The achievement pass runs after commit, best effort — its failure
// never rolls back the completion, the reconcile worker re-runs it.
func (s *CompletionService) AwardCompletion(sessionID, externalUserID string, difficulty models.QuestDifficulty, pointsEarned int64) (*CompletionResult, error) {
	reward, ok := s.Tables.RewardFor(difficulty)
	if !ok {
		return nil, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidArgument, difficulty)
	}
	if pointsEarned < 0 {
		return nil, fmt.Errorf("%w: negative points %d", ErrInvalidArgument, pointsEarned)
	}

	var result *CompletionResult
	var updated models.PlayerAccount

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		receipt := models.CompletionReceipt{
			ID:             uuid.NewString(),
			SessionID:      sessionID,
			ExternalUserID: externalUserID,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoNothing: true,
		}).Create(&receipt)
		if res.Error != nil {
			return fmt.Errorf("failed to record completion receipt: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Retry of an already-committed completion: replay the stored totals.
			var prior models.CompletionReceipt
			if err := tx.Where("session_id = ?", sessionID).First(&prior).Error; err != nil {
				return fmt.Errorf("failed to load prior receipt: %w", err)
			}
			result = &CompletionResult{
				ExperienceGained: prior.ExperienceGained,
				CoinsGained:      prior.CoinsGained,
				PointsGained:     prior.PointsGained,
				AlreadyProcessed: true,
			}
			return nil
		}

		var acc models.PlayerAccount
		if err := tx.Where("external_user_id = ?", externalUserID).First(&acc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: account %s", ErrNotFound, externalUserID)
			}
			return err
		}
		priorVersion := acc.Version

		levelUp, err := s.Leveling.ApplyExperience(&acc, reward.Experience)
		if err != nil {
			return err
		}

		coinsGained := reward.Coins
		if levelUp != nil {
			coinsGained += levelUp.BonusCoins
		}
		acc.Coins += coinsGained
		acc.Points += pointsEarned
		acc.QuestsCompleted++

		updates := map[string]interface{}{
			"experience":       acc.Experience,
			"level":            acc.Level,
			"max_energy":       acc.MaxEnergy,
			"energy":           acc.Energy,
			"coins":            acc.Coins,
			"points":           acc.Points,
			"quests_completed": acc.QuestsCompleted,
			"version":          priorVersion + 1,
		}
		if levelUp != nil {
			now := s.Clock.Now()
			updates["last_level_up_at"] = &now
			updates["last_energy_update_at"] = now
		}
		write := tx.Model(&models.PlayerAccount{}).
			Where("id = ? AND version = ?", acc.ID, priorVersion).
			Updates(updates)
		if write.Error != nil {
			return write.Error
		}
		if write.RowsAffected == 0 {
			// Roll back receipt and all — the caller retries the whole operation.
			return ErrConcurrencyConflict
		}
		acc.Version = priorVersion + 1

		newLevel := 0
		if levelUp != nil {
			newLevel = levelUp.NewLevel
		}
		if err := tx.Model(&models.CompletionReceipt{}).
			Where("id = ?", receipt.ID).
			Updates(map[string]interface{}{
				"experience_gained": reward.Experience,
				"coins_gained":      coinsGained,
				"points_gained":     pointsEarned,
				"new_level":         newLevel,
			}).Error; err != nil {
			return fmt.Errorf("failed to finalize receipt: %w", err)
		}

		result = &CompletionResult{
			ExperienceGained: reward.Experience,
			CoinsGained:      coinsGained,
			PointsGained:     pointsEarned,
			LevelUp:          levelUp,
		}
		updated = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.AlreadyProcessed {
		return result, nil
	}

	if err := s.runAchievementPass(&updated, result); err != nil {
		log.Printf("⚠️ Achievement pass failed for %s (session %s): %v — reconcile worker will retry",
			externalUserID, sessionID, err)
	}
	return result, nil
}

// runAchievementPass runs in its own transaction after the award commits. It is
// idempotent, so the reconcile worker can safely re-run it later.
func (s *CompletionService) runAchievementPass(acc *models.PlayerAccount, result *CompletionResult) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		updates, err := s.Achievements.Recompute(tx, acc)
		if err != nil {
			return err
		}
		for _, u := range updates {
			if u.NewlyCompleted {
				result.NewlyCompletedAchievements = append(result.NewlyCompletedAchievements, u.Definition)
			}
		}
		return nil
	})
}
