// services/achievements.go
package services

import (
	"fmt"
	"log"
	"time"

	"quest-game-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AchievementService recomputes per-definition progress against current account
// stats and issues each reward exactly once. The completed-flag write and the
// reward application share one transaction, so a crash between them can neither
// skip nor duplicate the payout.
type AchievementService struct {
	DB *gorm.DB
}

func NewAchievementService(db *gorm.DB) *AchievementService {
	return &AchievementService{DB: db}
}

// ProgressUpdate is one row of a recompute pass (and of the progress listing).
type ProgressUpdate struct {
	Definition     models.AchievementDefinition `json:"definition"`
	Percent        int                          `json:"percent"`
	IsCompleted    bool                         `json:"is_completed"`
	CompletedAt    *time.Time                   `json:"completed_at,omitempty"`
	NewlyCompleted bool                         `json:"newly_completed,omitempty"`
}

func statFor(acc *models.PlayerAccount, ct models.AchievementCondition) (int64, error) {
	switch ct {
	case models.ConditionQuestsCompleted:
		return acc.QuestsCompleted, nil
	case models.ConditionTotalPoints:
		return acc.Points, nil
	case models.ConditionLevelReached:
		return int64(acc.Level), nil
	case models.ConditionDistanceTraveled:
		return acc.DistanceTraveled, nil
	}
	return 0, fmt.Errorf("%w: unknown achievement condition %q", ErrInvalidArgument, ct)
}

// ComputePercent evaluates one definition against account stats, clamped to 0..100.
// level_reached is a step function, not a ratio.
func ComputePercent(def *models.AchievementDefinition, acc *models.PlayerAccount) (int, error) {
	stat, err := statFor(acc, def.ConditionType)
	if err != nil {
		return 0, err
	}
	if def.ConditionType == models.ConditionLevelReached {
		if stat >= def.ConditionTarget {
			return 100, nil
		}
		return 0, nil
	}
	if def.ConditionTarget <= 0 {
		return 100, nil
	}
	pct := stat * 100 / def.ConditionTarget
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return int(pct), nil
}

// Recompute walks every definition for the account inside tx. Progress percent is
// monotonic (a stat dip never lowers it), and a definition already completed is
// skipped outright — re-crossing 100% can never re-issue the reward.
func (s *AchievementService) Recompute(tx *gorm.DB, acc *models.PlayerAccount) ([]ProgressUpdate, error) {
	var defs []models.AchievementDefinition
	if err := tx.Find(&defs).Error; err != nil {
		return nil, fmt.Errorf("failed to load achievement definitions: %w", err)
	}

	var rows []models.AchievementProgress
	if err := tx.Where("external_user_id = ?", acc.ExternalUserID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load achievement progress: %w", err)
	}
	existing := make(map[string]*models.AchievementProgress, len(rows))
	for i := range rows {
		existing[rows[i].AchievementID] = &rows[i]
	}

	var updates []ProgressUpdate
	for _, def := range defs {
		prog := existing[def.ID]
		if prog != nil && prog.IsCompleted {
			continue
		}

		pct, err := ComputePercent(&def, acc)
		if err != nil {
			return nil, err
		}

		switch {
		case prog == nil && pct == 0:
			continue
		case prog == nil:
			prog = &models.AchievementProgress{
				ID:              uuid.NewString(),
				ExternalUserID:  acc.ExternalUserID,
				AchievementID:   def.ID,
				ProgressPercent: pct,
			}
			if err := tx.Create(prog).Error; err != nil {
				return nil, fmt.Errorf("failed to create achievement progress: %w", err)
			}
		case pct > prog.ProgressPercent:
			if err := tx.Model(&models.AchievementProgress{}).
				Where("id = ?", prog.ID).
				Update("progress_percent", pct).Error; err != nil {
				return nil, fmt.Errorf("failed to update achievement progress: %w", err)
			}
			prog.ProgressPercent = pct
		}

		completed := false
		if pct >= 100 {
			done, err := s.completeOnce(tx, prog, &def, acc)
			if err != nil {
				return nil, err
			}
			completed = done
		}

		updates = append(updates, ProgressUpdate{
			Definition:     def,
			Percent:        pct,
			IsCompleted:    pct >= 100,
			NewlyCompleted: completed,
		})
	}
	return updates, nil
}

// completeOnce flips is_completed and pays the reward in the caller's transaction.
// The guarded update makes a concurrent recompute lose cleanly: zero rows affected
// means someone else already paid.
func (s *AchievementService) completeOnce(tx *gorm.DB, prog *models.AchievementProgress, def *models.AchievementDefinition, acc *models.PlayerAccount) (bool, error) {
	now := time.Now()
	res := tx.Model(&models.AchievementProgress{}).
		Where("id = ? AND is_completed = ?", prog.ID, false).
		Updates(map[string]interface{}{
			"is_completed":     true,
			"completed_at":     &now,
			"progress_percent": 100,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	if err := tx.Model(&models.PlayerAccount{}).
		Where("id = ?", acc.ID).
		Updates(map[string]interface{}{
			"coins":   gorm.Expr("coins + ?", def.RewardCoins),
			"points":  gorm.Expr("points + ?", def.RewardPoints),
			"version": gorm.Expr("version + 1"),
		}).Error; err != nil {
		return false, fmt.Errorf("failed to apply achievement reward: %w", err)
	}

	log.Printf("🏆 Achievement completed: %s → %s", def.Code, acc.ExternalUserID)
	return true, nil
}

// ListProgress merges every definition with the player's progress rows so the
// caller sees 0%% entries for untouched achievements. Secret definitions are
// returned too — hiding them is a presentation concern.
func (s *AchievementService) ListProgress(externalUserID string) ([]ProgressUpdate, error) {
	var defs []models.AchievementDefinition
	if err := s.DB.Order("created_at ASC").Find(&defs).Error; err != nil {
		return nil, err
	}
	var rows []models.AchievementProgress
	if err := s.DB.Where("external_user_id = ?", externalUserID).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]*models.AchievementProgress, len(rows))
	for i := range rows {
		byID[rows[i].AchievementID] = &rows[i]
	}

	out := make([]ProgressUpdate, 0, len(defs))
	for _, def := range defs {
		u := ProgressUpdate{Definition: def}
		if p := byID[def.ID]; p != nil {
			u.Percent = p.ProgressPercent
			u.IsCompleted = p.IsCompleted
			u.CompletedAt = p.CompletedAt
		}
		out = append(out, u)
	}
	return out, nil
}
