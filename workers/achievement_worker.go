// workers/achievement_worker.go
package workers

import (
	"context"
	"log"
	"time"

	"quest-game-system/models"
	"quest-game-system/services"

	"gorm.io/gorm"
)

// ReconcileWorker is the retry path for the two best-effort steps of quest
// completion: it re-awards completed sessions that never got a receipt (a crash
// between the session flip and the payout) and re-runs the achievement pass for
// recently active accounts. Both operations are idempotent, so running them again
// is always safe.
type ReconcileWorker struct {
	db           *gorm.DB
	completion   *services.CompletionService
	achievements *services.AchievementService
	interval     time.Duration
}

func NewReconcileWorker(db *gorm.DB, completion *services.CompletionService, achievements *services.AchievementService) *ReconcileWorker {
	return &ReconcileWorker{
		db:           db,
		completion:   completion,
		achievements: achievements,
		interval:     1 * time.Minute,
	}
}

func (w *ReconcileWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Reconcile Worker (missed payouts + achievement passes)…")
	go w.run(ctx)
}

func (w *ReconcileWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sweepUnpaidCompletions()
			w.recomputeRecentAccounts()
		case <-ctx.Done():
			log.Println("⏹️ Reconcile Worker stopped")
			return
		}
	}
}

// sweepUnpaidCompletions finds sessions that reached completed without a matching
// receipt and replays the award. AwardCompletion is idempotent per session, so a
// concurrent late payout cannot double-pay.
func (w *ReconcileWorker) sweepUnpaidCompletions() {
	type unpaid struct {
		ID               string
		ExternalUserID   string
		QuestID          string
		AccumulatedScore int64
	}
	var rows []unpaid
	err := w.db.Raw(`
		SELECT s.id, s.external_user_id, s.quest_id, s.accumulated_score
		FROM quest_sessions s
		LEFT JOIN completion_receipts r ON r.session_id = s.id
		WHERE s.status = ? AND r.id IS NULL
		LIMIT 50
	`, models.SessionStatusCompleted).Scan(&rows).Error
	if err != nil {
		log.Printf("❌ Reconcile sweep query failed: %v", err)
		return
	}

	for _, row := range rows {
		var quest models.Quest
		if err := w.db.Select("difficulty").First(&quest, "id = ?", row.QuestID).Error; err != nil {
			log.Printf("❌ Reconcile: quest %s missing for session %s: %v", row.QuestID, row.ID, err)
			continue
		}
		if _, err := w.completion.AwardCompletion(row.ID, row.ExternalUserID, quest.Difficulty, row.AccumulatedScore); err != nil {
			log.Printf("❌ Reconcile: award for session %s failed: %v", row.ID, err)
			continue
		}
		log.Printf("💰 Reconcile: paid out session %s for %s", row.ID, row.ExternalUserID)
	}
}

// recomputeRecentAccounts retries achievement awards that failed inside a
// completion call, per the recompute-on-next-pass contract.
func (w *ReconcileWorker) recomputeRecentAccounts() {
	since := time.Now().Add(-10 * time.Minute)
	var accounts []models.PlayerAccount
	if err := w.db.Where("updated_at >= ?", since).Limit(200).Find(&accounts).Error; err != nil {
		log.Printf("❌ Reconcile: account scan failed: %v", err)
		return
	}

	for i := range accounts {
		acc := accounts[i]
		err := w.db.Transaction(func(tx *gorm.DB) error {
			_, err := w.achievements.Recompute(tx, &acc)
			return err
		})
		if err != nil {
			log.Printf("❌ Reconcile: achievement pass for %s failed: %v", acc.ExternalUserID, err)
		}
	}
}
