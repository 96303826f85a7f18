// services/scheduler.go
package services

import (
	"log"
	"time"

	"quest-game-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartPublishScheduler flips scheduled quests to published once their publish
// time passes.
func (s *QuestService) StartPublishScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			var quests []models.Quest
			now := time.Now()
			err := s.DB.Where("status = ? AND publish_at <= ?", models.QuestStatusScheduled, now).
				Find(&quests).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}

			for _, q := range quests {
				q.Status = models.QuestStatusPublished
				q.PublishAt = nil
				if err := s.DB.Save(&q).Error; err != nil {
					log.Printf("[Scheduler] Failed to publish quest %s: %v", q.ID, err)
				} else {
					log.Printf("✅ Auto-published quest: %s", q.Title)
				}
			}
		}),
	)
}
