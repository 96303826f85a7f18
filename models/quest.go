package models

import "time"

type QuestDifficulty string

const (
	QuestDifficultyEasy   QuestDifficulty = "easy"
	QuestDifficultyMedium QuestDifficulty = "medium"
	QuestDifficultyHard   QuestDifficulty = "hard"
)

type QuestStatus string

const (
	QuestStatusDraft     QuestStatus = "draft"
	QuestStatusScheduled QuestStatus = "scheduled"
	QuestStatusPublished QuestStatus = "published"
	QuestStatusArchived  QuestStatus = "archived"
)

type TaskType string

const (
	TaskTypeQuiz           TaskType = "quiz"
	TaskTypeText           TaskType = "text"
	TaskTypeTextInput      TaskType = "text_input"
	TaskTypeMultipleChoice TaskType = "multiple_choice"
	TaskTypePhoto          TaskType = "photo"
	TaskTypeSelfie         TaskType = "selfie"
	TaskTypeLocation       TaskType = "location"
)

// ValidDifficulty guards quest authoring input.
func ValidDifficulty(d QuestDifficulty) bool {
	switch d {
	case QuestDifficultyEasy, QuestDifficultyMedium, QuestDifficultyHard:
		return true
	}
	return false
}

// ValidTaskType guards against config errors — an unknown task type is never
// silently defaulted.
func ValidTaskType(t TaskType) bool {
	switch t {
	case TaskTypeQuiz, TaskTypeText, TaskTypeTextInput, TaskTypeMultipleChoice,
		TaskTypePhoto, TaskTypeSelfie, TaskTypeLocation:
		return true
	}
	return false
}

// Quest is an authored, ordered sequence of geofenced checkpoints.
type Quest struct {
	ID          string          `gorm:"primaryKey;type:uuid" json:"id"`
	Slug        string          `gorm:"uniqueIndex;not null" json:"slug"`
	Title       string          `gorm:"not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	City        string          `json:"city"`
	Difficulty  QuestDifficulty `gorm:"not null;default:'easy'" json:"difficulty"`
	Status      QuestStatus     `gorm:"not null;default:'draft';index" json:"status"`
	PublishAt   *time.Time      `json:"publish_at,omitempty"`
	CoverURL    string          `gorm:"type:text" json:"cover_url"` // R2 CDN URL

	Points []QuestPoint `gorm:"foreignKey:QuestID;constraint:OnDelete:CASCADE" json:"points,omitempty"`

	Timestamps
}

// QuestPoint is one orderable checkpoint. Immutable once the quest is published.
type QuestPoint struct {
	ID         string   `gorm:"primaryKey;type:uuid" json:"id"`
	QuestID    string   `gorm:"index;not null" json:"quest_id"`
	OrderIndex int      `gorm:"not null" json:"order_index"` // 0-based
	Latitude   float64  `gorm:"not null" json:"latitude"`
	Longitude  float64  `gorm:"not null" json:"longitude"`
	TaskType   TaskType `gorm:"not null" json:"task_type"`
	Task       string   `gorm:"type:text" json:"task"`
	// For quiz/text/text_input: the expected answer.
	// For multiple_choice: comma-separated option list, compared as a set.
	// Empty for photo/selfie/location tasks.
	CorrectAnswer string `gorm:"type:text" json:"-"`
	RewardPoints  int64  `gorm:"default:0" json:"reward_points"`

	Timestamps
}
