package models

import "time"

type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusAbandoned  SessionStatus = "abandoned"
)

// QuestSession is one player's attempt at a quest. It becomes immutable once the
// status is completed or abandoned.
type QuestSession struct {
	ID string `gorm:"primaryKey;type:uuid" json:"id"`
	// The partial unique index allows one in-progress session per (player, quest);
	// finished sessions keep piling up underneath it.
	ExternalUserID string `gorm:"index;not null;uniqueIndex:idx_one_active_session,where:status = 'in_progress'" json:"external_user_id"`
	QuestID        string `gorm:"index;not null;uniqueIndex:idx_one_active_session,where:status = 'in_progress'" json:"quest_id"`

	Status            SessionStatus `gorm:"not null;default:'in_progress';index" json:"status"`
	CurrentPointIndex int           `gorm:"default:0" json:"current_point_index"` // == point count once cleared
	AccumulatedScore  int64         `gorm:"default:0" json:"accumulated_score"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Timestamps
}

// CompletionReceipt makes quest-completion rewards idempotent: one row per session,
// inserted in the same transaction as the account write. A retry that hits the
// unique index replays the stored totals instead of paying twice.
type CompletionReceipt struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	SessionID      string `gorm:"uniqueIndex;not null" json:"session_id"`
	ExternalUserID string `gorm:"index;not null" json:"external_user_id"`

	ExperienceGained int64 `json:"experience_gained"`
	CoinsGained      int64 `json:"coins_gained"`
	PointsGained     int64 `json:"points_gained"`
	NewLevel         int   `json:"new_level"` // 0 when no level-up happened

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
