package models

import "time"

type AchievementCondition string

const (
	ConditionQuestsCompleted  AchievementCondition = "quests_completed"
	ConditionTotalPoints      AchievementCondition = "total_points"
	ConditionLevelReached     AchievementCondition = "level_reached"
	ConditionDistanceTraveled AchievementCondition = "distance_traveled"
)

// ValidCondition guards achievement authoring input.
func ValidCondition(ct AchievementCondition) bool {
	switch ct {
	case ConditionQuestsCompleted, ConditionTotalPoints, ConditionLevelReached, ConditionDistanceTraveled:
		return true
	}
	return false
}

// AchievementDefinition: static config rows, seeded at startup and authored via admin.
type AchievementDefinition struct {
	ID              string               `gorm:"primaryKey;type:uuid" json:"id"`
	Code            string               `gorm:"uniqueIndex;not null" json:"code"` // e.g., "FIRST_QUEST"
	Name            string               `gorm:"not null" json:"name"`
	Description     string               `json:"description"`
	IconURL         string               `gorm:"type:text" json:"icon_url"`
	ConditionType   AchievementCondition `gorm:"not null" json:"condition_type"`
	ConditionTarget int64                `gorm:"not null" json:"condition_target"`
	RewardPoints    int64                `gorm:"default:0" json:"reward_points"`
	RewardCoins     int64                `gorm:"default:0" json:"reward_coins"`
	IsSecret        bool                 `gorm:"default:false" json:"is_secret"` // concealment is a UI concern; tracked identically

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// AchievementProgress: per (player, achievement). ProgressPercent is monotonic and
// IsCompleted is write-once — the reward is applied in the same transaction that
// flips the flag.
type AchievementProgress struct {
	ID              string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID  string `gorm:"index:idx_achievement_user,unique;not null" json:"external_user_id"`
	AchievementID   string `gorm:"index:idx_achievement_user,unique;not null" json:"achievement_id"`
	ProgressPercent int    `gorm:"default:0" json:"progress_percent"` // 0..100
	IsCompleted     bool   `gorm:"default:false" json:"is_completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`

	Timestamps
}

// DefaultAchievements seed the definitions table on first boot.
var DefaultAchievements = []AchievementDefinition{
	{
		Code:            "FIRST_QUEST",
		Name:            "First Steps",
		Description:     "Complete your first quest",
		ConditionType:   ConditionQuestsCompleted,
		ConditionTarget: 1,
		RewardPoints:    50,
		RewardCoins:     25,
	},
	{
		Code:            "QUEST_VETERAN",
		Name:            "Quest Veteran",
		Description:     "Complete 10 quests",
		ConditionType:   ConditionQuestsCompleted,
		ConditionTarget: 10,
		RewardPoints:    300,
		RewardCoins:     150,
	},
	{
		Code:            "POINT_COLLECTOR",
		Name:            "Point Collector",
		Description:     "Earn 1000 points",
		ConditionType:   ConditionTotalPoints,
		ConditionTarget: 1000,
		RewardPoints:    100,
		RewardCoins:     100,
	},
	{
		Code:            "LEVEL_5",
		Name:            "Seasoned Explorer",
		Description:     "Reach level 5",
		ConditionType:   ConditionLevelReached,
		ConditionTarget: 5,
		RewardPoints:    200,
		RewardCoins:     100,
	},
	{
		Code:            "MARATHON",
		Name:            "Marathon",
		Description:     "Travel 42 km between checkpoints",
		ConditionType:   ConditionDistanceTraveled,
		ConditionTarget: 42195,
		RewardPoints:    500,
		RewardCoins:     250,
		IsSecret:        true,
	},
}
