package models

import (
	"time"

	"gorm.io/gorm"
)

// PlayerAccount tracks the gamified economy for each player (denormalized for fast reads).
// All mutations to energy/experience/coins/points go through a version-checked update —
// never a plain read-modify-write.
type PlayerAccount struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // resolved by the gateway

	Energy    int `json:"energy" gorm:"default:100"`
	MaxEnergy int `json:"max_energy" gorm:"default:100"`

	Experience int64 `json:"experience" gorm:"default:0"`
	Level      int   `json:"level" gorm:"default:1"`

	Coins  int64 `json:"coins" gorm:"default:0"`
	Points int64 `json:"points" gorm:"default:0"` // ranking only

	QuestsCompleted  int64 `json:"quests_completed" gorm:"default:0"`
	DistanceTraveled int64 `json:"distance_traveled" gorm:"default:0"` // meters, checkpoint-to-checkpoint

	LastEnergyUpdateAt time.Time `json:"last_energy_update_at"`

	// Optimistic concurrency: every write bumps Version and is conditioned on the
	// value it read. RowsAffected == 0 means somebody else won the race.
	Version int64 `json:"-" gorm:"default:0"`

	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
