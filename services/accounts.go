// services/accounts.go
package services

import (
	"errors"
	"fmt"
	"log"

	"quest-game-system/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// AccountService provisions player accounts and serves snapshots with regeneration
// applied lazily — there is no background timer topping energy up.
type AccountService struct {
	DB     *gorm.DB
	Tables *models.RewardTables
	Energy *EnergyService
	Clock  clockwork.Clock
}

func NewAccountService(db *gorm.DB, tables *models.RewardTables, energy *EnergyService, clock clockwork.Clock) *AccountService {
	return &AccountService{DB: db, Tables: tables, Energy: energy, Clock: clock}
}

// EnsureAccount creates the PlayerAccount row on first contact (idempotent).
func (s *AccountService) EnsureAccount(externalUserID string) (*models.PlayerAccount, error) {
	var acc models.PlayerAccount
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		base := s.Tables.Levels[0]
		acc = models.PlayerAccount{
			ID:                 uuid.NewString(),
			ExternalUserID:     externalUserID,
			Energy:             base.MaxEnergy,
			MaxEnergy:          base.MaxEnergy,
			Level:              base.Level,
			LastEnergyUpdateAt: s.Clock.Now(),
		}
		if err := s.DB.Create(&acc).Error; err != nil {
			return nil, fmt.Errorf("failed to provision account: %w", err)
		}
		log.Printf("🆕 Account provisioned for %s", externalUserID)
		return &acc, nil
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// GetSnapshot returns the account with lazy regeneration applied and, when energy
// actually grew, persisted.
func (s *AccountService) GetSnapshot(externalUserID string) (*models.PlayerAccount, error) {
	acc, err := s.EnsureAccount(externalUserID)
	if err != nil {
		return nil, err
	}
	if err := s.Energy.ApplyRegen(acc); err != nil {
		return nil, err
	}
	return acc, nil
}
