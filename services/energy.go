// services/energy.go
package services

import (
	"errors"
	"fmt"
	"time"

	"quest-game-system/models"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// EnergyService owns the energy balance: affordability checks, the race-safe
// consume at quest start, and lazy time-based regeneration. Capacity (MaxEnergy)
// is never touched here — it only changes on level-up.
type EnergyService struct {
	DB     *gorm.DB
	Tables *models.RewardTables
	Clock  clockwork.Clock
}

func NewEnergyService(db *gorm.DB, tables *models.RewardTables, clock clockwork.Clock) *EnergyService {
	return &EnergyService{DB: db, Tables: tables, Clock: clock}
}

// consumeRetries bounds the optimistic-lock retry loop inside a single Consume call.
const consumeRetries = 3

// RegenerateInto applies lazy regeneration to the in-memory account and returns the
// pre-clamp gain. The timestamp moves only when gained > 0, so partial minutes keep
// accumulating across zero-gain reads.
func RegenerateInto(acc *models.PlayerAccount, now time.Time, minutesPerPoint int) int {
	if minutesPerPoint <= 0 {
		return 0
	}
	elapsed := now.Sub(acc.LastEnergyUpdateAt)
	if elapsed <= 0 {
		return 0
	}
	gained := int(elapsed.Minutes()) / minutesPerPoint
	if gained <= 0 {
		return 0
	}
	acc.Energy += gained
	if acc.Energy > acc.MaxEnergy {
		acc.Energy = acc.MaxEnergy
	}
	acc.LastEnergyUpdateAt = now
	return gained
}

// CanAfford is the read-only affordability probe used by catalogs.
func (s *EnergyService) CanAfford(acc *models.PlayerAccount, d models.QuestDifficulty) (bool, error) {
	reward, ok := s.Tables.RewardFor(d)
	if !ok {
		return false, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidArgument, d)
	}
	return acc.Energy >= reward.EnergyCost, nil
}

// Consume re-checks affordability and decrements energy as one conditional update.
// Two racing calls with only one quest's worth of balance left cannot both win: the
// write is guarded by the version the loser no longer holds.
func (s *EnergyService) Consume(externalUserID string, d models.QuestDifficulty) (*models.PlayerAccount, error) {
	return s.consume(s.DB, externalUserID, d)
}

// ConsumeTx is Consume on the caller's transaction, so the decrement commits or
// rolls back together with the caller's writes.
func (s *EnergyService) ConsumeTx(tx *gorm.DB, externalUserID string, d models.QuestDifficulty) (*models.PlayerAccount, error) {
	return s.consume(tx, externalUserID, d)
}

func (s *EnergyService) consume(db *gorm.DB, externalUserID string, d models.QuestDifficulty) (*models.PlayerAccount, error) {
	reward, ok := s.Tables.RewardFor(d)
	if !ok {
		return nil, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidArgument, d)
	}

	for attempt := 0; attempt < consumeRetries; attempt++ {
		var acc models.PlayerAccount
		if err := db.Where("external_user_id = ?", externalUserID).First(&acc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: account %s", ErrNotFound, externalUserID)
			}
			return nil, err
		}

		RegenerateInto(&acc, s.Clock.Now(), s.Tables.RegenMinutesPerPoint)

		if acc.Energy < reward.EnergyCost {
			return nil, &InsufficientEnergyError{Required: reward.EnergyCost, Balance: acc.Energy}
		}

		newEnergy := acc.Energy - reward.EnergyCost
		res := db.Model(&models.PlayerAccount{}).
			Where("id = ? AND version = ?", acc.ID, acc.Version).
			Updates(map[string]interface{}{
				"energy":                newEnergy,
				"last_energy_update_at": acc.LastEnergyUpdateAt,
				"version":               acc.Version + 1,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			acc.Energy = newEnergy
			acc.Version++
			return &acc, nil
		}
		// Lost the version race — reload and re-check affordability from scratch.
	}
	return nil, ErrConcurrencyConflict
}

// ApplyRegen persists lazy regeneration on read paths. Best effort: a lost race
// just means someone else already wrote fresher state.
func (s *EnergyService) ApplyRegen(acc *models.PlayerAccount) error {
	gained := RegenerateInto(acc, s.Clock.Now(), s.Tables.RegenMinutesPerPoint)
	if gained == 0 {
		return nil
	}
	res := s.DB.Model(&models.PlayerAccount{}).
		Where("id = ? AND version = ?", acc.ID, acc.Version).
		Updates(map[string]interface{}{
			"energy":                acc.Energy,
			"last_energy_update_at": acc.LastEnergyUpdateAt,
			"version":               acc.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		acc.Version++
	}
	return nil
}
