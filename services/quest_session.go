// services/quest_session.go
package services

import (
	"errors"
	"fmt"
	"log"

	"quest-game-system/models"
	"quest-game-system/utils"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// QuestSessionService is the geofence progression state machine:
// in_progress → {completed, abandoned}, with the current checkpoint index as the
// in-progress sub-position. Energy is spent exactly once, at session start.
type QuestSessionService struct {
	DB         *gorm.DB
	Energy     *EnergyService
	Completion *CompletionService
	Clock      clockwork.Clock
}

func NewQuestSessionService(db *gorm.DB, energy *EnergyService, completion *CompletionService, clock clockwork.Clock) *QuestSessionService {
	return &QuestSessionService{DB: db, Energy: energy, Completion: completion, Clock: clock}
}

// LatLng is a player-reported position.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// AnswerSubmission carries whichever payload the checkpoint's task type expects.
type AnswerSubmission struct {
	Answer   string   `json:"answer"`
	Options  []string `json:"options"`
	PhotoURL string   `json:"photo_url"`
	Location *LatLng  `json:"location"`
}

// SubmitResult reports one answer attempt.
type SubmitResult struct {
	IsCorrect         bool              `json:"is_correct"`
	PointsEarned      int64             `json:"points_earned"`
	SessionAdvanced   bool              `json:"session_advanced"`
	SessionCompleted  bool              `json:"session_completed"`
	CurrentPointIndex int               `json:"current_point_index"`
	Completion        *CompletionResult `json:"completion,omitempty"`
}

// StartQuest is the single gate into the state machine. It charges the quest's
// energy cost and opens a session at checkpoint 0. An existing in-progress session
// for the same quest is returned as-is so a retried start never double-charges.
func (s *QuestSessionService) StartQuest(externalUserID, questID string) (*models.QuestSession, error) {
	var quest models.Quest
	err := s.DB.Preload("Points", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_index ASC")
	}).Where("id = ? AND status = ?", questID, models.QuestStatusPublished).First(&quest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: quest %s", ErrNotFound, questID)
		}
		return nil, err
	}
	if len(quest.Points) == 0 {
		return nil, fmt.Errorf("%w: quest %s has no checkpoints", ErrInvalidArgument, questID)
	}

	var session models.QuestSession
	reused := false
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.QuestSession
		err := tx.Where("external_user_id = ? AND quest_id = ? AND status = ?",
			externalUserID, questID, models.SessionStatusInProgress).First(&existing).Error
		if err == nil {
			session = existing
			reused = true
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// The charge and the session insert commit together: a failure past this
		// point rolls the energy decrement back with the session.
		if _, err := s.Energy.ConsumeTx(tx, externalUserID, quest.Difficulty); err != nil {
			return err
		}

		session = models.QuestSession{
			ID:                uuid.NewString(),
			ExternalUserID:    externalUserID,
			QuestID:           questID,
			Status:            models.SessionStatusInProgress,
			CurrentPointIndex: 0,
			StartedAt:         s.Clock.Now(),
		}
		if err := tx.Create(&session).Error; err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		return nil
	})
	if err != nil {
		// A racing start that slipped past the in-transaction check hits the
		// one-active-session index; its charge rolled back, the winner's session
		// is the answer.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing models.QuestSession
			if ferr := s.DB.Where("external_user_id = ? AND quest_id = ? AND status = ?",
				externalUserID, questID, models.SessionStatusInProgress).First(&existing).Error; ferr == nil {
				return &existing, nil
			}
		}
		return nil, err
	}
	if !reused {
		log.Printf("🧭 Quest started: %s → %s (session %s)", externalUserID, quest.Slug, session.ID)
	}
	return &session, nil
}

// GetSession loads one session, scoped to its owner.
func (s *QuestSessionService) GetSession(sessionID, externalUserID string) (*models.QuestSession, error) {
	var session models.QuestSession
	if err := s.DB.Where("id = ? AND external_user_id = ?", sessionID, externalUserID).
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
		}
		return nil, err
	}
	return &session, nil
}

// SubmitAnswer validates the answer for the current checkpoint and, when correct,
// advances the session. Clearing the last checkpoint transitions to completed and
// triggers the (idempotent) completion award. Calls against a finished session are
// a caller bug and fail with ErrSessionFinished.
func (s *QuestSessionService) SubmitAnswer(sessionID, externalUserID string, sub AnswerSubmission) (*SubmitResult, error) {
	session, err := s.GetSession(sessionID, externalUserID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionStatusInProgress {
		return nil, fmt.Errorf("%w: session %s is %s", ErrSessionFinished, sessionID, session.Status)
	}

	var quest models.Quest
	if err := s.DB.Preload("Points", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_index ASC")
	}).Where("id = ?", session.QuestID).First(&quest).Error; err != nil {
		return nil, fmt.Errorf("failed to load quest for session %s: %w", sessionID, err)
	}
	if session.CurrentPointIndex >= len(quest.Points) {
		return nil, fmt.Errorf("%w: session %s has cleared all checkpoints", ErrSessionFinished, sessionID)
	}
	point := quest.Points[session.CurrentPointIndex]

	// When the client reports a position we re-validate range server-side; the
	// client-side lock is advisory only.
	if sub.Location != nil && !utils.WithinGeofence(sub.Location.Lat, sub.Location.Lng, point.Latitude, point.Longitude) {
		return nil, fmt.Errorf("%w: checkpoint %d", ErrOutOfRange, point.OrderIndex)
	}

	isCorrect, err := checkAnswer(&point, &sub)
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{
		IsCorrect:         isCorrect,
		CurrentPointIndex: session.CurrentPointIndex,
	}
	if !isCorrect {
		return result, nil
	}

	result.PointsEarned = point.RewardPoints
	newIndex := session.CurrentPointIndex + 1
	newScore := session.AccumulatedScore + point.RewardPoints
	completed := newIndex == len(quest.Points)

	// Leg distance between consecutive checkpoints feeds the distance_traveled stat.
	var legMeters int64
	if session.CurrentPointIndex >= 1 {
		prev := quest.Points[session.CurrentPointIndex-1]
		legMeters = int64(utils.HaversineMeters(prev.Latitude, prev.Longitude, point.Latitude, point.Longitude))
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"current_point_index": newIndex,
			"accumulated_score":   newScore,
		}
		if completed {
			now := s.Clock.Now()
			updates["status"] = models.SessionStatusCompleted
			updates["completed_at"] = &now
		}
		// Guarded by the index we read: a racing submit for the same checkpoint
		// loses here instead of double-advancing.
		res := tx.Model(&models.QuestSession{}).
			Where("id = ? AND status = ? AND current_point_index = ?",
				session.ID, models.SessionStatusInProgress, session.CurrentPointIndex).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConcurrencyConflict
		}

		if legMeters > 0 {
			if err := tx.Model(&models.PlayerAccount{}).
				Where("external_user_id = ?", externalUserID).
				Updates(map[string]interface{}{
					"distance_traveled": gorm.Expr("distance_traveled + ?", legMeters),
					"version":           gorm.Expr("version + 1"),
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.SessionAdvanced = true
	result.CurrentPointIndex = newIndex

	if completed {
		result.SessionCompleted = true
		completion, err := s.Completion.AwardCompletion(session.ID, externalUserID, quest.Difficulty, newScore)
		if err != nil {
			// The session is already terminal; the reconcile worker re-awards from
			// the completed-without-receipt sweep.
			log.Printf("⚠️ Completion award failed for session %s: %v", session.ID, err)
			return result, nil
		}
		result.Completion = completion
		log.Printf("🏁 Quest completed: %s → %s (+%d pts)", externalUserID, quest.Slug, newScore)
	}
	return result, nil
}

// ListSessions returns the player's session history, newest first.
func (s *QuestSessionService) ListSessions(externalUserID string) ([]models.QuestSession, error) {
	var sessions []models.QuestSession
	if err := s.DB.Where("external_user_id = ?", externalUserID).
		Order("started_at DESC").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// Abandon is the other terminal transition. Only an in-progress session can move.
func (s *QuestSessionService) Abandon(sessionID, externalUserID string) error {
	res := s.DB.Model(&models.QuestSession{}).
		Where("id = ? AND external_user_id = ? AND status = ?",
			sessionID, externalUserID, models.SessionStatusInProgress).
		Update("status", models.SessionStatusAbandoned)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetSession(sessionID, externalUserID); err != nil {
			return err
		}
		return fmt.Errorf("%w: session %s", ErrSessionFinished, sessionID)
	}
	return nil
}

// checkAnswer applies the per-task-type correctness policy. Photo, selfie and
// location tasks succeed by submission alone — there is no content verification.
func checkAnswer(point *models.QuestPoint, sub *AnswerSubmission) (bool, error) {
	switch point.TaskType {
	case models.TaskTypeQuiz, models.TaskTypeText, models.TaskTypeTextInput:
		return utils.AnswersEqual(sub.Answer, point.CorrectAnswer), nil
	case models.TaskTypeMultipleChoice:
		return utils.OptionSetsEqual(sub.Options, utils.SplitOptions(point.CorrectAnswer)), nil
	case models.TaskTypePhoto, models.TaskTypeSelfie, models.TaskTypeLocation:
		return true, nil
	default:
		return false, fmt.Errorf("%w: unknown task type %q", ErrInvalidArgument, point.TaskType)
	}
}
