package services

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quest-game-system/models"
)

func TestCheckAnswer(t *testing.T) {
	point := func(tt models.TaskType, answer string) *models.QuestPoint {
		return &models.QuestPoint{TaskType: tt, CorrectAnswer: answer}
	}

	t.Run("QuizIgnoresCaseAndWhitespace", func(t *testing.T) {
		p := point(models.TaskTypeQuiz, "Nevsky Prospekt")
		ok, err := checkAnswer(p, &AnswerSubmission{Answer: "  nevsky prospekt "})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("QuizWrongAnswer", func(t *testing.T) {
		p := point(models.TaskTypeQuiz, "Nevsky Prospekt")
		ok, err := checkAnswer(p, &AnswerSubmission{Answer: "Palace Square"})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("MultipleChoiceIsSetEquality", func(t *testing.T) {
		p := point(models.TaskTypeMultipleChoice, "Bronze Horseman, Hermitage, Kunstkamera")

		ok, err := checkAnswer(p, &AnswerSubmission{Options: []string{"hermitage", "KUNSTKAMERA", "bronze horseman"}})
		require.NoError(t, err)
		assert.True(t, ok, "order must not matter")

		ok, err = checkAnswer(p, &AnswerSubmission{Options: []string{"Hermitage", "Kunstkamera"}})
		require.NoError(t, err)
		assert.False(t, ok, "missing option must fail")

		ok, err = checkAnswer(p, &AnswerSubmission{Options: []string{"Hermitage", "Kunstkamera", "Bronze Horseman", "Aurora"}})
		require.NoError(t, err)
		assert.False(t, ok, "extra option must fail")
	})

	t.Run("PhotoStyleTasksPassOnSubmission", func(t *testing.T) {
		for _, tt := range []models.TaskType{models.TaskTypePhoto, models.TaskTypeSelfie, models.TaskTypeLocation} {
			ok, err := checkAnswer(point(tt, ""), &AnswerSubmission{})
			require.NoError(t, err)
			assert.True(t, ok)
		}
	})

	t.Run("UnknownTaskType", func(t *testing.T) {
		_, err := checkAnswer(point(models.TaskType("riddle"), "x"), &AnswerSubmission{})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

var sessionColumns = []string{
	"id", "external_user_id", "quest_id", "status",
	"current_point_index", "accumulated_score", "started_at", "completed_at",
}

var questColumns = []string{
	"id", "slug", "title", "description", "city", "difficulty", "status", "publish_at", "cover_url",
}

var pointColumns = []string{
	"id", "quest_id", "order_index", "latitude", "longitude",
	"task_type", "task", "correct_answer", "reward_points",
}

func newSessionService(t *testing.T) (*QuestSessionService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	tables := models.DefaultRewardTables()
	clock := clockwork.NewFakeClockAt(baseTime)
	energy := NewEnergyService(db, tables, clock)
	completion := NewCompletionService(db, tables, NewLevelingService(tables), NewAchievementService(db), clock)
	return NewQuestSessionService(db, energy, completion, clock), mock
}

func expectSessionLoad(mock sqlmock.Sqlmock, status models.SessionStatus, pointIndex int) {
	mock.ExpectQuery(`SELECT (.+) FROM "quest_sessions"`).
		WillReturnRows(sqlmock.NewRows(sessionColumns).
			AddRow("sess-1", "user-1", "quest-1", status, pointIndex, int64(0), baseTime, nil))
}

func expectQuestLoad(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT (.+) FROM "quests"`).
		WillReturnRows(sqlmock.NewRows(questColumns).
			AddRow("quest-1", "old-town-walk", "Old Town Walk", "", "Saint Petersburg",
				models.QuestDifficultyEasy, models.QuestStatusPublished, nil, ""))
	mock.ExpectQuery(`SELECT (.+) FROM "quest_points"`).
		WillReturnRows(sqlmock.NewRows(pointColumns).
			AddRow("pt-0", "quest-1", 0, 59.9386, 30.3141, models.TaskTypeQuiz, "Name this avenue", "Nevsky Prospekt", int64(25)).
			AddRow("pt-1", "quest-1", 1, 59.9398, 30.3146, models.TaskTypePhoto, "Photograph the arch", "", int64(25)))
}

func TestQuestSessionService_StartQuest(t *testing.T) {
	t.Run("ChargesOnceAndOpensSession", func(t *testing.T) {
		svc, mock := newSessionService(t)
		expectQuestLoad(mock)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM "quest_sessions"`).
			WillReturnRows(sqlmock.NewRows(sessionColumns))
		mock.ExpectQuery(`SELECT (.+) FROM "player_accounts"`).
			WillReturnRows(accountRow("acc-1", "user-1", 40, 100, baseTime, 0))
		mock.ExpectExec(`UPDATE "player_accounts" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "quest_sessions"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		session, err := svc.StartQuest("user-1", "quest-1")
		require.NoError(t, err)
		assert.Equal(t, models.SessionStatusInProgress, session.Status)
		assert.Equal(t, 0, session.CurrentPointIndex)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("FailedInsertRollsBackTheCharge", func(t *testing.T) {
		svc, mock := newSessionService(t)
		expectQuestLoad(mock)

		// The decrement and the insert share a transaction: when the insert dies,
		// the energy comes back and a retry charges from the original balance.
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM "quest_sessions"`).
			WillReturnRows(sqlmock.NewRows(sessionColumns))
		mock.ExpectQuery(`SELECT (.+) FROM "player_accounts"`).
			WillReturnRows(accountRow("acc-1", "user-1", 40, 100, baseTime, 0))
		mock.ExpectExec(`UPDATE "player_accounts" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "quest_sessions"`).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, err := svc.StartQuest("user-1", "quest-1")
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ExistingSessionReusedWithoutCharge", func(t *testing.T) {
		svc, mock := newSessionService(t)
		expectQuestLoad(mock)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM "quest_sessions"`).
			WillReturnRows(sqlmock.NewRows(sessionColumns).
				AddRow("sess-1", "user-1", "quest-1", models.SessionStatusInProgress, 1, int64(25), baseTime, nil))
		mock.ExpectCommit()

		session, err := svc.StartQuest("user-1", "quest-1")
		require.NoError(t, err)
		assert.Equal(t, "sess-1", session.ID)
		assert.Equal(t, 1, session.CurrentPointIndex)
		// No account read or energy write may appear on the mock.
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InsufficientEnergyRollsBack", func(t *testing.T) {
		svc, mock := newSessionService(t)
		expectQuestLoad(mock)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM "quest_sessions"`).
			WillReturnRows(sqlmock.NewRows(sessionColumns))
		mock.ExpectQuery(`SELECT (.+) FROM "player_accounts"`).
			WillReturnRows(accountRow("acc-1", "user-1", 10, 100, baseTime, 0))
		mock.ExpectRollback()

		_, err := svc.StartQuest("user-1", "quest-1")
		require.True(t, IsInsufficientEnergy(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestQuestSessionService_SubmitAnswer(t *testing.T) {
	t.Run("FinishedSessionRejected", func(t *testing.T) {
		svc, mock := newSessionService(t)
		expectSessionLoad(mock, models.SessionStatusCompleted, 2)

		_, err := svc.SubmitAnswer("sess-1", "user-1", AnswerSubmission{Answer: "anything"})
		assert.ErrorIs(t, err, ErrSessionFinished)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("OutOfRangeWhenLocationReported", func(t *testing.T) {
		svc, mock := newSessionService(t)
		expectSessionLoad(mock, models.SessionStatusInProgress, 0)
		expectQuestLoad(mock)

		// ~1.4km from the checkpoint — far outside the 100m geofence.
		far := &LatLng{Lat: 59.9500, Lng: 30.3300}
		_, err := svc.SubmitAnswer("sess-1", "user-1", AnswerSubmission{Answer: "Nevsky Prospekt", Location: far})
		assert.ErrorIs(t, err, ErrOutOfRange)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("WrongAnswerDoesNotAdvance", func(t *testing.T) {
		svc, mock := newSessionService(t)
		expectSessionLoad(mock, models.SessionStatusInProgress, 0)
		expectQuestLoad(mock)

		result, err := svc.SubmitAnswer("sess-1", "user-1", AnswerSubmission{Answer: "Palace Square"})
		require.NoError(t, err)
		assert.False(t, result.IsCorrect)
		assert.False(t, result.SessionAdvanced)
		assert.Equal(t, 0, result.CurrentPointIndex)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CorrectAnswerAdvances", func(t *testing.T) {
		svc, mock := newSessionService(t)
		expectSessionLoad(mock, models.SessionStatusInProgress, 0)
		expectQuestLoad(mock)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "quest_sessions" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		result, err := svc.SubmitAnswer("sess-1", "user-1", AnswerSubmission{Answer: "nevsky prospekt"})
		require.NoError(t, err)
		assert.True(t, result.IsCorrect)
		assert.True(t, result.SessionAdvanced)
		assert.False(t, result.SessionCompleted)
		assert.Equal(t, 1, result.CurrentPointIndex)
		assert.Equal(t, int64(25), result.PointsEarned)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("FinalCheckpointCompletesAndAwardsOnce", func(t *testing.T) {
		svc, mock := newSessionService(t)
		expectSessionLoad(mock, models.SessionStatusInProgress, 1)
		expectQuestLoad(mock)

		// Terminal transition: session flip + leg distance in one transaction.
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "quest_sessions" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE "player_accounts" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		// Exactly one completion award: one receipt insert, one account payout.
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "completion_receipts"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT (.+) FROM "player_accounts"`).
			WillReturnRows(accountRow("acc-1", "user-1", 70, 100, baseTime, 1))
		mock.ExpectExec(`UPDATE "player_accounts" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE "completion_receipts" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		// Post-commit achievement pass in its own transaction.
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM "achievement_definitions"`).
			WillReturnRows(sqlmock.NewRows(definitionColumns))
		mock.ExpectQuery(`SELECT (.+) FROM "achievement_progresses"`).
			WillReturnRows(sqlmock.NewRows(progressColumns))
		mock.ExpectCommit()

		result, err := svc.SubmitAnswer("sess-1", "user-1", AnswerSubmission{PhotoURL: "https://cdn.example/submissions/u1/arch.jpg"})
		require.NoError(t, err)
		assert.True(t, result.IsCorrect)
		assert.True(t, result.SessionCompleted)
		assert.Equal(t, 2, result.CurrentPointIndex)

		require.NotNil(t, result.Completion)
		assert.False(t, result.Completion.AlreadyProcessed)
		assert.Equal(t, int64(100), result.Completion.ExperienceGained)
		assert.Equal(t, int64(25), result.Completion.PointsGained)
		require.NotNil(t, result.Completion.LevelUp)
		assert.Equal(t, 2, result.Completion.LevelUp.NewLevel)
		// Quest coins plus the level-up bonus.
		assert.Equal(t, int64(100), result.Completion.CoinsGained)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RacingSubmitLosesCleanly", func(t *testing.T) {
		svc, mock := newSessionService(t)
		expectSessionLoad(mock, models.SessionStatusInProgress, 0)
		expectQuestLoad(mock)

		// The guarded update finds the index already moved by a parallel submit.
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "quest_sessions" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := svc.SubmitAnswer("sess-1", "user-1", AnswerSubmission{Answer: "Nevsky Prospekt"})
		assert.ErrorIs(t, err, ErrConcurrencyConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestQuestSessionService_Abandon(t *testing.T) {
	t.Run("InProgressSessionAbandons", func(t *testing.T) {
		svc, mock := newSessionService(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "quest_sessions" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, svc.Abandon("sess-1", "user-1"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CompletedSessionStaysTerminal", func(t *testing.T) {
		svc, mock := newSessionService(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "quest_sessions" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()
		expectSessionLoad(mock, models.SessionStatusCompleted, 2)

		err := svc.Abandon("sess-1", "user-1")
		assert.ErrorIs(t, err, ErrSessionFinished)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UnknownSession", func(t *testing.T) {
		svc, mock := newSessionService(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "quest_sessions" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()
		mock.ExpectQuery(`SELECT (.+) FROM "quest_sessions"`).
			WillReturnRows(sqlmock.NewRows(sessionColumns))

		err := svc.Abandon("ghost", "user-1")
		assert.ErrorIs(t, err, ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
