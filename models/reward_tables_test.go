package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewardTables_LevelFor(t *testing.T) {
	tables := DefaultRewardTables()

	tests := []struct {
		xp   int64
		want int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{299, 2},
		{300, 3},
		{1000, 5},
		{8999, 9},
		{9000, 10},
		{1_000_000, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tables.LevelFor(tt.xp).Level, "xp=%d", tt.xp)
	}
}

func TestRewardTables_TitleFor(t *testing.T) {
	tables := DefaultRewardTables()
	assert.Equal(t, "Novice Explorer", tables.TitleFor(1))
	assert.Equal(t, "Seasoned Explorer", tables.TitleFor(5))
	assert.Equal(t, "Living Legend", tables.TitleFor(10))
}

func TestRewardTables_RewardFor(t *testing.T) {
	tables := DefaultRewardTables()

	r, ok := tables.RewardFor(QuestDifficultyHard)
	require.True(t, ok)
	assert.Equal(t, int64(350), r.Experience)
	assert.Equal(t, 50, r.EnergyCost)

	_, ok = tables.RewardFor(QuestDifficulty("nightmare"))
	assert.False(t, ok)
}

func TestDefaultRewardTablesShape(t *testing.T) {
	tables := DefaultRewardTables()

	require.NotEmpty(t, tables.Levels)
	assert.Equal(t, 1, tables.Levels[0].Level)
	assert.Zero(t, tables.Levels[0].RequiredXP)

	for i := 1; i < len(tables.Levels); i++ {
		prev, cur := tables.Levels[i-1], tables.Levels[i]
		assert.Equal(t, prev.Level+1, cur.Level)
		assert.Greater(t, cur.RequiredXP, prev.RequiredXP, "thresholds must be strictly increasing")
		assert.GreaterOrEqual(t, cur.MaxEnergy, prev.MaxEnergy)
	}
}
