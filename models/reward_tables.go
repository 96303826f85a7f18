package models

// LevelConfig is one rung of the level curve. RequiredXP thresholds are cumulative
// and strictly increasing; MaxEnergy replaces (not adds to) the previous capacity.
type LevelConfig struct {
	Level      int
	RequiredXP int64
	Title      string
	BonusCoins int64
	MaxEnergy  int
}

// QuestReward is the per-difficulty payout and energy cost.
type QuestReward struct {
	Experience int64
	Coins      int64
	EnergyCost int
}

// RewardTables is the static configuration injected into every engine component.
// It is never mutated after construction — alternate tables make tests deterministic.
type RewardTables struct {
	Levels               []LevelConfig // sorted by Level ascending
	QuestRewards         map[QuestDifficulty]QuestReward
	RegenMinutesPerPoint int // wall minutes to regenerate one energy point
}

// Reward lookups never default: an unknown difficulty is a config error the caller
// must surface.
func (t *RewardTables) RewardFor(d QuestDifficulty) (QuestReward, bool) {
	r, ok := t.QuestRewards[d]
	return r, ok
}

// LevelFor returns the highest level whose threshold is at or below xp.
func (t *RewardTables) LevelFor(xp int64) LevelConfig {
	best := t.Levels[0]
	for _, lc := range t.Levels {
		if lc.RequiredXP <= xp {
			best = lc
		} else {
			break
		}
	}
	return best
}

// TitleFor returns the display title for a persisted level.
func (t *RewardTables) TitleFor(level int) string {
	title := t.Levels[0].Title
	for _, lc := range t.Levels {
		if lc.Level <= level {
			title = lc.Title
		}
	}
	return title
}

func DefaultRewardTables() *RewardTables {
	return &RewardTables{
		Levels: []LevelConfig{
			{Level: 1, RequiredXP: 0, Title: "Novice Explorer", BonusCoins: 0, MaxEnergy: 100},
			{Level: 2, RequiredXP: 100, Title: "City Wanderer", BonusCoins: 50, MaxEnergy: 110},
			{Level: 3, RequiredXP: 300, Title: "Pathfinder", BonusCoins: 100, MaxEnergy: 120},
			{Level: 4, RequiredXP: 600, Title: "Trailblazer", BonusCoins: 150, MaxEnergy: 130},
			{Level: 5, RequiredXP: 1000, Title: "Seasoned Explorer", BonusCoins: 200, MaxEnergy: 140},
			{Level: 6, RequiredXP: 1500, Title: "Urban Legend", BonusCoins: 250, MaxEnergy: 150},
			{Level: 7, RequiredXP: 2500, Title: "Master Navigator", BonusCoins: 300, MaxEnergy: 165},
			{Level: 8, RequiredXP: 4000, Title: "Quest Champion", BonusCoins: 400, MaxEnergy: 180},
			{Level: 9, RequiredXP: 6000, Title: "Grand Adventurer", BonusCoins: 500, MaxEnergy: 200},
			{Level: 10, RequiredXP: 9000, Title: "Living Legend", BonusCoins: 1000, MaxEnergy: 250},
		},
		QuestRewards: map[QuestDifficulty]QuestReward{
			QuestDifficultyEasy:   {Experience: 100, Coins: 50, EnergyCost: 30},
			QuestDifficultyMedium: {Experience: 200, Coins: 100, EnergyCost: 40},
			QuestDifficultyHard:   {Experience: 350, Coins: 200, EnergyCost: 50},
		},
		RegenMinutesPerPoint: 5,
	}
}
