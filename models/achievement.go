package models

// Metric selects the profile field an achievement is measured against.
type Metric string

const (
	MetricTotalReflections Metric = "total_reflections"
	MetricCurrentStreak    Metric = "current_streak"
	MetricLongestStreak    Metric = "longest_streak"
	MetricLevel            Metric = "level"
	MetricTotalPoints      Metric = "total_points"
	MetricPetHappiness     Metric = "pet_happiness"
	MetricPetHealth        Metric = "pet_health"
	MetricAccessoriesOwned Metric = "accessories_owned"
)

// AchievementDefinition is static config; per-user state is always derived, never stored.
type AchievementDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Category    string `json:"category"`
	Metric      Metric `json:"metric"`
	Threshold   int64  `json:"threshold"`
	MaxProgress int64  `json:"max_progress"`
}

// AchievementState is the evaluated view of one definition for one profile.
type AchievementState struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Category    string `json:"category"`
	Unlocked    bool   `json:"unlocked"`
	Progress    int64  `json:"progress"`
	MaxProgress int64  `json:"max_progress"`
}

// AchievementDefinitions in display order.
var AchievementDefinitions = []AchievementDefinition{
	{
		ID: "first-reflection", Name: "First Insight", Description: "Complete your first reflection",
		Icon: "💭", Category: "Beginner", Metric: MetricTotalReflections, Threshold: 1, MaxProgress: 1,
	},
	{
		ID: "week-streak", Name: "Mindful Weeks", Description: "Keep a 7-week reflection streak",
		Icon: "🔥", Category: "Consistency", Metric: MetricCurrentStreak, Threshold: 7, MaxProgress: 7,
	},
	{
		ID: "wisdom-seeker", Name: "Wisdom Seeker", Description: "Reach level 5 with your companion",
		Icon: "🧙", Category: "Growth", Metric: MetricLevel, Threshold: 5, MaxProgress: 5,
	},
	{
		ID: "point-collector", Name: "Point Collector", Description: "Hold 500 reflection points",
		Icon: "⭐", Category: "Dedication", Metric: MetricTotalPoints, Threshold: 500, MaxProgress: 500,
	},
	{
		ID: "monthly-master", Name: "Monthly Master", Description: "Keep a 30-week streak",
		Icon: "🏆", Category: "Master", Metric: MetricCurrentStreak, Threshold: 30, MaxProgress: 30,
	},
	{
		ID: "enlightened", Name: "Enlightened", Description: "Reach maximum companion happiness",
		Icon: "✨", Category: "Mastery", Metric: MetricPetHappiness, Threshold: 100, MaxProgress: 100,
	},
	{
		ID: "first-accessory", Name: "Dapper Dino", Description: "Buy your first accessory",
		Icon: "🎩", Category: "Style", Metric: MetricAccessoriesOwned, Threshold: 1, MaxProgress: 1,
	},
}
