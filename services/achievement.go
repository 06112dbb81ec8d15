package services

import "thyknow/models"

// MetricValue reads the profile field an achievement metric refers to.
func MetricValue(p *models.UserProfile, m models.Metric) int64 {
	switch m {
	case models.MetricTotalReflections:
		return p.TotalReflections
	case models.MetricCurrentStreak:
		return int64(p.CurrentStreak)
	case models.MetricLongestStreak:
		return int64(p.LongestStreak)
	case models.MetricLevel:
		return int64(p.Level)
	case models.MetricTotalPoints:
		return p.TotalPoints
	case models.MetricPetHappiness:
		return int64(p.PetHappiness)
	case models.MetricPetHealth:
		return int64(p.PetHealth)
	case models.MetricAccessoriesOwned:
		return int64(len(p.OwnedAccessories))
	}
	return 0
}

// EvaluateAchievements projects a profile onto defs, preserving their order.
func EvaluateAchievements(p models.UserProfile, defs []models.AchievementDefinition) []models.AchievementState {
	out := make([]models.AchievementState, 0, len(defs))
	for _, d := range defs {
		v := MetricValue(&p, d.Metric)
		progress := v
		if progress > d.MaxProgress {
			progress = d.MaxProgress
		}
		if progress < 0 {
			progress = 0
		}
		out = append(out, models.AchievementState{
			ID:          d.ID,
			Name:        d.Name,
			Icon:        d.Icon,
			Category:    d.Category,
			Unlocked:    v >= d.Threshold,
			Progress:    progress,
			MaxProgress: d.MaxProgress,
		})
	}
	return out
}

// NewlyUnlocked returns the states unlocked in after but not in before.
func NewlyUnlocked(before, after []models.AchievementState) []models.AchievementState {
	was := make(map[string]bool, len(before))
	for _, s := range before {
		was[s.ID] = s.Unlocked
	}
	var out []models.AchievementState
	for _, s := range after {
		if s.Unlocked && !was[s.ID] {
			out = append(out, s)
		}
	}
	return out
}

// MilestoneProgress reports each milestone against p. A milestone counts as reached once the
// longest streak got there; the remaining weeks are measured from the current streak.
func MilestoneProgress(p models.UserProfile, ms []models.Milestone) []models.MilestoneState {
	out := make([]models.MilestoneState, 0, len(ms))
	for _, m := range ms {
		st := models.MilestoneState{Milestone: m, Reached: p.LongestStreak >= m.Weeks}
		if p.CurrentStreak < m.Weeks {
			st.WeeksRemaining = m.Weeks - p.CurrentStreak
		}
		out = append(out, st)
	}
	return out
}
