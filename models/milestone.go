package models

// Milestone is a streak length worth celebrating. Milestones carry no points.
type Milestone struct {
	Weeks       int    `json:"weeks"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// StreakMilestones in ascending order.
var StreakMilestones = []Milestone{
	{Weeks: 4, Title: "Monthly Reflector", Description: "One month of consistent weekly reflection"},
	{Weeks: 12, Title: "Quarterly Champion", Description: "Three months of dedicated growth"},
	{Weeks: 26, Title: "Half-Year Hero", Description: "Six months of self-awareness journey"},
	{Weeks: 52, Title: "Annual Achiever", Description: "One full year of reflection mastery"},
	{Weeks: 104, Title: "Biennial Master", Description: "Two years of incredible dedication"},
}

// MilestoneState is a milestone seen from one profile.
type MilestoneState struct {
	Milestone
	Reached        bool `json:"reached"`
	WeeksRemaining int  `json:"weeks_remaining"`
}
