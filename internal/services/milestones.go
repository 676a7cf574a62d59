package services

type Milestone struct {
	Day         int    `json:"day"`
	BonusXP     int    `json:"bonusXp"`
	BonusTokens int    `json:"bonusTokens"`
	Title       string `json:"title"`
}

// Day 1 is deliberately absent: a fresh streak never pays a bonus.
var streakMilestones = []Milestone{
	{Day: 3, BonusXP: 50, BonusTokens: 5, Title: "3-Day Streak"},
	{Day: 7, BonusXP: 150, BonusTokens: 15, Title: "Weekly Warrior"},
	{Day: 14, BonusXP: 350, BonusTokens: 35, Title: "Two Week Champion"},
	{Day: 30, BonusXP: 800, BonusTokens: 80, Title: "Monthly Master"},
	{Day: 50, BonusXP: 1500, BonusTokens: 150, Title: "Dedication Legend"},
	{Day: 100, BonusXP: 3000, BonusTokens: 300, Title: "Century Solver"},
}

// Milestones returns a copy of the configured milestones in day order.
func Milestones() []Milestone {
	out := make([]Milestone, len(streakMilestones))
	copy(out, streakMilestones)
	return out
}

// MilestoneFor returns the milestone reached on exactly this streak day.
func MilestoneFor(day int) (Milestone, bool) {
	for _, m := range streakMilestones {
		if m.Day == day {
			return m, true
		}
	}
	return Milestone{}, false
}

// NextMilestone returns the first milestone strictly after count.
func NextMilestone(count int) (Milestone, bool) {
	for _, m := range streakMilestones {
		if m.Day > count {
			return m, true
		}
	}
	return Milestone{}, false
}

func milestoneReason(m Milestone) string {
	return "Streak Milestone: " + m.Title
}
