package feedback

import "github.com/samber/lo"

// Score bands.
const (
	excellentScore = 80
	goodScore      = 60
)

// Recommendation thresholds on average score.
const (
	fundamentalsBelow = 50
	intermediateBelow = 70
)

var defaultResources = []string{"Practice questions", "Video tutorials", "Study notes"}

// RuleBased builds a report from fixed rules. It needs no model and always
// succeeds.
func RuleBased(in Input) Report {
	avg := number(in.PerformanceData, "average_score")

	var assessment, motivation string
	switch {
	case avg >= excellentScore:
		assessment = "Excellent performance! You're demonstrating strong understanding."
		motivation = "Keep up the outstanding work! You're on track for success."
	case avg >= goodScore:
		assessment = "Good progress with room for improvement in specific areas."
		motivation = "You're doing well! Focus on your weak areas to reach the next level."
	default:
		assessment = "Significant improvement needed. Let's focus on building strong foundations."
		motivation = "Don't worry! With dedicated practice, you can improve significantly."
	}

	return Report{
		OverallAssessment:           assessment,
		Strengths:                   strengths(in.PerformanceData),
		AreasForImprovement:         head(in.WeakAreas, MaxAreas),
		PersonalizedRecommendations: recommendations(in.WeakAreas, avg),
		StudyPlan:                   studyPlan(in.WeakAreas),
		PerformanceTrend:            ClassifyTrend(in.TestResults),
		MotivationMessage:           motivation,
	}
}

func strengths(perf map[string]any) []string {
	var out []string
	if number(perf, "consistency_score") > 0.7 {
		out = append(out, "Consistent performance across tests")
	}
	if number(perf, "improvement_rate") > 0.1 {
		out = append(out, "Steady improvement over time")
	}
	for _, s := range head(stringsAt(perf, "strong_subjects"), 2) {
		out = append(out, "Strong grasp of "+s)
	}
	if len(out) == 0 {
		out = []string{"Regular practice", "Engagement with material"}
	}
	return out
}

func recommendations(weak []string, avg float64) []Recommendation {
	action, timeline := "Master advanced topics in ", "Next 1 week"
	switch {
	case avg < fundamentalsBelow:
		action, timeline = "Focus on fundamental concepts in ", "Next 3 weeks"
	case avg < intermediateBelow:
		action, timeline = "Practice intermediate problems in ", "Next 2 weeks"
	}

	return lo.Map(head(weak, MaxAreas), func(area string, _ int) Recommendation {
		return Recommendation{
			Action:    action + area,
			Reason:    "Improving " + area + " will significantly boost your overall score",
			Timeline:  timeline,
			Resources: append([]string(nil), defaultResources...),
		}
	})
}

func studyPlan(weak []string) StudyPlan {
	priority := "priority topic"
	if len(weak) > 0 {
		priority = weak[0]
	}
	focus := head(weak, MaxFocusAreas)
	if len(focus) == 0 {
		focus = []string{"Core concepts", "Problem solving"}
	}
	return StudyPlan{
		DailyGoals: []string{
			"Review one weak topic for 30 minutes",
			"Practice 10-15 questions",
			"Take notes on key concepts",
		},
		WeeklyMilestones: []string{
			"Complete review of " + priority,
			"Take a practice test",
			"Assess progress and adjust plan",
		},
		FocusAreas: focus,
	}
}

// head returns a copy of at most n leading elements, never nil.
func head(s []string, n int) []string {
	if len(s) > n {
		s = s[:n]
	}
	return append([]string{}, s...)
}
