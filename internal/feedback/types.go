// Package feedback turns a student's performance history into a
// structured learning report, either with a model's help or from fixed
// rules.
package feedback

import (
	"encoding/json"
	"fmt"
)

// Trend is the direction of recent scores.
type Trend string

const (
	TrendInsufficientData Trend = "insufficient_data"
	TrendImproving        Trend = "improving"
	TrendDeclining        Trend = "declining"
	TrendStable           Trend = "stable"
)

// Caps on report lists.
const (
	MaxAreas      = 3
	MaxFocusAreas = 3
)

// Input is a student's performance history.
type Input struct {
	// PerformanceData holds aggregate metrics. Recognised keys are
	// average_score, consistency_score, improvement_rate and
	// strong_subjects; the rest is passed to the model untouched.
	PerformanceData map[string]any `json:"performance_data"`
	TestResults     []TestResult   `json:"test_results"`
	LearningGoals   []string       `json:"learning_goals"`
	WeakAreas       []string       `json:"weak_areas"`
}

// TestResult is one past test. Only Score is interpreted; other fields
// round-trip through Extra.
type TestResult struct {
	Score float64
	Extra map[string]any
}

func (r TestResult) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Extra)+1)
	for k, v := range r.Extra {
		m[k] = v
	}
	m["score"] = r.Score
	return json.Marshal(m)
}

func (r *TestResult) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*r = TestResult{}
	if v, ok := m["score"]; ok {
		score, ok := v.(float64)
		if !ok {
			return fmt.Errorf("test result score: want number, got %T", v)
		}
		r.Score = score
		delete(m, "score")
	}
	if len(m) > 0 {
		r.Extra = m
	}
	return nil
}

// Recommendation is one suggested action.
type Recommendation struct {
	Action    string   `json:"action"`
	Reason    string   `json:"reason"`
	Timeline  string   `json:"timeline"`
	Resources []string `json:"resources"`
}

// StudyPlan groups goals by cadence.
type StudyPlan struct {
	DailyGoals       []string `json:"daily_goals"`
	WeeklyMilestones []string `json:"weekly_milestones"`
	FocusAreas       []string `json:"focus_areas"`
}

// Report is the feedback returned to the student.
type Report struct {
	OverallAssessment           string           `json:"overall_assessment"`
	Strengths                   []string         `json:"strengths"`
	AreasForImprovement         []string         `json:"areas_for_improvement"`
	PersonalizedRecommendations []Recommendation `json:"personalized_recommendations"`
	StudyPlan                   StudyPlan        `json:"study_plan"`
	PerformanceTrend            Trend            `json:"performance_trend"`
	MotivationMessage           string           `json:"motivation_message"`
}

// number reads a numeric metric, treating anything else as zero.
func number(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// stringsAt reads a list of strings, skipping non-string elements.
func stringsAt(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		var out []string
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
