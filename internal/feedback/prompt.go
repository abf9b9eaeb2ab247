package feedback

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

// maxPromptResults is how many of the latest test results the model sees.
const maxPromptResults = 5

var feedbackTemplate = template.Must(template.New("feedback").Parse(`Analyze the following student performance data and provide personalized learning feedback:

PERFORMANCE DATA:
{{.Performance}}

RECENT TEST RESULTS:
{{.Results}}

LEARNING GOALS:
{{.Goals}}

IDENTIFIED WEAK AREAS:
{{.WeakAreas}}

Provide detailed feedback in JSON format:
{
    "overall_assessment": "General performance summary",
    "strengths": ["strength1", "strength2"],
    "areas_for_improvement": ["area1", "area2"],
    "personalized_recommendations": [
        {
            "action": "Specific action to take",
            "reason": "Why this will help",
            "timeline": "When to implement",
            "resources": ["resource1", "resource2"]
        }
    ],
    "study_plan": {
        "daily_goals": ["goal1", "goal2"],
        "weekly_milestones": ["milestone1", "milestone2"],
        "focus_areas": ["area1", "area2"]
    },
    "motivation_message": "Encouraging message for the student"
}
`))

type promptData struct {
	Performance string
	Results     string
	Goals       string
	WeakAreas   string
}

// BuildPrompt renders the model request for in.
func BuildPrompt(in Input) (string, error) {
	perf := in.PerformanceData
	if perf == nil {
		perf = map[string]any{}
	}
	perfJSON, err := json.MarshalIndent(perf, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode performance data: %w", err)
	}

	results := in.TestResults
	if len(results) > maxPromptResults {
		results = results[len(results)-maxPromptResults:]
	}
	if results == nil {
		results = []TestResult{}
	}
	resultsJSON, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode test results: %w", err)
	}

	var buf bytes.Buffer
	err = feedbackTemplate.Execute(&buf, promptData{
		Performance: string(perfJSON),
		Results:     string(resultsJSON),
		Goals:       strings.Join(in.LearningGoals, ", "),
		WeakAreas:   strings.Join(in.WeakAreas, ", "),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
