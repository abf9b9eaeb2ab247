package feedback

import "github.com/adaptilearn/quizsynth/internal/llm"

var stringArray = map[string]any{
	"type":  "array",
	"items": map[string]any{"type": "string"},
}

// ReportSchema is the shape a model reply must have. It has no
// performance_trend; the trend is always computed locally.
var ReportSchema = &llm.Schema{
	Name:        "feedback-report",
	Description: "Personalized learning feedback for a student",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"overall_assessment": map[string]any{
				"type":        "string",
				"description": "General performance summary",
			},
			"strengths":             stringArray,
			"areas_for_improvement": stringArray,
			"personalized_recommendations": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"action":    map[string]any{"type": "string"},
						"reason":    map[string]any{"type": "string"},
						"timeline":  map[string]any{"type": "string"},
						"resources": stringArray,
					},
					"required":             []any{"action", "reason", "timeline", "resources"},
					"additionalProperties": false,
				},
			},
			"study_plan": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"daily_goals":       stringArray,
					"weekly_milestones": stringArray,
					"focus_areas":       stringArray,
				},
				"required":             []any{"daily_goals", "weekly_milestones", "focus_areas"},
				"additionalProperties": false,
			},
			"motivation_message": map[string]any{
				"type":        "string",
				"description": "Encouraging message for the student",
			},
		},
		"required": []any{
			"overall_assessment", "strengths", "areas_for_improvement",
			"personalized_recommendations", "study_plan", "motivation_message",
		},
		"additionalProperties": false,
	},
}
