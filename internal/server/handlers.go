package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/adaptilearn/quizsynth/internal/feedback"
	"github.com/adaptilearn/quizsynth/internal/questiongen"
)

// GenerateQuestionsRequest is the body of POST /api/ai/generate-questions.
type GenerateQuestionsRequest struct {
	Content      *string `json:"content" validate:"required"`
	NumQuestions int     `json:"num_questions" validate:"min=1,max=50"`
	Difficulty   string  `json:"difficulty" validate:"oneof=easy medium hard"`
	QuestionType string  `json:"question_type" validate:"oneof=mcq short_answer essay"`
	Subject      string  `json:"subject" validate:"max=200"`
	Branch       string  `json:"branch" validate:"max=200"`
	Semester     int     `json:"semester" validate:"min=1,max=8"`
}

func newGenerateQuestionsRequest() *GenerateQuestionsRequest {
	return &GenerateQuestionsRequest{
		NumQuestions: questiongen.DefaultCount,
		Difficulty:   string(questiongen.DifficultyMedium),
		QuestionType: string(questiongen.TypeMCQ),
		Subject:      questiongen.DefaultSubject,
		Semester:     1,
	}
}

// Params converts the request for the orchestrator.
func (r *GenerateQuestionsRequest) Params() questiongen.Params {
	var content string
	if r.Content != nil {
		content = *r.Content
	}
	return questiongen.Params{
		Content:    content,
		Count:      r.NumQuestions,
		Difficulty: questiongen.Difficulty(r.Difficulty),
		Type:       questiongen.QuestionType(r.QuestionType),
		Subject:    r.Subject,
		Branch:     r.Branch,
		Semester:   r.Semester,
	}
}

// FeedbackRequest is the body of POST /api/ai/enhance-feedback.
type FeedbackRequest struct {
	PerformanceData map[string]any        `json:"performance_data"`
	TestResults     []feedback.TestResult `json:"test_results" validate:"max=500"`
	LearningGoals   []string              `json:"learning_goals" validate:"max=50"`
	WeakAreas       []string              `json:"weak_areas" validate:"max=50"`
}

func newFeedbackRequest() *FeedbackRequest { return &FeedbackRequest{} }

// Input converts the request for the feedback service.
func (r *FeedbackRequest) Input() feedback.Input {
	return feedback.Input{
		PerformanceData: r.PerformanceData,
		TestResults:     r.TestResults,
		LearningGoals:   r.LearningGoals,
		WeakAreas:       r.WeakAreas,
	}
}

type questionsMetadata struct {
	TotalQuestions int    `json:"total_questions"`
	Difficulty     string `json:"difficulty"`
	QuestionType   string `json:"question_type"`
	Subject        string `json:"subject"`
	GeneratedAt    string `json:"generated_at"`
}

type generateQuestionsResponse struct {
	Success   bool                   `json:"success"`
	Questions []questiongen.Question `json:"questions"`
	Metadata  questionsMetadata      `json:"metadata"`
}

type feedbackMetadata struct {
	GeneratedAt string `json:"generated_at"`
}

type enhanceFeedbackResponse struct {
	Success          bool             `json:"success"`
	EnhancedFeedback feedback.Report  `json:"enhanced_feedback"`
	Metadata         feedbackMetadata `json:"metadata"`
}

type healthResponse struct {
	Status     string         `json:"status"`
	AIServices map[string]any `json:"ai_services"`
	Version    string         `json:"version"`
}

func (s *Server) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	req := requestFrom[GenerateQuestionsRequest](r)
	questions := s.deps.Questions.Generate(r.Context(), req.Params())

	s.logger.Info("served questions",
		zap.Int("count", len(questions)),
		zap.String("subject", req.Subject),
		zap.String("type", req.QuestionType),
	)

	writeJSON(w, http.StatusOK, generateQuestionsResponse{
		Success:   true,
		Questions: questions,
		Metadata: questionsMetadata{
			TotalQuestions: len(questions),
			Difficulty:     req.Difficulty,
			QuestionType:   req.QuestionType,
			Subject:        req.Subject,
			GeneratedAt:    s.timestamp(),
		},
	})
}

func (s *Server) handleEnhanceFeedback(w http.ResponseWriter, r *http.Request) {
	req := requestFrom[FeedbackRequest](r)
	report := s.deps.Feedback.Generate(r.Context(), req.Input())

	writeJSON(w, http.StatusOK, enhanceFeedbackResponse{
		Success:          true,
		EnhancedFeedback: report,
		Metadata:         feedbackMetadata{GeneratedAt: s.timestamp()},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	provider := s.deps.Provider
	if provider == "" {
		provider = "llm"
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "healthy",
		AIServices: map[string]any{
			provider:             s.deps.Questions.HasAI(),
			"question_generator": true,
			"feedback":           s.deps.Feedback.HasAI(),
			"timestamp":          s.timestamp(),
		},
		Version: s.deps.Version,
	})
}

func (s *Server) timestamp() string {
	return s.deps.Now().Format(time.RFC3339)
}
