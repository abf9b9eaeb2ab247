// Package questiongen turns study content into quiz items. The AI path
// builds a prompt, parses the model's reply and validates what comes back;
// the fallback path synthesizes items from the catalog without any model.
// Either way the caller gets exactly the number of items it asked for.
package questiongen

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// QuestionType is the answer format of a quiz item.
type QuestionType string

const (
	TypeMCQ         QuestionType = "mcq"
	TypeShortAnswer QuestionType = "short_answer"
	TypeEssay       QuestionType = "essay"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case TypeMCQ, TypeShortAnswer, TypeEssay:
		return true
	}
	return false
}

// Difficulty is the requested difficulty of a batch.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// BloomLevel tags the cognitive demand of an item.
type BloomLevel string

const (
	BloomRemember   BloomLevel = "remember"
	BloomUnderstand BloomLevel = "understand"
	BloomApply      BloomLevel = "apply"
	BloomAnalyze    BloomLevel = "analyze"
	BloomEvaluate   BloomLevel = "evaluate"
	BloomCreate     BloomLevel = "create"
)

// Valid reports whether b is one of the six Bloom levels.
func (b BloomLevel) Valid() bool {
	switch b {
	case BloomRemember, BloomUnderstand, BloomApply, BloomAnalyze, BloomEvaluate, BloomCreate:
		return true
	}
	return false
}

// Answer is the correct answer of an item: an option index for MCQs and
// free text otherwise. It marshals as a JSON number or a JSON string.
type Answer struct {
	index   int
	text    string
	isIndex bool
}

// IndexAnswer returns an Answer pointing at option i.
func IndexAnswer(i int) Answer { return Answer{index: i, isIndex: true} }

// TextAnswer returns a free-text Answer.
func TextAnswer(s string) Answer { return Answer{text: s} }

// Index returns the option index and whether the answer holds one.
func (a Answer) Index() (int, bool) { return a.index, a.isIndex }

// IsZero reports whether the answer is unset.
func (a Answer) IsZero() bool { return !a.isIndex && a.text == "" }

func (a Answer) String() string {
	if a.isIndex {
		return strconv.Itoa(a.index)
	}
	return a.text
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.isIndex {
		return []byte(strconv.Itoa(a.index)), nil
	}
	return json.Marshal(a.text)
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*a = Answer{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*a = TextAnswer(text)
		return nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("correct_answer: want option index or text, got %s", s)
	}
	*a = IndexAnswer(i)
	return nil
}

// Question is one quiz item.
type Question struct {
	ID            string       `json:"id"`
	Question      string       `json:"question"`
	Type          QuestionType `json:"type"`
	Difficulty    Difficulty   `json:"difficulty"`
	Subject       string       `json:"subject"`
	Branch        string       `json:"branch"`
	Semester      int          `json:"semester"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer Answer       `json:"correct_answer,omitzero"`
	Explanation   string       `json:"explanation,omitempty"`
	Topic         string       `json:"topic"`
	BloomLevel    BloomLevel   `json:"bloom_level"`

	// EstimatedTime is in whole minutes.
	EstimatedTime int `json:"estimated_time"`

	Keywords       []string `json:"keywords,omitempty"`
	ExpectedAnswer string   `json:"expected_answer,omitempty"`
	GradingRubric  []string `json:"grading_rubric,omitempty"`
}

// Params describes a generation request.
type Params struct {
	Content    string
	Count      int
	Difficulty Difficulty
	Type       QuestionType
	Subject    string
	Branch     string
	Semester   int
}

// Request bounds and defaults.
const (
	MaxCount        = 50
	DefaultCount    = 10
	MaxSemester     = 8
	DefaultSubject  = "General"
	defaultSemester = 1
)

// Normalize returns p with out-of-range values replaced by defaults: count
// 10, difficulty medium, type mcq, subject "General" and semester 1.
func (p Params) Normalize() Params {
	if p.Count < 1 || p.Count > MaxCount {
		p.Count = DefaultCount
	}
	p.Difficulty = Difficulty(strings.ToLower(strings.TrimSpace(string(p.Difficulty))))
	if !p.Difficulty.Valid() {
		p.Difficulty = DifficultyMedium
	}
	p.Type = QuestionType(strings.ToLower(strings.TrimSpace(string(p.Type))))
	if !p.Type.Valid() {
		p.Type = TypeMCQ
	}
	p.Subject = strings.TrimSpace(p.Subject)
	if p.Subject == "" {
		p.Subject = DefaultSubject
	}
	p.Branch = strings.TrimSpace(p.Branch)
	if p.Semester < 1 || p.Semester > MaxSemester {
		p.Semester = defaultSemester
	}
	return p
}

// Candidate is an unvalidated item as decoded from a model reply.
type Candidate map[string]any
