package questiongen

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Defaults applied to candidates that omit metadata.
const (
	defaultBloom         = BloomUnderstand
	defaultEstimatedTime = 2
	defaultTopic         = "Generated Content"
	mcqOptionCount       = 4
)

// Rule converts one aspect of a candidate into the draft question, or
// rejects the candidate. Rules run in order; the first failure stops the
// chain. Implementations should be stateless and safe for concurrent use.
type Rule interface {
	// Name returns a short identifier used in errors and logs, e.g.
	// "required" or "answer".
	Name() string

	// Apply reads c, writes the fields it owns into q and returns a
	// ValidationError when the candidate cannot be used.
	Apply(c Candidate, q *Question, p Params) *ValidationError
}

// ValidationError describes why a candidate was discarded.
type ValidationError struct {
	Rule    string // Name of the rule that failed
	Message string // Human-readable description of the failure
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("rule %q: %s", e.Rule, e.Message)
}

// PadFunc produces a replacement item for slot (1-based) of a batch.
type PadFunc func(p Params, slot int) Question

// Validator turns candidates into questions and enforces the batch size.
type Validator struct {
	rules []Rule
}

// NewValidator returns a Validator running rules in order. With no rules
// it uses DefaultRules.
func NewValidator(rules ...Rule) *Validator {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Validator{rules: rules}
}

// DefaultRules returns the standard rule chain.
func DefaultRules() []Rule {
	return []Rule{
		requiredRule{},
		optionsRule{},
		answerRule{},
		metadataRule{},
	}
}

// Check converts a single candidate. Request context is stamped on the
// result.
func (v *Validator) Check(c Candidate, p Params) (Question, *ValidationError) {
	q := Question{
		Subject:  p.Subject,
		Branch:   p.Branch,
		Semester: p.Semester,
	}
	for _, r := range v.rules {
		if verr := r.Apply(c, &q, p); verr != nil {
			return Question{}, verr
		}
	}
	return q, nil
}

// Validate keeps the candidates that pass every rule, pads with fill up to
// p.Count and truncates to exactly p.Count. Duplicate ids get a fresh
// UUID. The returned error is a *ShortfallError when padding was needed;
// the slice is complete either way.
func (v *Validator) Validate(cands []Candidate, p Params, fill PadFunc) ([]Question, error) {
	out := make([]Question, 0, p.Count)
	seen := make(map[string]struct{}, p.Count)

	add := func(q Question) {
		if _, dup := seen[q.ID]; dup {
			q.ID = uuid.NewString()
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}

	for _, c := range cands {
		if len(out) == p.Count {
			break
		}
		q, verr := v.Check(c, p)
		if verr != nil {
			continue
		}
		add(q)
	}

	valid := len(out)
	for len(out) < p.Count {
		add(fill(p, len(out)+1))
	}
	if valid < p.Count {
		return out, &ShortfallError{Valid: valid, Target: p.Count}
	}
	return out, nil
}

// requiredRule checks id, question and type.
type requiredRule struct{}

func (requiredRule) Name() string { return "required" }

func (r requiredRule) Apply(c Candidate, q *Question, _ Params) *ValidationError {
	id := scalarString(c["id"])
	if id == "" {
		return &ValidationError{Rule: r.Name(), Message: "id is missing"}
	}
	text := scalarString(c["question"])
	if text == "" {
		return &ValidationError{Rule: r.Name(), Message: "question is empty"}
	}
	t := QuestionType(strings.ToLower(scalarString(c["type"])))
	if !t.Valid() {
		return &ValidationError{Rule: r.Name(), Message: fmt.Sprintf("unknown type %q", c["type"])}
	}
	q.ID, q.Question, q.Type = id, text, t
	return nil
}

// optionsRule requires four distinct options on MCQs and drops options
// from other types.
type optionsRule struct{}

func (optionsRule) Name() string { return "options" }

func (r optionsRule) Apply(c Candidate, q *Question, _ Params) *ValidationError {
	if q.Type != TypeMCQ {
		return nil
	}
	opts, ok := stringList(c["options"])
	if !ok || len(opts) < mcqOptionCount {
		return &ValidationError{Rule: r.Name(), Message: "mcq needs at least 4 options"}
	}
	opts = lo.Map(opts[:mcqOptionCount], func(o string, _ int) string { return strings.TrimSpace(o) })
	if lo.Contains(opts, "") {
		return &ValidationError{Rule: r.Name(), Message: "empty option"}
	}
	if len(lo.Uniq(opts)) != mcqOptionCount {
		return &ValidationError{Rule: r.Name(), Message: "options are not distinct"}
	}
	q.Options = opts
	return nil
}

// answerRule resolves correct_answer. For MCQs it accepts an index, a
// letter A-D or the text of an option.
type answerRule struct{}

func (answerRule) Name() string { return "answer" }

func (r answerRule) Apply(c Candidate, q *Question, _ Params) *ValidationError {
	raw, present := c["correct_answer"]
	if q.Type != TypeMCQ {
		if present {
			q.CorrectAnswer = TextAnswer(scalarString(raw))
		}
		return nil
	}
	if !present {
		return &ValidationError{Rule: r.Name(), Message: "correct_answer is missing"}
	}
	idx, ok := resolveIndex(raw, q.Options)
	if !ok {
		return &ValidationError{Rule: r.Name(), Message: fmt.Sprintf("cannot resolve correct_answer %v", raw)}
	}
	q.CorrectAnswer = IndexAnswer(idx)
	return nil
}

func resolveIndex(raw any, options []string) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, v >= 0 && v < len(options)
	case float64:
		if v != math.Trunc(v) || v < 0 || int(v) >= len(options) {
			return 0, false
		}
		return int(v), true
	case string:
		s := strings.TrimSpace(v)
		if i, err := strconv.Atoi(s); err == nil {
			return i, i >= 0 && i < len(options)
		}
		if len(s) == 1 {
			if l := strings.ToUpper(s)[0]; l >= 'A' && l <= 'D' {
				return int(l - 'A'), true
			}
		}
		for i, o := range options {
			if strings.EqualFold(o, s) {
				return i, true
			}
		}
	}
	return 0, false
}

// metadataRule copies the optional fields and fills defaults.
type metadataRule struct{}

func (metadataRule) Name() string { return "metadata" }

func (metadataRule) Apply(c Candidate, q *Question, p Params) *ValidationError {
	q.Difficulty = Difficulty(strings.ToLower(scalarString(c["difficulty"])))
	if !q.Difficulty.Valid() {
		q.Difficulty = p.Difficulty
	}
	q.BloomLevel = BloomLevel(strings.ToLower(scalarString(c["bloom_level"])))
	if !q.BloomLevel.Valid() {
		q.BloomLevel = defaultBloom
	}
	q.EstimatedTime = positiveInt(c["estimated_time"], defaultEstimatedTime)

	q.Explanation = scalarString(c["explanation"])
	q.Topic = scalarString(c["topic"])
	if q.Topic == "" {
		q.Topic = defaultTopic
	}
	q.ExpectedAnswer = scalarString(c["expected_answer"])
	q.Keywords, _ = stringList(c["keywords"])
	q.GradingRubric, _ = stringList(c["grading_rubric"])
	return nil
}

// scalarString renders strings and numbers; anything else is "".
func scalarString(v any) string {
	switch v := v.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

func stringList(v any) ([]string, bool) {
	switch v := v.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func positiveInt(v any, def int) int {
	switch v := v.(type) {
	case int:
		if v > 0 {
			return v
		}
	case float64:
		if v >= 1 && v == math.Trunc(v) {
			return int(v)
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && i > 0 {
			return i
		}
	}
	return def
}
