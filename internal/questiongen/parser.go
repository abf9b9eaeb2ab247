package questiongen

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/adaptilearn/quizsynth/internal/llm"
)

var (
	ordinalSplit = regexp.MustCompile(`(?m)^\s*\d+[.)]\s*`)
	optionPrefix = regexp.MustCompile(`^[A-D][.)]\s*`)
	optionLetter = regexp.MustCompile(`[A-D]`)
)

// ParseResponse turns a model reply into candidates. It first looks for a
// JSON object holding a "questions" array and returns its entries as-is.
// Failing that it falls back to reading numbered plain-text blocks. The
// text reader is a heuristic: it recovers obvious structure and nothing
// more, and whatever it returns still has to pass the validator.
//
// An empty result means neither strategy found anything.
func ParseResponse(raw string, t QuestionType) []Candidate {
	if cands, ok := parseObject(raw); ok {
		return cands
	}
	return parseBlocks(raw, t)
}

func parseObject(raw string) ([]Candidate, bool) {
	obj, ok := llm.ExtractObject(raw)
	if !ok {
		return nil, false
	}
	var payload struct {
		Questions []json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal(obj, &payload); err != nil || payload.Questions == nil {
		return nil, false
	}
	// Entries are decoded one by one so a stray string or number costs
	// only itself.
	out := make([]Candidate, 0, len(payload.Questions))
	for _, entry := range payload.Questions {
		var c Candidate
		if err := json.Unmarshal(entry, &c); err != nil || c == nil {
			continue
		}
		out = append(out, c)
	}
	return out, true
}

func parseBlocks(raw string, t QuestionType) []Candidate {
	// blocks[0] is whatever precedes the first ordinal line, possibly empty.
	blocks := ordinalSplit.Split(raw, -1)
	if len(blocks) < 2 {
		return nil
	}

	var out []Candidate
	for i, block := range blocks[1:] {
		if c := parseBlock(block, t, i+1); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func parseBlock(block string, t QuestionType, n int) Candidate {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	c := Candidate{
		"id":             fmt.Sprintf("ai_q_%d", n),
		"question":       lines[0],
		"type":           string(t),
		"difficulty":     string(DifficultyMedium),
		"topic":          "Generated Content",
		"bloom_level":    string(BloomUnderstand),
		"estimated_time": 2,
	}
	if t != TypeMCQ {
		return c
	}

	var options []string
	correct := 0
	for _, line := range lines[1:] {
		if loc := optionPrefix.FindStringIndex(line); loc != nil {
			options = append(options, line[loc[1]:])
			continue
		}
		lower := strings.ToLower(line)
		if strings.Contains(lower, "correct") || strings.Contains(lower, "answer") {
			// First capital A-D on the line, whatever word it sits in.
			if m := optionLetter.FindString(line); m != "" {
				correct = int(m[0] - 'A')
			}
		}
	}
	if len(options) < 4 {
		return nil
	}
	c["options"] = options[:4]
	c["correct_answer"] = correct
	return c
}
