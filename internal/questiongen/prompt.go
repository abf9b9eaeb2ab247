package questiongen

import (
	"fmt"
	"strings"

	"github.com/adaptilearn/quizsynth/internal/catalog"
)

// maxPromptContent is the rune limit on content embedded in a prompt.
const maxPromptContent = 2000

const outputFormat = `OUTPUT FORMAT (JSON):
{
    "questions": [
        {
            "id": "q1",
            "question": "Question text here",
            "type": "%s",
            "difficulty": "%s",
            "options": ["A", "B", "C", "D"],  // For MCQ only
            "correct_answer": 1,  // Index for MCQ, text for others
            "explanation": "Why this answer is correct",
            "keywords": ["key1", "key2"],  // For short answer
            "topic": "Main topic covered",
            "bloom_level": "remember/understand/apply/analyze/evaluate/create",
            "estimated_time": 2  // Minutes to answer
        }
    ]
}
`

const qualityGuidelines = `QUALITY GUIDELINES:
- Questions should test understanding, not just memorization
- Use clear, unambiguous language
- Avoid trick questions or overly complex wording
- Ensure all MCQ options are plausible
- Include variety in question stems and formats
`

// BuildPrompt renders the generation request for p. It is pure: the same
// catalog and params always give the same string.
func BuildPrompt(cat *catalog.Catalog, p Params) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate %d high-quality %s questions based on the following academic content.\n\n",
		p.Count, strings.ToUpper(string(p.Type)))

	b.WriteString("CONTEXT:\n")
	fmt.Fprintf(&b, "- Subject: %s\n", p.Subject)
	fmt.Fprintf(&b, "- Branch: %s\n", p.Branch)
	fmt.Fprintf(&b, "- Branch Focus: %s\n", cat.BranchDescription(p.Branch))
	fmt.Fprintf(&b, "- Subject Keywords: %s\n", cat.SubjectHint(p.Subject))
	fmt.Fprintf(&b, "- Semester: %d\n", p.Semester)
	fmt.Fprintf(&b, "- Difficulty Level: %s\n", p.Difficulty)
	fmt.Fprintf(&b, "- Question Type: %s\n\n", p.Type)

	b.WriteString("CONTENT TO ANALYZE:\n")
	b.WriteString(truncateRunes(p.Content, maxPromptContent))
	b.WriteString("\n\n")

	b.WriteString("REQUIREMENTS:\n")
	fmt.Fprintf(&b, "1. Generate exactly %d questions\n", p.Count)
	fmt.Fprintf(&b, "2. Each question should be %s difficulty level\n", p.Difficulty)
	b.WriteString("3. Questions should be directly related to the provided content\n")
	b.WriteString("4. For MCQ questions: Include 4 options with 1 correct answer\n")
	b.WriteString("5. For short answer questions: Include expected answer keywords\n")
	b.WriteString("6. For essay questions: Include grading rubric points\n\n")

	fmt.Fprintf(&b, outputFormat, p.Type, p.Difficulty)
	b.WriteString("\n")
	b.WriteString(qualityGuidelines)

	return b.String()
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
