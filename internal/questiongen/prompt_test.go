package questiongen

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestBuildPrompt_Deterministic(t *testing.T) {
	cat := testCatalog(t)
	p := Params{
		Content:    "Stacks and queues are linear data structures.",
		Count:      5,
		Difficulty: DifficultyHard,
		Type:       TypeMCQ,
		Subject:    "Data Structures",
		Branch:     "CSE",
		Semester:   3,
	}

	first := BuildPrompt(cat, p)
	for i := 0; i < 5; i++ {
		if got := BuildPrompt(cat, p); got != first {
			t.Fatalf("prompt differs on call %d", i+2)
		}
	}
}

func TestBuildPrompt_Sections(t *testing.T) {
	cat := testCatalog(t)
	p := Params{
		Content:    "Entropy measures disorder.",
		Count:      7,
		Difficulty: DifficultyEasy,
		Type:       TypeShortAnswer,
		Subject:    "Thermodynamics",
		Branch:     "MECH",
		Semester:   4,
	}.Normalize()

	prompt := BuildPrompt(cat, p)

	wants := []string{
		"Generate 7 high-quality SHORT_ANSWER questions based on the following academic content.",
		"- Subject: Thermodynamics",
		"- Branch: MECH",
		"- Branch Focus: Mechanical Engineering",
		"- Subject Keywords: laws of thermodynamics",
		"- Semester: 4",
		"- Difficulty Level: easy",
		"- Question Type: short_answer",
		"CONTENT TO ANALYZE:\nEntropy measures disorder.",
		"1. Generate exactly 7 questions",
		"2. Each question should be easy difficulty level",
		"6. For essay questions: Include grading rubric points",
		`"type": "short_answer"`,
		`"difficulty": "easy"`,
		"QUALITY GUIDELINES:",
		"- Include variety in question stems and formats",
	}
	for _, want := range wants {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPrompt_UnknownBranchAndSubject(t *testing.T) {
	cat := testCatalog(t)
	prompt := BuildPrompt(cat, Params{Subject: "Origami", Branch: "AERO"}.Normalize())

	if !strings.Contains(prompt, "- Branch Focus: AERO Engineering") {
		t.Error("expected default branch description")
	}
	if !strings.Contains(prompt, "- Subject Keywords: Origami concepts and principles") {
		t.Error("expected default subject hint")
	}
}

func TestBuildPrompt_TruncatesContent(t *testing.T) {
	cat := testCatalog(t)
	content := strings.Repeat("é", maxPromptContent+500)
	prompt := BuildPrompt(cat, Params{Content: content}.Normalize())

	if !utf8.ValidString(prompt) {
		t.Fatal("truncation split a multi-byte rune")
	}
	if got := strings.Count(prompt, "é"); got != maxPromptContent {
		t.Errorf("embedded %d runes of content, want %d", got, maxPromptContent)
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"", 3, ""},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"héllo", 2, "hé"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := truncateRunes(tt.in, tt.n); got != tt.want {
			t.Errorf("truncateRunes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
