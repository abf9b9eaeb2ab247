package questiongen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse_JSONObject(t *testing.T) {
	raw := "Here are your questions:\n```json\n" + `{
  "questions": [
    {"id": "q1", "question": "What is a stack?", "type": "mcq",
     "options": ["LIFO", "FIFO", "Random", "Sorted"], "correct_answer": 0},
    {"id": "q2", "question": "What is a queue?", "type": "mcq"}
  ]
}` + "\n```\nGood luck!"

	cands := ParseResponse(raw, TypeMCQ)
	require.Len(t, cands, 2)
	assert.Equal(t, "q1", cands[0]["id"])
	assert.Equal(t, float64(0), cands[0]["correct_answer"])
	// Returned verbatim: the second entry is incomplete but still a candidate.
	assert.Equal(t, "What is a queue?", cands[1]["question"])
}

func TestParseResponse_JSONSkipsNonObjectEntries(t *testing.T) {
	raw := `{"questions": [
  {"id": "q1", "question": "What is a stack?", "type": "mcq",
   "options": ["LIFO", "FIFO", "Random", "Sorted"], "correct_answer": 0},
  "stray string entry",
  42,
  null,
  {"id": "q2", "question": "What is a queue?", "type": "mcq",
   "options": ["LIFO", "FIFO", "Random", "Sorted"], "correct_answer": 1}
]}`

	cands := ParseResponse(raw, TypeMCQ)
	require.Len(t, cands, 2)
	assert.Equal(t, "q1", cands[0]["id"])
	assert.Equal(t, "q2", cands[1]["id"])
}

func TestParseResponse_ObjectWithoutQuestions(t *testing.T) {
	raw := `{"items": []}`
	if got := ParseResponse(raw, TypeMCQ); len(got) != 0 {
		t.Errorf("expected no candidates, got %v", got)
	}
}

func TestParseResponse_ManualMCQ(t *testing.T) {
	raw := `Sure, here you go.
1. Which structure is LIFO?
A) Queue
B) Stack
C) Tree
D) Graph
The right one is B
2) Which structure is FIFO?
A. Queue
B. Stack
C. Heap
D. Trie
3. Which one is incomplete?
A) Only
B) Two`

	cands := ParseResponse(raw, TypeMCQ)
	require.Len(t, cands, 2)

	first := cands[0]
	assert.Equal(t, "ai_q_1", first["id"])
	assert.Equal(t, "Which structure is LIFO?", first["question"])
	assert.Equal(t, []string{"Queue", "Stack", "Tree", "Graph"}, first["options"])
	assert.Equal(t, 0, first["correct_answer"], "a line without correct/answer leaves the default")
	assert.Equal(t, "medium", first["difficulty"])
	assert.Equal(t, "understand", first["bloom_level"])
	assert.Equal(t, 2, first["estimated_time"])

	second := cands[1]
	assert.Equal(t, "ai_q_2", second["id"])
	assert.Equal(t, []string{"Queue", "Stack", "Heap", "Trie"}, second["options"])
}

func TestParseResponse_ManualNoPreamble(t *testing.T) {
	raw := "1. What is a stack?\nA) x\nB) y\nC) z\nD) w\nAnswer: B\n" +
		"2. What is a queue?\nA) x\nB) y\nC) z\nD) w\nAnswer: B"

	cands := ParseResponse(raw, TypeMCQ)
	require.Len(t, cands, 2)
	assert.Equal(t, "ai_q_1", cands[0]["id"])
	assert.Equal(t, "What is a stack?", cands[0]["question"])
	assert.Equal(t, "What is a queue?", cands[1]["question"])
}

func TestParseResponse_ManualCorrectLetter(t *testing.T) {
	tests := []struct {
		name string
		line string
		want int
	}{
		{"plain letter", "the correct option is C", 2},
		{"lowercase letter ignored", "answer: d", 0},
		{"first capital wins", "Correct answer: D", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := "\n1. Pick one\nA) w\nB) x\nC) y\nD) z\n" + tt.line
			cands := ParseResponse(raw, TypeMCQ)
			require.Len(t, cands, 1)
			assert.Equal(t, tt.want, cands[0]["correct_answer"])
		})
	}
}

func TestParseResponse_ManualEssay(t *testing.T) {
	raw := "Questions\n1. Discuss entropy.\n2. Explain the Carnot cycle.\n"
	cands := ParseResponse(raw, TypeEssay)
	require.Len(t, cands, 2)
	assert.Equal(t, "essay", cands[0]["type"])
	assert.Equal(t, "Explain the Carnot cycle.", cands[1]["question"])
	assert.NotContains(t, cands[0], "options")
}

func TestParseResponse_Garbage(t *testing.T) {
	for _, raw := range []string{"", "no structure here", "{not json at all}"} {
		if got := ParseResponse(raw, TypeMCQ); len(got) != 0 {
			t.Errorf("ParseResponse(%q) = %v, want empty", raw, got)
		}
	}
}
