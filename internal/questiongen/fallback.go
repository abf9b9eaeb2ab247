package questiongen

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/adaptilearn/quizsynth/internal/catalog"
)

// Placeholders used when content yields no terms or the concept list is
// empty.
const (
	placeholderTerm         = "the main concept"
	placeholderConcept      = "the topic"
	placeholderEssayTerm    = "key concepts"
	placeholderEssayConcept = "the main topic"
)

// builtinLastResort is used when the catalog cannot supply a last-resort
// item at all.
var builtinLastResort = catalog.Item{
	Question: "What is a key concept from the provided content?",
	Options: []string{
		"A fundamental principle covered in the material",
		"An unrelated concept from another field",
		"A deprecated method no longer in use",
		"A purely theoretical idea with no applications",
	},
	Correct:     0,
	Explanation: "This represents a core concept from the study material.",
	Topic:       "General Knowledge",
	BloomLevel:  string(BloomRemember),
}

// Synthesizer builds quiz items from the catalog without a model. It is
// total: every call returns the requested number of valid items. Safe for
// concurrent use.
type Synthesizer struct {
	cat    *catalog.Catalog
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSynthesizer returns a Synthesizer drawing from cat. Relevant options
// are WithRand and WithLogger.
func NewSynthesizer(cat *catalog.Catalog, opts ...Option) *Synthesizer {
	s := newSettings(opts)
	return &Synthesizer{cat: cat, logger: s.logger, rng: s.rng}
}

// Generate returns p.Count items. MCQ batches start with knowledge-bank
// items for (branch, subject) in catalog order; remaining slots are filled
// from templates.
func (s *Synthesizer) Generate(p Params) []Question {
	p = p.Normalize()
	out := make([]Question, 0, p.Count)

	if p.Type == TypeMCQ && s.cat != nil {
		for i, it := range s.cat.BankFor(p.Branch, p.Subject) {
			if len(out) == p.Count {
				break
			}
			out = append(out, bankQuestion(it, p, i+1))
		}
	}

	terms, concepts := s.vocabulary(p)
	for len(out) < p.Count {
		out = append(out, s.item(p, terms, concepts, len(out)+1))
	}
	return out
}

// Item returns one synthesized item for slot (1-based). It never consults
// the knowledge bank and satisfies PadFunc.
func (s *Synthesizer) Item(p Params, slot int) Question {
	terms, concepts := s.vocabulary(p)
	return s.item(p, terms, concepts, slot)
}

func (s *Synthesizer) vocabulary(p Params) (terms, concepts []string) {
	if s.cat == nil {
		return nil, nil
	}
	return ExtractKeyTerms(s.cat, p.Content), s.cat.ConceptsFor(p.Subject)
}

func (s *Synthesizer) item(p Params, terms, concepts []string, slot int) (q Question) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("synthesize item panicked",
				zap.Int("slot", slot),
				zap.Any("panic", r),
			)
			q = s.lastResort(p, slot)
		}
	}()

	q, err := s.synthesize(p, terms, concepts, slot)
	if err != nil {
		s.logger.Warn("synthesize item",
			zap.Int("slot", slot),
			zap.String("branch", p.Branch),
			zap.String("type", string(p.Type)),
			zap.Error(err),
		)
		return s.lastResort(p, slot)
	}
	return q
}

var errNoCatalog = errors.New("no catalog")

func (s *Synthesizer) synthesize(p Params, terms, concepts []string, slot int) (Question, error) {
	if s.cat == nil {
		return Question{}, errNoCatalog
	}
	templates := s.cat.TemplatesFor(p.Branch, string(p.Type))
	if len(templates) == 0 {
		return Question{}, fmt.Errorf("no %s templates for branch %q", p.Type, p.Branch)
	}

	termFallback, conceptFallback := placeholderTerm, placeholderConcept
	if p.Type == TypeEssay {
		termFallback, conceptFallback = placeholderEssayTerm, placeholderEssayConcept
	}

	s.mu.Lock()
	term := s.choose(terms, termFallback)
	concept := s.choose(concepts, conceptFallback)
	tmpl := s.choose(templates, "")
	s.mu.Unlock()

	fill := strings.NewReplacer("{term}", term, "{concept}", concept, "{subject}", p.Subject).Replace

	q := Question{
		Question:   fill(tmpl),
		Type:       p.Type,
		Difficulty: p.Difficulty,
		Subject:    p.Subject,
		Branch:     p.Branch,
		Semester:   p.Semester,
		Topic:      concept,
	}

	switch p.Type {
	case TypeMCQ:
		flavor := s.cat.FlavorFor(p.Branch)
		options := append([]string{flavor.Correct}, flavor.Incorrect...)
		options = lo.Map(options, func(o string, _ int) string { return fill(o) })
		if len(options) != mcqOptionCount || len(lo.Uniq(options)) != mcqOptionCount {
			return Question{}, fmt.Errorf("option flavor for %q does not give 4 distinct options", p.Branch)
		}
		q.ID = fmt.Sprintf("fallback_q_%d", slot)
		q.Options = options
		q.CorrectAnswer = IndexAnswer(0)
		q.Explanation = fmt.Sprintf("This is the correct definition/application of %s in %s.", term, p.Subject)
		q.BloomLevel = BloomUnderstand
		q.EstimatedTime = 2
	case TypeShortAnswer:
		q.ID = fmt.Sprintf("fallback_sa_%d", slot)
		q.Keywords = []string{term, concept, strings.ToLower(p.Subject)}
		q.ExpectedAnswer = fmt.Sprintf("A comprehensive explanation covering %s and its applications in %s.", concept, p.Subject)
		q.BloomLevel = BloomUnderstand
		q.EstimatedTime = 5
	case TypeEssay:
		q.ID = fmt.Sprintf("fallback_essay_%d", slot)
		q.GradingRubric = []string{
			"Clear understanding of " + concept,
			"Detailed examples from " + p.Subject,
			"Logical organization and flow",
			"Critical analysis and evaluation",
		}
		q.BloomLevel = BloomAnalyze
		q.EstimatedTime = 15
	default:
		return Question{}, fmt.Errorf("unknown question type %q", p.Type)
	}
	return q, nil
}

// choose picks one element uniformly, or def for an empty list. Callers
// hold s.mu.
func (s *Synthesizer) choose(list []string, def string) string {
	if len(list) == 0 {
		return def
	}
	return list[s.rng.IntN(len(list))]
}

// lastResort builds the minimal MCQ for the branch. It does not fail.
func (s *Synthesizer) lastResort(p Params, slot int) Question {
	it := builtinLastResort
	if s.cat != nil {
		if c := s.cat.LastResortFor(p.Branch); len(c.Options) == mcqOptionCount {
			it = c
		}
	}
	q := itemQuestion(it, p)
	q.ID = fmt.Sprintf("basic_fallback_%d", slot)
	q.Question = fmt.Sprintf("Question %d: %s", slot, it.Question)
	return q
}

func bankQuestion(it catalog.Item, p Params, n int) Question {
	q := itemQuestion(it, p)
	branch := strings.ToLower(p.Branch)
	if branch == "" {
		branch = "general"
	}
	q.ID = fmt.Sprintf("%s_bank_%d", branch, n)
	return q
}

func itemQuestion(it catalog.Item, p Params) Question {
	bloom := BloomLevel(it.BloomLevel)
	if !bloom.Valid() {
		bloom = BloomRemember
	}
	topic := it.Topic
	if topic == "" {
		topic = p.Subject
	}
	return Question{
		Question:      it.Question,
		Type:          TypeMCQ,
		Difficulty:    p.Difficulty,
		Subject:       p.Subject,
		Branch:        p.Branch,
		Semester:      p.Semester,
		Options:       append([]string(nil), it.Options...),
		CorrectAnswer: IndexAnswer(it.Correct),
		Explanation:   it.Explanation,
		Topic:         topic,
		BloomLevel:    bloom,
		EstimatedTime: 2,
	}
}
