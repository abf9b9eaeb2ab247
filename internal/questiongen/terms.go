package questiongen

import (
	"regexp"
	"strings"

	"github.com/samber/lo"

	"github.com/adaptilearn/quizsynth/internal/catalog"
)

// maxKeyTerms caps the terms kept from one piece of content.
const maxKeyTerms = 20

// minKeyTermLen is the length a word must exceed to count as a key term
// when it is not on the technical vocabulary list.
const minKeyTermLen = 6

var termPattern = regexp.MustCompile(`\b[A-Z][a-z]+\b|\b[a-z]{4,}\b`)

// ExtractKeyTerms returns up to 20 distinct key terms from content, in
// order of first appearance. A word counts when its lowercase form is on
// the catalog's technical vocabulary list or it is longer than 6
// characters.
func ExtractKeyTerms(cat *catalog.Catalog, content string) []string {
	words := termPattern.FindAllString(content, -1)
	terms := lo.Uniq(lo.Filter(words, func(w string, _ int) bool {
		return cat.IsTechTerm(strings.ToLower(w)) || len(w) > minKeyTermLen
	}))
	if len(terms) > maxKeyTerms {
		terms = terms[:maxKeyTerms]
	}
	return terms
}

// ExtractConcepts returns the concept list for subject. Content is not
// consulted; concepts come from the catalog alone.
func ExtractConcepts(cat *catalog.Catalog, subject string) []string {
	return cat.ConceptsFor(subject)
}
