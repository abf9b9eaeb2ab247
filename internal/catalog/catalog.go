// Package catalog holds the static tables behind question synthesis: branch
// descriptions, subject keyword hints, technical vocabulary, subject
// concepts, the hand-authored knowledge bank and the template sets. The
// tables ship as embedded YAML, are loaded once, and are read-only
// afterwards.
package catalog

import (
	"embed"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// GenericKey names the fallback entry in the template, option-flavor and
// last-resort tables.
const GenericKey = "generic"

// DefaultConceptsKey names the fallback entry in the concepts table.
const DefaultConceptsKey = "Default"

// generalBranch holds bank items that apply to any branch.
const generalBranch = "General"

// Item is a fully formed multiple-choice item.
type Item struct {
	Question    string   `yaml:"question"`
	Options     []string `yaml:"options"`
	Correct     int      `yaml:"correct"`
	Explanation string   `yaml:"explanation"`
	Topic       string   `yaml:"topic"`
	BloomLevel  string   `yaml:"bloom_level"`
}

// TemplateSet lists question templates by question type.
type TemplateSet struct {
	MCQ         []string `yaml:"mcq"`
	ShortAnswer []string `yaml:"short_answer"`
	Essay       []string `yaml:"essay"`
}

// ForType returns the templates for a question type ("mcq",
// "short_answer" or "essay").
func (s TemplateSet) ForType(questionType string) []string {
	switch questionType {
	case "mcq":
		return s.MCQ
	case "short_answer":
		return s.ShortAnswer
	case "essay":
		return s.Essay
	}
	return nil
}

// OptionFlavor is the option wording for template-built MCQs.
type OptionFlavor struct {
	Correct   string   `yaml:"correct"`
	Incorrect []string `yaml:"incorrect"`
}

// Catalog is the full set of tables. Use the lookup methods rather than the
// maps directly; they are case-insensitive and apply the fallbacks.
type Catalog struct {
	Branches        map[string]string            `yaml:"branches"`
	SubjectKeywords map[string]string            `yaml:"subject_keywords"`
	TechTerms       []string                     `yaml:"tech_terms"`
	Concepts        map[string][]string          `yaml:"concepts"`
	Bank            map[string]map[string][]Item `yaml:"bank"`
	Templates       map[string]TemplateSet       `yaml:"templates"`
	OptionFlavors   map[string]OptionFlavor      `yaml:"option_flavors"`
	LastResort      map[string]Item              `yaml:"last_resort"`

	branches   map[string]string
	keywords   map[string]string
	techTerms  map[string]struct{}
	concepts   map[string][]string
	bank       map[string]map[string][]Item
	templates  map[string]TemplateSet
	flavors    map[string]OptionFlavor
	lastResort map[string]Item
}

var loadDefault = sync.OnceValues(func() (*Catalog, error) {
	return load("")
})

// Default returns the embedded catalog, parsed on first use.
func Default() (*Catalog, error) {
	return loadDefault()
}

// Load returns the embedded catalog with the tables in overridePath merged
// on top. Entries in the override replace embedded entries with the same
// key. An empty path returns the embedded catalog.
func Load(overridePath string) (*Catalog, error) {
	if overridePath == "" {
		return Default()
	}
	return load(overridePath)
}

func load(overridePath string) (*Catalog, error) {
	c := &Catalog{}

	entries, err := dataFS.ReadDir("data")
	if err != nil {
		return nil, fmt.Errorf("read catalog data: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := dataFS.ReadFile(path.Join("data", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if err := c.mergeYAML(data); err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry.Name(), err)
		}
	}

	if overridePath != "" {
		data, err := os.ReadFile(overridePath)
		if err != nil {
			return nil, fmt.Errorf("read catalog override: %w", err)
		}
		if err := c.mergeYAML(data); err != nil {
			return nil, fmt.Errorf("parse catalog override %s: %w", overridePath, err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.index()
	return c, nil
}

// Parse builds a standalone catalog from a single YAML document. No
// embedded data is included.
func Parse(data []byte) (*Catalog, error) {
	c := &Catalog{}
	if err := c.mergeYAML(data); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.index()
	return c, nil
}

func (c *Catalog) mergeYAML(data []byte) error {
	var part Catalog
	if err := yaml.Unmarshal(data, &part); err != nil {
		return err
	}

	c.Branches = mergeMap(c.Branches, part.Branches)
	c.SubjectKeywords = mergeMap(c.SubjectKeywords, part.SubjectKeywords)
	c.Concepts = mergeMap(c.Concepts, part.Concepts)
	c.Templates = mergeMap(c.Templates, part.Templates)
	c.OptionFlavors = mergeMap(c.OptionFlavors, part.OptionFlavors)
	c.LastResort = mergeMap(c.LastResort, part.LastResort)
	c.TechTerms = append(c.TechTerms, part.TechTerms...)

	for branch, subjects := range part.Bank {
		if c.Bank == nil {
			c.Bank = make(map[string]map[string][]Item)
		}
		c.Bank[branch] = mergeMap(c.Bank[branch], subjects)
	}
	return nil
}

func mergeMap[V any](dst, src map[string]V) map[string]V {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]V, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Validate checks the invariants synthesis relies on: every bank and
// last-resort item is a well-formed MCQ, the generic template set covers
// every question type, and generic option flavor and last-resort entries
// exist.
func (c *Catalog) Validate() error {
	for branch, subjects := range c.Bank {
		for subject, items := range subjects {
			for i, it := range items {
				if err := it.validate(); err != nil {
					return fmt.Errorf("bank[%s][%s][%d]: %w", branch, subject, i, err)
				}
			}
		}
	}
	for branch, it := range c.LastResort {
		if err := it.validate(); err != nil {
			return fmt.Errorf("last_resort[%s]: %w", branch, err)
		}
	}
	if _, ok := c.LastResort[GenericKey]; !ok {
		return fmt.Errorf("last_resort: missing %q entry", GenericKey)
	}

	generic, ok := c.Templates[GenericKey]
	if !ok {
		return fmt.Errorf("templates: missing %q entry", GenericKey)
	}
	for _, t := range []string{"mcq", "short_answer", "essay"} {
		if len(generic.ForType(t)) == 0 {
			return fmt.Errorf("templates[%s]: no %s templates", GenericKey, t)
		}
	}

	for branch, f := range c.OptionFlavors {
		if f.Correct == "" || len(f.Incorrect) != 3 {
			return fmt.Errorf("option_flavors[%s]: need one correct and three incorrect options", branch)
		}
	}
	if _, ok := c.OptionFlavors[GenericKey]; !ok {
		return fmt.Errorf("option_flavors: missing %q entry", GenericKey)
	}
	if len(c.Concepts[DefaultConceptsKey]) == 0 {
		return fmt.Errorf("concepts: missing %q entry", DefaultConceptsKey)
	}
	return nil
}

func (it Item) validate() error {
	if strings.TrimSpace(it.Question) == "" {
		return fmt.Errorf("empty question")
	}
	if len(it.Options) != 4 {
		return fmt.Errorf("need exactly 4 options, got %d", len(it.Options))
	}
	seen := make(map[string]struct{}, 4)
	for _, o := range it.Options {
		k := strings.TrimSpace(o)
		if k == "" {
			return fmt.Errorf("empty option")
		}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("duplicate option %q", k)
		}
		seen[k] = struct{}{}
	}
	if it.Correct < 0 || it.Correct >= len(it.Options) {
		return fmt.Errorf("correct index %d out of range", it.Correct)
	}
	return nil
}

func key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (c *Catalog) index() {
	c.branches = rekey(c.Branches)
	c.keywords = rekey(c.SubjectKeywords)
	c.concepts = rekey(c.Concepts)
	c.templates = rekey(c.Templates)
	c.flavors = rekey(c.OptionFlavors)
	c.lastResort = rekey(c.LastResort)

	c.techTerms = make(map[string]struct{}, len(c.TechTerms))
	for _, t := range c.TechTerms {
		c.techTerms[key(t)] = struct{}{}
	}

	c.bank = make(map[string]map[string][]Item, len(c.Bank))
	for branch, subjects := range c.Bank {
		c.bank[key(branch)] = rekey(subjects)
	}
}

func rekey[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[key(k)] = v
	}
	return out
}

// BranchDescription returns the description for branch, or
// "<branch> Engineering" when the branch is not listed.
func (c *Catalog) BranchDescription(branch string) string {
	if d, ok := c.branches[key(branch)]; ok {
		return d
	}
	return strings.TrimSpace(branch) + " Engineering"
}

// SubjectHint returns the keyword hint for subject, or
// "<subject> concepts and principles" when the subject is not listed.
func (c *Catalog) SubjectHint(subject string) string {
	if k, ok := c.keywords[key(subject)]; ok {
		return k
	}
	return strings.TrimSpace(subject) + " concepts and principles"
}

// IsTechTerm reports whether term is on the technical vocabulary list.
func (c *Catalog) IsTechTerm(term string) bool {
	_, ok := c.techTerms[key(term)]
	return ok
}

// ConceptsFor returns the concept list for subject, or the default list.
func (c *Catalog) ConceptsFor(subject string) []string {
	if cs, ok := c.concepts[key(subject)]; ok && len(cs) > 0 {
		return cs
	}
	return c.concepts[key(DefaultConceptsKey)]
}

// BankFor returns the knowledge-bank items for (branch, subject), falling
// back to the branch-independent "General" entries for the subject. The
// returned slice must not be modified.
func (c *Catalog) BankFor(branch, subject string) []Item {
	if items := c.bank[key(branch)][key(subject)]; len(items) > 0 {
		return items
	}
	return c.bank[key(generalBranch)][key(subject)]
}

// TemplatesFor returns the templates for branch and question type, falling
// back to the generic set.
func (c *Catalog) TemplatesFor(branch, questionType string) []string {
	if set, ok := c.templates[key(branch)]; ok {
		if ts := set.ForType(questionType); len(ts) > 0 {
			return ts
		}
	}
	return c.templates[GenericKey].ForType(questionType)
}

// FlavorFor returns the MCQ option wording for branch, falling back to
// the generic wording.
func (c *Catalog) FlavorFor(branch string) OptionFlavor {
	if f, ok := c.flavors[key(branch)]; ok {
		return f
	}
	return c.flavors[GenericKey]
}

// LastResortFor returns the minimal item for branch, falling back to the
// generic item.
func (c *Catalog) LastResortFor(branch string) Item {
	if it, ok := c.lastResort[key(branch)]; ok {
		return it
	}
	return c.lastResort[GenericKey]
}

// BankSummary lists every (branch, subject) pair in the bank with its item
// count, sorted by branch then subject.
func (c *Catalog) BankSummary() []BankEntry {
	var out []BankEntry
	for branch, subjects := range c.Bank {
		for subject, items := range subjects {
			out = append(out, BankEntry{Branch: branch, Subject: subject, Items: len(items)})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Branch != out[j].Branch {
			return out[i].Branch < out[j].Branch
		}
		return out[i].Subject < out[j].Subject
	})
	return out
}

// BankEntry is one row of BankSummary.
type BankEntry struct {
	Branch  string
	Subject string
	Items   int
}
