// Package rules holds the business lookup tables the assistant dispatches
// on: token patterns for part and model numbers, the symptom keyword map,
// brand prefix families, display strip lists, and the retrieval and
// generation limits. Keeping them here, out of prompt text and node code,
// makes them testable and overridable without touching the pipeline.
package rules

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// KeywordRule maps symptom substrings to catalog search terms. A rule fires
// when every word in Match appears in the lowercased symptom.
type KeywordRule struct {
	Match []string `yaml:"match"`
	Terms []string `yaml:"terms"`
	// Appliance restricts the rule to one appliance type when set.
	Appliance string `yaml:"appliance,omitempty"`
}

// RetrievalLimits bounds every retrieval path.
type RetrievalLimits struct {
	DiagnosisTerms    int `yaml:"diagnosis_terms"`
	DiagnosisPerTerm  int `yaml:"diagnosis_per_term"`
	DiagnosisCap      int `yaml:"diagnosis_cap"`
	SearchLimit       int `yaml:"search_limit"`
	CompatSearchLimit int `yaml:"compat_search_limit"`
	RankerInput       int `yaml:"ranker_input"`
	RankerOutput      int `yaml:"ranker_output"`
	ContextDocs       int `yaml:"context_docs"`
}

// GenerationParams are the sampling settings for one model call site.
type GenerationParams struct {
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// Generation groups the per-call-site sampling settings.
type Generation struct {
	Classify GenerationParams `yaml:"classify"`
	Rank     GenerationParams `yaml:"rank"`
	Reply    GenerationParams `yaml:"reply"`
}

// Rules is the full rule set consulted by the retriever, renderer, and
// compatibility sub-flow.
type Rules struct {
	// PartNumberPattern matches part numbers (PS/AP + 7-8 digits, W + 8).
	PartNumberPattern string `yaml:"part_number_pattern"`
	// CodeScanPattern matches any product-code-shaped token.
	CodeScanPattern string `yaml:"code_scan_pattern"`
	// PartPrefixes mark a scanned code as a part number, not a model.
	PartPrefixes []string `yaml:"part_prefixes"`

	// BrandPrefixes maps a lowercased brand to the model-number prefixes of
	// its appliance families.
	BrandPrefixes map[string][]string `yaml:"brand_prefixes"`

	// DiagnosisKeywords derive search terms from a symptom, in order; every
	// matching rule contributes its terms.
	DiagnosisKeywords []KeywordRule `yaml:"diagnosis_keywords"`
	// ApplianceDefaults supply terms when no keyword rule fired.
	ApplianceDefaults map[string][]string `yaml:"appliance_defaults"`

	// StripBrands and StripAppliances are removed from product names for
	// display only, never for matching.
	StripBrands     []string `yaml:"strip_brands"`
	StripAppliances []string `yaml:"strip_appliances"`

	// UniversalNameHint plus either a brand-prefix match or a replace-list
	// longer than UniversalReplaceThreshold marks a part as universal.
	UniversalNameHint         string `yaml:"universal_name_hint"`
	UniversalReplaceThreshold int    `yaml:"universal_replace_threshold"`

	Retrieval  RetrievalLimits `yaml:"retrieval"`
	Generation Generation      `yaml:"generation"`

	partNumberRe *regexp.Regexp
	codeScanRe   *regexp.Regexp
}

// Default returns the canonical rule set.
func Default() *Rules {
	r := &Rules{
		PartNumberPattern: `\b(PS\d{7,8}|AP\d{7,8}|W\d{8})\b`,
		CodeScanPattern:   `\b([A-Z0-9]{6,15})\b`,
		PartPrefixes:      []string{"PS", "W1", "AP"},
		BrandPrefixes: map[string][]string{
			"whirlpool": {"W", "WR", "WD", "WG"},
			"samsung":   {"S", "RF", "RS"},
			"lg":        {"L", "LF", "LM"},
			"ge":        {"G", "GE", "GD"},
		},
		DiagnosisKeywords: []KeywordRule{
			{Match: []string{"ice"}, Terms: []string{"ice maker", "ice maker assembly"}},
			{Match: []string{"water", "leak"}, Terms: []string{"water valve", "water line"}},
			{Match: []string{"not making ice"}, Terms: []string{"ice maker assembly", "ice maker"}},
			{Match: []string{"stopped making ice"}, Terms: []string{"ice maker assembly", "ice maker"}},
			{Match: []string{"not working"}, Appliance: "refrigerator", Terms: []string{"ice maker"}},
			{Match: []string{"not working"}, Appliance: "dishwasher", Terms: []string{"control board"}},
			{Match: []string{"not cleaning"}, Terms: []string{"spray arm", "wash pump"}},
			{Match: []string{"not draining"}, Terms: []string{"drain pump"}},
			{Match: []string{"leak"}, Terms: []string{"gasket", "seal", "valve"}},
			{Match: []string{"nois"}, Terms: []string{"motor", "fan"}},
		},
		ApplianceDefaults: map[string][]string{
			"refrigerator": {"ice maker", "water filter", "thermostat"},
			"dishwasher":   {"spray arm", "pump", "valve"},
		},
		StripBrands: []string{
			"Admiral", "Whirlpool", "Samsung", "LG", "GE", "Bosch",
			"Kenmore", "Frigidaire", "Maytag", "KitchenAid", "Amana",
			"Electrolux", "Thermador", "Jenn-Air", "Roper", "Estate",
		},
		StripAppliances: []string{
			"Refrigerator", "Dishwasher", "Washer", "Dryer",
			"Oven", "Range", "Microwave", "Freezer",
		},
		UniversalNameHint:         "filter",
		UniversalReplaceThreshold: 5,
		Retrieval: RetrievalLimits{
			DiagnosisTerms:    3,
			DiagnosisPerTerm:  5,
			DiagnosisCap:      10,
			SearchLimit:       20,
			CompatSearchLimit: 5,
			RankerInput:       10,
			RankerOutput:      3,
			ContextDocs:       5,
		},
		Generation: Generation{
			Classify: GenerationParams{Temperature: 0.1, MaxTokens: 300},
			Rank:     GenerationParams{Temperature: 0.3, MaxTokens: 500},
			Reply:    GenerationParams{Temperature: 0.7, MaxTokens: 300},
		},
	}
	r.mustCompile()
	return r
}

// Load returns the defaults overlaid with the YAML file at path. A missing
// path (or empty string) is not an error; a malformed file is.
func Load(path string) (*Rules, error) {
	r := Default()
	if path == "" {
		return r, nil
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	if err := yaml.Unmarshal(raw, r); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if err := r.compile(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Rules) compile() error {
	var err error
	r.partNumberRe, err = regexp.Compile(`(?i)` + r.PartNumberPattern)
	if err != nil {
		return fmt.Errorf("part number pattern: %w", err)
	}
	r.codeScanRe, err = regexp.Compile(`(?i)` + r.CodeScanPattern)
	if err != nil {
		return fmt.Errorf("code scan pattern: %w", err)
	}
	return nil
}

func (r *Rules) mustCompile() {
	if err := r.compile(); err != nil {
		panic(err)
	}
}

// PartNumbersIn returns every part-number token in text, uppercased, in
// order of appearance.
func (r *Rules) PartNumbersIn(text string) []string {
	matches := r.partNumberRe.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.ToUpper(m))
	}
	return out
}

// CodesIn returns every product-code-shaped token in text, uppercased.
func (r *Rules) CodesIn(text string) []string {
	matches := r.codeScanRe.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.ToUpper(m))
	}
	return out
}

// LooksLikePartNumber reports whether an uppercased code carries one of the
// part-number prefixes.
func (r *Rules) LooksLikePartNumber(code string) bool {
	for _, prefix := range r.PartPrefixes {
		if strings.HasPrefix(code, prefix) {
			return true
		}
	}
	return false
}

// SearchTermsFor derives up to Retrieval.DiagnosisTerms catalog search terms
// from a symptom. Every matching keyword rule contributes; with no symptom
// or no match, the appliance defaults apply, then the raw query.
func (r *Rules) SearchTermsFor(symptom, applianceType, query string) []string {
	var terms []string
	if symptom != "" {
		lowered := strings.ToLower(symptom)
		for _, rule := range r.DiagnosisKeywords {
			if rule.Appliance != "" && rule.Appliance != applianceType {
				continue
			}
			if matchesAll(lowered, rule.Match) {
				terms = append(terms, rule.Terms...)
			}
		}
	}
	if len(terms) == 0 {
		if defaults, ok := r.ApplianceDefaults[applianceType]; ok {
			terms = append(terms, defaults...)
		} else if query != "" {
			terms = []string{query}
		}
	}
	if max := r.Retrieval.DiagnosisTerms; len(terms) > max {
		terms = terms[:max]
	}
	return terms
}

func matchesAll(text string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}

// CleanProductName strips brand and appliance words from a product name for
// display, collapsing the leftover whitespace. Lossy on purpose; never use
// the result for matching.
func (r *Rules) CleanProductName(name string) string {
	cleaned := name
	for _, brand := range r.StripBrands {
		cleaned = removeWordPrefix(cleaned, brand)
	}
	for _, appliance := range r.StripAppliances {
		cleaned = removeWordPrefix(cleaned, appliance)
	}
	return strings.Join(strings.Fields(cleaned), " ")
}

// removeWordPrefix deletes case-insensitive occurrences of word followed by
// whitespace, anywhere in s.
func removeWordPrefix(s, word string) string {
	lowered := strings.ToLower(s)
	target := strings.ToLower(word)
	var b strings.Builder
	i := 0
	for i < len(s) {
		if strings.HasPrefix(lowered[i:], target) && boundaryBefore(s, i) {
			j := i + len(target)
			if j < len(s) && (s[j] == ' ' || s[j] == '\t') {
				for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
					j++
				}
				i = j
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	prev := s[i-1]
	return !(prev >= 'a' && prev <= 'z' || prev >= 'A' && prev <= 'Z' || prev >= '0' && prev <= '9')
}

// IsUniversalPart applies the universal-part heuristic: the name carries the
// hint word and either the model prefix belongs to the part's brand family
// or the replace list is long enough to indicate broad compatibility.
func (r *Rules) IsUniversalPart(name, brand, modelNumber string, replaceParts []string) bool {
	if !strings.Contains(strings.ToLower(name), r.UniversalNameHint) {
		return false
	}
	model := strings.ToUpper(modelNumber)
	if prefixes, ok := r.BrandPrefixes[strings.ToLower(brand)]; ok {
		for _, prefix := range prefixes {
			if strings.HasPrefix(model, prefix) {
				return true
			}
		}
	}
	return len(replaceParts) > r.UniversalReplaceThreshold
}
