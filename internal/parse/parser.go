// Package parse extracts structured features from raw product names so the
// matcher can compare catalog entries that distributors spell differently.
package parse

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Features is the structured output of parsing one product name. Malformed
// input never fails; it degrades to the zero values (PackageCount defaults
// to 1, a single unit).
type Features struct {
	BrandGuess     string   `json:"brand_guess"`
	VolumeML       *float64 `json:"volume_ml,omitempty"`
	PackageCount   int      `json:"package_count"`
	Tokens         []string `json:"tokens"`
	NormalizedName string   `json:"normalized_name"`
}

// volumePattern pairs a unit regex with its milliliter conversion factor.
// Patterns are tried in order; the first match wins.
type volumePattern struct {
	re     *regexp.Regexp
	factor float64
}

// Parser holds the compiled extraction tables. The tables are fixed at
// construction; a Parser is safe for concurrent use.
type Parser struct {
	volumes  []volumePattern
	packages []*regexp.Regexp
}

// Milliliters per unit.
const (
	mlPerLiter  = 1000.0
	mlPerOunce  = 29.5735
	mlPerGallon = 3785.41
	mlPerPint   = 473.176
	mlPerQuart  = 946.353
)

// New compiles the default volume and package-count tables.
func New() *Parser {
	num := `(\d+(?:\.\d+)?)`
	return &Parser{
		volumes: []volumePattern{
			{regexp.MustCompile(num + `\s*(?:ml|milliliters?|millilitres?)\b`), 1},
			{regexp.MustCompile(num + `\s*(?:l|liters?|litres?)\b`), mlPerLiter},
			{regexp.MustCompile(num + `\s*(?:fl\s*oz|oz|ounces?)\b`), mlPerOunce},
			{regexp.MustCompile(num + `\s*(?:gallons?|gal)\b`), mlPerGallon},
			{regexp.MustCompile(num + `\s*(?:pints?|pt)\b`), mlPerPint},
			{regexp.MustCompile(num + `\s*(?:quarts?|qt)\b`), mlPerQuart},
		},
		packages: []*regexp.Regexp{
			regexp.MustCompile(`(\d+)\s*pk\b`),
			regexp.MustCompile(`(\d+)\s*-?\s*pack\b`),
			regexp.MustCompile(`(\d+)\s*(?:bottles?|btls?)\b`),
			regexp.MustCompile(`case\s+of\s+(\d+)`),
			regexp.MustCompile(`(\d+)\s*ct\b`),
			regexp.MustCompile(`(\d+)\s*count\b`),
		},
	}
}

// foldDiacritics strips combining marks so "Café" and "Cafe" tokenize alike.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Parse extracts features from a raw product name. The matched volume and
// package substrings are consumed before tokenization so size markers do not
// pollute the word-overlap signal between otherwise identical names.
func (p *Parser) Parse(raw string) Features {
	f := Features{PackageCount: 1}

	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return f
	}
	if folded, _, err := transform.String(foldDiacritics, name); err == nil {
		name = folded
	}

	for _, vp := range p.volumes {
		if m := vp.re.FindStringSubmatchIndex(name); m != nil {
			if v, err := strconv.ParseFloat(name[m[2]:m[3]], 64); err == nil {
				ml := v * vp.factor
				f.VolumeML = &ml
				name = name[:m[0]] + " " + name[m[1]:]
			}
			break
		}
	}

	for _, re := range p.packages {
		if m := re.FindStringSubmatchIndex(name); m != nil {
			if n, err := strconv.Atoi(name[m[2]:m[3]]); err == nil && n > 0 {
				f.PackageCount = n
				name = name[:m[0]] + " " + name[m[1]:]
			}
			break
		}
	}

	f.Tokens = tokenize(name)
	f.NormalizedName = strings.Join(f.Tokens, " ")
	f.BrandGuess = brandGuess(f.Tokens)
	return f
}

var (
	apostrophes = strings.NewReplacer("'", "", "’", "")
	nonWord     = regexp.MustCompile(`[^a-z0-9]+`)
)

// tokenize collapses possessive apostrophes ("tito's" -> "titos"), strips
// the remaining non-word characters, and drops tokens of length <= 1.
func tokenize(name string) []string {
	name = nonWord.ReplaceAllString(apostrophes.Replace(name), " ")
	var tokens []string
	for _, t := range strings.Fields(name) {
		if len(t) > 1 {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// brandGuess joins the first two tokens. A deliberately crude heuristic:
// scoring treats it as a weak signal, not ground truth.
func brandGuess(tokens []string) string {
	if len(tokens) >= 2 {
		return tokens[0] + " " + tokens[1]
	}
	return strings.Join(tokens, "")
}
