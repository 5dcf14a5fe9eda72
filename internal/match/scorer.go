package match

import (
	"fmt"
	"math"

	"github.com/agnivade/levenshtein"

	"github.com/barstream/catalog-dedupe/internal/model"
	"github.com/barstream/catalog-dedupe/internal/parse"
)

// Scorer compares two raw product names and produces a composite confidence
// with per-component scores and human-readable reasoning. Score is a pure
// function of its inputs; a Scorer is safe for concurrent use.
type Scorer struct {
	parser *parse.Parser
	cfg    Config
}

// New creates a Scorer with the given parser and config.
func New(parser *parse.Parser, cfg Config) *Scorer {
	return &Scorer{parser: parser, cfg: cfg}
}

// Score computes the similarity detail for two raw product names.
//
// Composite = 0.4*brand + 0.3*volume + 0.3*tokens with the default config.
// Package count is scored for transparency but carries no weight.
func (s *Scorer) Score(nameA, nameB string) model.SimilarityDetail {
	fa := s.parser.Parse(nameA)
	fb := s.parser.Parse(nameB)

	d := model.SimilarityDetail{
		Brand:        brandSimilarity(fa.BrandGuess, fb.BrandGuess),
		Volume:       volumeSimilarity(fa.VolumeML, fb.VolumeML),
		Tokens:       tokenOverlap(fa.Tokens, fb.Tokens),
		PackageCount: packageSimilarity(fa.PackageCount, fb.PackageCount),
	}

	weightSum := WeightSum(s.cfg)
	if weightSum <= 0 {
		return d
	}
	overall := (s.cfg.BrandWeight*d.Brand + s.cfg.VolumeWeight*d.Volume + s.cfg.TokenWeight*d.Tokens) / weightSum
	d.Overall = clamp01(math.Round(overall*10000) / 10000)

	if d.Brand >= s.cfg.BrandReasonThreshold {
		d.Reasoning = append(d.Reasoning, "similar brand names")
	}
	if fa.VolumeML != nil && fb.VolumeML != nil && *fa.VolumeML == *fb.VolumeML {
		d.Reasoning = append(d.Reasoning, "same volume")
	}
	if d.Tokens >= s.cfg.OverlapReasonThreshold {
		d.Reasoning = append(d.Reasoning, fmt.Sprintf("%d%% word overlap", int(math.Round(d.Tokens*100))))
	}

	return d
}

// brandSimilarity is 1 - editDistance/maxLen over the two brand guesses.
// Two empty guesses are identical (similarity 1).
func brandSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return clamp01(1 - float64(dist)/float64(maxLen))
}

// volumeSimilarity is 1.0 when the normalized volumes agree (including both
// absent), 0.5 otherwise. A true numeric mismatch scores the same neutral
// 0.5 as partial information rather than a penalty.
func volumeSimilarity(a, b *float64) float64 {
	switch {
	case a == nil && b == nil:
		return 1.0
	case a == nil || b == nil:
		return 0.5
	case *a == *b:
		return 1.0
	default:
		return 0.5
	}
}

// tokenOverlap is the shared-token fraction of the smaller token set; 0 when
// either set is empty.
func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	var shared int
	seen := make(map[string]struct{}, len(b))
	for _, t := range b {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := set[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(min(len(set), len(seen)))
}

// packageSimilarity is binary: counts either match or they don't.
func packageSimilarity(a, b int) float64 {
	if a == b {
		return 1.0
	}
	return 0
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
