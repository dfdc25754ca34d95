// Package suggest ranks candidates by levenshtein similarity to
// what was typed so far, for tab completion and "did you mean" hints.
package suggest

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
	"go.minekube.com/brigodier"
)

const DefaultMinimumSimilarityScore = 0.2

// Similar calls SimilarScore with DefaultMinimumSimilarityScore.
func Similar(builder *brigodier.SuggestionsBuilder, candidates []string) *brigodier.SuggestionsBuilder {
	return SimilarScore(builder, candidates, DefaultMinimumSimilarityScore)
}

// SimilarScore suggests the candidates with a prefix Score of at least
// minScore for the last word of the builder's input, best first.
func SimilarScore(builder *brigodier.SuggestionsBuilder, candidates []string, minScore float64) *brigodier.SuggestionsBuilder {
	input := builder.Input
	if input == "" {
		return builder
	}
	given := input[strings.LastIndex(input, " ")+1:]
	for _, s := range rank(given, candidates, minScore, Score) {
		builder.Suggest(s.text)
	}
	return builder
}

// Closest returns up to max candidates most similar to the whole of given,
// best first. Candidates below DefaultMinimumSimilarityScore are dropped.
// It is used to hint at the command meant when an unknown one was typed.
func Closest(given string, candidates []string, max int) []string {
	given = strings.ToLower(given)
	ranked := rank(given, candidates, DefaultMinimumSimilarityScore, func(a, b string) float64 {
		return levenshtein.Similarity(a, strings.ToLower(b), nil)
	})
	if max > 0 && len(ranked) > max {
		ranked = ranked[:max]
	}
	out := make([]string, len(ranked))
	for i, s := range ranked {
		out[i] = s.text
	}
	return out
}

type suggestion struct {
	text  string
	score float64
}

func rank(given string, candidates []string, minScore float64, score func(a, b string) float64) []suggestion {
	var result []suggestion
	for _, text := range candidates {
		s := score(given, text)
		if s < minScore {
			continue
		}
		result = append(result, suggestion{text: text, score: s})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].score > result[j].score
	})
	return result
}

// Score calculates the similarity score in the range of 0..1 of given and
// the same length prefix of suggestion. A score of 1 means suggestion
// starts with given.
func Score(given, suggestion string) float64 {
	i := len(given)
	if len(suggestion) < i {
		i = len(suggestion)
	}
	return levenshtein.Similarity(given, suggestion[:i], nil)
}
