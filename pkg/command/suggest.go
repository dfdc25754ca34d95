package command

import (
	"go.minekube.com/brigodier"

	"go.minekube.com/perms/pkg/command/suggest"
)

// SuggestFunc is a convenient function type implementing
// the brigodier.SuggestionProvider interface.
type SuggestFunc func(
	c *Context,
	b *brigodier.SuggestionsBuilder) *brigodier.Suggestions

var _ brigodier.SuggestionProvider = (*SuggestFunc)(nil)

func (s SuggestFunc) Suggestions(
	c *brigodier.CommandContext,
	b *brigodier.SuggestionsBuilder) *brigodier.Suggestions {
	return s(createContext(c), b)
}

// SuggestSimilar suggests the candidates most similar to the current input.
func SuggestSimilar(candidates func(c *Context) []string) SuggestFunc {
	return func(c *Context, b *brigodier.SuggestionsBuilder) *brigodier.Suggestions {
		return suggest.Similar(b, candidates(c)).Build()
	}
}
