// Package generate defines the reply generation capability consumed by the
// engine and builds the conversation it is given.
package generate

import (
	"context"
	"fmt"

	apperrors "github.com/louisbranch/feedwatch/internal/platform/errors"
	"github.com/louisbranch/feedwatch/internal/services/agent/entry"
)

// Role tags a conversation turn.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Turn is one role-tagged message in a conversation.
type Turn struct {
	Role Role
	Text string
}

// Result is the output of a generation call.
type Result struct {
	Text string
}

// Generator maps a conversation to reply text.
type Generator interface {
	Generate(ctx context.Context, turns []Turn) (Result, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, turns []Turn) (Result, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, turns []Turn) (Result, error) {
	return f(ctx, turns)
}

// ProviderError wraps a provider failure with the generation error code.
func ProviderError(provider string, cause error) error {
	return apperrors.WrapWithMetadata(apperrors.CodeGenerate, provider+" generation", map[string]string{"provider": provider}, cause)
}

// Conversation builds the turns for replying to spotlight: the directive,
// one user turn per known entry, then the spotlighted entry.
func Conversation(directive string, known []entry.Entry, spotlight entry.Entry) []Turn {
	turns := make([]Turn, 0, len(known)+2)
	turns = append(turns, Turn{Role: RoleSystem, Text: directive})
	for _, item := range known {
		turns = append(turns, Turn{Role: RoleUser, Text: fmt.Sprintf("%s: %s", item.Author, item.Content)})
	}
	turns = append(turns, Turn{Role: RoleUser, Text: fmt.Sprintf("New message from %s: %s", spotlight.Author, spotlight.Content)})
	return turns
}

// SplitSystem separates system turns, joined with blank lines, from the
// remaining turns. Providers with a dedicated system field use it.
func SplitSystem(turns []Turn) (string, []Turn) {
	var system string
	rest := make([]Turn, 0, len(turns))
	for _, turn := range turns {
		if turn.Role != RoleSystem {
			rest = append(rest, turn)
			continue
		}
		if system != "" {
			system += "\n\n"
		}
		system += turn.Text
	}
	return system, rest
}
